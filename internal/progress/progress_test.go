package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 ms"},
		{999 * time.Microsecond, "0 ms"},
		{15 * time.Millisecond, "15 ms"},
		{2*time.Second + 5*time.Millisecond, "2 s 5 ms"},
		{3 * time.Second, "3 s"},
		{61*time.Second + 250*time.Millisecond, "1 min 1 s 250 ms"},
		{2 * time.Minute, "2 min"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatDuration(tt.in); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFrameBytes(t *testing.T) {
	if got := FrameBytes(1250, 1000); got != 5_000_000 {
		t.Errorf("FrameBytes(1250, 1000) = %d, want 5000000", got)
	}
	if got := FrameBytes(0, 10); got != 0 {
		t.Errorf("FrameBytes(0, 10) = %d, want 0", got)
	}
}

func TestFormatBytes(t *testing.T) {
	got := FormatBytes(language.English, 5_000_000)
	if want := "5 MB (4.768 MiB)"; got != want {
		t.Errorf("FormatBytes() = %q, want %q", got, want)
	}

	got = FormatBytes(language.English, 2_500_000_000)
	if !strings.HasPrefix(got, "2,500 MB") {
		t.Errorf("FormatBytes() = %q, want grouped thousands", got)
	}
}

func TestBar_Line(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf, 10, language.English)

	b.Update(0.5)
	if got, want := b.line(), "[=====     ] 50%"; got != want {
		t.Errorf("line() = %q, want %q", got, want)
	}

	b.Update(2)
	if got, want := b.line(), "[==========] 100%"; got != want {
		t.Errorf("line() after clamp = %q, want %q", got, want)
	}
}

func TestBar_FinishEndsLine(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf, 0, language.English)

	b.Update(0.25)
	if err := b.Finish(); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	out := buf.String()
	if !strings.HasSuffix(out, "100%\n") {
		t.Errorf("output = %q, want suffix %q", out, "100%\n")
	}
	if n := strings.Count(out, "\r"); n != 2 {
		t.Errorf("redraws = %d, want 2", n)
	}
	last := out[strings.LastIndex(out, "\r")+1:]
	if got := strings.Count(last, "="); got != DefaultCells {
		t.Errorf("filled cells = %d, want %d", got, DefaultCells)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestBar_WriteError(t *testing.T) {
	b := NewBar(failingWriter{}, 5, language.English)
	b.Update(0.1)
	if err := b.Finish(); err == nil {
		t.Error("Finish() = nil, want the write error")
	}
}
