package fractal

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"out.png", FormatPNG, false},
		{"OUT.JPG", FormatJPEG, false},
		{"a/b.jpeg", FormatJPEG, false},
		{"x.bmp", FormatBMP, false},
		{"x.tif", FormatTIFF, false},
		{"x.tiff", FormatTIFF, false},
		{"x.gif", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatFromPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("error = %v, want %v", err, ErrUnsupportedFormat)
			}
			if got != tt.want {
				t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func testImage() *image.RGBA {
	f, _ := NewFrame(Size{Width: 8, Height: 4}, 20)
	counts := f.Counts()
	for i := range counts {
		counts[i] = uint16(i % 21)
	}
	return f.Image(nil)
}

func decodeRegistered(r *bytes.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}

func TestEncodeImage_Decodable(t *testing.T) {
	img := testImage()

	tests := []struct {
		format Format
		decode func(*bytes.Reader) (image.Image, error)
	}{
		{FormatPNG, decodeRegistered},
		{FormatJPEG, decodeRegistered},
		{FormatBMP, func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) }},
		{FormatTIFF, func(r *bytes.Reader) (image.Image, error) { return tiff.Decode(r) }},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := EncodeImage(&buf, img, tt.format); err != nil {
				t.Fatalf("EncodeImage() error = %v", err)
			}
			got, err := tt.decode(bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatalf("decode error = %v", err)
			}
			if got.Bounds() != img.Bounds() {
				t.Errorf("Bounds() = %v, want %v", got.Bounds(), img.Bounds())
			}
		})
	}
}

func TestEncodeImage_Unsupported(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeImage(&buf, testImage(), Format("webp")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("EncodeImage() error = %v, want %v", err, ErrUnsupportedFormat)
	}
}

func TestSaveImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	if err := SaveImage(path, testImage()); err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("saved file is empty")
	}

	if err := SaveImage(filepath.Join(t.TempDir(), "frame.gif"), testImage()); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("SaveImage(.gif) error = %v, want %v", err, ErrUnsupportedFormat)
	}
}
