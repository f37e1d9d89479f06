// Package webui serves the interactive explorer to a browser.
//
// A Server is both the fractal.Surface the controller presents to and the
// fractal.InputSource it polls. The page shows the last presented frame,
// refreshing it continuously, and posts pointer and wheel events back.
package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gogpu/fractal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/image/draw"
)

// Defaults for a Server.
const (
	DefaultThumbWidth = 256
	DefaultMaxEvents  = 1024
)

// ErrRowsOutOfRange is returned by WriteRows for rows outside the frame or a
// pixel slice of the wrong length.
var ErrRowsOutOfRange = errors.New("webui: rows out of range")

var (
	_ fractal.Surface     = (*Server)(nil)
	_ fractal.InputSource = (*Server)(nil)
)

// Option configures a Server during creation.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithGatherer serves g in the Prometheus text format at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMaxEvents bounds the number of unpolled events. Older events are
// dropped once the bound is reached.
func WithMaxEvents(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxEvents = n
		}
	}
}

// Server is a browser-backed surface and input source.
type Server struct {
	log       *slog.Logger
	gatherer  prometheus.Gatherer
	maxEvents int
	mux       *http.ServeMux

	mu      sync.Mutex
	back    *image.RGBA
	front   *image.RGBA
	version uint64
	events  []fractal.Event
	dropped int
}

// New returns a server for width x height frames, initially black.
func New(width, height int, opts ...Option) (*Server, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("webui: invalid frame size %dx%d", width, height)
	}
	s := &Server{
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxEvents: DefaultMaxEvents,
		back:      blackRGBA(width, height),
		front:     blackRGBA(width, height),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /frame.png", s.handleFrame)
	s.mux.HandleFunc("GET /thumb.png", s.handleThumb)
	s.mux.HandleFunc("GET /version", s.handleVersion)
	s.mux.HandleFunc("POST /events", s.handleEvents)
	if s.gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return s, nil
}

func blackRGBA(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

// Handler returns the HTTP handler for the page and its endpoints.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts the
// listener down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.log.Info("webui: listening", "addr", addr)

	select {
	case err := <-errc:
		return fmt.Errorf("webui: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("webui: shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webui: serve: %w", err)
	}
	return nil
}

// WriteRows copies RGBA rows into the pending frame.
func (s *Server) WriteRows(rows fractal.RowRange, pix []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.back.Bounds()
	if rows.Start < 0 || rows.End > b.Dy() || rows.Start > rows.End {
		return fmt.Errorf("%w: rows [%d, %d) of %d", ErrRowsOutOfRange, rows.Start, rows.End, b.Dy())
	}
	start := rows.Start * s.back.Stride
	end := rows.End * s.back.Stride
	if len(pix) != end-start {
		return fmt.Errorf("%w: %d bytes for %d rows", ErrRowsOutOfRange, len(pix), rows.Len())
	}
	copy(s.back.Pix[start:end], pix)
	return nil
}

// Present publishes the pending frame to the page.
func (s *Server) Present() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.front.Pix, s.back.Pix)
	s.version++
	return nil
}

// PollEvents returns and clears the events posted since the last poll.
func (s *Server) PollEvents() ([]fractal.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropped > 0 {
		s.log.Warn("webui: input events dropped", "count", s.dropped)
		s.dropped = 0
	}
	evs := s.events
	s.events = nil
	return evs, nil
}

// Version returns the number of frames presented so far.
func (s *Server) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Server) enqueue(evs []fractal.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, evs...)
	if over := len(s.events) - s.maxEvents; over > 0 {
		s.events = append(s.events[:0], s.events[over:]...)
		s.dropped += over
	}
}

// snapshot returns a copy of the presented frame.
func (s *Server) snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	img := image.NewRGBA(s.front.Bounds())
	copy(img.Pix, s.front.Pix)
	return img
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := io.WriteString(w, indexHTML); err != nil {
		s.log.Debug("webui: write page", "error", err)
	}
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	s.writePNG(w, s.snapshot())
}

func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	src := s.snapshot()
	b := src.Bounds()

	tw := DefaultThumbWidth
	if v := r.URL.Query().Get("w"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid width", http.StatusBadRequest)
			return
		}
		tw = n
	}
	tw = min(tw, b.Dx())
	th := max(1, b.Dy()*tw/b.Dx())

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	s.writePNG(w, dst)
}

func (s *Server) writePNG(w http.ResponseWriter, img image.Image) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := fractal.EncodeImage(w, img, fractal.FormatPNG); err != nil {
		s.log.Debug("webui: write image", "error", err)
	}
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, strconv.FormatUint(s.Version(), 10))
}

// wireEvent is the JSON form of an input event posted by the page.
type wireEvent struct {
	Type    string  `json:"type"`
	DX      float64 `json:"dx,omitempty"`
	DY      float64 `json:"dy,omitempty"`
	Primary bool    `json:"primary,omitempty"`
}

func (e wireEvent) event() (fractal.Event, error) {
	switch e.Type {
	case "quit":
		return fractal.Quit{}, nil
	case "move":
		return fractal.PointerMove{DX: e.DX, DY: e.DY, Primary: e.Primary}, nil
	case "wheel":
		return fractal.Wheel{DY: e.DY}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}

const maxEventBody = 1 << 20

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var batch []wireEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody))
	if err := dec.Decode(&batch); err != nil {
		http.Error(w, "invalid event batch: "+err.Error(), http.StatusBadRequest)
		return
	}

	evs := make([]fractal.Event, 0, len(batch))
	for _, we := range batch {
		ev, err := we.event()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		evs = append(evs, ev)
	}
	s.enqueue(evs)
	w.WriteHeader(http.StatusNoContent)
}
