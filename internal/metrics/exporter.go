// Package metrics exports pool and controller activity as Prometheus
// collectors.
package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gogpu/fractal/internal/parallel"
	prom "github.com/prometheus/client_golang/prometheus"
)

// Options controls collector configuration.
type Options struct {
	// TaskBuckets are the histogram buckets for tile compute time, in seconds.
	TaskBuckets []float64

	// GenerationBuckets are the histogram buckets for whole generations.
	GenerationBuckets []float64
}

// Exporter adapts pool and controller events to Prometheus collectors.
type Exporter struct {
	tasksQueued       *prom.CounterVec
	taskDuration      *prom.HistogramVec
	taskFaults        *prom.CounterVec
	occupancy         *prom.GaugeVec
	generations       prom.Counter
	generationTiles   prom.Gauge
	generationSeconds prom.Histogram
	tilesDiscarded    prom.Counter
	rowsPresented     prom.Counter
}

var _ parallel.Metrics = (*Exporter)(nil)

// NewExporter creates and registers the collectors under namespace.
// A nil reg uses the default registerer. Registering twice on the same
// registry reuses the existing collectors.
func NewExporter(namespace string, reg prom.Registerer, opts Options) (*Exporter, error) {
	if namespace == "" {
		namespace = "fractal"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	taskBuckets := opts.TaskBuckets
	if len(taskBuckets) == 0 {
		taskBuckets = prom.ExponentialBuckets(0.0005, 2, 14)
	}
	genBuckets := opts.GenerationBuckets
	if len(genBuckets) == 0 {
		genBuckets = prom.DefBuckets
	}

	queued := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_queued_total",
		Help:      "Total number of tiles pushed to a worker.",
	}, []string{"worker"})
	duration := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Tile compute time in seconds, including delivery.",
		Buckets:   taskBuckets,
	}, []string{"worker"})
	faults := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_faults_total",
		Help:      "Total number of tile computations that panicked.",
	}, []string{"worker"})
	occupancy := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "worker_occupancy",
		Help:      "Tiles assigned to a worker and not yet delivered.",
	}, []string{"worker"})
	generations := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "generations_total",
		Help:      "Total number of generations submitted.",
	})
	genTiles := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "generation_tiles",
		Help:      "Number of tiles in the most recent generation.",
	})
	genSeconds := prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "generation_duration_seconds",
		Help:      "Time from submitting a generation until the pool went idle.",
		Buckets:   genBuckets,
	})
	discarded := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tiles_discarded_total",
		Help:      "Total number of tiles dropped because their generation was superseded.",
	})
	rows := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "rows_presented_total",
		Help:      "Total number of pixel rows written to the surface.",
	})

	var err error
	if queued, err = registerCollector(reg, queued); err != nil {
		return nil, err
	}
	if duration, err = registerCollector(reg, duration); err != nil {
		return nil, err
	}
	if faults, err = registerCollector(reg, faults); err != nil {
		return nil, err
	}
	if occupancy, err = registerCollector(reg, occupancy); err != nil {
		return nil, err
	}
	if generations, err = registerCollector(reg, generations); err != nil {
		return nil, err
	}
	if genTiles, err = registerCollector(reg, genTiles); err != nil {
		return nil, err
	}
	if genSeconds, err = registerCollector(reg, genSeconds); err != nil {
		return nil, err
	}
	if discarded, err = registerCollector(reg, discarded); err != nil {
		return nil, err
	}
	if rows, err = registerCollector(reg, rows); err != nil {
		return nil, err
	}

	return &Exporter{
		tasksQueued:       queued,
		taskDuration:      duration,
		taskFaults:        faults,
		occupancy:         occupancy,
		generations:       generations,
		generationTiles:   genTiles,
		generationSeconds: genSeconds,
		tilesDiscarded:    discarded,
		rowsPresented:     rows,
	}, nil
}

// TaskQueued records a tile pushed to worker.
func (e *Exporter) TaskQueued(worker int) {
	if e == nil {
		return
	}
	e.tasksQueued.WithLabelValues(workerLabel(worker)).Inc()
}

// TaskDone records a delivered tile.
func (e *Exporter) TaskDone(worker int, elapsed time.Duration) {
	if e == nil {
		return
	}
	e.taskDuration.WithLabelValues(workerLabel(worker)).Observe(elapsed.Seconds())
}

// TaskFault records a recovered panic.
func (e *Exporter) TaskFault(worker int) {
	if e == nil {
		return
	}
	e.taskFaults.WithLabelValues(workerLabel(worker)).Inc()
}

// Occupancy records a worker's current occupancy.
func (e *Exporter) Occupancy(worker, n int) {
	if e == nil {
		return
	}
	e.occupancy.WithLabelValues(workerLabel(worker)).Set(float64(n))
}

// GenerationStarted records a submitted generation of tiles tiles.
func (e *Exporter) GenerationStarted(tiles int) {
	if e == nil {
		return
	}
	e.generations.Inc()
	e.generationTiles.Set(float64(tiles))
}

// GenerationDone records how long a generation took.
func (e *Exporter) GenerationDone(elapsed time.Duration) {
	if e == nil {
		return
	}
	e.generationSeconds.Observe(elapsed.Seconds())
}

// TileDiscarded records a stale tile.
func (e *Exporter) TileDiscarded() {
	if e == nil {
		return
	}
	e.tilesDiscarded.Inc()
}

// RowsPresented records rows written to the surface.
func (e *Exporter) RowsPresented(rows int) {
	if e == nil {
		return
	}
	e.rowsPresented.Add(float64(rows))
}

func workerLabel(worker int) string {
	return strconv.Itoa(worker)
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("metrics: collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
