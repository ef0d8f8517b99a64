package converter

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons used as the "reason" label and in Warning.Reason.
const (
	ReasonOddCoordinates  = "odd_coordinates"
	ReasonInvalidNumber   = "invalid_number"
	ReasonTooFewVertices  = "too_few_vertices"
	ReasonUnknownCategory = "unknown_category"
	ReasonUnreadableImage = "unreadable_image"
	ReasonUnreadableLabel = "unreadable_label"
	ReasonNonFinite       = "non_finite_geometry"
)

// Metrics holds the counters of one conversion run on a private registry,
// so repeated runs in one process never collide.
type Metrics struct {
	registry *prometheus.Registry

	images          prometheus.Counter
	annotations     prometheus.Counter
	skippedLines    *prometheus.CounterVec
	skippedImages   prometheus.Counter
	polygonVertices prometheus.Histogram
	runDuration     prometheus.Gauge
}

// NewMetrics registers the conversion metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		images: factory.NewCounter(prometheus.CounterOpts{
			Name: "yolo2coco_images_total",
			Help: "Number of images written to the dataset",
		}),
		annotations: factory.NewCounter(prometheus.CounterOpts{
			Name: "yolo2coco_annotations_total",
			Help: "Number of annotations written to the dataset",
		}),
		skippedLines: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yolo2coco_skipped_lines_total",
				Help: "Number of label lines that produced no annotation",
			},
			[]string{"reason"},
		),
		skippedImages: factory.NewCounter(prometheus.CounterOpts{
			Name: "yolo2coco_skipped_images_total",
			Help: "Number of images left out because they could not be read",
		}),
		polygonVertices: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "yolo2coco_polygon_vertices",
			Help:    "Vertex count of converted polygons",
			Buckets: []float64{3, 4, 8, 16, 32, 64, 128, 256, 512},
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "yolo2coco_run_duration_seconds",
			Help: "Wall time of the last conversion run",
		}),
	}
}

// Registry exposes the underlying registry, e.g. for an HTTP handler or tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observeImage() { m.images.Inc() }

func (m *Metrics) observeAnnotation(vertices int) {
	m.annotations.Inc()
	m.polygonVertices.Observe(float64(vertices))
}

func (m *Metrics) observeSkippedLine(reason string) {
	m.skippedLines.WithLabelValues(reason).Inc()
}

func (m *Metrics) observeSkippedImage() { m.skippedImages.Inc() }

func (m *Metrics) observeDuration(d time.Duration) { m.runDuration.Set(d.Seconds()) }

// WriteTextfile writes the metrics in Prometheus text format, suitable for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
