// Package metrics exports receiver telemetry to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for received requests.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeTooLarge = "too_large"
	OutcomeFailed   = "failed"
)

// Observer captures telemetry for the request endpoint.
type Observer interface {
	RecordRequest(duration time.Duration, outcome string)
	RecordUpload(sizeBytes int64)
}

// PrometheusObserver exports request metrics to Prometheus.
type PrometheusObserver struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploadBytes     prometheus.Counter
	uploadFiles     prometheus.Counter
}

// NewPrometheusObserver registers the request metrics on reg.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "formserver"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	observer := &PrometheusObserver{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Service requests received, by outcome.",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent handling a service request.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative size of stored attachments.",
		}),
		uploadFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_files_total",
			Help:      "Number of stored attachments.",
		}),
	}

	var err error
	if observer.requests, err = register(reg, observer.requests); err != nil {
		return nil, err
	}
	if observer.requestDuration, err = register(reg, observer.requestDuration); err != nil {
		return nil, err
	}
	if observer.uploadBytes, err = register(reg, observer.uploadBytes); err != nil {
		return nil, err
	}
	if observer.uploadFiles, err = register(reg, observer.uploadFiles); err != nil {
		return nil, err
	}
	return observer, nil
}

// register reuses an identical collector that is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register request metric: %w", err)
	}
	return c, nil
}

// RecordRequest tracks one handled request.
func (o *PrometheusObserver) RecordRequest(duration time.Duration, outcome string) {
	if o == nil {
		return
	}
	o.requests.WithLabelValues(outcome).Inc()
	o.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordUpload tracks one stored attachment.
func (o *PrometheusObserver) RecordUpload(sizeBytes int64) {
	if o == nil {
		return
	}
	o.uploadFiles.Inc()
	if sizeBytes > 0 {
		o.uploadBytes.Add(float64(sizeBytes))
	}
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Nop returns an Observer that records nothing.
func Nop() Observer {
	return nopObserver{}
}

type nopObserver struct{}

func (nopObserver) RecordRequest(time.Duration, string) {}

func (nopObserver) RecordUpload(int64) {}
