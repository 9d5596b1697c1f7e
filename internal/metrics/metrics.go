package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hongminglow/videotube-be/internal/assets"
)

// Registration outcomes used as the "outcome" label.
const (
	OutcomeCreated    = "created"
	OutcomeValidation = "validation"
	OutcomeConflict   = "conflict"
	OutcomeUpload     = "upload"
	OutcomeInternal   = "internal"
	OutcomeError      = "error"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	Registrations *prometheus.CounterVec
	AssetUploads  *prometheus.CounterVec
	AssetDeletes  *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "videotube_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		AssetUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "videotube_asset_uploads_total",
			Help: "Asset store uploads by result",
		}, []string{"result"}),
		AssetDeletes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "videotube_asset_deletes_total",
			Help: "Asset store deletions by result",
		}, []string{"result"}),
	}
}

// ObserveRegistration counts one registration attempt.
func (m *Metrics) ObserveRegistration(outcome string) {
	m.Registrations.WithLabelValues(outcome).Inc()
}

// InstrumentUploader counts uploads and deletes passing through u.
func (m *Metrics) InstrumentUploader(u assets.Uploader) assets.Uploader {
	return &instrumentedUploader{next: u, m: m}
}

type instrumentedUploader struct {
	next assets.Uploader
	m    *Metrics
}

func (i *instrumentedUploader) Upload(ctx context.Context, localPath string) (assets.Asset, error) {
	asset, err := i.next.Upload(ctx, localPath)
	i.m.AssetUploads.WithLabelValues(result(err)).Inc()
	return asset, err
}

func (i *instrumentedUploader) Delete(ctx context.Context, asset assets.Asset) error {
	err := i.next.Delete(ctx, asset)
	i.m.AssetDeletes.WithLabelValues(result(err)).Inc()
	return err
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
