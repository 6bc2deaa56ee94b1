package metrics

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ruteri/trustedcert-registry/interfaces"
)

var _ interfaces.CertificateRegistry = (*InstrumentedRegistry)(nil)

// InstrumentedRegistry decorates a CertificateRegistry with operation counters and
// latency histograms. The code label holds interfaces.ErrorCode of the result, or
// "ok" on success.
type InstrumentedRegistry struct {
	inner    interfaces.CertificateRegistry
	count    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	paused   prometheus.GaugeFunc
}

// NewInstrumentedRegistry registers the registry metrics with reg.
func NewInstrumentedRegistry(inner interfaces.CertificateRegistry, reg prometheus.Registerer) (*InstrumentedRegistry, error) {
	r := &InstrumentedRegistry{
		inner: inner,
		count: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_operations_total",
			Help: "Registry operations by outcome.",
		}, []string{"operation", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registry_operation_duration_seconds",
			Help:    "Registry operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	r.paused = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "registry_paused",
		Help: "1 while certificate mutations are paused.",
	}, func() float64 {
		status, err := inner.Status(context.Background())
		if err != nil || !status.Paused {
			return 0
		}
		return 1
	})

	for _, c := range []prometheus.Collector{r.count, r.duration, r.paused} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *InstrumentedRegistry) observe(operation string, start time.Time, err error) {
	code := "ok"
	if err != nil {
		code = interfaces.ErrorCode(err)
	}
	r.count.WithLabelValues(operation, code).Inc()
	r.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (r *InstrumentedRegistry) AddInstitution(ctx context.Context, caller, wallet common.Address, name, description string) error {
	start := time.Now()
	err := r.inner.AddInstitution(ctx, caller, wallet, name, description)
	r.observe("add_institution", start, err)
	return err
}

func (r *InstrumentedRegistry) RemoveInstitution(ctx context.Context, caller, wallet common.Address) error {
	start := time.Now()
	err := r.inner.RemoveInstitution(ctx, caller, wallet)
	r.observe("remove_institution", start, err)
	return err
}

func (r *InstrumentedRegistry) ListInstitutions(ctx context.Context) (interfaces.InstitutionList, error) {
	start := time.Now()
	list, err := r.inner.ListInstitutions(ctx)
	r.observe("list_institutions", start, err)
	return list, err
}

func (r *InstrumentedRegistry) RegisterCertificate(ctx context.Context, issuer common.Address, req interfaces.CertificateRequest) (interfaces.CertificateID, error) {
	start := time.Now()
	id, err := r.inner.RegisterCertificate(ctx, issuer, req)
	r.observe("register_certificate", start, err)
	return id, err
}

func (r *InstrumentedRegistry) RevokeCertificate(ctx context.Context, caller common.Address, id interfaces.CertificateID) error {
	start := time.Now()
	err := r.inner.RevokeCertificate(ctx, caller, id)
	r.observe("revoke_certificate", start, err)
	return err
}

func (r *InstrumentedRegistry) CertificatesOf(ctx context.Context, wallet common.Address) ([]interfaces.CertificateID, error) {
	start := time.Now()
	ids, err := r.inner.CertificatesOf(ctx, wallet)
	r.observe("certificates_of", start, err)
	return ids, err
}

func (r *InstrumentedRegistry) VerifyCertificate(ctx context.Context, id interfaces.CertificateID) (interfaces.CertificateView, error) {
	start := time.Now()
	view, err := r.inner.VerifyCertificate(ctx, id)
	r.observe("verify_certificate", start, err)
	return view, err
}

func (r *InstrumentedRegistry) Pause(ctx context.Context, caller common.Address) error {
	start := time.Now()
	err := r.inner.Pause(ctx, caller)
	r.observe("pause", start, err)
	return err
}

func (r *InstrumentedRegistry) Unpause(ctx context.Context, caller common.Address) error {
	start := time.Now()
	err := r.inner.Unpause(ctx, caller)
	r.observe("unpause", start, err)
	return err
}

// Roles, Stats and Status are cheap lookups and are not instrumented.
func (r *InstrumentedRegistry) Roles(ctx context.Context, wallet common.Address) (interfaces.Roles, error) {
	return r.inner.Roles(ctx, wallet)
}

func (r *InstrumentedRegistry) Stats(ctx context.Context) (interfaces.Stats, error) {
	return r.inner.Stats(ctx)
}

func (r *InstrumentedRegistry) Status(ctx context.Context) (interfaces.Status, error) {
	return r.inner.Status(ctx)
}

func (r *InstrumentedRegistry) Events(ctx context.Context, after uint64, limit int) ([]interfaces.Event, error) {
	start := time.Now()
	events, err := r.inner.Events(ctx, after, limit)
	r.observe("events", start, err)
	return events, err
}
