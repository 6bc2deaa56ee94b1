package metrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ruteri/trustedcert-registry/interfaces"
	"github.com/ruteri/trustedcert-registry/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	admin = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	acme  = common.HexToAddress("0x000000000000000000000000000000000000a001")
)

func TestInstrumentedRegistry(t *testing.T) {
	ctx := context.Background()
	inner := &registry.MockCertificateRegistry{}
	reg := prometheus.NewRegistry()

	instrumented, err := NewInstrumentedRegistry(inner, reg)
	require.NoError(t, err)

	inner.On("AddInstitution", mock.Anything, admin, acme, "Acme", "").Return(nil).Once()
	inner.On("AddInstitution", mock.Anything, admin, acme, "Acme", "").
		Return(fmt.Errorf("%w: %s", interfaces.ErrAlreadyRegistered, acme)).Once()
	inner.On("RevokeCertificate", mock.Anything, acme, interfaces.CertificateID{1}).
		Return(interfaces.ErrCertificateNotFound).Once()
	inner.On("Status", mock.Anything).Return(interfaces.Status{Admin: admin, Paused: true}, nil)

	require.NoError(t, instrumented.AddInstitution(ctx, admin, acme, "Acme", ""))
	err = instrumented.AddInstitution(ctx, admin, acme, "Acme", "")
	assert.ErrorIs(t, err, interfaces.ErrAlreadyRegistered)
	err = instrumented.RevokeCertificate(ctx, acme, interfaces.CertificateID{1})
	assert.ErrorIs(t, err, interfaces.ErrCertificateNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(instrumented.count.WithLabelValues("add_institution", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(instrumented.count.WithLabelValues("add_institution", interfaces.CodeAlreadyRegistered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(instrumented.count.WithLabelValues("revoke_certificate", interfaces.CodeNotFound)))
	assert.Equal(t, 2, testutil.CollectAndCount(instrumented.duration))
	assert.Equal(t, 1.0, testutil.ToFloat64(instrumented.paused))

	expected := `
# HELP registry_paused 1 while certificate mutations are paused.
# TYPE registry_paused gauge
registry_paused 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "registry_paused"))

	_, err = NewInstrumentedRegistry(inner, reg)
	assert.Error(t, err, "registering twice must fail")

	inner.AssertExpectations(t)
}

func TestMetricsServerHandler(t *testing.T) {
	srv, err := New("github.com/ruteri/trustedcert-registry", "")
	require.NoError(t, err)

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	require.NoError(t, srv.Registerer().Register(counter))
	counter.Inc()

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "test_total 1")
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}
