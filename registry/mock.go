package registry

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/trustedcert-registry/interfaces"
	"github.com/stretchr/testify/mock"
)

var _ interfaces.CertificateRegistry = (*MockCertificateRegistry)(nil)

// MockCertificateRegistry mocks the CertificateRegistry interface
type MockCertificateRegistry struct {
	mock.Mock
}

// AddInstitution mocks the AddInstitution method
func (m *MockCertificateRegistry) AddInstitution(ctx context.Context, caller, wallet common.Address, name, description string) error {
	args := m.Called(ctx, caller, wallet, name, description)
	return args.Error(0)
}

// RemoveInstitution mocks the RemoveInstitution method
func (m *MockCertificateRegistry) RemoveInstitution(ctx context.Context, caller, wallet common.Address) error {
	args := m.Called(ctx, caller, wallet)
	return args.Error(0)
}

// ListInstitutions mocks the ListInstitutions method
func (m *MockCertificateRegistry) ListInstitutions(ctx context.Context) (interfaces.InstitutionList, error) {
	args := m.Called(ctx)
	return args.Get(0).(interfaces.InstitutionList), args.Error(1)
}

// RegisterCertificate mocks the RegisterCertificate method
func (m *MockCertificateRegistry) RegisterCertificate(ctx context.Context, issuer common.Address, req interfaces.CertificateRequest) (interfaces.CertificateID, error) {
	args := m.Called(ctx, issuer, req)
	return args.Get(0).(interfaces.CertificateID), args.Error(1)
}

// RevokeCertificate mocks the RevokeCertificate method
func (m *MockCertificateRegistry) RevokeCertificate(ctx context.Context, caller common.Address, id interfaces.CertificateID) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

// CertificatesOf mocks the CertificatesOf method
func (m *MockCertificateRegistry) CertificatesOf(ctx context.Context, wallet common.Address) ([]interfaces.CertificateID, error) {
	args := m.Called(ctx, wallet)
	return args.Get(0).([]interfaces.CertificateID), args.Error(1)
}

// VerifyCertificate mocks the VerifyCertificate method
func (m *MockCertificateRegistry) VerifyCertificate(ctx context.Context, id interfaces.CertificateID) (interfaces.CertificateView, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(interfaces.CertificateView), args.Error(1)
}

// Pause mocks the Pause method
func (m *MockCertificateRegistry) Pause(ctx context.Context, caller common.Address) error {
	args := m.Called(ctx, caller)
	return args.Error(0)
}

// Unpause mocks the Unpause method
func (m *MockCertificateRegistry) Unpause(ctx context.Context, caller common.Address) error {
	args := m.Called(ctx, caller)
	return args.Error(0)
}

// Roles mocks the Roles method
func (m *MockCertificateRegistry) Roles(ctx context.Context, wallet common.Address) (interfaces.Roles, error) {
	args := m.Called(ctx, wallet)
	return args.Get(0).(interfaces.Roles), args.Error(1)
}

// Stats mocks the Stats method
func (m *MockCertificateRegistry) Stats(ctx context.Context) (interfaces.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(interfaces.Stats), args.Error(1)
}

// Status mocks the Status method
func (m *MockCertificateRegistry) Status(ctx context.Context) (interfaces.Status, error) {
	args := m.Called(ctx)
	return args.Get(0).(interfaces.Status), args.Error(1)
}

// Events mocks the Events method
func (m *MockCertificateRegistry) Events(ctx context.Context, after uint64, limit int) ([]interfaces.Event, error) {
	args := m.Called(ctx, after, limit)
	return args.Get(0).([]interfaces.Event), args.Error(1)
}
