package storage

import (
	"context"

	"github.com/ruteri/trustedcert-registry/interfaces"
	"github.com/stretchr/testify/mock"
)

var _ interfaces.ArtifactStore = (*MockArtifactStore)(nil)

// MockArtifactStore implements interfaces.ArtifactStore for testing
type MockArtifactStore struct {
	mock.Mock
	StoreName string
}

func (m *MockArtifactStore) Fetch(ctx context.Context, cid string) ([]byte, error) {
	args := m.Called(ctx, cid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockArtifactStore) Store(ctx context.Context, data []byte) (string, error) {
	args := m.Called(ctx, data)
	return args.String(0), args.Error(1)
}

func (m *MockArtifactStore) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockArtifactStore) Name() string {
	return m.StoreName
}

func (m *MockArtifactStore) LocationURI() string {
	return "mock://" + m.StoreName
}
