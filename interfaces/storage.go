package interfaces

import (
	"context"
	"errors"
)

var (
	// ErrContentNotFound is returned when requested content cannot be found in the artifact store.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when an artifact store is not accessible.
	// This could be due to network issues, authentication failures, or service outages.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a storage location URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// ArtifactStore pins certificate artifacts and returns the identifier recorded as the certificate cid.
type ArtifactStore interface {
	// Store saves data and returns its content identifier.
	Store(ctx context.Context, data []byte) (string, error)

	// Fetch retrieves data by content identifier.
	Fetch(ctx context.Context, cid string) ([]byte, error)

	// Available checks if the store is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this store.
	LocationURI() string
}

// ArtifactStoreFactory creates artifact stores from location URIs.
type ArtifactStoreFactory interface {
	// StoreFor creates a store from URI. Supports file://, s3://, ipfs://
	StoreFor(locationURI string) (ArtifactStore, error)

	// CreateMultiStore aggregates several stores into one.
	CreateMultiStore(locationURIs []string) (ArtifactStore, error)
}
