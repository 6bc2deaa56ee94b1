package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ruteri/trustedcert-registry/interfaces"
)

var _ interfaces.ArtifactStoreFactory = (*ArtifactStoreFactory)(nil)

// ArtifactStoreFactory creates artifact stores from URI strings and assembles
// multi-store configurations for redundant storage.
type ArtifactStoreFactory struct {
	log *slog.Logger
}

func NewArtifactStoreFactory(logger *slog.Logger) *ArtifactStoreFactory {
	return &ArtifactStoreFactory{log: logger}
}

// StoreFor creates an artifact store from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS node HTTP API
//
// Returns an error wrapping ErrInvalidLocationURI if the URI is invalid or the scheme is unsupported.
func (sf *ArtifactStoreFactory) StoreFor(locationURI string) (interfaces.ArtifactStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "ipfs":
		return sf.createIPFSStore(u)
	case "s3":
		return sf.createS3Store(u)
	case "file":
		return sf.createFileStore(u)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// CreateMultiStore creates a multi store from a list of location URIs.
// Invalid URIs are logged and skipped. Returns an error if no store could be created.
func (sf *ArtifactStoreFactory) CreateMultiStore(locationURIs []string) (interfaces.ArtifactStore, error) {
	stores := make([]interfaces.ArtifactStore, 0, len(locationURIs))

	for _, uri := range locationURIs {
		store, err := sf.StoreFor(uri)
		if err != nil {
			sf.log.Warn("Failed to create artifact store",
				"err", err,
				slog.String("locationURI", uri))
			continue
		}
		stores = append(stores, store)
	}

	if len(stores) == 0 {
		return nil, fmt.Errorf("%w: no valid artifact stores created", interfaces.ErrInvalidLocationURI)
	}

	return NewMultiStore(stores, sf.log), nil
}

// createIPFSStore creates an IPFS artifact store.
// URI format: ipfs://host:port/?timeout=30s
func (sf *ArtifactStoreFactory) createIPFSStore(u *url.URL) (interfaces.ArtifactStore, error) {
	sf.log.Debug("Creating IPFS store", slog.String("uri", u.String()))

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: missing IPFS host", interfaces.ErrInvalidLocationURI)
	}
	port := u.Port()
	if port == "" {
		port = "5001" // Default IPFS API port
	}

	timeout := 30 * time.Second
	if raw := u.Query().Get("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid timeout: %v", interfaces.ErrInvalidLocationURI, err)
		}
		timeout = parsed
	}

	return NewIPFSStore(host, port, timeout, sf.log)
}

// createS3Store creates an S3 or S3-compatible artifact store.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/?region=us-west-2&endpoint=custom.s3.com
func (sf *ArtifactStoreFactory) createS3Store(u *url.URL) (interfaces.ArtifactStore, error) {
	sf.log.Debug("Creating S3 store", slog.String("bucket", u.Host))

	query := u.Query()
	cfg := S3Config{
		Bucket:   u.Host,
		Prefix:   strings.TrimPrefix(u.Path, "/"),
		Region:   query.Get("region"),
		Endpoint: query.Get("endpoint"),
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if u.User != nil {
		cfg.AccessKey = u.User.Username()
		cfg.SecretKey, _ = u.User.Password()
	}

	return NewS3Store(cfg, sf.log)
}

// createFileStore creates a file system artifact store.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *ArtifactStoreFactory) createFileStore(u *url.URL) (interfaces.ArtifactStore, error) {
	sf.log.Debug("Creating file store", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI %s", interfaces.ErrInvalidLocationURI, u.String())
	}

	return NewFileStore(path, sf.log)
}
