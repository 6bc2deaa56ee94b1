package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/trustedcert-registry/interfaces"
)

// MultiStore implements interfaces.ArtifactStore on top of several stores with fallback.
type MultiStore struct {
	stores []interfaces.ArtifactStore
	log    *slog.Logger
}

// NewMultiStore creates a new multi store. Stores are tried in the given order.
func NewMultiStore(stores []interfaces.ArtifactStore, logger *slog.Logger) *MultiStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStore{
		stores: stores,
		log:    logger,
	}
}

// Fetch returns the artifact from the first available store that has it.
// If every store reports ErrContentNotFound the result wraps ErrContentNotFound.
func (m *MultiStore) Fetch(ctx context.Context, cid string) ([]byte, error) {
	start := time.Now()
	var errs []error
	notFound := 0

	for _, store := range m.stores {
		if !store.Available(ctx) {
			m.log.Debug("Store unavailable",
				slog.String("store_name", store.Name()),
				slog.String("cid", cid))
			errs = append(errs, fmt.Errorf("%s: %w", store.Name(), interfaces.ErrBackendUnavailable))
			continue
		}

		data, err := store.Fetch(ctx, cid)
		if err == nil {
			m.log.Debug("Fetched artifact",
				slog.String("store_name", store.Name()),
				slog.String("cid", cid),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		if errors.Is(err, interfaces.ErrContentNotFound) {
			notFound++
		}
		errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
		m.log.Debug("Failed to fetch from store",
			slog.String("store_name", store.Name()),
			slog.String("cid", cid),
			"err", err)
	}

	if notFound > 0 && notFound == len(errs) {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrContentNotFound, cid)
	}

	m.log.Error("All stores failed to fetch artifact",
		slog.String("cid", cid),
		slog.Int("failed_stores", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return nil, fmt.Errorf("all stores failed to fetch %s: %w", cid, errors.Join(errs...))
}

// Store saves data to all available stores and returns the cid reported by the first
// one that succeeds.
func (m *MultiStore) Store(ctx context.Context, data []byte) (string, error) {
	start := time.Now()
	var result string
	var errs []error

	for _, store := range m.stores {
		if !store.Available(ctx) {
			m.log.Debug("Store unavailable", slog.String("store_name", store.Name()))
			continue
		}

		cid, err := store.Store(ctx, data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
			m.log.Warn("Failed to store artifact",
				slog.String("store_name", store.Name()),
				"err", err)
			continue
		}

		if result == "" {
			result = cid
			m.log.Info("Stored artifact",
				slog.String("store_name", store.Name()),
				slog.String("cid", cid),
				slog.Duration("duration", time.Since(start)))
		}
	}

	if result == "" {
		m.log.Error("All stores failed to store artifact",
			slog.Int("failed_stores", len(errs)),
			slog.Duration("duration", time.Since(start)))
		if len(errs) == 0 {
			return "", interfaces.ErrBackendUnavailable
		}
		return "", fmt.Errorf("all stores failed to store artifact: %w", errors.Join(errs...))
	}

	return result, nil
}

// Available checks if any store is available
func (m *MultiStore) Available(ctx context.Context) bool {
	for _, store := range m.stores {
		if store.Available(ctx) {
			return true
		}
	}
	return false
}

func (m *MultiStore) Name() string {
	return "multi-store"
}

// LocationURI combines the location URIs of all stores.
func (m *MultiStore) LocationURI() string {
	locations := make([]string, 0, len(m.stores))
	for _, store := range m.stores {
		locations = append(locations, store.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
