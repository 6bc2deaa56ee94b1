package journal

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/trustedcert-registry/interfaces"
	"github.com/ruteri/trustedcert-registry/journal/leveldb"
	"github.com/ruteri/trustedcert-registry/journal/postgres"
)

// Open creates an event journal from a location URI.
//
// Supported schemes:
//   - memory:// - in-process journal, lost on restart
//   - leveldb:// - goleveldb database, leveldb:///absolute/path or leveldb://./relative/path
//   - postgres:// and postgresql:// - PostgreSQL, the URI is passed to the pgx driver as is
func Open(ctx context.Context, locationURI string, log *slog.Logger) (interfaces.EventJournal, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "memory":
		log.Warn("Using in-memory journal, registry state will not survive a restart")
		return NewMemoryJournal(), nil
	case "leveldb":
		path := u.Path
		if u.Host != "" {
			path = u.Host + "/" + strings.TrimPrefix(path, "/")
		}
		if path == "" {
			return nil, fmt.Errorf("%w: empty path in leveldb URI", interfaces.ErrInvalidLocationURI)
		}
		log.Debug("Opening leveldb journal", slog.String("path", path))
		return leveldb.New(path)
	case "postgres", "postgresql":
		log.Debug("Opening postgres journal", slog.String("host", u.Host))
		return postgres.Open(ctx, locationURI)
	default:
		return nil, fmt.Errorf("%w: unsupported journal scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}
