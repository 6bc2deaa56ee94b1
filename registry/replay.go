package registry

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/trustedcert-registry/interfaces"
	"github.com/ruteri/trustedcert-registry/journal"
)

// Replay rebuilds registry state from an exported event log, for example one
// downloaded from the public events feed. The returned registry is backed by a
// private in-memory journal holding a copy of events.
func Replay(ctx context.Context, admin common.Address, events []interfaces.Event, opts ...Option) (*Registry, error) {
	j := journal.NewMemoryJournal()
	for _, e := range events {
		if err := j.Append(ctx, e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptJournal, err)
		}
	}
	return New(ctx, admin, j, opts...)
}
