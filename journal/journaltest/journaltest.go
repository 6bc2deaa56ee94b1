// Package journaltest holds the behaviour every interfaces.EventJournal implementation must share.
package journaltest

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/trustedcert-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Event builds a valid InstitutionAdded event with the given sequence number.
func Event(t *testing.T, seq uint64) interfaces.Event {
	t.Helper()
	e, err := interfaces.NewEvent(seq, time.Unix(1700000000+int64(seq), 0), &interfaces.InstitutionAdded{
		Wallet:      common.BigToAddress(new(big.Int).SetUint64(seq)),
		Name:        fmt.Sprintf("institution-%d", seq),
		Description: "test institution",
	})
	require.NoError(t, err)
	return e
}

// Run exercises j, which must be empty.
func Run(t *testing.T, j interfaces.EventJournal) {
	ctx := context.Background()

	last, err := j.LastSeq(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0), last)

	events, err := j.Events(ctx, 0, 0)
	require.NoError(t, err)
	require.Empty(t, events)

	t.Run("rejects sequence gaps", func(t *testing.T) {
		err := j.Append(ctx, Event(t, 2))
		require.ErrorIs(t, err, interfaces.ErrSequenceGap)

		err = j.Append(ctx, Event(t, 0))
		require.ErrorIs(t, err, interfaces.ErrSequenceGap)
	})

	t.Run("appends in order", func(t *testing.T) {
		for seq := uint64(1); seq <= 5; seq++ {
			require.NoError(t, j.Append(ctx, Event(t, seq)))
		}

		last, err := j.LastSeq(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), last)

		err = j.Append(ctx, Event(t, 5))
		require.ErrorIs(t, err, interfaces.ErrSequenceGap)
	})

	t.Run("pages events", func(t *testing.T) {
		all, err := j.Events(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, all, 5)
		for i, e := range all {
			want := Event(t, uint64(i+1))
			assert.Equal(t, want.Seq, e.Seq)
			assert.Equal(t, want.Type, e.Type)
			assert.True(t, want.OccurredAt.Equal(e.OccurredAt))
			assert.JSONEq(t, string(want.Payload), string(e.Payload))

			decoded, err := e.Decode()
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("institution-%d", i+1), decoded.(*interfaces.InstitutionAdded).Name)
		}

		page, err := j.Events(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, uint64(3), page[0].Seq)
		assert.Equal(t, uint64(4), page[1].Seq)

		page, err = j.Events(ctx, 4, 10)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, uint64(5), page[0].Seq)

		page, err = j.Events(ctx, 5, 0)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("concurrent appends keep one writer per sequence", func(t *testing.T) {
		next := Event(t, 6)
		var wg sync.WaitGroup
		var mu sync.Mutex
		accepted := 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := j.Append(ctx, next); err == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, accepted)
		last, err := j.LastSeq(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(6), last)
	})
}
