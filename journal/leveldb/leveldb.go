// Package leveldb stores registry events in an embedded goleveldb database.
package leveldb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ruteri/trustedcert-registry/interfaces"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var eventPrefix = []byte("event/")

var _ interfaces.EventJournal = (*Journal)(nil)

// Journal keeps each event under eventPrefix followed by its big-endian sequence number,
// so iteration order is sequence order.
type Journal struct {
	db *leveldb.DB

	mu   sync.Mutex
	last uint64
}

// New opens or creates the database at path.
func New(path string) (*Journal, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("could not open leveldb journal: %w", err)
	}
	return newJournal(db)
}

func newJournal(db *leveldb.DB) (*Journal, error) {
	j := &Journal{db: db}

	iter := db.NewIterator(util.BytesPrefix(eventPrefix), nil)
	if iter.Last() {
		j.last = seqFromKey(iter.Key())
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not read last event: %w", err)
	}

	return j, nil
}

func eventKey(seq uint64) []byte {
	key := make([]byte, len(eventPrefix)+8)
	copy(key, eventPrefix)
	binary.BigEndian.PutUint64(key[len(eventPrefix):], seq)
	return key
}

func seqFromKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(eventPrefix):])
}

func (j *Journal) Append(ctx context.Context, e interfaces.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if e.Seq != j.last+1 {
		return fmt.Errorf("%w: expected %d, got %d", interfaces.ErrSequenceGap, j.last+1, e.Seq)
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("could not encode event: %w", err)
	}

	if err := j.db.Put(eventKey(e.Seq), value, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("could not write event %d: %w", e.Seq, err)
	}
	j.last = e.Seq
	return nil
}

func (j *Journal) Events(ctx context.Context, after uint64, limit int) ([]interfaces.Event, error) {
	rng := util.BytesPrefix(eventPrefix)
	rng.Start = eventKey(after + 1)

	iter := j.db.NewIterator(rng, nil)
	defer iter.Release()

	events := []interfaces.Event{}
	for iter.Next() {
		var e interfaces.Event
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, fmt.Errorf("could not decode event %d: %w", seqFromKey(iter.Key()), err)
		}
		events = append(events, e)
		if limit > 0 && len(events) == limit {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("could not iterate events: %w", err)
	}
	return events, nil
}

func (j *Journal) LastSeq(ctx context.Context) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.last, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
