package interfaces

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventType names the kind of state change an Event records.
type EventType string

const (
	EventInstitutionAdded      EventType = "InstitutionAdded"
	EventInstitutionRemoved    EventType = "InstitutionRemoved"
	EventCertificateRegistered EventType = "CertificateRegistered"
	EventCertificateRevoked    EventType = "CertificateRevoked"
	EventPaused                EventType = "Paused"
	EventUnpaused              EventType = "Unpaused"
)

// Event is one entry of the append-only registry log.
// Seq starts at 1 and increases by exactly one per committed mutation.
type Event struct {
	Seq        uint64          `json:"seq"`
	Type       EventType       `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// EventPayload is implemented by the typed bodies of every event type.
type EventPayload interface {
	EventType() EventType
}

type InstitutionAdded struct {
	Wallet      common.Address `json:"wallet"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
}

type InstitutionRemoved struct {
	Wallet common.Address `json:"wallet"`
}

// CertificateRegistered carries every input of the registration so that
// replaying it reproduces the ledger record and nonce exactly.
type CertificateRegistered struct {
	ID            CertificateID  `json:"id"`
	Issuer        common.Address `json:"issuer"`
	RecipientName string         `json:"recipient_name"`
	Title         string         `json:"title"`
	CID           string         `json:"cid"`
	ExternalID    string         `json:"external_id"`
	IssuedAt      time.Time      `json:"issued_at"`
	Nonce         uint64         `json:"nonce"`
}

type CertificateRevoked struct {
	ID     CertificateID  `json:"id"`
	Caller common.Address `json:"caller"`
}

type Paused struct {
	Admin common.Address `json:"admin"`
}

type Unpaused struct {
	Admin common.Address `json:"admin"`
}

func (InstitutionAdded) EventType() EventType      { return EventInstitutionAdded }
func (InstitutionRemoved) EventType() EventType    { return EventInstitutionRemoved }
func (CertificateRegistered) EventType() EventType { return EventCertificateRegistered }
func (CertificateRevoked) EventType() EventType    { return EventCertificateRevoked }
func (Paused) EventType() EventType                { return EventPaused }
func (Unpaused) EventType() EventType              { return EventUnpaused }

// NewEvent encodes payload into an Event with the given sequence number.
func NewEvent(seq uint64, occurredAt time.Time, payload EventPayload) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("could not encode %s payload: %w", payload.EventType(), err)
	}
	return Event{
		Seq:        seq,
		Type:       payload.EventType(),
		OccurredAt: occurredAt.UTC(),
		Payload:    raw,
	}, nil
}

// Decode returns the typed payload of the event.
func (e Event) Decode() (EventPayload, error) {
	var payload EventPayload
	switch e.Type {
	case EventInstitutionAdded:
		payload = &InstitutionAdded{}
	case EventInstitutionRemoved:
		payload = &InstitutionRemoved{}
	case EventCertificateRegistered:
		payload = &CertificateRegistered{}
	case EventCertificateRevoked:
		payload = &CertificateRevoked{}
	case EventPaused:
		payload = &Paused{}
	case EventUnpaused:
		payload = &Unpaused{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}

	if err := json.Unmarshal(e.Payload, payload); err != nil {
		return nil, fmt.Errorf("could not decode %s payload: %w", e.Type, err)
	}
	return payload, nil
}

// EventJournal is the durable append-only log of registry events.
type EventJournal interface {
	// Append persists e. e.Seq must equal LastSeq()+1, otherwise ErrSequenceGap is returned
	// and nothing is written.
	Append(ctx context.Context, e Event) error

	// Events returns up to limit events with Seq > after in ascending order.
	// A limit <= 0 returns every remaining event.
	Events(ctx context.Context, after uint64, limit int) ([]Event, error)

	// LastSeq returns the sequence number of the newest event, 0 when empty.
	LastSeq(ctx context.Context) (uint64, error)

	Close() error
}

// EventPublisher forwards committed events to external subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}
