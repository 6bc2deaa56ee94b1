package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/trustedcert-registry/interfaces"
)

// ErrCorruptJournal is returned when a journal holds an event that cannot be applied
// to the state built from the events before it.
var ErrCorruptJournal = errors.New("journal is inconsistent with registry state")

var _ interfaces.CertificateRegistry = (*Registry)(nil)

// Registry is the in-process implementation of interfaces.CertificateRegistry.
// It is safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	roles  *roleStore
	dir    *directory
	ledger *ledger
	pause  pauseSwitch
	seq    uint64

	journal interfaces.EventJournal
	now     func() time.Time
	log     *slog.Logger
}

// Option configures optional Registry dependencies.
type Option func(*Registry)

// WithClock overrides the time source used for issuedAt and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithLogger sets the logger used for committed mutations. Logs are discarded by default.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		r.log = log
	}
}

// New creates a registry administered by admin and rebuilds its state by replaying
// every event already present in journal.
func New(ctx context.Context, admin common.Address, journal interfaces.EventJournal, opts ...Option) (*Registry, error) {
	if admin == (common.Address{}) {
		return nil, fmt.Errorf("%w: admin must not be the zero address", interfaces.ErrInvalidAddress)
	}
	if journal == nil {
		return nil, errors.New("registry requires an event journal")
	}

	r := &Registry{
		roles:   newRoleStore(admin),
		dir:     newDirectory(),
		ledger:  newLedger(),
		journal: journal,
		now:     time.Now,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}

	events, err := journal.Events(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("could not read journal: %w", err)
	}
	for _, e := range events {
		if err := r.replay(e); err != nil {
			return nil, err
		}
	}

	r.log.Info("Registry state restored",
		"admin", admin.Hex(),
		"events", len(events),
		"institutions", r.dir.len(),
		"certificates", r.ledger.len(),
		"paused", r.pause.isPaused())

	return r, nil
}

func (r *Registry) replay(e interfaces.Event) error {
	if e.Seq != r.seq+1 {
		return fmt.Errorf("%w: expected event %d, got %d", ErrCorruptJournal, r.seq+1, e.Seq)
	}
	payload, err := e.Decode()
	if err != nil {
		return fmt.Errorf("%w: event %d: %v", ErrCorruptJournal, e.Seq, err)
	}
	if err := r.apply(payload); err != nil {
		return fmt.Errorf("event %d: %w", e.Seq, err)
	}
	r.seq = e.Seq
	return nil
}

// clock returns the current time at the one second resolution certificates carry.
func (r *Registry) clock() time.Time {
	return r.now().UTC().Truncate(time.Second)
}

// commit appends payload to the journal and applies it. Callers hold the write lock
// and have validated every precondition. Once admitted, a mutation is not abandoned
// because the caller's context is cancelled.
func (r *Registry) commit(ctx context.Context, at time.Time, payload interfaces.EventPayload) (interfaces.Event, error) {
	e, err := interfaces.NewEvent(r.seq+1, at, payload)
	if err != nil {
		return interfaces.Event{}, err
	}

	if err := r.journal.Append(context.WithoutCancel(ctx), e); err != nil {
		return interfaces.Event{}, fmt.Errorf("could not append %s event: %w", e.Type, err)
	}
	r.seq = e.Seq

	if err := r.apply(payload); err != nil {
		r.log.Error("Committed event could not be applied", "seq", e.Seq, "type", e.Type, "err", err)
		return e, err
	}
	return e, nil
}

// apply is the single place where registry state changes.
func (r *Registry) apply(payload interfaces.EventPayload) error {
	switch ev := payload.(type) {
	case *interfaces.InstitutionAdded:
		if r.dir.has(ev.Wallet) {
			return fmt.Errorf("%w: institution %s added twice", ErrCorruptJournal, ev.Wallet.Hex())
		}
		r.roles.grantInstitution(ev.Wallet)
		r.dir.put(interfaces.Institution{
			Wallet:      ev.Wallet,
			Name:        ev.Name,
			Description: ev.Description,
		})

	case *interfaces.InstitutionRemoved:
		if !r.dir.has(ev.Wallet) {
			return fmt.Errorf("%w: institution %s removed while not registered", ErrCorruptJournal, ev.Wallet.Hex())
		}
		r.roles.revokeInstitution(ev.Wallet)
		r.dir.remove(ev.Wallet)

	case *interfaces.CertificateRegistered:
		req := interfaces.CertificateRequest{
			RecipientName: ev.RecipientName,
			Title:         ev.Title,
			CID:           ev.CID,
			ExternalID:    ev.ExternalID,
		}
		if DeriveCertificateID(ev.Issuer, req, ev.Nonce) != ev.ID {
			return fmt.Errorf("%w: certificate %s does not match its inputs", ErrCorruptJournal, ev.ID)
		}
		if _, exists := r.ledger.get(ev.ID); exists {
			return fmt.Errorf("%w: certificate %s registered twice", ErrCorruptJournal, ev.ID)
		}
		if r.ledger.externalIDTaken(ev.ExternalID) {
			return fmt.Errorf("%w: external id %q reused", ErrCorruptJournal, ev.ExternalID)
		}
		r.ledger.insert(&interfaces.Certificate{
			ID:            ev.ID,
			RecipientName: ev.RecipientName,
			Title:         ev.Title,
			CID:           ev.CID,
			ExternalID:    ev.ExternalID,
			IssuedBy:      ev.Issuer,
			IssuedAt:      ev.IssuedAt,
			Nonce:         ev.Nonce,
		})

	case *interfaces.CertificateRevoked:
		cert, exists := r.ledger.get(ev.ID)
		switch {
		case !exists:
			return fmt.Errorf("%w: revoked certificate %s does not exist", ErrCorruptJournal, ev.ID)
		case cert.IssuedBy != ev.Caller:
			return fmt.Errorf("%w: certificate %s revoked by non-issuer", ErrCorruptJournal, ev.ID)
		case cert.IsRevoked:
			return fmt.Errorf("%w: certificate %s revoked twice", ErrCorruptJournal, ev.ID)
		}
		r.ledger.revoke(ev.ID)

	case *interfaces.Paused:
		r.pause.set(true)

	case *interfaces.Unpaused:
		r.pause.set(false)

	default:
		return fmt.Errorf("%w: %T", interfaces.ErrUnknownEventType, payload)
	}
	return nil
}

// AddInstitution grants institution privilege to wallet. Re-adding a registered
// wallet fails with ErrAlreadyRegistered and leaves its metadata untouched.
func (r *Registry) AddInstitution(ctx context.Context, caller, wallet common.Address, name, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.roles.IsAdmin(caller) {
		return fmt.Errorf("%w: %s is not the admin", interfaces.ErrUnauthorized, caller.Hex())
	}
	if wallet == (common.Address{}) {
		return fmt.Errorf("%w: zero address", interfaces.ErrInvalidAddress)
	}
	if err := validText("name", name, "description", description); err != nil {
		return err
	}
	if r.dir.has(wallet) {
		return fmt.Errorf("%w: %s", interfaces.ErrAlreadyRegistered, wallet.Hex())
	}

	e, err := r.commit(ctx, r.clock(), &interfaces.InstitutionAdded{
		Wallet:      wallet,
		Name:        name,
		Description: description,
	})
	if err != nil {
		return err
	}

	r.log.Info("Institution added", "wallet", wallet.Hex(), "name", name, "seq", e.Seq)
	return nil
}

// validText takes name, value pairs and rejects the first value that is not valid UTF-8.
// Events are journaled as JSON, which would rewrite such values.
func validText(fields ...string) error {
	for i := 0; i+1 < len(fields); i += 2 {
		if !utf8.ValidString(fields[i+1]) {
			return fmt.Errorf("%w: %s is not valid UTF-8", interfaces.ErrInvalidInput, fields[i])
		}
	}
	return nil
}

// RemoveInstitution revokes the privilege of wallet and deletes its directory entry.
func (r *Registry) RemoveInstitution(ctx context.Context, caller, wallet common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.roles.IsAdmin(caller) {
		return fmt.Errorf("%w: %s is not the admin", interfaces.ErrUnauthorized, caller.Hex())
	}
	if !r.dir.has(wallet) {
		return fmt.Errorf("%w: %s", interfaces.ErrNotRegistered, wallet.Hex())
	}

	e, err := r.commit(ctx, r.clock(), &interfaces.InstitutionRemoved{Wallet: wallet})
	if err != nil {
		return err
	}

	r.log.Info("Institution removed", "wallet", wallet.Hex(), "seq", e.Seq)
	return nil
}

// RegisterCertificate checks, in order: institution privilege, pause state,
// UTF-8 text fields, a non-empty cid and external id uniqueness.
func (r *Registry) RegisterCertificate(ctx context.Context, issuer common.Address, req interfaces.CertificateRequest) (interfaces.CertificateID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.roles.IsInstitution(issuer) {
		return interfaces.CertificateID{}, fmt.Errorf("%w: %s is not an institution", interfaces.ErrUnauthorized, issuer.Hex())
	}
	if r.pause.isPaused() {
		return interfaces.CertificateID{}, interfaces.ErrPaused
	}
	if err := validText(
		"recipient name", req.RecipientName,
		"title", req.Title,
		"cid", req.CID,
		"external id", req.ExternalID,
	); err != nil {
		return interfaces.CertificateID{}, err
	}
	if req.CID == "" {
		return interfaces.CertificateID{}, interfaces.ErrEmptyCID
	}
	if r.ledger.externalIDTaken(req.ExternalID) {
		return interfaces.CertificateID{}, fmt.Errorf("%w: external id %q", interfaces.ErrDuplicateExternalID, req.ExternalID)
	}

	id, nonce := r.ledger.nextID(issuer, req)
	at := r.clock()
	e, err := r.commit(ctx, at, &interfaces.CertificateRegistered{
		ID:            id,
		Issuer:        issuer,
		RecipientName: req.RecipientName,
		Title:         req.Title,
		CID:           req.CID,
		ExternalID:    req.ExternalID,
		IssuedAt:      at,
		Nonce:         nonce,
	})
	if err != nil {
		return interfaces.CertificateID{}, err
	}

	r.log.Info("Certificate registered", "id", id.String(), "issuer", issuer.Hex(), "seq", e.Seq)
	return id, nil
}

// RevokeCertificate checks, in order: pause state, existence, revocation state and
// issuer identity. A revoked certificate reports ErrAlreadyRevoked to every caller.
// Only the issuing wallet may revoke, the admin included.
func (r *Registry) RevokeCertificate(ctx context.Context, caller common.Address, id interfaces.CertificateID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pause.isPaused() {
		return interfaces.ErrPaused
	}
	cert, ok := r.ledger.get(id)
	if !ok {
		return fmt.Errorf("%w: %s", interfaces.ErrCertificateNotFound, id)
	}
	if cert.IsRevoked {
		return fmt.Errorf("%w: %s", interfaces.ErrAlreadyRevoked, id)
	}
	if cert.IssuedBy != caller {
		return fmt.Errorf("%w: %s", interfaces.ErrNotIssuer, caller.Hex())
	}

	e, err := r.commit(ctx, r.clock(), &interfaces.CertificateRevoked{ID: id, Caller: caller})
	if err != nil {
		return err
	}

	r.log.Info("Certificate revoked", "id", id.String(), "caller", caller.Hex(), "seq", e.Seq)
	return nil
}

// Pause engages the pause switch. Pausing a paused registry succeeds and is still recorded.
func (r *Registry) Pause(ctx context.Context, caller common.Address) error {
	return r.setPaused(ctx, caller, true)
}

// Unpause releases the pause switch. Unpausing a running registry succeeds and is still recorded.
func (r *Registry) Unpause(ctx context.Context, caller common.Address) error {
	return r.setPaused(ctx, caller, false)
}

func (r *Registry) setPaused(ctx context.Context, caller common.Address, paused bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.roles.IsAdmin(caller) {
		return fmt.Errorf("%w: %s is not the admin", interfaces.ErrUnauthorized, caller.Hex())
	}

	var payload interfaces.EventPayload = &interfaces.Unpaused{Admin: caller}
	if paused {
		payload = &interfaces.Paused{Admin: caller}
	}

	wasPaused := r.pause.isPaused()
	e, err := r.commit(ctx, r.clock(), payload)
	if err != nil {
		return err
	}

	r.log.Info("Pause switch set", "paused", paused, "changed", wasPaused != paused, "seq", e.Seq)
	return nil
}
