package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/trustedcert-registry/interfaces"
	"github.com/ruteri/trustedcert-registry/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin    = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	acme     = common.HexToAddress("0x000000000000000000000000000000000000a001")
	globex   = common.HexToAddress("0x000000000000000000000000000000000000a002")
	stranger = common.HexToAddress("0x000000000000000000000000000000000000beef")
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// failingJournal fails every Append while fail is set.
type failingJournal struct {
	*journal.MemoryJournal
	fail bool
}

var errJournalDown = errors.New("journal down")

func (j *failingJournal) Append(ctx context.Context, e interfaces.Event) error {
	if j.fail {
		return errJournalDown
	}
	return j.MemoryJournal.Append(ctx, e)
}

func newTestRegistry(t *testing.T) (*Registry, *journal.MemoryJournal) {
	t.Helper()
	j := journal.NewMemoryJournal()
	clock := &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	reg, err := New(context.Background(), admin, j, WithClock(clock.Now))
	require.NoError(t, err)
	return reg, j
}

func addAcme(t *testing.T, reg *Registry) {
	t.Helper()
	require.NoError(t, reg.AddInstitution(context.Background(), admin, acme, "Acme", "desc"))
}

func TestNew_RejectsZeroAdmin(t *testing.T) {
	_, err := New(context.Background(), common.Address{}, journal.NewMemoryJournal())
	require.ErrorIs(t, err, interfaces.ErrInvalidAddress)
}

func TestInstitutionMembership(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	roles, err := reg.Roles(ctx, acme)
	require.NoError(t, err)
	assert.False(t, roles.Institution)

	addAcme(t, reg)
	roles, err = reg.Roles(ctx, acme)
	require.NoError(t, err)
	assert.True(t, roles.Institution)
	assert.False(t, roles.Admin)

	require.NoError(t, reg.RemoveInstitution(ctx, admin, acme))
	roles, err = reg.Roles(ctx, acme)
	require.NoError(t, err)
	assert.False(t, roles.Institution)

	list, err := reg.ListInstitutions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	roles, err = reg.Roles(ctx, admin)
	require.NoError(t, err)
	assert.True(t, roles.Admin)
	assert.False(t, roles.Institution)
}

func TestAddInstitution(t *testing.T) {
	ctx := context.Background()
	reg, j := newTestRegistry(t)

	err := reg.AddInstitution(ctx, stranger, acme, "Acme", "desc")
	require.ErrorIs(t, err, interfaces.ErrUnauthorized)

	err = reg.AddInstitution(ctx, admin, common.Address{}, "Nobody", "")
	require.ErrorIs(t, err, interfaces.ErrInvalidAddress)

	addAcme(t, reg)

	t.Run("re-adding is rejected and keeps metadata", func(t *testing.T) {
		err := reg.AddInstitution(ctx, admin, acme, "Evil Acme", "overwritten")
		require.ErrorIs(t, err, interfaces.ErrAlreadyRegistered)

		list, err := reg.ListInstitutions(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Acme", list[0].Name)
		assert.Equal(t, "desc", list[0].Description)
	})

	t.Run("admin may also be an institution", func(t *testing.T) {
		require.NoError(t, reg.AddInstitution(ctx, admin, admin, "Registry Office", ""))
		roles, err := reg.Roles(ctx, admin)
		require.NoError(t, err)
		assert.True(t, roles.Admin)
		assert.True(t, roles.Institution)
	})

	last, err := j.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), last, "failed calls must not reach the journal")
}

func TestRemoveInstitution(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	err := reg.RemoveInstitution(ctx, admin, acme)
	require.ErrorIs(t, err, interfaces.ErrNotRegistered)

	addAcme(t, reg)
	err = reg.RemoveInstitution(ctx, acme, acme)
	require.ErrorIs(t, err, interfaces.ErrUnauthorized)

	require.NoError(t, reg.RemoveInstitution(ctx, admin, acme))
	err = reg.RemoveInstitution(ctx, admin, acme)
	require.ErrorIs(t, err, interfaces.ErrNotRegistered)

	// A removed wallet can be registered again.
	require.NoError(t, reg.AddInstitution(ctx, admin, acme, "Acme 2", "again"))
}

func TestListInstitutions_InsertionOrder(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	wallets := make([]common.Address, 4)
	for i := range wallets {
		wallets[i] = common.BytesToAddress([]byte{0xc0, byte(i + 1)})
		require.NoError(t, reg.AddInstitution(ctx, admin, wallets[i], fmt.Sprintf("inst-%d", i), fmt.Sprintf("desc-%d", i)))
	}

	require.NoError(t, reg.RemoveInstitution(ctx, admin, wallets[1]))

	list, err := reg.ListInstitutions(ctx)
	require.NoError(t, err)
	names, descriptions, listed := list.Columns()
	assert.Equal(t, []string{"inst-0", "inst-2", "inst-3"}, names)
	assert.Equal(t, []string{"desc-0", "desc-2", "desc-3"}, descriptions)
	assert.Equal(t, []common.Address{wallets[0], wallets[2], wallets[3]}, listed)
}

func TestRegisterCertificate(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)
	addAcme(t, reg)

	req := interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "QmAlice", ExternalID: "EXT-1"}

	_, err := reg.RegisterCertificate(ctx, stranger, req)
	require.ErrorIs(t, err, interfaces.ErrUnauthorized)

	_, err = reg.RegisterCertificate(ctx, admin, req)
	require.ErrorIs(t, err, interfaces.ErrUnauthorized, "admin is not implicitly an institution")

	_, err = reg.RegisterCertificate(ctx, acme, interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc"})
	require.ErrorIs(t, err, interfaces.ErrEmptyCID)

	id, err := reg.RegisterCertificate(ctx, acme, req)
	require.NoError(t, err)
	assert.Equal(t, DeriveCertificateID(acme, req, 0), id)

	view, err := reg.VerifyCertificate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, view.ID)
	assert.Equal(t, "Alice", view.RecipientName)
	assert.Equal(t, "BSc", view.Title)
	assert.Equal(t, "QmAlice", view.CID)
	assert.Equal(t, "EXT-1", view.ExternalID)
	assert.Equal(t, acme, view.IssuedBy)
	assert.False(t, view.IsRevoked)
	assert.False(t, view.IssuedAt.IsZero())
	assert.Equal(t, "Acme", view.IssuerName)
	assert.Equal(t, "desc", view.IssuerDescription)
	assert.True(t, view.IssuerRegistered)

	ids, err := reg.CertificatesOf(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.CertificateID{id}, ids)
}

func TestRegisterCertificate_ExternalIDIsGloballyUnique(t *testing.T) {
	ctx := context.Background()
	reg, j := newTestRegistry(t)
	addAcme(t, reg)
	require.NoError(t, reg.AddInstitution(ctx, admin, globex, "Globex", ""))

	req := interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "Qm1", ExternalID: "DIPLOMA-42"}
	_, err := reg.RegisterCertificate(ctx, acme, req)
	require.NoError(t, err)

	_, err = reg.RegisterCertificate(ctx, acme, req)
	require.ErrorIs(t, err, interfaces.ErrDuplicateExternalID)

	other := interfaces.CertificateRequest{RecipientName: "Bob", Title: "MSc", CID: "Qm2", ExternalID: "DIPLOMA-42"}
	_, err = reg.RegisterCertificate(ctx, globex, other)
	require.ErrorIs(t, err, interfaces.ErrDuplicateExternalID, "uniqueness spans institutions")

	last, err := j.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last)
}

func TestRegisterCertificate_EmptyExternalIDRepeats(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)
	addAcme(t, reg)

	req := interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "Qm1"}
	seen := map[interfaces.CertificateID]bool{}
	for i := 0; i < 10; i++ {
		id, err := reg.RegisterCertificate(ctx, acme, req)
		require.NoError(t, err)
		require.False(t, seen[id], "id %s issued twice", id)
		seen[id] = true
	}

	ids, err := reg.CertificatesOf(ctx, acme)
	require.NoError(t, err)
	assert.Len(t, ids, 10)
}

func TestRevokeCertificate(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)
	addAcme(t, reg)
	require.NoError(t, reg.AddInstitution(ctx, admin, globex, "Globex", ""))

	id, err := reg.RegisterCertificate(ctx, acme, interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "Qm1"})
	require.NoError(t, err)

	err = reg.RevokeCertificate(ctx, acme, interfaces.CertificateID(crypto.Keccak256Hash([]byte("never issued"))))
	require.ErrorIs(t, err, interfaces.ErrCertificateNotFound)

	for _, caller := range []common.Address{admin, globex, stranger} {
		err = reg.RevokeCertificate(ctx, caller, id)
		require.ErrorIs(t, err, interfaces.ErrNotIssuer, "caller %s", caller.Hex())
	}

	require.NoError(t, reg.RevokeCertificate(ctx, acme, id))

	for _, caller := range []common.Address{acme, admin, globex, stranger} {
		err = reg.RevokeCertificate(ctx, caller, id)
		require.ErrorIs(t, err, interfaces.ErrAlreadyRevoked, "caller %s", caller.Hex())
	}

	view, err := reg.VerifyCertificate(ctx, id)
	require.NoError(t, err)
	assert.True(t, view.IsRevoked)
}

func TestRevokeCertificate_OrphanedIssuerKeepsRevocation(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)
	addAcme(t, reg)

	id, err := reg.RegisterCertificate(ctx, acme, interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "Qm1"})
	require.NoError(t, err)
	require.NoError(t, reg.RemoveInstitution(ctx, admin, acme))

	require.NoError(t, reg.RevokeCertificate(ctx, acme, id))
}

func TestPause(t *testing.T) {
	ctx := context.Background()
	reg, j := newTestRegistry(t)
	addAcme(t, reg)

	req := interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "Qm1"}
	id, err := reg.RegisterCertificate(ctx, acme, req)
	require.NoError(t, err)

	require.ErrorIs(t, reg.Pause(ctx, acme), interfaces.ErrUnauthorized)
	require.ErrorIs(t, reg.Unpause(ctx, stranger), interfaces.ErrUnauthorized)

	require.NoError(t, reg.Pause(ctx, admin))

	_, err = reg.RegisterCertificate(ctx, acme, req)
	require.ErrorIs(t, err, interfaces.ErrPaused)
	err = reg.RevokeCertificate(ctx, acme, id)
	require.ErrorIs(t, err, interfaces.ErrPaused)

	t.Run("authorization is checked before pause", func(t *testing.T) {
		_, err := reg.RegisterCertificate(ctx, stranger, req)
		require.ErrorIs(t, err, interfaces.ErrUnauthorized)
	})

	t.Run("reads keep working", func(t *testing.T) {
		_, err := reg.VerifyCertificate(ctx, id)
		require.NoError(t, err)
		list, err := reg.ListInstitutions(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
		ids, err := reg.CertificatesOf(ctx, acme)
		require.NoError(t, err)
		assert.Len(t, ids, 1)
	})

	t.Run("directory stays manageable", func(t *testing.T) {
		require.NoError(t, reg.AddInstitution(ctx, admin, globex, "Globex", ""))
		require.NoError(t, reg.RemoveInstitution(ctx, admin, globex))
	})

	stats, err := reg.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.Paused)

	require.NoError(t, reg.Unpause(ctx, admin))
	_, err = reg.RegisterCertificate(ctx, acme, req)
	require.NoError(t, err)
	require.NoError(t, reg.RevokeCertificate(ctx, acme, id))

	events, err := j.Events(ctx, 0, 0)
	require.NoError(t, err)
	var types []interfaces.EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []interfaces.EventType{
		interfaces.EventInstitutionAdded,
		interfaces.EventCertificateRegistered,
		interfaces.EventPaused,
		interfaces.EventInstitutionAdded,
		interfaces.EventInstitutionRemoved,
		interfaces.EventUnpaused,
		interfaces.EventCertificateRegistered,
		interfaces.EventCertificateRevoked,
	}, types)
}

func TestPause_MatchingStateIsRecordedNoOp(t *testing.T) {
	ctx := context.Background()
	reg, j := newTestRegistry(t)

	require.NoError(t, reg.Unpause(ctx, admin))
	require.NoError(t, reg.Pause(ctx, admin))
	require.NoError(t, reg.Pause(ctx, admin))

	status, err := reg.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Paused)
	assert.Equal(t, admin, status.Admin)
	assert.Equal(t, uint64(3), status.LastSeq)

	events, err := j.Events(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, interfaces.EventUnpaused, events[0].Type)
	assert.Equal(t, interfaces.EventPaused, events[1].Type)
	assert.Equal(t, interfaces.EventPaused, events[2].Type)

	payload, err := events[2].Decode()
	require.NoError(t, err)
	assert.Equal(t, &interfaces.Paused{Admin: admin}, payload)
}

func TestRemovalKeepsIssuedCertificates(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)
	addAcme(t, reg)

	id, err := reg.RegisterCertificate(ctx, acme, interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "Qm1", ExternalID: "E1"})
	require.NoError(t, err)
	before, err := reg.VerifyCertificate(ctx, id)
	require.NoError(t, err)

	require.NoError(t, reg.RemoveInstitution(ctx, admin, acme))

	ids, err := reg.CertificatesOf(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.CertificateID{id}, ids)

	after, err := reg.VerifyCertificate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.Certificate, after.Certificate)
	assert.Equal(t, acme.Hex(), after.IssuerName)
	assert.Empty(t, after.IssuerDescription)
	assert.False(t, after.IssuerRegistered)

	// The external id stays taken after the issuer is gone.
	require.NoError(t, reg.AddInstitution(ctx, admin, globex, "Globex", ""))
	_, err = reg.RegisterCertificate(ctx, globex, interfaces.CertificateRequest{RecipientName: "Bob", Title: "BSc", CID: "Qm2", ExternalID: "E1"})
	require.ErrorIs(t, err, interfaces.ErrDuplicateExternalID)
}

func TestScenario_AliceBSc(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)
	addAcme(t, reg)

	req := interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "QmBSc"}
	id1, err := reg.RegisterCertificate(ctx, acme, req)
	require.NoError(t, err)
	id2, err := reg.RegisterCertificate(ctx, acme, req)
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	for _, id := range []interfaces.CertificateID{id1, id2} {
		view, err := reg.VerifyCertificate(ctx, id)
		require.NoError(t, err)
		assert.False(t, view.IsRevoked)
	}

	require.NoError(t, reg.RevokeCertificate(ctx, acme, id1))

	view1, err := reg.VerifyCertificate(ctx, id1)
	require.NoError(t, err)
	assert.True(t, view1.IsRevoked)
	view2, err := reg.VerifyCertificate(ctx, id2)
	require.NoError(t, err)
	assert.False(t, view2.IsRevoked)

	err = reg.RevokeCertificate(ctx, acme, id1)
	require.ErrorIs(t, err, interfaces.ErrAlreadyRevoked)

	stats, err := reg.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, interfaces.Stats{Institutions: 1, Certificates: 2, RevokedCertificates: 1}, stats)
}

func TestVerifyCertificate_NeverIssued(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, err := reg.VerifyCertificate(context.Background(), interfaces.CertificateID(crypto.Keccak256Hash([]byte("arbitrary"))))
	require.ErrorIs(t, err, interfaces.ErrCertificateNotFound)
}

func TestJournalFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	j := &failingJournal{MemoryJournal: journal.NewMemoryJournal()}
	reg, err := New(ctx, admin, j)
	require.NoError(t, err)
	require.NoError(t, reg.AddInstitution(ctx, admin, acme, "Acme", "desc"))

	j.fail = true
	err = reg.AddInstitution(ctx, admin, globex, "Globex", "")
	require.ErrorIs(t, err, errJournalDown)
	_, err = reg.RegisterCertificate(ctx, acme, interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "Qm1", ExternalID: "E1"})
	require.ErrorIs(t, err, errJournalDown)
	require.ErrorIs(t, reg.Pause(ctx, admin), errJournalDown)

	stats, err := reg.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, interfaces.Stats{Institutions: 1}, stats)
	status, err := reg.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), status.LastSeq)

	j.fail = false
	_, err = reg.RegisterCertificate(ctx, acme, interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "Qm1", ExternalID: "E1"})
	require.NoError(t, err, "the failed attempt must not reserve the external id")
}

func TestCancelledContextDoesNotAbortAdmittedMutation(t *testing.T) {
	reg, j := newTestRegistry(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, reg.AddInstitution(ctx, admin, acme, "Acme", "desc"))
	last, err := j.LastSeq(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), last)
}

func TestConcurrentRegistrations(t *testing.T) {
	ctx := context.Background()
	reg, j := newTestRegistry(t)
	addAcme(t, reg)
	require.NoError(t, reg.AddInstitution(ctx, admin, globex, "Globex", ""))

	const perIssuer = 25
	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := map[interfaces.CertificateID]bool{}
	dupRejected := 0

	for _, issuer := range []common.Address{acme, globex} {
		for i := 0; i < perIssuer; i++ {
			wg.Add(1)
			go func(issuer common.Address, i int) {
				defer wg.Done()
				id, err := reg.RegisterCertificate(ctx, issuer, interfaces.CertificateRequest{
					RecipientName: "Same",
					Title:         "Same",
					CID:           "QmSame",
					ExternalID:    fmt.Sprintf("shared-%d", i),
				})
				mu.Lock()
				defer mu.Unlock()
				if errors.Is(err, interfaces.ErrDuplicateExternalID) {
					dupRejected++
					return
				}
				assert.NoError(t, err)
				ids[id] = true
			}(issuer, i)
		}
	}
	wg.Wait()

	assert.Len(t, ids, perIssuer)
	assert.Equal(t, perIssuer, dupRejected)

	last, err := j.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2+perIssuer), last)
}

func TestReplayRebuildsState(t *testing.T) {
	ctx := context.Background()
	reg, j := newTestRegistry(t)
	addAcme(t, reg)
	require.NoError(t, reg.AddInstitution(ctx, admin, globex, "Globex", "g"))

	id1, err := reg.RegisterCertificate(ctx, acme, interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "Qm1"})
	require.NoError(t, err)
	id2, err := reg.RegisterCertificate(ctx, globex, interfaces.CertificateRequest{RecipientName: "Bob", Title: "MSc", CID: "Qm2", ExternalID: "G-1"})
	require.NoError(t, err)
	require.NoError(t, reg.RevokeCertificate(ctx, acme, id1))
	require.NoError(t, reg.RemoveInstitution(ctx, admin, acme))
	require.NoError(t, reg.Pause(ctx, admin))

	events, err := j.Events(ctx, 0, 0)
	require.NoError(t, err)

	replayed, err := Replay(ctx, admin, events)
	require.NoError(t, err)

	for _, id := range []interfaces.CertificateID{id1, id2} {
		want, err := reg.VerifyCertificate(ctx, id)
		require.NoError(t, err)
		got, err := replayed.VerifyCertificate(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	wantList, _ := reg.ListInstitutions(ctx)
	gotList, _ := replayed.ListInstitutions(ctx)
	assert.Equal(t, wantList, gotList)

	wantStats, _ := reg.Stats(ctx)
	gotStats, _ := replayed.Stats(ctx)
	assert.Equal(t, wantStats, gotStats)

	wantStatus, _ := reg.Status(ctx)
	gotStatus, _ := replayed.Status(ctx)
	assert.Equal(t, wantStatus, gotStatus)

	ids, err := replayed.CertificatesOf(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.CertificateID{id1}, ids)

	t.Run("nonce continues after replay", func(t *testing.T) {
		require.NoError(t, replayed.Unpause(ctx, admin))
		id3, err := replayed.RegisterCertificate(ctx, globex, interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "Qm1"})
		require.NoError(t, err)
		assert.NotEqual(t, id1, id3)
		assert.NotEqual(t, id2, id3)
	})
}

func TestReplayRejectsTamperedJournal(t *testing.T) {
	ctx := context.Background()
	reg, j := newTestRegistry(t)
	addAcme(t, reg)
	_, err := reg.RegisterCertificate(ctx, acme, interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "Qm1"})
	require.NoError(t, err)

	events, err := j.Events(ctx, 0, 0)
	require.NoError(t, err)

	t.Run("altered certificate", func(t *testing.T) {
		tampered := append([]interfaces.Event{}, events...)
		payload, err := tampered[1].Decode()
		require.NoError(t, err)
		registered := payload.(*interfaces.CertificateRegistered)
		registered.RecipientName = "Mallory"
		tampered[1], err = interfaces.NewEvent(2, tampered[1].OccurredAt, registered)
		require.NoError(t, err)

		_, err = Replay(ctx, admin, tampered)
		require.ErrorIs(t, err, ErrCorruptJournal)
	})

	t.Run("revocation by non-issuer", func(t *testing.T) {
		registered, err := events[1].Decode()
		require.NoError(t, err)
		revoke, err := interfaces.NewEvent(3, time.Now(), &interfaces.CertificateRevoked{
			ID:     registered.(*interfaces.CertificateRegistered).ID,
			Caller: stranger,
		})
		require.NoError(t, err)

		_, err = Replay(ctx, admin, append(append([]interfaces.Event{}, events...), revoke))
		require.ErrorIs(t, err, ErrCorruptJournal)
	})

	t.Run("sequence gap", func(t *testing.T) {
		_, err := Replay(ctx, admin, events[1:])
		require.ErrorIs(t, err, ErrCorruptJournal)
	})
}

func TestRestartFromJournal(t *testing.T) {
	ctx := context.Background()
	reg, j := newTestRegistry(t)
	addAcme(t, reg)
	id, err := reg.RegisterCertificate(ctx, acme, interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "Qm1", ExternalID: "E1"})
	require.NoError(t, err)

	restarted, err := New(ctx, admin, j)
	require.NoError(t, err)

	view, err := restarted.VerifyCertificate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", view.IssuerName)

	_, err = restarted.RegisterCertificate(ctx, acme, interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "Qm1", ExternalID: "E1"})
	require.ErrorIs(t, err, interfaces.ErrDuplicateExternalID)

	require.NoError(t, restarted.Pause(ctx, admin))
	last, err := j.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last)
}

func TestRejectsInvalidUTF8(t *testing.T) {
	ctx := context.Background()
	reg, j := newTestRegistry(t)
	addAcme(t, reg)

	before, err := j.LastSeq(ctx)
	require.NoError(t, err)

	valid := interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "Qm1", ExternalID: "E1"}
	cases := map[string]func(*interfaces.CertificateRequest){
		"recipient name": func(r *interfaces.CertificateRequest) { r.RecipientName = "Al\xffice" },
		"title":          func(r *interfaces.CertificateRequest) { r.Title = "B\xc3Sc" },
		"cid":            func(r *interfaces.CertificateRequest) { r.CID = "Qm\xfe" },
		"external id":    func(r *interfaces.CertificateRequest) { r.ExternalID = "E\x80" },
	}
	for name, corrupt := range cases {
		t.Run(name, func(t *testing.T) {
			req := valid
			corrupt(&req)
			_, err := reg.RegisterCertificate(ctx, acme, req)
			require.ErrorIs(t, err, interfaces.ErrInvalidInput)
			assert.Equal(t, interfaces.CodeInvalidInput, interfaces.ErrorCode(err))
		})
	}

	err = reg.AddInstitution(ctx, admin, globex, "Glo\xffbex", "")
	require.ErrorIs(t, err, interfaces.ErrInvalidInput)
	err = reg.AddInstitution(ctx, admin, globex, "Globex", "est. \xff")
	require.ErrorIs(t, err, interfaces.ErrInvalidInput)
	roles, err := reg.Roles(ctx, globex)
	require.NoError(t, err)
	assert.False(t, roles.Institution)

	after, err := j.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// Multi-byte text is accepted and survives a restart unchanged.
	require.NoError(t, reg.AddInstitution(ctx, admin, globex, "Globex Universität", "東京"))
	id, err := reg.RegisterCertificate(ctx, acme, interfaces.CertificateRequest{RecipientName: "Zoë", Title: "MSc", CID: "Qm2"})
	require.NoError(t, err)

	restarted, err := New(ctx, admin, j)
	require.NoError(t, err)
	view, err := restarted.VerifyCertificate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Zoë", view.RecipientName)

	insts, err := restarted.ListInstitutions(ctx)
	require.NoError(t, err)
	liveInsts, err := reg.ListInstitutions(ctx)
	require.NoError(t, err)
	assert.Equal(t, liveInsts, insts)
}
