package registry

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/trustedcert-registry/interfaces"
)

// VerifyCertificate returns a snapshot of the certificate joined with the issuer's
// directory entry. It works while the registry is paused.
func (r *Registry) VerifyCertificate(ctx context.Context, id interfaces.CertificateID) (interfaces.CertificateView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cert, ok := r.ledger.get(id)
	if !ok {
		return interfaces.CertificateView{}, fmt.Errorf("%w: %s", interfaces.ErrCertificateNotFound, id)
	}

	view := interfaces.CertificateView{
		Certificate: *cert,
		IssuerName:  cert.IssuedBy.Hex(),
	}
	if inst, registered := r.dir.get(cert.IssuedBy); registered {
		view.IssuerName = inst.Name
		view.IssuerDescription = inst.Description
		view.IssuerRegistered = true
	}
	return view, nil
}

// ListInstitutions returns the directory in insertion order.
func (r *Registry) ListInstitutions(ctx context.Context) (interfaces.InstitutionList, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.dir.list(), nil
}

// CertificatesOf includes certificates issued before wallet was removed from the directory.
func (r *Registry) CertificatesOf(ctx context.Context, wallet common.Address) ([]interfaces.CertificateID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.ledger.issuedBy(wallet), nil
}

// Roles reports the admin and institution roles held by wallet.
func (r *Registry) Roles(ctx context.Context, wallet common.Address) (interfaces.Roles, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return interfaces.Roles{
		Wallet:      wallet,
		Admin:       r.roles.IsAdmin(wallet),
		Institution: r.roles.IsInstitution(wallet),
	}, nil
}

// Stats returns directory and ledger counters.
func (r *Registry) Stats(ctx context.Context) (interfaces.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return interfaces.Stats{
		Institutions:        r.dir.len(),
		Certificates:        r.ledger.len(),
		RevokedCertificates: r.ledger.revoked,
		Paused:              r.pause.isPaused(),
	}, nil
}

// Status returns the admin, the pause state and the last committed sequence number.
func (r *Registry) Status(ctx context.Context) (interfaces.Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return interfaces.Status{
		Admin:   r.roles.admin,
		Paused:  r.pause.isPaused(),
		LastSeq: r.seq,
	}, nil
}

// Events reads committed events from the journal.
func (r *Registry) Events(ctx context.Context, after uint64, limit int) ([]interfaces.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.journal.Events(ctx, after, limit)
}
