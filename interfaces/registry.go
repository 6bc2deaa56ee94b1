package interfaces

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// CertificateRegistry is the authorization and state-transition core of the system.
// Every mutating call is serialized with respect to every other call and is either
// fully applied, with exactly one event appended to the journal, or not applied at all.
type CertificateRegistry interface {
	// AddInstitution grants institution privilege to wallet and stores its metadata.
	// Admin only.
	AddInstitution(ctx context.Context, caller, wallet common.Address, name, description string) error

	// RemoveInstitution revokes privilege and deletes the directory entry of wallet.
	// Certificates it issued are unaffected. Admin only.
	RemoveInstitution(ctx context.Context, caller, wallet common.Address) error

	// ListInstitutions returns the registered institutions in insertion order.
	ListInstitutions(ctx context.Context) (InstitutionList, error)

	// RegisterCertificate records a new certificate issued by issuer and returns its id.
	RegisterCertificate(ctx context.Context, issuer common.Address, req CertificateRequest) (CertificateID, error)

	// RevokeCertificate marks id revoked. Only the issuing wallet may revoke.
	RevokeCertificate(ctx context.Context, caller common.Address, id CertificateID) error

	// CertificatesOf returns the ids issued by wallet in issuance order.
	CertificatesOf(ctx context.Context, wallet common.Address) ([]CertificateID, error)

	// VerifyCertificate returns a snapshot of the certificate joined with its issuer metadata.
	VerifyCertificate(ctx context.Context, id CertificateID) (CertificateView, error)

	Pause(ctx context.Context, caller common.Address) error
	Unpause(ctx context.Context, caller common.Address) error

	Roles(ctx context.Context, wallet common.Address) (Roles, error)
	Stats(ctx context.Context) (Stats, error)
	Status(ctx context.Context) (Status, error)

	// Events pages through the audit log, see EventJournal.Events.
	Events(ctx context.Context, after uint64, limit int) ([]Event, error)
}
