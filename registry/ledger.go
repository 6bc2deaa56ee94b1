package registry

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/trustedcert-registry/interfaces"
)

// ledger holds certificate records and their secondary indexes.
// Records are never deleted; the only mutation is revocation.
type ledger struct {
	certs        map[interfaces.CertificateID]*interfaces.Certificate
	byIssuer     map[common.Address][]interfaces.CertificateID
	byExternalID map[string]interfaces.CertificateID
	nonce        uint64
	revoked      int
}

func newLedger() *ledger {
	return &ledger{
		certs:        make(map[interfaces.CertificateID]*interfaces.Certificate),
		byIssuer:     make(map[common.Address][]interfaces.CertificateID),
		byExternalID: make(map[string]interfaces.CertificateID),
	}
}

func (l *ledger) get(id interfaces.CertificateID) (*interfaces.Certificate, bool) {
	cert, ok := l.certs[id]
	return cert, ok
}

func (l *ledger) externalIDTaken(externalID string) bool {
	if externalID == "" {
		return false
	}
	_, ok := l.byExternalID[externalID]
	return ok
}

// nextID derives the id for a new registration starting at the current nonce,
// skipping nonces whose id is already present.
func (l *ledger) nextID(issuer common.Address, req interfaces.CertificateRequest) (interfaces.CertificateID, uint64) {
	nonce := l.nonce
	for {
		id := DeriveCertificateID(issuer, req, nonce)
		if _, taken := l.certs[id]; !taken {
			return id, nonce
		}
		nonce++
	}
}

func (l *ledger) insert(cert *interfaces.Certificate) {
	l.certs[cert.ID] = cert
	l.byIssuer[cert.IssuedBy] = append(l.byIssuer[cert.IssuedBy], cert.ID)
	if cert.ExternalID != "" {
		l.byExternalID[cert.ExternalID] = cert.ID
	}
	if cert.Nonce >= l.nonce {
		l.nonce = cert.Nonce + 1
	}
}

func (l *ledger) revoke(id interfaces.CertificateID) {
	cert, ok := l.certs[id]
	if !ok || cert.IsRevoked {
		return
	}
	cert.IsRevoked = true
	l.revoked++
}

func (l *ledger) issuedBy(wallet common.Address) []interfaces.CertificateID {
	return append([]interfaces.CertificateID{}, l.byIssuer[wallet]...)
}

func (l *ledger) len() int {
	return len(l.certs)
}
