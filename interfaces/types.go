package interfaces

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// CertificateID uniquely identifies a certificate for the whole lifetime of the ledger.
type CertificateID [32]byte

// NewCertificateIDFromHex parses a 64 character hex string, with or without 0x prefix.
func NewCertificateIDFromHex(source string) (CertificateID, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(source, "0x"), "0X")
	if len(clean) != 64 {
		return CertificateID{}, fmt.Errorf("%w: hex string must be 64 characters", ErrInvalidCertificateID)
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return CertificateID{}, fmt.Errorf("%w: %v", ErrInvalidCertificateID, err)
	}

	var id CertificateID
	copy(id[:], raw)
	return id, nil
}

// String returns the 0x-prefixed lowercase hex representation.
func (id CertificateID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// Bytes returns the raw 32-byte identifier.
func (id CertificateID) Bytes() []byte {
	return id[:]
}

func (id CertificateID) IsZero() bool {
	return id == CertificateID{}
}

func (id CertificateID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *CertificateID) UnmarshalText(text []byte) error {
	parsed, err := NewCertificateIDFromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseWallet parses a hex wallet address. The zero address is rejected.
func ParseWallet(source string) (common.Address, error) {
	if !common.IsHexAddress(source) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, source)
	}
	addr := common.HexToAddress(source)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: zero address", ErrInvalidAddress)
	}
	return addr, nil
}

// Institution is a directory entry. It exists exactly while Wallet holds institution privilege.
type Institution struct {
	Wallet      common.Address `json:"wallet"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
}

// InstitutionList holds the registered institutions in insertion order.
type InstitutionList []Institution

// Columns splits the list into three parallel sequences.
func (l InstitutionList) Columns() (names []string, descriptions []string, wallets []common.Address) {
	names = make([]string, 0, len(l))
	descriptions = make([]string, 0, len(l))
	wallets = make([]common.Address, 0, len(l))
	for _, inst := range l {
		names = append(names, inst.Name)
		descriptions = append(descriptions, inst.Description)
		wallets = append(wallets, inst.Wallet)
	}
	return names, descriptions, wallets
}

// CertificateRequest carries the caller supplied fields of a new certificate.
// An empty ExternalID opts out of deduplication.
type CertificateRequest struct {
	RecipientName string `json:"recipient_name"`
	Title         string `json:"title"`
	CID           string `json:"cid"`
	ExternalID    string `json:"external_id"`
}

// Certificate is a ledger record. IssuedBy never changes and IsRevoked only moves from false to true.
type Certificate struct {
	ID            CertificateID  `json:"id"`
	RecipientName string         `json:"recipient_name"`
	Title         string         `json:"title"`
	CID           string         `json:"cid"`
	ExternalID    string         `json:"external_id"`
	IssuedBy      common.Address `json:"issued_by"`
	IssuedAt      time.Time      `json:"issued_at"`
	IsRevoked     bool           `json:"is_revoked"`

	// Nonce is the ledger nonce mixed into ID at registration.
	Nonce uint64 `json:"nonce"`
}

// CertificateView is the verification snapshot of a certificate joined with its issuer.
// When the issuer has been removed from the directory IssuerName holds the raw wallet.
type CertificateView struct {
	Certificate
	IssuerName        string `json:"issuer_name"`
	IssuerDescription string `json:"issuer_description,omitempty"`
	IssuerRegistered  bool   `json:"issuer_registered"`
}

// Roles reports the privileges a wallet holds.
type Roles struct {
	Wallet      common.Address `json:"wallet"`
	Admin       bool           `json:"admin"`
	Institution bool           `json:"institution"`
}

// Stats aggregates directory and ledger counters.
type Stats struct {
	Institutions        int  `json:"institutions"`
	Certificates        int  `json:"certificates"`
	RevokedCertificates int  `json:"revoked_certificates"`
	Paused              bool `json:"paused"`
}

// Status describes the registry instance.
type Status struct {
	Admin   common.Address `json:"admin"`
	Paused  bool           `json:"paused"`
	LastSeq uint64         `json:"last_seq"`
}
