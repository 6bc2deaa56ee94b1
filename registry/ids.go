package registry

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/trustedcert-registry/interfaces"
)

// DeriveCertificateID computes the certificate id for a registration.
//
// The digest is keccak256 over the issuer's 20 address bytes, each request field
// prefixed with its big-endian uint64 length, and the big-endian uint64 ledger nonce.
// Length prefixes keep ("ab", "c") and ("a", "bc") apart; the nonce separates
// byte-identical submissions.
func DeriveCertificateID(issuer common.Address, req interfaces.CertificateRequest, nonce uint64) interfaces.CertificateID {
	buf := make([]byte, 0, common.AddressLength+4*8+len(req.RecipientName)+len(req.Title)+len(req.CID)+len(req.ExternalID)+8)
	buf = append(buf, issuer.Bytes()...)
	for _, field := range []string{req.RecipientName, req.Title, req.CID, req.ExternalID} {
		buf = binary.BigEndian.AppendUint64(buf, uint64(len(field)))
		buf = append(buf, field...)
	}
	buf = binary.BigEndian.AppendUint64(buf, nonce)

	return interfaces.CertificateID(crypto.Keccak256Hash(buf))
}
