package api

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/trustedcert-registry/interfaces"
)

// ErrorResponse is the body of every non-2xx API response.
// Code is one of the interfaces.Code* constants, or a request validation code.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Request validation codes that do not correspond to a registry error.
const (
	CodeBadRequest       = "bad_request"
	CodeInvalidSignature = "invalid_signature"
	CodeTooLarge         = "too_large"
)

// AddInstitutionRequest is the body of POST /api/admin/institutions.
type AddInstitutionRequest struct {
	Wallet      string `json:"wallet"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RegisterCertificateResponse is returned by POST /api/institution/certificates.
type RegisterCertificateResponse struct {
	ID interfaces.CertificateID `json:"id"`
}

// InstitutionsResponse carries the directory both as records and as the three
// parallel columns the on-chain getInstitutions call returns.
type InstitutionsResponse struct {
	Institutions interfaces.InstitutionList `json:"institutions"`
	Names        []string                   `json:"names"`
	Descriptions []string                   `json:"descriptions"`
	Wallets      []common.Address           `json:"wallets"`
}

func NewInstitutionsResponse(list interfaces.InstitutionList) InstitutionsResponse {
	if list == nil {
		list = interfaces.InstitutionList{}
	}
	names, descriptions, wallets := list.Columns()
	return InstitutionsResponse{
		Institutions: list,
		Names:        names,
		Descriptions: descriptions,
		Wallets:      wallets,
	}
}

// CertificatesResponse lists the certificates issued by Wallet in issuance order.
type CertificatesResponse struct {
	Wallet       common.Address             `json:"wallet"`
	Certificates []interfaces.CertificateID `json:"certificates"`
}

// EventsResponse is a page of the audit log. Next is the cursor for the following page.
type EventsResponse struct {
	Events []interfaces.Event `json:"events"`
	Next   uint64             `json:"next"`
}

// ArtifactResponse is returned after a certificate document has been stored.
type ArtifactResponse struct {
	CID  string `json:"cid"`
	Size int    `json:"size"`
}

// ConfigResponse is served to browser front ends so they can locate the registry
// contract and the artifact gateway. It never carries credentials.
type ConfigResponse struct {
	ContractAddress *common.Address `json:"contract_address,omitempty"`
	ChainID         uint64          `json:"chain_id,omitempty"`
	ArtifactGateway string          `json:"artifact_gateway,omitempty"`
	Admin           common.Address  `json:"admin"`
	SignatureMaxAge int64           `json:"signature_max_age_seconds"`
}
