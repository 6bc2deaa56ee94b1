package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/trustedcert-registry/interfaces"
)

// ErrNoTransactOpts is returned when a transaction is attempted without first setting transaction options.
var ErrNoTransactOpts = errors.New("no authorized transactor available")

var (
	// DefaultAdminRole is the AccessControl admin role, the zero hash.
	DefaultAdminRole = common.Hash{}

	// InstitutionRole is keccak256("INSTITUTION_ROLE").
	InstitutionRole = crypto.Keccak256Hash([]byte("INSTITUTION_ROLE"))
)

// CertificateRegistryABI describes the subset of the deployed CertificateRegistry
// contract used by OnchainRegistryClient.
const CertificateRegistryABI = `[
 {"type":"function","name":"hasRole","stateMutability":"view",
  "inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],
  "outputs":[{"name":"","type":"bool"}]},
 {"type":"function","name":"paused","stateMutability":"view","inputs":[],
  "outputs":[{"name":"","type":"bool"}]},
 {"type":"function","name":"getInstitutions","stateMutability":"view","inputs":[],
  "outputs":[{"name":"names","type":"string[]"},{"name":"descriptions","type":"string[]"},{"name":"wallets","type":"address[]"}]},
 {"type":"function","name":"getInstitutionCertificates","stateMutability":"view",
  "inputs":[{"name":"institution","type":"address"}],
  "outputs":[{"name":"","type":"bytes32[]"}]},
 {"type":"function","name":"verifyCertificate","stateMutability":"view",
  "inputs":[{"name":"certId","type":"bytes32"}],
  "outputs":[{"name":"","type":"tuple","components":[
    {"name":"recipientName","type":"string"},
    {"name":"title","type":"string"},
    {"name":"cid","type":"string"},
    {"name":"issuedBy","type":"address"},
    {"name":"issuedAt","type":"uint256"},
    {"name":"isRevoked","type":"bool"}]}]},
 {"type":"function","name":"addInstitution","stateMutability":"nonpayable",
  "inputs":[{"name":"wallet","type":"address"},{"name":"name","type":"string"},{"name":"description","type":"string"}],
  "outputs":[]},
 {"type":"function","name":"removeInstitution","stateMutability":"nonpayable",
  "inputs":[{"name":"wallet","type":"address"}],"outputs":[]},
 {"type":"function","name":"registerCertificate","stateMutability":"nonpayable",
  "inputs":[{"name":"recipientName","type":"string"},{"name":"title","type":"string"},{"name":"cid","type":"string"},{"name":"externalId","type":"string"}],
  "outputs":[{"name":"","type":"bytes32"}]},
 {"type":"function","name":"revokeCertificate","stateMutability":"nonpayable",
  "inputs":[{"name":"certId","type":"bytes32"}],"outputs":[]},
 {"type":"function","name":"pause","stateMutability":"nonpayable","inputs":[],"outputs":[]},
 {"type":"function","name":"unpause","stateMutability":"nonpayable","inputs":[],"outputs":[]},
 {"type":"event","name":"CertificateRegistered","anonymous":false,"inputs":[
  {"name":"certId","type":"bytes32","indexed":true},
  {"name":"issuer","type":"address","indexed":true},
  {"name":"recipientName","type":"string","indexed":false},
  {"name":"title","type":"string","indexed":false},
  {"name":"cid","type":"string","indexed":false}]},
 {"type":"event","name":"CertificateRevoked","anonymous":false,"inputs":[
  {"name":"certId","type":"bytes32","indexed":true},
  {"name":"issuer","type":"address","indexed":true}]}
]`

// onchainCertificate mirrors the verifyCertificate return tuple.
type onchainCertificate struct {
	RecipientName string         `json:"recipientName"`
	Title         string         `json:"title"`
	Cid           string         `json:"cid"`
	IssuedBy      common.Address `json:"issuedBy"`
	IssuedAt      *big.Int       `json:"issuedAt"`
	IsRevoked     bool           `json:"isRevoked"`
}

// OnchainRegistryClient reads and writes a CertificateRegistry contract deployed on an
// EVM chain. It exposes the same vocabulary as the in-process Registry so that both
// can be compared and driven from the same tooling.
type OnchainRegistryClient struct {
	contract *bind.BoundContract
	address  common.Address
	auth     *bind.TransactOpts
}

// NewOnchainRegistryClient creates a new client for the CertificateRegistry contract
// at address. client is usually an *ethclient.Client.
func NewOnchainRegistryClient(client bind.ContractBackend, address common.Address) (*OnchainRegistryClient, error) {
	parsed, err := abi.JSON(strings.NewReader(CertificateRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("could not parse registry ABI: %w", err)
	}

	return &OnchainRegistryClient{
		contract: bind.NewBoundContract(address, parsed, client, client, client),
		address:  address,
	}, nil
}

// SetTransactOpts sets the transaction options required for functions that modify state.
// This must be called before using any methods that send transactions to the blockchain.
func (c *OnchainRegistryClient) SetTransactOpts(auth *bind.TransactOpts) {
	c.auth = auth
}

// Address returns the contract address this client is bound to.
func (c *OnchainRegistryClient) Address() common.Address {
	return c.address
}

func (c *OnchainRegistryClient) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...)
	if err != nil {
		return nil, MapRevertError(err)
	}
	return out, nil
}

func (c *OnchainRegistryClient) hasRole(ctx context.Context, role common.Hash, wallet common.Address) (bool, error) {
	out, err := c.call(ctx, "hasRole", role, wallet)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// IsAdmin reports whether wallet holds DEFAULT_ADMIN_ROLE.
func (c *OnchainRegistryClient) IsAdmin(ctx context.Context, wallet common.Address) (bool, error) {
	return c.hasRole(ctx, DefaultAdminRole, wallet)
}

// IsInstitution reports whether wallet holds INSTITUTION_ROLE.
func (c *OnchainRegistryClient) IsInstitution(ctx context.Context, wallet common.Address) (bool, error) {
	return c.hasRole(ctx, InstitutionRole, wallet)
}

func (c *OnchainRegistryClient) Paused(ctx context.Context) (bool, error) {
	out, err := c.call(ctx, "paused")
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// ListInstitutions zips the three parallel columns returned by getInstitutions.
func (c *OnchainRegistryClient) ListInstitutions(ctx context.Context) (interfaces.InstitutionList, error) {
	out, err := c.call(ctx, "getInstitutions")
	if err != nil {
		return nil, err
	}

	names := *abi.ConvertType(out[0], new([]string)).(*[]string)
	descriptions := *abi.ConvertType(out[1], new([]string)).(*[]string)
	wallets := *abi.ConvertType(out[2], new([]common.Address)).(*[]common.Address)
	if len(names) != len(wallets) || len(descriptions) != len(wallets) {
		return nil, fmt.Errorf("getInstitutions returned columns of different lengths: %d/%d/%d", len(names), len(descriptions), len(wallets))
	}

	list := make(interfaces.InstitutionList, 0, len(wallets))
	for i := range wallets {
		list = append(list, interfaces.Institution{
			Wallet:      wallets[i],
			Name:        names[i],
			Description: descriptions[i],
		})
	}
	return list, nil
}

func (c *OnchainRegistryClient) CertificatesOf(ctx context.Context, wallet common.Address) ([]interfaces.CertificateID, error) {
	out, err := c.call(ctx, "getInstitutionCertificates", wallet)
	if err != nil {
		return nil, err
	}

	raw := *abi.ConvertType(out[0], new([][32]byte)).(*[][32]byte)
	ids := make([]interfaces.CertificateID, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, interfaces.CertificateID(id))
	}
	return ids, nil
}

// VerifyCertificate reads the certificate and joins it with the on-chain directory.
// The contract keeps no external id or nonce, so those fields are left empty.
func (c *OnchainRegistryClient) VerifyCertificate(ctx context.Context, id interfaces.CertificateID) (interfaces.CertificateView, error) {
	out, err := c.call(ctx, "verifyCertificate", [32]byte(id))
	if err != nil {
		return interfaces.CertificateView{}, err
	}
	cert := *abi.ConvertType(out[0], new(onchainCertificate)).(*onchainCertificate)

	view := interfaces.CertificateView{
		Certificate: interfaces.Certificate{
			ID:            id,
			RecipientName: cert.RecipientName,
			Title:         cert.Title,
			CID:           cert.Cid,
			IssuedBy:      cert.IssuedBy,
			IsRevoked:     cert.IsRevoked,
		},
		IssuerName: cert.IssuedBy.Hex(),
	}
	if cert.IssuedAt != nil && cert.IssuedAt.IsInt64() {
		view.IssuedAt = time.Unix(cert.IssuedAt.Int64(), 0).UTC()
	}

	institutions, err := c.ListInstitutions(ctx)
	if err != nil {
		return interfaces.CertificateView{}, err
	}
	for _, inst := range institutions {
		if inst.Wallet == cert.IssuedBy {
			view.IssuerName = inst.Name
			view.IssuerDescription = inst.Description
			view.IssuerRegistered = true
			break
		}
	}
	return view, nil
}

func (c *OnchainRegistryClient) transact(method string, params ...interface{}) (*types.Transaction, error) {
	if c.auth == nil {
		return nil, ErrNoTransactOpts
	}
	tx, err := c.contract.Transact(c.auth, method, params...)
	if err != nil {
		return nil, MapRevertError(err)
	}
	return tx, nil
}

// AddInstitution sends an addInstitution transaction.
// Returns the transaction and an error if the transaction could not be sent.
func (c *OnchainRegistryClient) AddInstitution(wallet common.Address, name, description string) (*types.Transaction, error) {
	return c.transact("addInstitution", wallet, name, description)
}

// RemoveInstitution sends a removeInstitution transaction.
func (c *OnchainRegistryClient) RemoveInstitution(wallet common.Address) (*types.Transaction, error) {
	return c.transact("removeInstitution", wallet)
}

// RegisterCertificate sends a registerCertificate transaction. The certificate id is only
// known once the transaction is mined and its CertificateRegistered log is read.
func (c *OnchainRegistryClient) RegisterCertificate(req interfaces.CertificateRequest) (*types.Transaction, error) {
	return c.transact("registerCertificate", req.RecipientName, req.Title, req.CID, req.ExternalID)
}

func (c *OnchainRegistryClient) RevokeCertificate(id interfaces.CertificateID) (*types.Transaction, error) {
	return c.transact("revokeCertificate", [32]byte(id))
}

func (c *OnchainRegistryClient) Pause() (*types.Transaction, error) {
	return c.transact("pause")
}

func (c *OnchainRegistryClient) Unpause() (*types.Transaction, error) {
	return c.transact("unpause")
}

var revertReasons = []struct {
	reason string
	err    error
}{
	{"Certificate already exists", interfaces.ErrDuplicateExternalID},
	{"Not issuer of this certificate", interfaces.ErrNotIssuer},
	{"Already revoked", interfaces.ErrAlreadyRevoked},
	{"Certificate does not exist", interfaces.ErrCertificateNotFound},
	{"Pausable: paused", interfaces.ErrPaused},
	{"AccessControl:", interfaces.ErrUnauthorized},
}

// MapRevertError wraps the registry sentinel matching a contract revert reason.
// Errors with an unknown reason are returned unchanged.
func MapRevertError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, rr := range revertReasons {
		if strings.Contains(msg, rr.reason) {
			return fmt.Errorf("%w: %v", rr.err, err)
		}
	}
	return err
}
