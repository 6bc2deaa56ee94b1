package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/trustedcert-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChain answers eth_call requests for the registry contract from canned values.
// Only the read path of bind.ContractBackend is implemented.
type fakeChain struct {
	bind.ContractBackend

	abi          abi.ABI
	institutions interfaces.InstitutionList
	certificates map[common.Hash]onchainCertificate
	byIssuer     map[common.Address][][32]byte
	paused       bool
	revert       error
}

func newFakeChain(t *testing.T) *fakeChain {
	parsed, err := abi.JSON(strings.NewReader(CertificateRegistryABI))
	require.NoError(t, err)
	return &fakeChain{
		abi:          parsed,
		certificates: make(map[common.Hash]onchainCertificate),
		byIssuer:     make(map[common.Address][][32]byte),
	}
}

func (f *fakeChain) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeChain) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if f.revert != nil {
		return nil, f.revert
	}
	method, err := f.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "hasRole":
		role := common.Hash(args[0].([32]byte))
		account := args[1].(common.Address)
		if role == DefaultAdminRole {
			return method.Outputs.Pack(account == admin)
		}
		for _, inst := range f.institutions {
			if inst.Wallet == account {
				return method.Outputs.Pack(role == InstitutionRole)
			}
		}
		return method.Outputs.Pack(false)
	case "paused":
		return method.Outputs.Pack(f.paused)
	case "getInstitutions":
		names, descriptions, wallets := f.institutions.Columns()
		return method.Outputs.Pack(names, descriptions, wallets)
	case "getInstitutionCertificates":
		ids := f.byIssuer[args[0].(common.Address)]
		if ids == nil {
			ids = [][32]byte{}
		}
		return method.Outputs.Pack(ids)
	case "verifyCertificate":
		cert, ok := f.certificates[common.Hash(args[0].([32]byte))]
		if !ok {
			return nil, errors.New("execution reverted: Certificate does not exist")
		}
		return method.Outputs.Pack(cert)
	}
	return nil, fmt.Errorf("unexpected call to %s", method.Name)
}

func newTestOnchainClient(t *testing.T, chain *fakeChain) *OnchainRegistryClient {
	client, err := NewOnchainRegistryClient(chain, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"))
	require.NoError(t, err)
	return client
}

func TestOnchainRoles(t *testing.T) {
	chain := newFakeChain(t)
	chain.institutions = interfaces.InstitutionList{{Wallet: acme, Name: "Acme University"}}
	client := newTestOnchainClient(t, chain)
	ctx := context.Background()

	isAdmin, err := client.IsAdmin(ctx, admin)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	isAdmin, err = client.IsAdmin(ctx, acme)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	isInstitution, err := client.IsInstitution(ctx, acme)
	require.NoError(t, err)
	assert.True(t, isInstitution)

	isInstitution, err = client.IsInstitution(ctx, stranger)
	require.NoError(t, err)
	assert.False(t, isInstitution)
}

func TestOnchainListInstitutions(t *testing.T) {
	chain := newFakeChain(t)
	chain.institutions = interfaces.InstitutionList{
		{Wallet: acme, Name: "Acme University", Description: "Est. 1901"},
		{Wallet: globex, Name: "Globex Institute", Description: ""},
	}
	client := newTestOnchainClient(t, chain)

	list, err := client.ListInstitutions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, chain.institutions, list)

	chain.paused = true
	paused, err := client.Paused(context.Background())
	require.NoError(t, err)
	assert.True(t, paused)
}

func TestOnchainVerifyCertificate(t *testing.T) {
	chain := newFakeChain(t)
	chain.institutions = interfaces.InstitutionList{{Wallet: acme, Name: "Acme University", Description: "Est. 1901"}}

	id := common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
	orphan := common.HexToHash("0x2222222222222222222222222222222222222222222222222222222222222222")
	chain.certificates[id] = onchainCertificate{
		RecipientName: "Alice",
		Title:         "BSc",
		Cid:           "cid1",
		IssuedBy:      acme,
		IssuedAt:      big.NewInt(1700000000),
	}
	chain.certificates[orphan] = onchainCertificate{
		RecipientName: "Bob",
		Title:         "MSc",
		Cid:           "cid2",
		IssuedBy:      globex,
		IssuedAt:      big.NewInt(1700000100),
		IsRevoked:     true,
	}
	chain.byIssuer[acme] = [][32]byte{id}
	client := newTestOnchainClient(t, chain)
	ctx := context.Background()

	view, err := client.VerifyCertificate(ctx, interfaces.CertificateID(id))
	require.NoError(t, err)
	assert.Equal(t, "Alice", view.RecipientName)
	assert.Equal(t, "cid1", view.CID)
	assert.Equal(t, acme, view.IssuedBy)
	assert.Equal(t, int64(1700000000), view.IssuedAt.Unix())
	assert.Equal(t, "Acme University", view.IssuerName)
	assert.True(t, view.IssuerRegistered)
	assert.False(t, view.IsRevoked)

	view, err = client.VerifyCertificate(ctx, interfaces.CertificateID(orphan))
	require.NoError(t, err)
	assert.Equal(t, globex.Hex(), view.IssuerName)
	assert.False(t, view.IssuerRegistered)
	assert.True(t, view.IsRevoked)

	_, err = client.VerifyCertificate(ctx, interfaces.CertificateID{0x33})
	assert.ErrorIs(t, err, interfaces.ErrCertificateNotFound)

	ids, err := client.CertificatesOf(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.CertificateID{interfaces.CertificateID(id)}, ids)

	ids, err = client.CertificatesOf(ctx, globex)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestOnchainWritesRequireTransactOpts(t *testing.T) {
	client := newTestOnchainClient(t, newFakeChain(t))

	_, err := client.AddInstitution(acme, "Acme University", "")
	assert.ErrorIs(t, err, ErrNoTransactOpts)
	_, err = client.RegisterCertificate(interfaces.CertificateRequest{RecipientName: "Alice", Title: "BSc", CID: "cid1"})
	assert.ErrorIs(t, err, ErrNoTransactOpts)
	_, err = client.RevokeCertificate(interfaces.CertificateID{1})
	assert.ErrorIs(t, err, ErrNoTransactOpts)
	_, err = client.Pause()
	assert.ErrorIs(t, err, ErrNoTransactOpts)
}

func TestMapRevertError(t *testing.T) {
	cases := []struct {
		msg  string
		want error
	}{
		{"execution reverted: Certificate already exists", interfaces.ErrDuplicateExternalID},
		{"execution reverted: Not issuer of this certificate", interfaces.ErrNotIssuer},
		{"execution reverted: Already revoked", interfaces.ErrAlreadyRevoked},
		{"execution reverted: Certificate does not exist", interfaces.ErrCertificateNotFound},
		{"execution reverted: Pausable: paused", interfaces.ErrPaused},
		{"execution reverted: AccessControl: account 0xbeef is missing role 0x00", interfaces.ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			assert.ErrorIs(t, MapRevertError(errors.New(tc.msg)), tc.want)
		})
	}

	other := errors.New("connection refused")
	assert.Equal(t, other, MapRevertError(other))
	assert.NoError(t, MapRevertError(nil))

	chain := newFakeChain(t)
	chain.revert = errors.New("execution reverted: Pausable: paused")
	_, err := newTestOnchainClient(t, chain).Paused(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrPaused)
}
