package interfaces

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificateIDHex(t *testing.T) {
	var id CertificateID
	for i := range id {
		id[i] = byte(i)
	}

	parsed, err := NewCertificateIDFromHex(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	parsed, err = NewCertificateIDFromHex(id.String()[2:])
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = NewCertificateIDFromHex("0x1234")
	assert.ErrorIs(t, err, ErrInvalidCertificateID)

	_, err = NewCertificateIDFromHex("0x" + string(make([]byte, 64)))
	assert.ErrorIs(t, err, ErrInvalidCertificateID)

	assert.True(t, CertificateID{}.IsZero())
	assert.False(t, id.IsZero())
}

func TestCertificateIDJSON(t *testing.T) {
	id := CertificateID{0xab, 0xcd}
	raw, err := json.Marshal(struct {
		ID CertificateID `json:"id"`
	}{id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+id.String()+`"}`, string(raw))

	var decoded struct {
		ID CertificateID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, id, decoded.ID)
}

func TestParseWallet(t *testing.T) {
	addr, err := ParseWallet("0x00000000000000000000000000000000000000a1")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xa1"), addr)

	_, err = ParseWallet("0x0000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = ParseWallet("not-an-address")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestInstitutionListColumns(t *testing.T) {
	list := InstitutionList{
		{Wallet: common.HexToAddress("0x01"), Name: "MIT", Description: "Massachusetts"},
		{Wallet: common.HexToAddress("0x02"), Name: "ETH", Description: "Zurich"},
	}

	names, descriptions, wallets := list.Columns()
	assert.Equal(t, []string{"MIT", "ETH"}, names)
	assert.Equal(t, []string{"Massachusetts", "Zurich"}, descriptions)
	assert.Equal(t, []common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02")}, wallets)

	names, descriptions, wallets = InstitutionList(nil).Columns()
	assert.Empty(t, names)
	assert.Empty(t, descriptions)
	assert.Empty(t, wallets)
}

func TestErrorCodes(t *testing.T) {
	for _, ce := range codeErrors {
		wrapped := errors.Join(errors.New("context"), ce.err)
		assert.Equal(t, ce.code, ErrorCode(wrapped))
		assert.Equal(t, ce.err, ErrorForCode(ce.code))
	}

	assert.Equal(t, CodeInternal, ErrorCode(errors.New("boom")))
	assert.Nil(t, ErrorForCode("nonsense"))
}
