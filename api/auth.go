package api

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// Headers carrying the wallet signature of a request.
const (
	AddressHeader   = "X-Registry-Address"
	TimestampHeader = "X-Registry-Timestamp"
	SignatureHeader = "X-Registry-Signature"
	NonceHeader     = "X-Registry-Nonce"
)

// DefaultSignatureMaxAge is the accepted clock skew when none is configured.
const DefaultSignatureMaxAge = 5 * time.Minute

var (
	ErrMissingSignature   = errors.New("missing signature headers")
	ErrMalformedSignature = errors.New("malformed signature")
	ErrStaleSignature     = errors.New("signature timestamp outside accepted window")
	ErrSignerMismatch     = errors.New("signature does not match address")
	ErrReplayedSignature  = errors.New("request nonce already used")
)

// SigningHash returns the EIP-191 personal message hash a wallet signs to
// authenticate a request: "METHOD\nPATH\nTIMESTAMP\nNONCE\n" followed by the raw body.
func SigningHash(method, path string, timestamp int64, nonce string, body []byte) []byte {
	msg := fmt.Appendf(nil, "%s\n%s\n%d\n%s\n", method, path, timestamp, nonce)
	return accounts.TextHash(append(msg, body...))
}

// Sign produces a 65 byte signature with V in {27, 28}, as wallets return it.
func Sign(key *ecdsa.PrivateKey, method, path string, timestamp int64, nonce string, body []byte) ([]byte, error) {
	sig, err := crypto.Sign(SigningHash(method, path, timestamp, nonce, body), key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SignRequest sets the signature headers on req with a fresh nonce, so identical
// requests signed within the same second remain distinct. body must be the exact request body.
func SignRequest(req *http.Request, body []byte, key *ecdsa.PrivateKey, now time.Time) error {
	timestamp := now.Unix()
	nonce := uuid.NewString()
	sig, err := Sign(key, req.Method, req.URL.Path, timestamp, nonce, body)
	if err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}

	req.Header.Set(AddressHeader, crypto.PubkeyToAddress(key.PublicKey).Hex())
	req.Header.Set(TimestampHeader, strconv.FormatInt(timestamp, 10))
	req.Header.Set(SignatureHeader, hexutil.Encode(sig))
	req.Header.Set(NonceHeader, nonce)
	return nil
}

// RecoverSigner returns the wallet that produced sig. V may be 0/1 or 27/28.
func RecoverSigner(method, path string, timestamp int64, nonce string, body, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedSignature, crypto.SignatureLength, len(sig))
	}

	sig = bytes.Clone(sig)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	// High-s signatures are rejected so that a signature has a single valid encoding.
	r, s := new(big.Int).SetBytes(sig[:32]), new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[crypto.RecoveryIDOffset], r, s, true) {
		return common.Address{}, fmt.Errorf("%w: invalid signature values", ErrMalformedSignature)
	}

	pub, err := crypto.SigToPub(SigningHash(method, path, timestamp, nonce, body), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// SignatureVerifier authenticates signed requests. The nonce of every accepted
// request is remembered per signer until its timestamp leaves the accepted window,
// so a captured request cannot be submitted twice.
type SignatureVerifier struct {
	maxAge time.Duration
	now    func() time.Time

	mu        sync.Mutex
	seen      map[string]time.Time
	nextPrune time.Time
}

func NewSignatureVerifier(maxAge time.Duration) *SignatureVerifier {
	if maxAge <= 0 {
		maxAge = DefaultSignatureMaxAge
	}
	return &SignatureVerifier{
		maxAge: maxAge,
		now:    time.Now,
		seen:   make(map[string]time.Time),
	}
}

// MaxAge returns the accepted clock skew.
func (v *SignatureVerifier) MaxAge() time.Duration {
	return v.maxAge
}

// Verify checks the signature headers of r against body and returns the signer.
func (v *SignatureVerifier) Verify(r *http.Request, body []byte) (common.Address, error) {
	addressHex := r.Header.Get(AddressHeader)
	timestampStr := r.Header.Get(TimestampHeader)
	signatureHex := r.Header.Get(SignatureHeader)
	nonce := r.Header.Get(NonceHeader)
	if addressHex == "" || timestampStr == "" || signatureHex == "" || nonce == "" {
		return common.Address{}, ErrMissingSignature
	}
	if _, err := uuid.Parse(nonce); err != nil {
		return common.Address{}, fmt.Errorf("%w: bad nonce %q", ErrMalformedSignature, nonce)
	}

	if !common.IsHexAddress(addressHex) {
		return common.Address{}, fmt.Errorf("%w: bad address %q", ErrMalformedSignature, addressHex)
	}
	claimed := common.HexToAddress(addressHex)

	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedSignature, timestampStr)
	}

	sig, err := hexutil.Decode(signatureHex)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}

	now := v.now()
	signedAt := time.Unix(timestamp, 0)
	if signedAt.Before(now.Add(-v.maxAge)) || signedAt.After(now.Add(v.maxAge)) {
		return common.Address{}, fmt.Errorf("%w: %s", ErrStaleSignature, signedAt.UTC().Format(time.RFC3339))
	}

	signer, err := RecoverSigner(r.Method, r.URL.Path, timestamp, nonce, body, sig)
	if err != nil {
		return common.Address{}, err
	}
	if signer != claimed {
		return common.Address{}, fmt.Errorf("%w: recovered %s", ErrSignerMismatch, signer.Hex())
	}

	if err := v.remember(now, signer, nonce, signedAt.Add(v.maxAge)); err != nil {
		return common.Address{}, err
	}
	return signer, nil
}

func (v *SignatureVerifier) remember(now time.Time, signer common.Address, nonce string, expiry time.Time) error {
	// Nonces are compared in canonical form so that re-encodings of one uuid collide.
	key := signer.Hex() + "/" + uuid.MustParse(nonce).String()

	v.mu.Lock()
	defer v.mu.Unlock()

	if now.After(v.nextPrune) {
		for k, exp := range v.seen {
			if now.After(exp) {
				delete(v.seen, k)
			}
		}
		v.nextPrune = now.Add(time.Minute)
	}

	if _, used := v.seen[key]; used {
		return ErrReplayedSignature
	}
	v.seen[key] = expiry
	return nil
}
