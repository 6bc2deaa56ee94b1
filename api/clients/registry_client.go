package clients

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/ruteri/trustedcert-registry/api"
	"github.com/ruteri/trustedcert-registry/interfaces"
)

// RequestIDHeader correlates client and server logs.
const RequestIDHeader = "X-Request-Id"

// ErrNoSigningKey is returned by authenticated calls on a client created without a key.
var ErrNoSigningKey = errors.New("client has no signing key")

// APIError is returned for non-2xx responses. It unwraps to the registry sentinel
// matching Code, so callers can use errors.Is(err, interfaces.ErrPaused) and friends.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("registry API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return interfaces.ErrorForCode(e.Code)
}

// RegistryClient talks to the registry HTTP API. Authenticated calls are signed
// with the wallet key given to NewRegistryClient.
type RegistryClient struct {
	baseURL    string
	key        *ecdsa.PrivateKey
	httpClient *http.Client
	now        func() time.Time
}

// NewRegistryClient creates a new client for the registry API.
//
// Parameters:
//   - baseURL: The base URL of the registry API (e.g., "http://localhost:8080")
//   - key: The wallet private key used to sign requests, nil for read-only use
//   - timeout: Request timeout duration (optional, default 30 seconds)
func NewRegistryClient(baseURL string, key *ecdsa.PrivateKey, timeout ...time.Duration) *RegistryClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &RegistryClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		key:        key,
		httpClient: &http.Client{Timeout: clientTimeout},
		now:        time.Now,
	}
}

// Address returns the wallet the client signs as, or the zero address.
func (c *RegistryClient) Address() common.Address {
	if c.key == nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(c.key.PublicKey)
}

func (c *RegistryClient) do(ctx context.Context, method, path string, body []byte, contentType string, signed bool, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())

	if signed {
		if c.key == nil {
			return ErrNoSigningKey
		}
		if err := api.SignRequest(req, body, c.key, c.now()); err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}

	var parsed api.ErrorResponse
	if json.Unmarshal(body, &parsed) == nil && parsed.Code != "" {
		apiErr.Code = parsed.Code
		apiErr.Message = parsed.Error
	}
	return apiErr
}

func (c *RegistryClient) postJSON(ctx context.Context, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}
	return c.do(ctx, http.MethodPost, path, body, "application/json", true, out)
}

func (c *RegistryClient) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", false, out)
}

func (c *RegistryClient) Config(ctx context.Context) (api.ConfigResponse, error) {
	var cfg api.ConfigResponse
	err := c.get(ctx, "/api/public/config", &cfg)
	return cfg, err
}

func (c *RegistryClient) Status(ctx context.Context) (interfaces.Status, error) {
	var status interfaces.Status
	err := c.get(ctx, "/api/public/status", &status)
	return status, err
}

func (c *RegistryClient) Stats(ctx context.Context) (interfaces.Stats, error) {
	var stats interfaces.Stats
	err := c.get(ctx, "/api/public/stats", &stats)
	return stats, err
}

func (c *RegistryClient) ListInstitutions(ctx context.Context) (interfaces.InstitutionList, error) {
	var resp api.InstitutionsResponse
	if err := c.get(ctx, "/api/public/institutions", &resp); err != nil {
		return nil, err
	}
	return resp.Institutions, nil
}

func (c *RegistryClient) CertificatesOf(ctx context.Context, wallet common.Address) ([]interfaces.CertificateID, error) {
	var resp api.CertificatesResponse
	if err := c.get(ctx, "/api/public/institutions/"+wallet.Hex()+"/certificates", &resp); err != nil {
		return nil, err
	}
	return resp.Certificates, nil
}

func (c *RegistryClient) Roles(ctx context.Context, wallet common.Address) (interfaces.Roles, error) {
	var roles interfaces.Roles
	err := c.get(ctx, "/api/public/roles/"+wallet.Hex(), &roles)
	return roles, err
}

func (c *RegistryClient) VerifyCertificate(ctx context.Context, id interfaces.CertificateID) (interfaces.CertificateView, error) {
	var view interfaces.CertificateView
	err := c.get(ctx, "/api/public/certificates/"+id.String(), &view)
	return view, err
}

// Events returns up to limit events with a sequence number greater than after,
// and the cursor to pass for the next page.
func (c *RegistryClient) Events(ctx context.Context, after uint64, limit int) ([]interfaces.Event, uint64, error) {
	query := url.Values{}
	query.Set("after", strconv.FormatUint(after, 10))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp api.EventsResponse
	if err := c.get(ctx, "/api/public/events?"+query.Encode(), &resp); err != nil {
		return nil, after, err
	}
	return resp.Events, resp.Next, nil
}

func (c *RegistryClient) AddInstitution(ctx context.Context, wallet common.Address, name, description string) error {
	return c.postJSON(ctx, "/api/admin/institutions", api.AddInstitutionRequest{
		Wallet:      wallet.Hex(),
		Name:        name,
		Description: description,
	}, nil)
}

func (c *RegistryClient) RemoveInstitution(ctx context.Context, wallet common.Address) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/institutions/"+wallet.Hex(), nil, "", true, nil)
}

func (c *RegistryClient) Pause(ctx context.Context) error {
	return c.postJSON(ctx, "/api/admin/pause", nil, nil)
}

func (c *RegistryClient) Unpause(ctx context.Context) error {
	return c.postJSON(ctx, "/api/admin/unpause", nil, nil)
}

func (c *RegistryClient) RegisterCertificate(ctx context.Context, req interfaces.CertificateRequest) (interfaces.CertificateID, error) {
	var resp api.RegisterCertificateResponse
	if err := c.postJSON(ctx, "/api/institution/certificates", req, &resp); err != nil {
		return interfaces.CertificateID{}, err
	}
	return resp.ID, nil
}

func (c *RegistryClient) RevokeCertificate(ctx context.Context, id interfaces.CertificateID) error {
	return c.postJSON(ctx, "/api/institution/certificates/"+id.String()+"/revoke", nil, nil)
}

// UploadArtifact stores a certificate document and returns the cid to put on the certificate.
func (c *RegistryClient) UploadArtifact(ctx context.Context, data []byte) (api.ArtifactResponse, error) {
	var resp api.ArtifactResponse
	err := c.do(ctx, http.MethodPost, "/api/institution/artifacts", data, "application/octet-stream", true, &resp)
	return resp, err
}
