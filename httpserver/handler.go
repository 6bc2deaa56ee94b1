package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/ruteri/trustedcert-registry/api"
	"github.com/ruteri/trustedcert-registry/interfaces"
)

const (
	// maxBodySize is the maximum allowed JSON request body size (1MB).
	maxBodySize = 1024 * 1024

	// DefaultMaxArtifactSize is the upload limit when none is configured (10MiB).
	DefaultMaxArtifactSize = 10 * 1024 * 1024

	defaultEventsLimit = 100
	maxEventsLimit     = 1000
)

type contextKey int

const signerKey contextKey = iota

// Signer returns the authenticated wallet of a request that passed the signature middleware.
func Signer(ctx context.Context) (common.Address, bool) {
	addr, ok := ctx.Value(signerKey).(common.Address)
	return addr, ok
}

// HandlerConfig holds the values served by the config endpoint and the upload limit.
type HandlerConfig struct {
	Config          api.ConfigResponse
	MaxArtifactSize int64
}

// Handler serves the certificate registry API on top of an interfaces.CertificateRegistry.
// Authorization decisions are left to the registry: the handler only establishes
// which wallet is calling.
type Handler struct {
	registry  interfaces.CertificateRegistry
	artifacts interfaces.ArtifactStore
	verifier  *api.SignatureVerifier
	cfg       HandlerConfig
	log       *slog.Logger
}

// NewHandler creates a new HTTP request handler with the specified dependencies.
//
// Parameters:
//   - registry: The certificate registry all calls are delegated to
//   - artifacts: Store for certificate documents, nil disables uploads
//   - verifier: Wallet signature verifier for authenticated routes
//   - cfg: Public configuration and limits
//   - log: Structured logger for operational insights
func NewHandler(registry interfaces.CertificateRegistry, artifacts interfaces.ArtifactStore, verifier *api.SignatureVerifier, cfg HandlerConfig, log *slog.Logger) *Handler {
	if cfg.MaxArtifactSize <= 0 {
		cfg.MaxArtifactSize = DefaultMaxArtifactSize
	}
	cfg.Config.SignatureMaxAge = int64(verifier.MaxAge().Seconds())

	return &Handler{
		registry:  registry,
		artifacts: artifacts,
		verifier:  verifier,
		cfg:       cfg,
		log:       log,
	}
}

// RegisterRoutes mounts the public, admin and institution routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/public", func(r chi.Router) {
		r.Get("/config", h.HandleConfig)
		r.Get("/status", h.HandleStatus)
		r.Get("/stats", h.HandleStats)
		r.Get("/institutions", h.HandleListInstitutions)
		r.Get("/institutions/{wallet}/certificates", h.HandleCertificatesOf)
		r.Get("/roles/{wallet}", h.HandleRoles)
		r.Get("/certificates/{id}", h.HandleVerifyCertificate)
		r.Get("/events", h.HandleEvents)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.requireSignature(maxBodySize))
		r.Post("/institutions", h.HandleAddInstitution)
		r.Delete("/institutions/{wallet}", h.HandleRemoveInstitution)
		r.Post("/pause", h.HandlePause)
		r.Post("/unpause", h.HandleUnpause)
	})

	r.Route("/api/institution", func(r chi.Router) {
		r.With(h.requireSignature(maxBodySize)).Post("/certificates", h.HandleRegisterCertificate)
		r.With(h.requireSignature(maxBodySize)).Post("/certificates/{id}/revoke", h.HandleRevokeCertificate)
		r.With(h.requireSignature(h.cfg.MaxArtifactSize)).Post("/artifacts", h.HandleUploadArtifact)
	})
}

// requireSignature authenticates the caller's wallet. The body is read in full,
// verified together with the method and path, and restored for the next handler.
func (h *Handler) requireSignature(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					h.writeJSONError(w, http.StatusRequestEntityTooLarge, api.CodeTooLarge, fmt.Sprintf("request body exceeds %d bytes", limit))
					return
				}
				h.writeJSONError(w, http.StatusBadRequest, api.CodeBadRequest, "failed to read request body")
				return
			}

			signer, err := h.verifier.Verify(r, body)
			if err != nil {
				h.log.Warn("Rejected request signature",
					slog.String("path", r.URL.Path),
					"err", err)
				h.writeJSONError(w, http.StatusUnauthorized, api.CodeInvalidSignature, err.Error())
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), signerKey, signer)))
		})
	}
}

// HandleConfig serves the public front end configuration.
//
// URL format: GET /api/public/config
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.cfg.Config
	if status, err := h.registry.Status(r.Context()); err == nil {
		cfg.Admin = status.Admin
	}
	h.writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.registry.Status(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.registry.Stats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// HandleListInstitutions returns the directory in insertion order.
//
// URL format: GET /api/public/institutions
//
// Response: JSON containing both the institution records and the parallel
// names, descriptions and wallets columns.
func (h *Handler) HandleListInstitutions(w http.ResponseWriter, r *http.Request) {
	list, err := h.registry.ListInstitutions(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.NewInstitutionsResponse(list))
}

// HandleCertificatesOf lists the certificates issued by a wallet, including those
// issued before the wallet was removed from the directory.
//
// URL format: GET /api/public/institutions/{wallet}/certificates
func (h *Handler) HandleCertificatesOf(w http.ResponseWriter, r *http.Request) {
	wallet, err := interfaces.ParseWallet(chi.URLParam(r, "wallet"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	ids, err := h.registry.CertificatesOf(r.Context(), wallet)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []interfaces.CertificateID{}
	}
	h.writeJSON(w, http.StatusOK, api.CertificatesResponse{Wallet: wallet, Certificates: ids})
}

func (h *Handler) HandleRoles(w http.ResponseWriter, r *http.Request) {
	wallet, err := interfaces.ParseWallet(chi.URLParam(r, "wallet"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	roles, err := h.registry.Roles(r.Context(), wallet)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, roles)
}

// HandleVerifyCertificate returns the verification snapshot of a certificate.
// Revoked certificates are returned with is_revoked set, not as an error.
//
// URL format: GET /api/public/certificates/{id}
func (h *Handler) HandleVerifyCertificate(w http.ResponseWriter, r *http.Request) {
	id, err := interfaces.NewCertificateIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	view, err := h.registry.VerifyCertificate(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// HandleEvents pages through the audit log.
//
// URL format: GET /api/public/events?after=<seq>&limit=<n>
//
// limit defaults to 100 and is capped at 1000. The response carries the cursor
// for the next page in "next".
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var after uint64
	if raw := query.Get("after"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.writeJSONError(w, http.StatusBadRequest, api.CodeBadRequest, "invalid after parameter")
			return
		}
		after = parsed
	}

	limit := defaultEventsLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeJSONError(w, http.StatusBadRequest, api.CodeBadRequest, "invalid limit parameter")
			return
		}
		limit = min(parsed, maxEventsLimit)
	}

	events, err := h.registry.Events(r.Context(), after, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	next := after
	if len(events) > 0 {
		next = events[len(events)-1].Seq
	}
	h.writeJSON(w, http.StatusOK, api.EventsResponse{Events: events, Next: next})
}

// HandleAddInstitution grants institution privilege to a wallet.
//
// URL format: POST /api/admin/institutions
//
// Request body: {"wallet": "0x...", "name": "...", "description": "..."}
func (h *Handler) HandleAddInstitution(w http.ResponseWriter, r *http.Request) {
	var req api.AddInstitutionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	wallet, err := interfaces.ParseWallet(req.Wallet)
	if err != nil {
		h.writeError(w, err)
		return
	}

	caller, _ := Signer(r.Context())
	if err := h.registry.AddInstitution(r.Context(), caller, wallet, req.Name, req.Description); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) HandleRemoveInstitution(w http.ResponseWriter, r *http.Request) {
	wallet, err := interfaces.ParseWallet(chi.URLParam(r, "wallet"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	caller, _ := Signer(r.Context())
	if err := h.registry.RemoveInstitution(r.Context(), caller, wallet); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	caller, _ := Signer(r.Context())
	if err := h.registry.Pause(r.Context(), caller); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleUnpause(w http.ResponseWriter, r *http.Request) {
	caller, _ := Signer(r.Context())
	if err := h.registry.Unpause(r.Context(), caller); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRegisterCertificate records a certificate issued by the calling institution.
//
// URL format: POST /api/institution/certificates
//
// Request body: {"recipient_name": "...", "title": "...", "cid": "...", "external_id": "..."}
//
// Response: {"id": "0x..."}
func (h *Handler) HandleRegisterCertificate(w http.ResponseWriter, r *http.Request) {
	var req interfaces.CertificateRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	issuer, _ := Signer(r.Context())
	id, err := h.registry.RegisterCertificate(r.Context(), issuer, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, api.RegisterCertificateResponse{ID: id})
}

// HandleRevokeCertificate revokes a certificate. Only its issuer may do so.
//
// URL format: POST /api/institution/certificates/{id}/revoke
func (h *Handler) HandleRevokeCertificate(w http.ResponseWriter, r *http.Request) {
	id, err := interfaces.NewCertificateIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	caller, _ := Signer(r.Context())
	if err := h.registry.RevokeCertificate(r.Context(), caller, id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUploadArtifact stores a certificate document for the calling institution
// and returns the cid to record on the certificate.
//
// URL format: POST /api/institution/artifacts
//
// Request body: raw document bytes.
func (h *Handler) HandleUploadArtifact(w http.ResponseWriter, r *http.Request) {
	if h.artifacts == nil {
		h.writeJSONError(w, http.StatusNotImplemented, api.CodeBadRequest, "artifact storage is not configured")
		return
	}

	caller, _ := Signer(r.Context())
	roles, err := h.registry.Roles(r.Context(), caller)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !roles.Institution {
		h.writeError(w, fmt.Errorf("%w: %s is not an institution", interfaces.ErrUnauthorized, caller.Hex()))
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeJSONError(w, http.StatusBadRequest, api.CodeBadRequest, "failed to read request body")
		return
	}
	if len(data) == 0 {
		h.writeJSONError(w, http.StatusBadRequest, api.CodeBadRequest, "empty artifact")
		return
	}

	cid, err := h.artifacts.Store(r.Context(), data)
	if err != nil {
		h.log.Error("Failed to store artifact",
			slog.String("institution", caller.Hex()),
			slog.String("store", h.artifacts.Name()),
			"err", err)
		h.writeJSONError(w, http.StatusBadGateway, interfaces.CodeInternal, "failed to store artifact")
		return
	}

	h.log.Info("Stored artifact",
		slog.String("institution", caller.Hex()),
		slog.String("cid", cid),
		slog.Int("size", len(data)))
	h.writeJSON(w, http.StatusCreated, api.ArtifactResponse{CID: cid, Size: len(data)})
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		h.writeJSONError(w, http.StatusBadRequest, api.CodeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// statusForCode maps registry error codes onto HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case interfaces.CodeUnauthorized, interfaces.CodeNotIssuer:
		return http.StatusForbidden
	case interfaces.CodeNotFound, interfaces.CodeNotRegistered:
		return http.StatusNotFound
	case interfaces.CodeAlreadyRegistered, interfaces.CodeAlreadyRevoked, interfaces.CodeDuplicateExternalID:
		return http.StatusConflict
	case interfaces.CodePaused:
		return http.StatusLocked
	case interfaces.CodeEmptyCID, interfaces.CodeInvalidAddress, interfaces.CodeInvalidCertificateID, interfaces.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := interfaces.ErrorCode(err)
	status := statusForCode(code)

	message := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("Registry call failed", "err", err)
		message = "internal error"
	}
	h.writeJSONError(w, status, code, message)
}

func (h *Handler) writeJSONError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, api.ErrorResponse{Error: strings.TrimSpace(message), Code: code})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
