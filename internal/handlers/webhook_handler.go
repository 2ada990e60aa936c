package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/models"
)

// SignatureHeader carries the HMAC-SHA256 of the raw request body
const SignatureHeader = "X-Signature-256"

const signaturePrefix = "sha256="

// WebhookHandler receives signed bot events from the chat platform adapter
type WebhookHandler struct {
	router BotRouter
	secret []byte
	logger arbor.ILogger
}

// NewWebhookHandler creates the handler. An empty secret disables signature checks.
func NewWebhookHandler(router BotRouter, secret string, logger arbor.ILogger) *WebhookHandler {
	if secret == "" {
		logger.Warn().Msg("Webhook secret not configured, signatures will not be verified")
	}
	return &WebhookHandler{
		router: router,
		secret: []byte(secret),
		logger: logger,
	}
}

// SignPayload returns the header value for body signed with secret
func SignPayload(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks header against the HMAC of body in constant time
func VerifySignature(secret, body []byte, header string) bool {
	if !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	given, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(given, mac.Sum(nil))
}

// WebhookHandler handles POST /api/webhook
func (h *WebhookHandler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	if len(h.secret) > 0 && !VerifySignature(h.secret, body, r.Header.Get(SignatureHeader)) {
		h.logger.Warn().Str("remote", r.RemoteAddr).Msg("Rejected webhook with invalid signature")
		WriteError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var event models.BotEvent
	if err := json.Unmarshal(body, &event); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid event payload")
		return
	}
	if err := validate.Struct(event); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.router.Handle(r.Context(), event)
	if err != nil {
		h.logger.Warn().Err(err).Str("kind", string(event.Kind)).Msg("Unroutable webhook event")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, reply)
}
