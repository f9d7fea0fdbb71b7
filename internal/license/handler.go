package license

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"
)

// minSecretLength guards against running with a trivially guessable secret.
const minSecretLength = 16

// nextCheckSeconds tells the client how long to wait before revalidating.
const nextCheckSeconds = 300

// checkResponse is the /license/check response body. A disallowed license
// still gets ok=true; allowed=false carries the verdict, and the token is
// empty so the client cannot proceed.
type checkResponse struct {
	OK                   bool   `json:"ok"`
	Allowed              bool   `json:"allowed"`
	ServerEpoch          int64  `json:"server_epoch"`
	Token                string `json:"token"`
	TokenValidUntilEpoch int64  `json:"token_valid_until_epoch"`
	NextCheckSec         int    `json:"next_check_sec"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Handler serves license checks.
type Handler struct {
	secret string
	store  Store
	logger *slog.Logger
	clock  clockwork.Clock
}

// NewHandler creates a license check handler.
func NewHandler(secret string, store Store, logger *slog.Logger, clock clockwork.Clock) *Handler {
	return &Handler{secret: secret, store: store, logger: logger, clock: clock}
}

// Check validates the license_id/account/server binding and, when allowed,
// issues the current hour's token.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	licenseID := strings.TrimSpace(r.URL.Query().Get("license_id"))
	accountRaw := strings.TrimSpace(r.URL.Query().Get("account"))
	server := strings.TrimSpace(r.URL.Query().Get("server"))

	if len(h.secret) < minSecretLength {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "license_secret_not_set"})
		return
	}
	if len(licenseID) < 6 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing_license_id"})
		return
	}
	account, err := strconv.ParseInt(accountRaw, 10, 64)
	if err != nil || account <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing_account"})
		return
	}
	if server == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing_server"})
		return
	}

	rec, found, err := h.store.Lookup(r.Context(), licenseID)
	if err != nil {
		h.logger.Error("license lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "db_query_failed"})
		return
	}

	allowed := found && rec.Enabled && rec.BindAccount == account && rec.BindServer == server

	now := h.clock.Now().Unix()
	bucket := HourBucket(now)

	token := ""
	if allowed {
		token = TokenForHour(h.secret, licenseID, account, server, bucket)
	}

	writeJSON(w, http.StatusOK, checkResponse{
		OK:                   true,
		Allowed:              allowed,
		ServerEpoch:          now,
		Token:                token,
		TokenValidUntilEpoch: BucketEnd(bucket),
		NextCheckSec:         nextCheckSeconds,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
