package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/solbound/actiond/service/actions"
)

const (
	maxRequestBodySize = 1 << 16 // 64KB - plenty for an action POST body
)

// requestOrigin reconstructs the scheme://host origin of a request. Icon
// URLs in action metadata track the origin the request came in on so the
// metadata works behind any hostname.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// decodePostRequest parses an action POST body and validates the caller
// account. The exact error text is part of the Actions contract.
func decodePostRequest(w http.ResponseWriter, r *http.Request) (solanago.PublicKey, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req actions.ActionPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return solanago.PublicKey{}, actions.Validationf(`Invalid "account" provided`)
	}

	account, err := solanago.PublicKeyFromBase58(req.Account)
	if err != nil {
		return solanago.PublicKey{}, actions.Validationf(`Invalid "account" provided`)
	}

	return account, nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeActionError writes a plain-text error response. Validation and
// precondition messages are caller-facing; upstream and internal failures
// are logged in full and reduced to their outer message.
func writeActionError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusBadRequest
	msg := err.Error()

	var ae *actions.Error
	if errors.As(err, &ae) {
		status = ae.HTTPStatus()
		msg = ae.Msg
		switch ae.Kind {
		case actions.KindValidation, actions.KindPrecondition:
			logger.Debug("rejected action request", "error", err)
		default:
			logger.Error("action request failed", "error", err)
		}
	} else {
		logger.Error("action request failed", "error", err)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, msg)
}

// actionRule maps a website path to an action endpoint in the actions.json
// discovery document.
type actionRule struct {
	PathPattern string `json:"pathPattern"`
	APIPath     string `json:"apiPath"`
}

// handleActionRules serves the actions.json discovery document wallets use
// to map site URLs onto action endpoints.
// GET /actions.json
func handleActionRules(logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rules := map[string][]actionRule{
			"rules": {
				{PathPattern: "/memo", APIPath: memoActionPath},
				{PathPattern: "/transfer-sol", APIPath: transferActionPath},
				{PathPattern: "/api/actions/**", APIPath: "/api/actions/**"},
			},
		}
		logger.Debug("served action rules")
		writeJSON(w, rules, http.StatusOK)
	})
}

// handleIcon serves the icon referenced by action metadata.
// GET /icon.svg
func handleIcon() http.HandlerFunc {
	const icon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">` +
		`<rect width="64" height="64" rx="12" fill="#1a1b26"/>` +
		`<path d="M16 22h28l4 6H20zm0 14h28l4 6H20z" fill="#9945ff"/>` +
		`<path d="M20 29h28l-4 6H16z" fill="#14f195"/>` +
		`</svg>`
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		fmt.Fprint(w, icon)
	}
}
