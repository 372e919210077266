package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/seedkit/seedauth"
)

const (
	// SymbolUnavailable is written for dependency failures.
	SymbolUnavailable = "auth_backend_unavailable"
	// SymbolInternal is written for any other non-denial error.
	SymbolInternal = "internal_error"
)

// ErrorBody is the JSON error response.
type ErrorBody struct {
	TraceID string `json:"trace_id"`
	Symbol  string `json:"symbol"`
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
}

// BanDetail is the detail of a banned denial.
type BanDetail struct {
	Role    string     `json:"role,omitempty"`
	Ability string     `json:"ability,omitempty"`
	Reason  string     `json:"reason,omitempty"`
	UntilAt *time.Time `json:"until_at,omitempty"`
}

// StatusFor returns the HTTP status for a denial reason.
func StatusFor(d *seedauth.Denial) int {
	if d == nil {
		return http.StatusInternalServerError
	}
	switch {
	case errors.Is(d.Reason, seedauth.ErrPermissionDenied), errors.Is(d.Reason, seedauth.ErrBanned):
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}

// WriteError writes err as a JSON error response. Denials keep their symbol and
// status; any other error is a 500.
func WriteError(w http.ResponseWriter, err error) {
	if d, ok := seedauth.AsDenial(err); ok {
		body := ErrorBody{
			Symbol:  string(d.Symbol()),
			Message: d.Reason.Error(),
		}
		if d.Ban != nil {
			body.Detail = BanDetail{
				Role:    d.Ban.Role,
				Ability: d.Ban.Ability,
				Reason:  d.Ban.Reason,
				UntilAt: d.Ban.UntilAt,
			}
		}
		writeJSON(w, StatusFor(d), body)
		return
	}

	body := ErrorBody{Symbol: SymbolInternal, Message: "internal error"}
	if seedauth.IsFatal(err) {
		body = ErrorBody{Symbol: SymbolUnavailable, Message: "authentication backend unavailable"}
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

func writeJSON(w http.ResponseWriter, status int, body ErrorBody) {
	body.TraceID = uuid.NewString()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
