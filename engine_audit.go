package seedauth

import (
	"context"
	"errors"
)

// Audit symbols for failed operations that are not denials.
const (
	auditSymbolUnavailable = "backend_unavailable"
	auditSymbolNotRefresh  = "not_refresh_token"
	auditSymbolInternal    = "internal_error"
)

func (e *Engine) auditing() bool {
	return e != nil && e.audit != nil
}

// emitAudit stamps ev with the clock, the client IP of ctx and the outcome of err,
// then queues it.
func (e *Engine) emitAudit(ctx context.Context, ev AuditEvent, err error) {
	if !e.auditing() {
		return
	}
	ev.Time = e.now().UTC()
	ev.ClientIP = clientIPFromContext(ctx)
	ev.OK = err == nil
	ev.Symbol = auditSymbol(err)
	e.audit.Emit(ctx, ev)
}

// auditSymbol maps denials to their symbol and everything else to a coarse code.
func auditSymbol(err error) string {
	if err == nil {
		return ""
	}
	if d, ok := AsDenial(err); ok {
		return string(d.Symbol())
	}

	switch {
	case IsFatal(err):
		return auditSymbolUnavailable
	case errors.Is(err, ErrNotRefreshToken):
		return auditSymbolNotRefresh
	default:
		return auditSymbolInternal
	}
}
