package seedauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/seedkit/seedauth/permission"
)

var (
	// ErrCredentialRequired is the denial reason for required routes reached without a credential.
	ErrCredentialRequired = errors.New("credential required")
	// ErrHeaderMalformed is the denial reason for Authorization headers that are not two space-separated segments.
	ErrHeaderMalformed = errors.New("authorization header malformed")
	// ErrSchemeInvalid is the denial reason for Authorization headers whose scheme is not Bearer.
	ErrSchemeInvalid = errors.New("authorization scheme invalid")
	// ErrTokenInvalid is the denial reason for credentials that fail signature, structure, or time checks.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenTypeMismatch is the denial reason for tokens whose type differs from the route's.
	ErrTokenTypeMismatch = errors.New("token type mismatch")
	// ErrTokenRevoked is the denial reason for tokens superseded by a newer issuance or by logout.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrIdentityNotFound is the denial reason for subjects the directory does not know.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrPermissionDenied is the denial reason for identities missing a required role or ability.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrBanned is the denial reason for identities with an active ban on a required name.
	ErrBanned = errors.New("banned")

	// ErrSessionStoreUnavailable is a fatal dependency error. It never means "not authenticated".
	ErrSessionStoreUnavailable = errors.New("session store unavailable")
	// ErrDirectoryUnavailable is a fatal dependency error raised by the user directory.
	ErrDirectoryUnavailable = errors.New("user directory unavailable")
	// ErrNotRefreshToken is returned by Refresh for tokens that are not refresh tokens.
	ErrNotRefreshToken = errors.New("not a refresh token")
	// ErrEngineNotReady is returned by Engine methods called on an unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Symbol is the machine-readable code carried by every denial.
type Symbol string

// Denial symbols, one per reason sentinel.
const (
	// SymbolCredentialRequired is the symbol of ErrCredentialRequired.
	SymbolCredentialRequired Symbol = "auth_token_required"
	// SymbolHeaderMalformed is the symbol of ErrHeaderMalformed.
	SymbolHeaderMalformed Symbol = "auth_header_structure_not_correct"
	// SymbolSchemeInvalid is the symbol of ErrSchemeInvalid.
	SymbolSchemeInvalid Symbol = "auth_header_type_not_correct"
	// SymbolTokenInvalid is the symbol of ErrTokenInvalid. Expired, forged and
	// malformed tokens all share it.
	SymbolTokenInvalid Symbol = "auth_token_expired_or_not_verified"
	// SymbolTokenTypeMismatch is the symbol of ErrTokenTypeMismatch.
	SymbolTokenTypeMismatch Symbol = "auth_token_type_not_correct"
	// SymbolTokenRevoked is the symbol of ErrTokenRevoked.
	SymbolTokenRevoked Symbol = "auth_token_revoked"
	// SymbolIdentityNotFound is the symbol of ErrIdentityNotFound.
	SymbolIdentityNotFound Symbol = "auth_user_not_exists"
	// SymbolPermissionDenied is the symbol of ErrPermissionDenied.
	SymbolPermissionDenied Symbol = "auth_permission_denied"
	// SymbolBanned is the symbol of ErrBanned.
	SymbolBanned Symbol = "auth_banned_user"
)

var reasonSymbols = map[error]Symbol{
	ErrCredentialRequired: SymbolCredentialRequired,
	ErrHeaderMalformed:    SymbolHeaderMalformed,
	ErrSchemeInvalid:      SymbolSchemeInvalid,
	ErrTokenInvalid:       SymbolTokenInvalid,
	ErrTokenTypeMismatch:  SymbolTokenTypeMismatch,
	ErrTokenRevoked:       SymbolTokenRevoked,
	ErrIdentityNotFound:   SymbolIdentityNotFound,
	ErrPermissionDenied:   SymbolPermissionDenied,
	ErrBanned:             SymbolBanned,
}

// Denial is a local authorization decision. Reason is one of the Err* denial
// sentinels; Cause, when set, is the underlying error that triggered it.
type Denial struct {
	Reason error
	Cause  error
	Ban    *permission.Ban
}

// Symbol returns the machine-readable code for d.
func (d *Denial) Symbol() Symbol {
	if d == nil {
		return ""
	}
	return reasonSymbols[d.Reason]
}

func (d *Denial) Error() string {
	if d == nil {
		return "<nil>"
	}
	msg := d.Reason.Error()
	if d.Ban != nil {
		msg = fmt.Sprintf("%s: %s", msg, d.Ban.Reason)
		if d.Ban.UntilAt != nil {
			msg += " until " + d.Ban.UntilAt.UTC().Format(time.RFC3339)
		}
	}
	if d.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, d.Cause)
	}
	return msg
}

// Unwrap exposes both the reason sentinel and the cause to errors.Is and errors.As.
func (d *Denial) Unwrap() []error {
	if d == nil {
		return nil
	}
	if d.Cause == nil {
		return []error{d.Reason}
	}
	return []error{d.Reason, d.Cause}
}

// AsDenial returns the Denial wrapped by err, if any.
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// IsFatal reports whether err is a dependency failure rather than a denial.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSessionStoreUnavailable) || errors.Is(err, ErrDirectoryUnavailable)
}
