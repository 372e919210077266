package seedauth

import (
	"context"
	"errors"
	"time"

	"github.com/seedkit/seedauth/jwt"
	"go.uber.org/zap"
)

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	RedisAvailable bool
	RedisLatency   time.Duration
}

// ActiveSession returns the subject's session record: the active token id per type
// and the remaining key TTL. A subject without tokens yields an empty record.
func (e *Engine) ActiveSession(ctx context.Context, subject string) (SessionRecord, error) {
	if !e.ready() {
		return SessionRecord{}, ErrEngineNotReady
	}
	if subject == "" {
		return SessionRecord{}, errors.New("subject required")
	}

	rec, err := e.flows.ActiveSession(ctx, subject)
	if err != nil {
		return SessionRecord{}, e.storeError(err)
	}
	return rec, nil
}

// Inspect decodes credential and reports whether it is still the subject's active
// token. Codec failures are returned as a TokenInvalid denial.
func (e *Engine) Inspect(ctx context.Context, credential string) (TokenStatus, error) {
	if !e.ready() {
		return TokenStatus{}, ErrEngineNotReady
	}

	st, err := e.flows.Inspect(ctx, credential)
	if err != nil {
		if isCodecError(err) {
			return TokenStatus{}, &Denial{Reason: ErrTokenInvalid, Cause: err}
		}
		return st, e.storeError(err)
	}
	return st, nil
}

// Health pings the session store.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if !e.ready() {
		return HealthStatus{}
	}

	latency, err := e.flows.Health(ctx)
	if err != nil {
		e.logger.Warn("session store health check failed", zap.Error(err))
	}
	return HealthStatus{
		RedisAvailable: err == nil,
		RedisLatency:   latency,
	}
}

func isCodecError(err error) bool {
	return errors.Is(err, jwt.ErrSignatureInvalid) ||
		errors.Is(err, jwt.ErrTokenMalformed) ||
		errors.Is(err, jwt.ErrTokenExpired) ||
		errors.Is(err, jwt.ErrTokenNotYetValid)
}
