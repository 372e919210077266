package audit

import (
	"context"

	"go.uber.org/zap"
)

// ZapSink writes audit events as structured log entries: Info for successful
// operations, Warn for denials and failures.
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger.Named("audit")}
}

func (s *ZapSink) Emit(_ context.Context, event Event) {
	fields := make([]zap.Field, 0, 8+len(event.Detail))
	fields = append(fields, zap.Time("time", event.Time))
	for _, f := range []struct{ key, value string }{
		{"subject", event.Subject},
		{"token_type", event.TokenType},
		{"token_id", event.TokenID},
		{"route_type", event.RouteType},
		{"symbol", event.Symbol},
		{"client_ip", event.ClientIP},
	} {
		if f.value != "" {
			fields = append(fields, zap.String(f.key, f.value))
		}
	}
	for k, v := range event.Detail {
		fields = append(fields, zap.String("detail."+k, v))
	}

	if event.OK {
		s.logger.Info(string(event.Kind), fields...)
		return
	}
	s.logger.Warn(string(event.Kind), fields...)
}

// MultiSink fans every event out to each sink in order.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, event Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, event)
		}
	}
}
