package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Kind names what happened.
type Kind string

const (
	KindTokenIssued    Kind = "token_issued"
	KindTokenRefreshed Kind = "token_refreshed"
	KindLogout         Kind = "logout"
	KindAuthDenied     Kind = "auth_denied"
)

// Event is one audit record. Symbol carries the denial symbol for KindAuthDenied
// and a coarse failure code for failed operations; it is empty when OK.
type Event struct {
	Time      time.Time         `json:"time"`
	Kind      Kind              `json:"kind"`
	OK        bool              `json:"ok"`
	Subject   string            `json:"subject,omitempty"`
	TokenType string            `json:"token_type,omitempty"`
	TokenID   string            `json:"token_id,omitempty"`
	RouteType string            `json:"route_type,omitempty"`
	Symbol    string            `json:"symbol,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// Sink receives events from the Dispatcher worker. Emit must not retain event.Detail.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink forwards events into a buffered channel, blocking while it is full.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{events: make(chan Event, max(buffer, 1))}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line. Encoding errors drop the event.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		return &JSONWriterSink{}
	}
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.enc == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(event)
}
