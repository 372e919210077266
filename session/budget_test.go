package session

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// cmdCounter counts Redis round-trips: single commands and pipeline calls.
type cmdCounter struct {
	commands  atomic.Int64
	pipelines atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.pipelines.Add(1)
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) Reset() {
	h.commands.Store(0)
	h.pipelines.Store(0)
}

func newCountedStore(t *testing.T) (*Store, *cmdCounter) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	counter := &cmdCounter{}
	rdb.AddHook(counter)
	return NewStore(rdb, "budget"), counter
}

func TestIsActiveCostsOneCommand(t *testing.T) {
	ctx := context.Background()
	store, counter := newCountedStore(t)
	if err := store.RecordActive(ctx, "u1", "access", "jti-1", 0); err != nil {
		t.Fatalf("record: %v", err)
	}

	counter.Reset()
	if ok, err := store.IsActive(ctx, "u1", "access", "jti-1"); err != nil || !ok {
		t.Fatalf("expected active, got %v %v", ok, err)
	}
	if got := counter.commands.Load(); got != 1 {
		t.Fatalf("IsActive issued %d commands, want 1", got)
	}
	if got := counter.pipelines.Load(); got != 0 {
		t.Fatalf("IsActive issued %d pipelines, want 0", got)
	}
}

func TestRecordActiveUsesCachedScript(t *testing.T) {
	ctx := context.Background()
	store, counter := newCountedStore(t)

	// the first call may load the script
	if err := store.RecordActive(ctx, "u1", "refresh", "jti-1", time.Hour); err != nil {
		t.Fatalf("record: %v", err)
	}

	counter.Reset()
	if err := store.RecordActive(ctx, "u1", "refresh", "jti-2", time.Hour); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := counter.commands.Load(); got != 1 {
		t.Fatalf("RecordActive issued %d commands, want 1", got)
	}
}

func TestRevokeAndGetAreSingleTransactions(t *testing.T) {
	ctx := context.Background()
	store, counter := newCountedStore(t)
	if err := store.RecordActive(ctx, "u1", "access", "a", 0); err != nil {
		t.Fatalf("record: %v", err)
	}

	counter.Reset()
	if _, err := store.Get(ctx, "u1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := store.Revoke(ctx, "u1", "access", "refresh"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if got := counter.pipelines.Load(); got != 2 {
		t.Fatalf("expected 2 pipelines, got %d", got)
	}
	if got := counter.commands.Load(); got != 0 {
		t.Fatalf("expected no standalone commands, got %d", got)
	}
}
