package main

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*redisStateStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := newRedisStateStore(mr.Addr(), "", ttl)
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStateStore(t *testing.T) {
	store, _ := newTestRedisStore(t, 0)
	exerciseStateStore(t, store)
}

func TestRedisStateStoreKeyAndTTL(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Hour)
	if err := beginFlow(t.Context(), store, SessionKey{ChatID: -42, UserID: 7}, StateAwaitingMonthFilter, nil); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("conv:-42:7") {
		t.Fatalf("expected key conv:-42:7, have %v", mr.Keys())
	}
	if ttl := mr.TTL("conv:-42:7"); ttl != time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}
	mr.FastForward(2 * time.Hour)
	if conv, _ := store.Load(t.Context(), SessionKey{ChatID: -42, UserID: 7}); !conv.Idle() {
		t.Fatalf("expired conversation still present: %+v", conv)
	}
}

func TestRedisStateStoreBadPayload(t *testing.T) {
	store, mr := newTestRedisStore(t, 0)
	mr.Set("conv:7:7", "{not json")
	if _, err := store.Load(t.Context(), privateSession(7)); err == nil {
		t.Fatalf("expected a decode error")
	}
}

func TestNewRedisStateStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := newRedisStateStore(addr, "", 0); err == nil {
		t.Fatalf("expected a connection error")
	}
	// the client constructor itself does not dial
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	if s := newRedisStateStoreWithClient(client, -time.Second); s.ttl != 0 {
		t.Fatalf("negative ttl kept: %v", s.ttl)
	}
}
