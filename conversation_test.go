package main

import (
	"testing"
	"time"
)

// exerciseStateStore checks the flow helpers against any StateStore.
func exerciseStateStore(t *testing.T, store StateStore) {
	t.Helper()
	ctx := t.Context()
	sessionA := SessionKey{ChatID: -100, UserID: 11}
	sessionB := SessionKey{ChatID: -100, UserID: 22}

	conv, err := store.Load(ctx, sessionA)
	if err != nil || !conv.Idle() || len(conv.Data) != 0 {
		t.Fatalf("fresh chat should be idle, got %+v, %v", conv, err)
	}

	if err := beginFlow(ctx, store, sessionA, StateAwaitingCallDateTime, map[string]string{dataNotificationKind: "call"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	conv, _ = store.Load(ctx, sessionA)
	if err := advanceFlow(ctx, store, sessionA, conv, StateAwaitingNotificationAudience, map[string]string{dataCallDateTime: "15.01.2024 14:30"}); err != nil {
		t.Fatalf("advance: %v", err)
	}
	conv, _ = store.Load(ctx, sessionA)
	if conv.State != StateAwaitingNotificationAudience {
		t.Fatalf("unexpected state %v", conv.State)
	}
	if conv.Get(dataNotificationKind) != "call" || conv.Get(dataCallDateTime) != "15.01.2024 14:30" {
		t.Fatalf("accumulator lost values: %v", conv.Data)
	}

	// other members of the same chat are not affected
	if other, _ := store.Load(ctx, sessionB); !other.Idle() {
		t.Fatalf("session %v picked up state %v", sessionB, other.State)
	}

	// a new flow drops the previous accumulator
	if err := beginFlow(ctx, store, sessionA, StateAwaitingWalletAddress, nil); err != nil {
		t.Fatalf("begin: %v", err)
	}
	conv, _ = store.Load(ctx, sessionA)
	if conv.State != StateAwaitingWalletAddress || len(conv.Data) != 0 {
		t.Fatalf("stale accumulator kept: %+v", conv)
	}

	if err := finishFlow(ctx, store, sessionA); err != nil {
		t.Fatalf("finish: %v", err)
	}
	conv, _ = store.Load(ctx, sessionA)
	if !conv.Idle() || len(conv.Data) != 0 {
		t.Fatalf("finish left %+v", conv)
	}
	// finishing an idle chat is fine
	if err := finishFlow(ctx, store, sessionA); err != nil {
		t.Fatalf("finish idle: %v", err)
	}
}

func TestMemoryStateStore(t *testing.T) {
	exerciseStateStore(t, newMemoryStateStore(0, 0))
}

func TestMemoryStateStoreIsolatesCopies(t *testing.T) {
	store := newMemoryStateStore(0, 0)
	data := map[string]string{dataPurpose: purposeCard}
	if err := beginFlow(t.Context(), store, privateSession(1), StateAwaitingUserIDForManagement, data); err != nil {
		t.Fatal(err)
	}
	data[dataPurpose] = "changed"
	conv, _ := store.Load(t.Context(), privateSession(1))
	conv.Data[dataPurpose] = "changed again"
	conv, _ = store.Load(t.Context(), privateSession(1))
	if conv.Get(dataPurpose) != purposeCard {
		t.Fatalf("stored accumulator was mutated: %v", conv.Data)
	}
}

func TestMemoryStateStoreTTL(t *testing.T) {
	store := newMemoryStateStore(0, 50*time.Millisecond)
	if err := beginFlow(t.Context(), store, privateSession(1), StateAwaitingShiftOpenTime, nil); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if conv, _ := store.Load(t.Context(), privateSession(1)); !conv.Idle() {
		t.Fatalf("expired conversation still present: %+v", conv)
	}
}
