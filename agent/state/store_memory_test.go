package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	st := NewSessionState("sess-rt", time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))
	authenticate(st)
	st.CacheRate("EUR", 6.25)
	st.AppendHistory("user", "olá")
	if _, err := st.StoreAnswer("renda_mensal", "6000"); err != nil {
		t.Fatalf("StoreAnswer: %v", err)
	}

	if err := store.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, "sess-rt")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Authenticated || loaded.CustomerCPF != st.CustomerCPF {
		t.Fatalf("auth state lost: %+v", loaded)
	}
	if loaded.InterviewStep != 1 || loaded.InterviewData["renda_mensal"] != "6000" {
		t.Fatalf("interview state lost: %+v", loaded)
	}
	if rate, ok := loaded.CachedRate("EUR"); !ok || rate != 6.25 {
		t.Fatalf("rate cache lost: (%v, %v)", rate, ok)
	}
	if len(loaded.History) != 1 {
		t.Fatalf("history lost: %+v", loaded.History)
	}

	// Mutating the loaded copy must not leak into the store.
	loaded.End()
	again, err := store.Load(ctx, "sess-rt")
	if err != nil {
		t.Fatalf("Load again: %v", err)
	}
	if again.Ended {
		t.Fatal("store copy mutated through a loaded state")
	}
}

func TestMemoryStoreLoadRejectsInvalidState(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	st := NewSessionState("sess-bad", time.Now())
	st.CurrentAgent = "bolsa"
	if err := store.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := store.Load(ctx, "sess-bad"); !errors.Is(err, ErrInvariantViolated) {
		t.Fatalf("Load err = %v, want ErrInvariantViolated", err)
	}
}

func TestMemoryStoreMissAndDelete(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Load(missing): err = %v, want ErrStateNotFound", err)
	}
	if _, err := store.Load(ctx, " "); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Load(blank): err = %v, want ErrInvalidSession", err)
	}
	if err := store.Save(ctx, nil); !errors.Is(err, ErrNilSessionState) {
		t.Fatalf("Save(nil): err = %v, want ErrNilSessionState", err)
	}

	st := NewSessionState("sess-del", time.Now())
	if err := store.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, "sess-del"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, "sess-del"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Load(deleted): err = %v, want ErrStateNotFound", err)
	}
}
