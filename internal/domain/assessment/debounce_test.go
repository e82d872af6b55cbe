package assessment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestAutosaverDebouncesBurst(t *testing.T) {
	svc, _ := newTestService()
	draft, _ := svc.EnsureDraft(context.Background(), uuid.New())
	as := NewAutosaver(svc, 30*time.Millisecond, zerolog.Nop())

	// A burst of keystrokes: only the last snapshot should land.
	for _, phone := range []string{"5", "55", "555-0100"} {
		p := phone
		as.Queue(draft.ID, DraftPatch{Phone: &p})
		time.Sleep(5 * time.Millisecond)
	}

	deadline := time.Now().Add(time.Second)
	for as.Pending(draft.ID) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)

	got, err := svc.Get(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Phone == nil || *got.Phone != "555-0100" {
		t.Errorf("phone = %v, want last snapshot 555-0100", got.Phone)
	}
}

func TestAutosaverFlushWritesImmediately(t *testing.T) {
	svc, _ := newTestService()
	draft, _ := svc.EnsureDraft(context.Background(), uuid.New())
	as := NewAutosaver(svc, time.Hour, zerolog.Nop())

	city := "Denver"
	as.Queue(draft.ID, DraftPatch{ShippingCity: &city})
	if !as.Pending(draft.ID) {
		t.Fatal("expected pending snapshot")
	}

	if err := as.Flush(context.Background(), draft.ID); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if as.Pending(draft.ID) {
		t.Error("snapshot still pending after flush")
	}

	got, _ := svc.Get(context.Background(), draft.ID)
	if got.ShippingCity == nil || *got.ShippingCity != "Denver" {
		t.Errorf("city = %v, want Denver", got.ShippingCity)
	}
}

func TestAutosaverFlushWithoutPendingIsNoop(t *testing.T) {
	svc, _ := newTestService()
	as := NewAutosaver(svc, time.Hour, zerolog.Nop())
	if err := as.Flush(context.Background(), uuid.New()); err != nil {
		t.Errorf("Flush on empty queue: %v", err)
	}
}

func TestAutosaverForgetDropsSnapshot(t *testing.T) {
	svc, _ := newTestService()
	draft, _ := svc.EnsureDraft(context.Background(), uuid.New())
	as := NewAutosaver(svc, time.Hour, zerolog.Nop())

	city := "Reno"
	as.Queue(draft.ID, DraftPatch{ShippingCity: &city})
	as.Forget(draft.ID)
	if as.Pending(draft.ID) {
		t.Error("snapshot still pending after Forget")
	}

	got, _ := svc.Get(context.Background(), draft.ID)
	if got.ShippingCity != nil {
		t.Error("forgotten snapshot was written")
	}
}
