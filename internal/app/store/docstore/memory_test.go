package docstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemory_SetGetDelete(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if err := s.Set(ctx, AllowlistCollection, "a@x.com", Fields{"email": "a@x.com", "tier": "pro"}, true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	doc, err := s.Get(ctx, AllowlistCollection, "a@x.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc.Fields["tier"] != "pro" {
		t.Errorf("tier: got %v, want pro", doc.Fields["tier"])
	}

	if err := s.Delete(ctx, AllowlistCollection, "a@x.com"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, AllowlistCollection, "a@x.com"); err != ErrNotFound {
		t.Errorf("Get after delete: got %v, want ErrNotFound", err)
	}

	// Deleting a missing document is not an error.
	if err := s.Delete(ctx, AllowlistCollection, "missing"); err != nil {
		t.Errorf("Delete of missing doc: got %v, want nil", err)
	}
}

func TestMemory_UpdateDeleteFieldAndServerTimestamp(t *testing.T) {
	s := NewMemory()
	fixed := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })
	ctx := context.Background()

	if err := s.Set(ctx, UsersCollection, "u1", Fields{"tier": "pro", "squadID": "Oaks"}, true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Update(ctx, UsersCollection, "u1", Fields{
		"tier":      DeleteField,
		"updatedAt": ServerTimestamp,
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	doc, err := s.Get(ctx, UsersCollection, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, present := doc.Fields["tier"]; present {
		t.Error("tier field should have been removed")
	}
	if got := doc.Fields["updatedAt"]; got != fixed {
		t.Errorf("updatedAt: got %v, want %v", got, fixed)
	}
	if doc.Fields["squadID"] != "Oaks" {
		t.Error("unrelated field should be untouched")
	}
}

func TestMemory_UpdateMissingDocIsNoop(t *testing.T) {
	s := NewMemory()
	if err := s.Update(context.Background(), UsersCollection, "ghost", Fields{"tier": "pro"}); err != nil {
		t.Fatalf("Update of missing doc: got %v, want nil", err)
	}
	if snap := s.Snapshot(UsersCollection); len(snap.Docs) != 0 {
		t.Errorf("expected no documents, got %d", len(snap.Docs))
	}
}

func TestMemory_SubscribeDeliversSnapshots(t *testing.T) {
	s := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Subscribe(ctx, SquadsCollection)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	ev := <-ch
	if ev.Snapshot == nil || len(ev.Snapshot.Docs) != 0 {
		t.Fatalf("expected empty initial snapshot, got %+v", ev)
	}

	if err := s.Set(ctx, SquadsCollection, "s1", Fields{"name": "Oaks"}, true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	ev = <-ch
	if ev.Snapshot == nil || len(ev.Snapshot.Docs) != 1 {
		t.Fatalf("expected one-doc snapshot, got %+v", ev)
	}
	if ev.Snapshot.Docs[0].Fields["name"] != "Oaks" {
		t.Errorf("name: got %v", ev.Snapshot.Docs[0].Fields["name"])
	}
}

func TestMemory_FailNextWrite(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	boom := errors.New("boom")
	s.FailNextWrite(UsersCollection, boom)

	if err := s.Set(ctx, UsersCollection, "u1", Fields{"tier": "pro"}, true); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	// Next write succeeds.
	if err := s.Set(ctx, UsersCollection, "u1", Fields{"tier": "pro"}, true); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}
}
