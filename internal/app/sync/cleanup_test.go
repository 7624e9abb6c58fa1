// internal/app/sync/cleanup_test.go
package sync_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tenmm/squadadmin/internal/app/store/docstore"
)

func TestAutoCleanup_DeletesMatchedEntryOnce(t *testing.T) {
	core, store := newTestCore(t)

	mustSet(t, store, docstore.AllowlistCollection, "a@x.com",
		docstore.Fields{"email": "a@x.com", "tier": "pro"})
	mustSet(t, store, docstore.AllowlistCollection, "b@x.com",
		docstore.Fields{"email": "b@x.com"})
	mustSet(t, store, docstore.UsersCollection, "u1",
		docstore.Fields{"email": "A@x.com "}) // cleanup match is trimmed, case-insensitive

	core.Acquire()
	defer core.Release()

	waitFor(t, func() bool {
		return len(store.Snapshot(docstore.AllowlistCollection).Docs) == 1
	}, "redundant allowlist entry to be auto-cleaned")

	snap := store.Snapshot(docstore.AllowlistCollection)
	if snap.Docs[0].ID != "b@x.com" {
		t.Fatalf("wrong entry survived cleanup: %q", snap.Docs[0].ID)
	}

	// Re-creating the entry within the same session must not trigger a
	// second delete: the session memory already holds a@x.com.
	mustSet(t, store, docstore.AllowlistCollection, "a@x.com",
		docstore.Fields{"email": "a@x.com"})
	waitFor(t, func() bool { return len(core.State().Allowlist) == 2 }, "re-added entry to mirror")
	time.Sleep(50 * time.Millisecond)
	if n := len(store.Snapshot(docstore.AllowlistCollection).Docs); n != 2 {
		t.Fatalf("store holds %d allowlist docs, want 2 (no re-delete)", n)
	}
}

func TestAutoCleanup_SkipsWhileMirrorEmptyOrLoading(t *testing.T) {
	core, store := newTestCore(t)

	// Users exist but the allowlist is empty; nothing to clean, and an
	// empty allowlist must never be misread as "everything matched".
	mustSet(t, store, docstore.UsersCollection, "u1",
		docstore.Fields{"email": "a@x.com"})

	core.Acquire()
	defer core.Release()
	waitFor(t, func() bool { return loaded(core.State()) }, "mirrors to load")

	time.Sleep(50 * time.Millisecond)
	if n := len(store.Snapshot(docstore.UsersCollection).Docs); n != 1 {
		t.Fatalf("user docs = %d, want 1", n)
	}
}

func TestCleanupAllowlist_BulkIgnoresSessionMemory(t *testing.T) {
	core, store := newTestCore(t)
	ctx := context.Background()

	mustSet(t, store, docstore.AllowlistCollection, "a@x.com",
		docstore.Fields{"email": "a@x.com"})
	mustSet(t, store, docstore.UsersCollection, "u1",
		docstore.Fields{"email": "a@x.com"})

	core.Acquire()
	defer core.Release()
	waitFor(t, func() bool {
		return len(store.Snapshot(docstore.AllowlistCollection).Docs) == 0
	}, "auto-clean to run")

	// The automatic pass has already marked a@x.com processed. The
	// operator-confirmed bulk command still deletes a re-created entry.
	mustSet(t, store, docstore.AllowlistCollection, "a@x.com",
		docstore.Fields{"email": "a@x.com"})
	waitFor(t, func() bool { return len(core.State().Allowlist) == 1 }, "entry back in mirror")

	n, err := core.CleanupAllowlist(ctx)
	if err != nil {
		t.Fatalf("CleanupAllowlist: %v", err)
	}
	if n != 1 {
		t.Fatalf("CleanupAllowlist deleted %d entries, want 1", n)
	}
	if got := len(store.Snapshot(docstore.AllowlistCollection).Docs); got != 0 {
		t.Fatalf("store holds %d allowlist docs after bulk cleanup, want 0", got)
	}
}

func TestAutoCleanup_FailedDeleteIsSuppressedNotRetried(t *testing.T) {
	core, store := newTestCore(t)

	mustSet(t, store, docstore.AllowlistCollection, "a@x.com",
		docstore.Fields{"email": "a@x.com"})
	mustSet(t, store, docstore.UsersCollection, "u1",
		docstore.Fields{"email": "a@x.com"})
	store.FailNextWrite(docstore.AllowlistCollection, errors.New("transient outage"))

	core.Acquire()
	defer core.Release()
	waitFor(t, func() bool { return loaded(core.State()) }, "mirrors to load")

	time.Sleep(50 * time.Millisecond)
	st := core.State()
	if st.Err != "" {
		t.Errorf("safe delete surfaced an error: %q", st.Err)
	}
	if n := len(store.Snapshot(docstore.AllowlistCollection).Docs); n != 1 {
		t.Fatalf("allowlist docs = %d, want the failed-delete entry to remain", n)
	}
}
