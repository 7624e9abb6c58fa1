// internal/app/sync/mirror_test.go
package sync

import (
	"testing"

	"github.com/tenmm/squadadmin/internal/app/store/docstore"
	"github.com/tenmm/squadadmin/internal/domain/models"
)

func TestReduceAllowlist_DefaultsAndOrder(t *testing.T) {
	docs := []docstore.Doc{
		{ID: "zed@x.com", Fields: docstore.Fields{"email": "zed@x.com", "tier": "pro"}},
		// No email field: the doc id (emailLower) stands in for it.
		{ID: "amy@x.com", Fields: docstore.Fields{"tier": "amateur", "squadID": "Morning Oaks"}},
		// No tier field: rehydrates as free.
		{ID: "bob@x.com", Fields: docstore.Fields{"email": "Bob@X.com"}},
	}

	got := reduceAllowlist(docs)
	if len(got) != 3 {
		t.Fatalf("reduceAllowlist returned %d entries, want 3", len(got))
	}

	if got[0].Email != "amy@x.com" || got[1].Email != "Bob@X.com" || got[2].Email != "zed@x.com" {
		t.Fatalf("wrong order: %q, %q, %q", got[0].Email, got[1].Email, got[2].Email)
	}
	if got[0].Tier != models.TierAmateur || got[0].SquadID != "Morning Oaks" {
		t.Errorf("amy = %+v, want amateur tier and Morning Oaks squad", got[0])
	}
	if got[1].Tier != models.TierFree {
		t.Errorf("bob tier = %q, want free for absent field", got[1].Tier)
	}
}

func TestReduceUsers_EmailFallbackChain(t *testing.T) {
	docs := []docstore.Doc{
		{ID: "u1", Fields: docstore.Fields{"emailLower": "a@x.com", "email": "ignored@x.com"}},
		{ID: "u2", Fields: docstore.Fields{"email": "B@x.com"}},
		{ID: "c@x.com", Fields: docstore.Fields{"displayName": "Cee"}},
	}

	got := reduceUsers(docs)
	if len(got) != 3 {
		t.Fatalf("reduceUsers returned %d users, want 3", len(got))
	}
	if got[0].Email != "a@x.com" {
		t.Errorf("emailLower should win over email, got %q", got[0].Email)
	}
	if got[1].Email != "B@x.com" {
		t.Errorf("email fallback, got %q", got[1].Email)
	}
	if got[2].Email != "c@x.com" {
		t.Errorf("doc id fallback, got %q", got[2].Email)
	}
}

func TestReduceUsers_OverrideOnlyProOrAmateur(t *testing.T) {
	docs := []docstore.Doc{
		{ID: "u1", Fields: docstore.Fields{"email": "a@x.com", "tierOverride": "pro"}},
		{ID: "u2", Fields: docstore.Fields{"email": "b@x.com", "tierOverride": "free"}},
		{ID: "u3", Fields: docstore.Fields{"email": "c@x.com", "tierOverride": "bogus"}},
	}

	got := reduceUsers(docs)
	if got[0].TierOverride != models.TierPro {
		t.Errorf("u1 override = %q, want pro", got[0].TierOverride)
	}
	for _, u := range got[1:] {
		if u.TierOverride != "" {
			t.Errorf("%s override = %q, want empty", u.ID, u.TierOverride)
		}
	}
}

func TestReduceSquads_DropsBlankNamesAndSorts(t *testing.T) {
	docs := []docstore.Doc{
		{ID: "s1", Fields: docstore.Fields{"name": "Wednesday Warriors"}},
		{ID: "s2", Fields: docstore.Fields{"name": "   "}},
		{ID: "s3", Fields: docstore.Fields{"name": "Matinee Monsters"}},
	}

	got := reduceSquads(docs)
	if len(got) != 2 {
		t.Fatalf("reduceSquads returned %d squads, want 2", len(got))
	}
	if got[0].Name != "Matinee Monsters" || got[1].Name != "Wednesday Warriors" {
		t.Fatalf("wrong order: %q, %q", got[0].Name, got[1].Name)
	}
}
