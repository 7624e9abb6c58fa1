// internal/app/system/csvutil/export.go
package csvutil

import (
	"encoding/csv"
	"io"

	"github.com/tenmm/squadadmin/internal/domain/models"
)

// WriteAllowlist writes the allowlist export: email,tier,squadID.
func WriteAllowlist(w io.Writer, entries []models.AllowlistEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"email", "tier", "squadID"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Email, string(e.Tier), e.SquadID}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteUsers writes the users export: uid,email,displayName,tier,squadID.
// The tier column always carries an explicit value, so absent tiers export
// as "free".
func WriteUsers(w io.Writer, users []models.User) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"uid", "email", "displayName", "tier", "squadID"}); err != nil {
		return err
	}
	for _, u := range users {
		tier := u.Tier
		if !tier.IsValid() {
			tier = models.TierFree
		}
		if err := cw.Write([]string{u.ID, u.Email, u.DisplayName, string(tier), u.SquadID}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
