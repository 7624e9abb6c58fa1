// internal/app/sync/persist.go
package sync

import (
	"context"
	"errors"
	"strings"

	"github.com/tenmm/squadadmin/internal/app/store/docstore"
	"github.com/tenmm/squadadmin/internal/domain/models"
)

var (
	// ErrNotInMirror is returned when a command names an entity the
	// current mirror does not hold.
	ErrNotInMirror = errors.New("entity not present in mirror")

	// ErrOverrideLocked is returned when editing a tier override on a user
	// whose tier is controlled externally (e.g. the billing webhook).
	ErrOverrideLocked = errors.New("tier override is controlled externally for this user")

	// ErrBadOverride is returned for override values other than pro or
	// amateur.
	ErrBadOverride = errors.New(`tier override must be "pro" or "amateur"`)
)

// Mutations apply optimistically: the local mirror is updated first, then
// the write is issued. On failure the error is surfaced on the banner but
// the optimistic state is NOT rolled back; the next snapshot event
// reconciles the mirror to ground truth.

// SetAllowlistTier changes an allowlist entry's tier and persists it.
func (c *Core) SetAllowlistTier(ctx context.Context, id string, tier models.Tier) error {
	if !tier.IsValid() {
		tier = models.TierFree
	}

	c.mu.Lock()
	i := c.allowlistIndexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotInMirror
	}
	c.allowlist[i].Tier = tier
	entry := c.allowlist[i]
	c.mu.Unlock()

	return c.persistAllowlistEntry(ctx, entry)
}

// SetAllowlistSquad changes an allowlist entry's squad and persists it. A
// blank squad clears the assignment.
func (c *Core) SetAllowlistSquad(ctx context.Context, id, squad string) error {
	c.mu.Lock()
	i := c.allowlistIndexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotInMirror
	}
	c.allowlist[i].SquadID = strings.TrimSpace(squad)
	entry := c.allowlist[i]
	c.mu.Unlock()

	return c.persistAllowlistEntry(ctx, entry)
}

// persistAllowlistEntry writes an entry's mutable fields back to the store.
// Allowlist entries always store their tier explicitly, including "free".
// A blank squad deletes the stored field; a non-blank squad is guaranteed
// to exist via the registry before it is written.
func (c *Core) persistAllowlistEntry(ctx context.Context, e models.AllowlistEntry) error {
	fields := docstore.Fields{
		"tier":      string(e.Tier),
		"updatedAt": docstore.ServerTimestamp,
	}
	squad := strings.TrimSpace(e.SquadID)
	if squad == "" {
		fields["squadID"] = docstore.DeleteField
	} else {
		canonical, err := c.EnsureSquad(ctx, squad)
		if err != nil {
			return err
		}
		if canonical != "" {
			squad = canonical
		}
		fields["squadID"] = squad
	}

	if err := c.store.Update(ctx, docstore.AllowlistCollection, e.ID, fields); err != nil {
		c.surfaceError("failed to auto-save allowlist entry", err)
		return err
	}
	return nil
}

// AddAllowlistEntry creates or updates the allowlist entry for an email
// (doc id = lower-cased email) with the given starting tier and squad.
func (c *Core) AddAllowlistEntry(ctx context.Context, email string, tier models.Tier, squad string) error {
	emailLower := normalizeEmailKey(email)
	if emailLower == "" {
		return errors.New("email is required")
	}
	if !tier.IsValid() {
		tier = models.TierFree
	}

	fields := docstore.Fields{
		"email":     emailLower,
		"tier":      string(tier),
		"createdAt": docstore.ServerTimestamp,
		"updatedAt": docstore.ServerTimestamp,
	}
	squad = strings.TrimSpace(squad)
	if squad == "" {
		fields["squadID"] = docstore.DeleteField
	} else {
		canonical, err := c.EnsureSquad(ctx, squad)
		if err != nil {
			return err
		}
		if canonical != "" {
			squad = canonical
		}
		fields["squadID"] = squad
	}

	if err := c.store.Set(ctx, docstore.AllowlistCollection, emailLower, fields, true); err != nil {
		c.surfaceError("failed to add/update allowlist entry", err)
		return err
	}
	return nil
}

// DeleteAllowlistEntry removes one allowlist entry. Confirmation happens at
// the HTTP layer; failures here are surfaced.
func (c *Core) DeleteAllowlistEntry(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, docstore.AllowlistCollection, id); err != nil {
		c.surfaceError("failed to delete allowlist entry", err)
		return err
	}
	return nil
}

// SetUserTier changes a user's tier and persists it. Setting free removes
// the stored field (absence means free).
func (c *Core) SetUserTier(ctx context.Context, id string, tier models.Tier) error {
	if !tier.IsValid() {
		tier = models.TierFree
	}

	c.mu.Lock()
	i := c.userIndexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotInMirror
	}
	c.users[i].Tier = tier
	user := c.users[i]
	c.mu.Unlock()

	return c.persistUserEntry(ctx, user)
}

// SetUserSquad changes a user's squad and persists it.
func (c *Core) SetUserSquad(ctx context.Context, id, squad string) error {
	c.mu.Lock()
	i := c.userIndexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotInMirror
	}
	c.users[i].SquadID = strings.TrimSpace(squad)
	user := c.users[i]
	c.mu.Unlock()

	return c.persistUserEntry(ctx, user)
}

// persistUserEntry writes a user's mutable fields back to the store. The
// free tier is stored as field absence; blank squads delete the field.
func (c *Core) persistUserEntry(ctx context.Context, u models.User) error {
	fields := docstore.Fields{
		"updatedAt": docstore.ServerTimestamp,
	}
	if value, present := models.EncodeTier(u.Tier); present {
		fields["tier"] = value
	} else {
		fields["tier"] = docstore.DeleteField
	}

	squad := strings.TrimSpace(u.SquadID)
	if squad == "" {
		fields["squadID"] = docstore.DeleteField
	} else {
		canonical, err := c.EnsureSquad(ctx, squad)
		if err != nil {
			return err
		}
		if canonical != "" {
			squad = canonical
		}
		fields["squadID"] = squad
	}

	if err := c.store.Update(ctx, docstore.UsersCollection, u.ID, fields); err != nil {
		c.surfaceError("failed to auto-save user record", err)
		return err
	}
	return nil
}

// SetUserTierOverride forces a user's tier to pro or amateur. The override
// mirrors into tier to keep the two consistent, and any active trial is
// force-ended. Users controlled by an external billing source cannot be
// overridden.
func (c *Core) SetUserTierOverride(ctx context.Context, id string, override models.Tier) error {
	if override != models.TierPro && override != models.TierAmateur {
		return ErrBadOverride
	}

	c.mu.Lock()
	i := c.userIndexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotInMirror
	}
	if c.users[i].OverrideLocked() {
		c.mu.Unlock()
		return ErrOverrideLocked
	}
	c.users[i].TierOverride = override
	c.users[i].Tier = override
	c.users[i].TrialStatus = "ended"
	c.mu.Unlock()

	err := c.store.Update(ctx, docstore.UsersCollection, id, docstore.Fields{
		"tierOverride": string(override),
		"tier":         string(override),
		"trialStatus":  "ended",
		"trialEndedAt": docstore.ServerTimestamp,
		"updatedAt":    docstore.ServerTimestamp,
	})
	if err != nil {
		c.surfaceError("failed to set tier override", err)
		return err
	}
	return nil
}

// ClearUserTierOverride removes the override field only; the tier field is
// left as-is.
func (c *Core) ClearUserTierOverride(ctx context.Context, id string) error {
	c.mu.Lock()
	i := c.userIndexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotInMirror
	}
	if c.users[i].OverrideLocked() {
		c.mu.Unlock()
		return ErrOverrideLocked
	}
	c.users[i].TierOverride = ""
	c.mu.Unlock()

	err := c.store.Update(ctx, docstore.UsersCollection, id, docstore.Fields{
		"tierOverride": docstore.DeleteField,
		"updatedAt":    docstore.ServerTimestamp,
	})
	if err != nil {
		c.surfaceError("failed to clear tier override", err)
		return err
	}
	return nil
}

// DeleteUser removes a user record and cascades to any allowlist entry for
// the same email, so the account can only come back as free. The cascade
// is a safe delete: a missing allowlist target is expected and suppressed.
func (c *Core) DeleteUser(ctx context.Context, id string) error {
	c.mu.Lock()
	i := c.userIndexLocked(id)
	var email string
	if i >= 0 {
		email = c.users[i].Email
	}
	c.mu.Unlock()
	if i < 0 {
		return ErrNotInMirror
	}

	if err := c.store.Delete(ctx, docstore.UsersCollection, id); err != nil {
		c.surfaceError("failed to delete user record", err)
		return err
	}
	c.deleteAllowlistByEmail(ctx, email)
	return nil
}

func (c *Core) allowlistIndexLocked(id string) int {
	for i := range c.allowlist {
		if c.allowlist[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Core) userIndexLocked(id string) int {
	for i := range c.users {
		if c.users[i].ID == id {
			return i
		}
	}
	return -1
}
