// internal/app/sync/cleanup.go
package sync

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/tenmm/squadadmin/internal/app/store/docstore"
	"github.com/tenmm/squadadmin/internal/domain/models"
)

// Auto-cleanup: once both the users and allowlist mirrors are loaded and
// non-empty, allowlist entries whose email already has a user record are
// deleted. The per-session cleaned set guarantees each email is attempted
// at most once per session, even across repeated snapshot deliveries; a
// silently failed delete is therefore not retried until the next session.

// pendingAutoCleanLocked computes the next batch of redundant allowlist
// entries and marks them processed before any delete is issued. Caller
// holds c.mu.
func (c *Core) pendingAutoCleanLocked() []models.AllowlistEntry {
	if c.loadingUsers || c.loadingAllowlist {
		return nil
	}
	if len(c.users) == 0 || len(c.allowlist) == 0 {
		return nil
	}

	userEmails := userEmailSet(c.users)
	var toDelete []models.AllowlistEntry
	for _, e := range c.allowlist {
		key := cleanupKey(e)
		if key == "" {
			continue
		}
		if _, isUser := userEmails[key]; !isUser {
			continue
		}
		if _, done := c.cleaned[key]; done {
			continue
		}
		c.cleaned[key] = struct{}{}
		toDelete = append(toDelete, e)
	}
	return toDelete
}

// autoDelete issues the deletes for a cleanup batch. Failures are logged
// and suppressed: a missing target is harmless, and the session memory
// already prevents a retry storm.
func (c *Core) autoDelete(ctx context.Context, entries []models.AllowlistEntry) {
	for _, e := range entries {
		if err := c.store.Delete(ctx, docstore.AllowlistCollection, e.ID); err != nil {
			c.log.Warn("allowlist auto-clean delete failed",
				zap.String("email", e.Email), zap.Error(err))
		}
	}
}

// CleanupAllowlist is the operator-confirmed bulk equivalent: it deletes
// every allowlist entry whose email has a user record, ignoring the
// session memory. Returns how many deletes were issued.
func (c *Core) CleanupAllowlist(ctx context.Context) (int, error) {
	c.mu.Lock()
	userEmails := userEmailSet(c.users)
	var toDelete []models.AllowlistEntry
	for _, e := range c.allowlist {
		if _, isUser := userEmails[normalizeEmailKey(e.Email)]; isUser {
			toDelete = append(toDelete, e)
		}
	}
	c.mu.Unlock()

	for _, e := range toDelete {
		if err := c.store.Delete(ctx, docstore.AllowlistCollection, e.ID); err != nil {
			c.surfaceError("failed to clean up allowlist", err)
			return 0, err
		}
	}
	return len(toDelete), nil
}

// deleteAllowlistByEmail removes any allowlist entry whose email or doc id
// normalizes to the given email. Used by the user-delete cascade; a missing
// target is expected and never surfaced.
func (c *Core) deleteAllowlistByEmail(ctx context.Context, email string) {
	key := normalizeEmailKey(email)
	if key == "" {
		return
	}

	c.mu.Lock()
	target := key // allowlist doc id is usually emailLower
	for _, e := range c.allowlist {
		if normalizeEmailKey(e.Email) == key || normalizeEmailKey(e.ID) == key {
			target = e.ID
			break
		}
	}
	c.mu.Unlock()

	if err := c.store.Delete(ctx, docstore.AllowlistCollection, target); err != nil {
		c.log.Warn("allowlist cascade delete failed",
			zap.String("email", key), zap.Error(err))
	}
}

func userEmailSet(users []models.User) map[string]struct{} {
	set := make(map[string]struct{}, len(users))
	for _, u := range users {
		if key := normalizeEmailKey(u.Email); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

func cleanupKey(e models.AllowlistEntry) string {
	if key := normalizeEmailKey(e.Email); key != "" {
		return key
	}
	return normalizeEmailKey(e.ID)
}

func normalizeEmailKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
