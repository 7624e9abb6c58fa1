// internal/app/sync/registry.go
package sync

import (
	"context"
	"strings"

	"github.com/tenmm/squadadmin/internal/app/store/docstore"
	"github.com/tenmm/squadadmin/internal/domain/models"
)

// EnsureSquad is the single chokepoint every squad reference passes through
// before being stored on an allowlist or user entity. Given a raw name it
// trims it; a blank name returns "" (no-op). An existing squad is matched
// case-insensitively and its canonical spelling returned unchanged.
// Otherwise a new squad document is created with the trimmed original-case
// name, appended optimistically to the local mirror, and returned.
//
// Two processes can still race to create the same name; that window is
// accepted, the live echo converges both to the stored set.
func (c *Core) EnsureSquad(ctx context.Context, rawName string) (string, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return "", nil
	}

	c.mu.Lock()
	for _, s := range c.squads {
		if strings.EqualFold(s.Name, name) {
			canonical := s.Name
			c.mu.Unlock()
			return canonical, nil
		}
	}
	c.mu.Unlock()

	id := c.newID()
	err := c.store.Set(ctx, docstore.SquadsCollection, id, docstore.Fields{
		"name":      name,
		"createdAt": docstore.ServerTimestamp,
	}, true)
	if err != nil {
		c.surfaceError("failed to add new squad", err)
		return "", err
	}

	c.mu.Lock()
	c.squads = append(c.squads, models.SquadOption{ID: id, Name: name})
	sortSquads(c.squads)
	c.mu.Unlock()

	return name, nil
}
