// Package sync implements the admin console's synchronization core: three
// in-memory mirrors of the allowlist, users, and squads collections kept
// current by live subscriptions, write-through mutation helpers with
// optimistic local update, the squad registry, and the cross-collection
// allowlist cleanup policy.
//
// All mirror state lives behind one mutex and is mutated only by snapshot
// delivery and by command methods, the server-side equivalent of the single
// UI thread the original console ran on. Cross-process races (two admin
// sessions seeding squads, a delete racing a snapshot) remain best-effort
// eventual consistency, as before.
package sync

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tenmm/squadadmin/internal/app/store/docstore"
	"github.com/tenmm/squadadmin/internal/domain/models"
)

// Core owns the three mirrors for the duration of an authorized admin
// session. Acquire starts the subscriptions on the first authorized
// session; Release tears them down together and discards the mirrors when
// the last session ends.
type Core struct {
	store docstore.Store
	log   *zap.Logger
	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	sessions int
	holders  map[string]struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	allowlist []models.AllowlistEntry
	users     []models.User
	squads    []models.SquadOption

	loadingAllowlist bool
	loadingUsers     bool
	loadingSquads    bool

	// errMsg is the surfaced error banner. First error wins; later errors
	// on any subscription or mutation do not overwrite it.
	errMsg string

	// cleaned remembers allowlist emails already auto-cleaned this session,
	// so repeated snapshot deliveries never re-attempt a delete (and a
	// silently failed delete is not retried until the next session).
	cleaned map[string]struct{}

	seededSquads bool
}

func New(store docstore.Store, logger *zap.Logger) *Core {
	return &Core{
		store:   store,
		log:     logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.NewString() },
		holders: map[string]struct{}{},
		cleaned: map[string]struct{}{},
	}
}

// State is a point-in-time copy of the mirrors and their status for
// rendering. Slices are copies; handlers may keep them across the request.
type State struct {
	Allowlist []models.AllowlistEntry
	Users     []models.User
	Squads    []models.SquadOption

	LoadingAllowlist bool
	LoadingUsers     bool
	LoadingSquads    bool

	Err string
}

func (c *Core) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Allowlist:        append([]models.AllowlistEntry(nil), c.allowlist...),
		Users:            append([]models.User(nil), c.users...),
		Squads:           append([]models.SquadOption(nil), c.squads...),
		LoadingAllowlist: c.loadingAllowlist,
		LoadingUsers:     c.loadingUsers,
		LoadingSquads:    c.loadingSquads,
		Err:              c.errMsg,
	}
}

// Acquire registers an authorized admin session. The first session opens
// the three live subscriptions.
func (c *Core) Acquire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions++
	if c.sessions > 1 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.loadingAllowlist = true
	c.loadingUsers = true
	c.loadingSquads = true

	for _, coll := range []string{
		docstore.AllowlistCollection,
		docstore.UsersCollection,
		docstore.SquadsCollection,
	} {
		c.wg.Add(1)
		go c.run(ctx, coll)
	}
}

// AcquireFor registers a session for an admin identity. An identity holds
// at most one session however many times it re-enters the console, so a
// page reload or a cookie that outlived a process restart cannot inflate
// the session count.
func (c *Core) AcquireFor(email string) {
	key := normalizeEmailKey(email)
	if key == "" {
		return
	}
	c.mu.Lock()
	if _, held := c.holders[key]; held {
		c.mu.Unlock()
		return
	}
	c.holders[key] = struct{}{}
	c.mu.Unlock()
	c.Acquire()
}

// ReleaseFor releases the session held by an admin identity. An identity
// that holds nothing in this process releases nothing, so signing out with
// a pre-restart cookie cannot tear down another admin's mirrors.
func (c *Core) ReleaseFor(email string) {
	key := normalizeEmailKey(email)
	c.mu.Lock()
	if _, held := c.holders[key]; !held {
		c.mu.Unlock()
		return
	}
	delete(c.holders, key)
	c.mu.Unlock()
	c.Release()
}

// Release unregisters a session. When the last session ends, all three
// subscriptions are cancelled together and every mirror is cleared.
func (c *Core) Release() {
	c.mu.Lock()
	if c.sessions == 0 {
		c.mu.Unlock()
		return
	}
	c.sessions--
	if c.sessions > 0 {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.allowlist = nil
	c.users = nil
	c.squads = nil
	c.loadingAllowlist = false
	c.loadingUsers = false
	c.loadingSquads = false
	c.errMsg = ""
	c.holders = map[string]struct{}{}
	c.cleaned = map[string]struct{}{}
	c.seededSquads = false
}

// Active reports whether a session currently holds the mirrors. Used by
// tests and the console handler guard.
func (c *Core) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions > 0
}

func (c *Core) run(ctx context.Context, collection string) {
	defer c.wg.Done()

	ch, err := c.store.Subscribe(ctx, collection)
	if err != nil {
		c.noteStreamError(collection, err)
		return
	}
	for ev := range ch {
		if ev.Err != nil {
			c.noteStreamError(collection, ev.Err)
			continue
		}
		c.applySnapshot(ctx, ev.Snapshot)
	}
}

// noteStreamError surfaces a subscription error (first one wins) and stops
// the mirror's loading indicator without clearing previously-known data.
func (c *Core) noteStreamError(collection string, err error) {
	c.log.Warn("subscription error",
		zap.String("collection", collection), zap.Error(err))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.surfaceLocked("failed to listen to " + collection + ": " + err.Error())
	switch collection {
	case docstore.AllowlistCollection:
		c.loadingAllowlist = false
	case docstore.UsersCollection:
		c.loadingUsers = false
	case docstore.SquadsCollection:
		c.loadingSquads = false
	}
}

func (c *Core) surfaceLocked(msg string) {
	if c.errMsg == "" {
		c.errMsg = msg
	}
}

// surfaceError records a mutation failure on the banner. Local optimistic
// state is deliberately NOT rolled back; the next snapshot reconciles.
func (c *Core) surfaceError(op string, err error) {
	c.log.Warn(op+" failed", zap.Error(err))
	c.mu.Lock()
	defer c.mu.Unlock()
	c.surfaceLocked(op + ": " + err.Error())
}

func (c *Core) applySnapshot(ctx context.Context, snap *docstore.Snapshot) {
	switch snap.Collection {
	case docstore.AllowlistCollection:
		c.mu.Lock()
		c.allowlist = reduceAllowlist(snap.Docs)
		c.loadingAllowlist = false
		pending := c.pendingAutoCleanLocked()
		c.mu.Unlock()
		c.autoDelete(ctx, pending)

	case docstore.UsersCollection:
		c.mu.Lock()
		c.users = reduceUsers(snap.Docs)
		c.loadingUsers = false
		pending := c.pendingAutoCleanLocked()
		c.mu.Unlock()
		c.autoDelete(ctx, pending)

	case docstore.SquadsCollection:
		list := reduceSquads(snap.Docs)
		if len(list) == 0 {
			c.seedSquads(ctx)
			return
		}
		c.mu.Lock()
		c.squads = list
		c.loadingSquads = false
		c.seededSquads = true
		c.mu.Unlock()
	}
}

// seedSquads creates the default squads the first time the collection is
// observed empty. Best effort: a concurrent admin session can still race
// this and produce duplicates; the live echo reconciles to whatever the
// store ends up holding.
func (c *Core) seedSquads(ctx context.Context) {
	c.mu.Lock()
	if c.seededSquads {
		c.loadingSquads = false
		c.mu.Unlock()
		return
	}
	c.seededSquads = true
	c.mu.Unlock()

	created := make([]models.SquadOption, 0, len(models.DefaultSquadNames))
	for _, name := range models.DefaultSquadNames {
		id := c.newID()
		err := c.store.Set(ctx, docstore.SquadsCollection, id, docstore.Fields{
			"name":      name,
			"createdAt": docstore.ServerTimestamp,
		}, true)
		if err != nil {
			c.surfaceError("failed to seed squad "+name, err)
			continue
		}
		created = append(created, models.SquadOption{ID: id, Name: name})
	}
	sortSquads(created)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.squads = created
	c.loadingSquads = false
}
