// Package tracker keeps the per-user list of job applications in sync with the record store.
//
// The list of each owner is cached as a Snapshot with an explicit state machine:
// idle -> loading -> success|error, and success -> loading on refresh. A successful
// mutation marks the owner's snapshot stale so the next read re-fetches it, a failed one
// leaves the cache untouched. Observers subscribe to snapshot changes, and every mutation
// outcome except validation errors is reported to the notifiers.
package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
	log "github.com/go-pkgz/lgr"

	"github.com/umputun/jtrack/app/notify"
	"github.com/umputun/jtrack/app/persistence"
	"github.com/umputun/jtrack/app/records"
	"github.com/umputun/jtrack/app/web/enums"
)

//go:generate moq -out mocks/records.go -pkg mocks -skip-ensure -fmt goimports . Records
//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier

// ErrInFlight returned when a status change is requested for a record already being changed
var ErrInFlight = errors.New("status change already in progress")

// Records is the record store client
type Records interface {
	List(ctx context.Context) ([]persistence.Job, error)
	Create(ctx context.Context, in records.Input) (persistence.Job, error)
	Update(ctx context.Context, id string, ch records.Changes) (persistence.Job, error)
	Delete(ctx context.Context, id string) error
}

// Notifier receives operation outcomes, fire-and-forget
type Notifier interface {
	Notify(ctx context.Context, n notify.Notification)
}

// State of the owner's list
type State string

// list states
const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Snapshot is the cached list of a single owner
type Snapshot struct {
	Jobs      []persistence.Job // last successfully fetched list, kept while loading or on error
	State     State
	Err       error     // error of the last fetch, set in StateError only
	Stale     bool      // invalidated since the last successful fetch
	Version   uint64    // changes on every update of the snapshot
	FetchedAt time.Time // time of the last successful fetch

	gen uint64 // invalidation counter
}

// Observer is called on every snapshot change
type Observer func(owner string, s Snapshot)

// Params of the tracker cache
type Params struct {
	TTL       time.Duration // how long an owner's snapshot is kept, default 10m
	MaxOwners int           // max number of cached owners, default 1000
}

// Tracker is the synchronization layer between presentation and record store
type Tracker struct {
	records   Records
	notifiers []Notifier
	now       func() time.Time

	mu      sync.Mutex // guards read-modify-write of snapshots
	cache   cache.Cache[string, Snapshot]
	version atomic.Uint64

	obsMu     sync.RWMutex
	observers map[int]Observer
	nextObs   int

	inflight *inFlight
}

// New makes tracker for the records client
func New(rec Records, p Params, notifiers ...Notifier) *Tracker {
	if p.TTL <= 0 {
		p.TTL = 10 * time.Minute
	}
	if p.MaxOwners <= 0 {
		p.MaxOwners = 1000
	}
	return &Tracker{
		records:   rec,
		notifiers: notifiers,
		now:       time.Now,
		cache:     cache.NewCache[string, Snapshot]().WithTTL(p.TTL).WithMaxKeys(p.MaxOwners).WithLRU(),
		observers: map[int]Observer{},
		inflight:  newInFlight(),
	}
}

// Snapshot returns the current snapshot of the owner, idle if nothing cached
func (t *Tracker) Snapshot(owner string) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap, ok := t.cache.Peek(owner)
	if !ok {
		return Snapshot{State: StateIdle}
	}
	return snap
}

// List returns the caller's list from cache, fetching it if missing, stale or failed before
func (t *Tracker) List(ctx context.Context) ([]persistence.Job, error) {
	user, ok := records.UserFrom(ctx)
	if !ok {
		return nil, records.ErrAuth
	}

	t.mu.Lock()
	snap, found := t.cache.Get(user.ID)
	t.mu.Unlock()
	if found && snap.State == StateSuccess && !snap.Stale {
		return snap.Jobs, nil
	}

	snap, err := t.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Jobs, nil
}

// Refresh fetches the caller's list from the store unconditionally.
// The snapshot reflects the most recently completed fetch.
func (t *Tracker) Refresh(ctx context.Context) (Snapshot, error) {
	user, ok := records.UserFrom(ctx)
	if !ok {
		return Snapshot{State: StateIdle}, records.ErrAuth
	}

	gen := t.update(user.ID, func(s *Snapshot) {
		s.State = StateLoading
		s.Err = nil
	})

	jobs, err := t.records.List(ctx)

	var res Snapshot
	t.update(user.ID, func(s *Snapshot) {
		if err != nil {
			s.State = StateError
			s.Err = err
			res = *s
			return
		}
		s.Jobs = jobs
		s.State = StateSuccess
		s.Err = nil
		s.FetchedAt = t.now()
		s.Stale = s.gen != gen // invalidated while fetching
		res = *s
	})
	if err != nil {
		log.Printf("[WARN] failed to refresh jobs of %s, %v", user.ID, err)
		return res, err
	}
	return res, nil
}

// Invalidate marks the owner's list stale, the next List re-fetches it
func (t *Tracker) Invalidate(owner string) {
	t.mu.Lock()
	_, found := t.cache.Peek(owner)
	t.mu.Unlock()
	if !found {
		return
	}
	t.update(owner, func(s *Snapshot) {
		s.Stale = true
		s.gen++
	})
}

// Create adds a new record for the caller
func (t *Tracker) Create(ctx context.Context, in records.Input) (persistence.Job, error) {
	job, err := t.records.Create(ctx, in)
	if err != nil {
		t.failed(ctx, "create", "Failed to add job", err)
		return persistence.Job{}, err
	}
	t.succeeded(ctx, "create", "Job application added!")
	return job, nil
}

// Update changes fields of the caller's record
func (t *Tracker) Update(ctx context.Context, id string, ch records.Changes) (persistence.Job, error) {
	job, err := t.records.Update(ctx, id, ch)
	if err != nil {
		t.failed(ctx, "update", "Failed to update job", err)
		return persistence.Job{}, err
	}
	t.succeeded(ctx, "update", "Job updated!")
	return job, nil
}

// UpdateStatus changes the status of the caller's record.
// Returns ErrInFlight if a status change of the same record is still in progress.
func (t *Tracker) UpdateStatus(ctx context.Context, id string, status enums.Status) (persistence.Job, error) {
	user, ok := records.UserFrom(ctx)
	if !ok {
		t.failed(ctx, "update", "Failed to update job", records.ErrAuth)
		return persistence.Job{}, records.ErrAuth
	}
	key := user.ID + "/" + id
	if !t.inflight.add(key) {
		return persistence.Job{}, ErrInFlight
	}
	defer t.inflight.remove(key)
	return t.Update(ctx, id, records.Changes{Status: &status})
}

// InFlight reports whether a status change of the owner's record is in progress
func (t *Tracker) InFlight(owner, id string) bool {
	return t.inflight.has(owner + "/" + id)
}

// Delete removes the caller's record
func (t *Tracker) Delete(ctx context.Context, id string) error {
	if err := t.records.Delete(ctx, id); err != nil {
		t.failed(ctx, "delete", "Failed to delete job", err)
		return err
	}
	t.succeeded(ctx, "delete", "Job deleted!")
	return nil
}

// Subscribe registers observer of snapshot changes, returns function to unsubscribe
func (t *Tracker) Subscribe(fn Observer) (unsubscribe func()) {
	t.obsMu.Lock()
	id := t.nextObs
	t.nextObs++
	t.observers[id] = fn
	t.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.obsMu.Lock()
			delete(t.observers, id)
			t.obsMu.Unlock()
		})
	}
}

// update applies fn to the owner's snapshot, stores it and informs observers.
// Returns the invalidation counter before fn is applied.
func (t *Tracker) update(owner string, fn func(s *Snapshot)) (gen uint64) {
	t.mu.Lock()
	snap, found := t.cache.Peek(owner)
	if !found {
		snap = Snapshot{State: StateIdle}
	}
	gen = snap.gen
	fn(&snap)
	snap.Version = t.version.Add(1)
	t.cache.Set(owner, snap, 0)
	t.mu.Unlock()

	t.obsMu.RLock()
	observers := make([]Observer, 0, len(t.observers))
	for _, o := range t.observers {
		observers = append(observers, o)
	}
	t.obsMu.RUnlock()
	for _, o := range observers {
		o(owner, snap)
	}
	return gen
}

func (t *Tracker) succeeded(ctx context.Context, op, msg string) {
	user, _ := records.UserFrom(ctx)
	t.Invalidate(user.ID)
	t.emit(ctx, notify.Notification{Level: notify.LevelSuccess, Op: op, Message: msg, User: user.Email})
}

// failed reports the error, validation errors are shown inline by the caller and not reported
func (t *Tracker) failed(ctx context.Context, op, prefix string, err error) {
	var verr *records.ValidationError
	if errors.As(err, &verr) {
		return
	}
	log.Printf("[WARN] %s failed, %v", op, err)

	msg := err.Error()
	var serr *records.StoreError
	if errors.As(err, &serr) {
		msg = serr.Err.Error()
	}
	user, _ := records.UserFrom(ctx)
	t.emit(ctx, notify.Notification{Level: notify.LevelError, Op: op, Message: prefix + ": " + msg, User: user.Email})
}

func (t *Tracker) emit(ctx context.Context, n notify.Notification) {
	n.TS = t.now()
	for _, nt := range t.notifiers {
		nt.Notify(ctx, n)
	}
}
