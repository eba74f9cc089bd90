// Package records implements the record store client: list, create, update and delete
// of the caller's job applications. The caller's identity comes from the request context,
// input is validated before the store is touched and store failures are mapped into
// ErrNotFound or *StoreError. The client doesn't cache.
package records

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/umputun/jtrack/app/persistence"
)

//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store

// Store is the owner-scoped record collection
type Store interface {
	ListJobs(ctx context.Context, owner string) ([]persistence.Job, error)
	InsertJob(ctx context.Context, job persistence.Job) (persistence.Job, error)
	UpdateJob(ctx context.Context, owner, id string, ch persistence.JobChanges) (persistence.Job, error)
	DeleteJob(ctx context.Context, owner, id string) error
}

// Client issues record operations on behalf of the user found in context
type Client struct {
	store Store
	now   func() time.Time
	newID func() string
}

// Option customizes the client
type Option func(c *Client)

// WithClock sets the time source used for the date range check
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithIDGenerator sets the id generator for new records
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) { c.newID = fn }
}

// New makes a client for the store
func New(store Store, opts ...Option) *Client {
	res := &Client{store: store, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Today returns the current calendar date, the upper bound of application dates
func (c *Client) Today() time.Time {
	return dateOnly(c.now())
}

// List returns all records of the caller, most recent application first
func (c *Client) List(ctx context.Context) ([]persistence.Job, error) {
	user, ok := UserFrom(ctx)
	if !ok {
		return nil, ErrAuth
	}
	jobs, err := c.store.ListJobs(ctx, user.ID)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return jobs, nil
}

// Create validates the input and adds a new record owned by the caller
func (c *Client) Create(ctx context.Context, in Input) (persistence.Job, error) {
	user, ok := UserFrom(ctx)
	if !ok {
		return persistence.Job{}, ErrAuth
	}
	if err := in.check(c.now()); err != nil {
		return persistence.Job{}, err
	}

	ch := in.Changes().normalized()
	job := persistence.Job{
		ID:              c.newID(),
		Owner:           user.ID,
		CompanyName:     *ch.CompanyName,
		Role:            *ch.Role,
		ApplicationDate: *ch.ApplicationDate,
		Status:          in.Status,
	}
	created, err := c.store.InsertJob(ctx, job)
	if err != nil {
		return persistence.Job{}, &StoreError{Op: "create", Err: err}
	}
	return created, nil
}

// Update changes the fields present in ch for the caller's record
func (c *Client) Update(ctx context.Context, id string, ch Changes) (persistence.Job, error) {
	user, ok := UserFrom(ctx)
	if !ok {
		return persistence.Job{}, ErrAuth
	}
	if err := ch.check(c.now()); err != nil {
		return persistence.Job{}, err
	}

	ch = ch.normalized()
	updated, err := c.store.UpdateJob(ctx, user.ID, id, persistence.JobChanges{
		CompanyName:     ch.CompanyName,
		Role:            ch.Role,
		ApplicationDate: ch.ApplicationDate,
		Status:          ch.Status,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Job{}, ErrNotFound
		}
		return persistence.Job{}, &StoreError{Op: "update", Err: err}
	}
	return updated, nil
}

// Delete removes the caller's record
func (c *Client) Delete(ctx context.Context, id string) error {
	user, ok := UserFrom(ctx)
	if !ok {
		return ErrAuth
	}
	if err := c.store.DeleteJob(ctx, user.ID, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return &StoreError{Op: "delete", Err: err}
	}
	return nil
}
