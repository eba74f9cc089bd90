package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/jtrack/app/web/enums"
)

func TestNewSQLiteStore(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		assert.NotNil(t, store)
		require.NoError(t, store.Close())
	})

	t.Run("invalid path", func(t *testing.T) {
		// try to create database in non-existent directory
		store, err := NewSQLiteStore("/invalid/path/that/does/not/exist/test.db")
		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("unsupported driver", func(t *testing.T) {
		store, err := NewStore(context.Background(), Params{Driver: "mysql", DSN: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported driver")
		assert.Nil(t, store)
	})
}

func TestStore_TablesCreated(t *testing.T) {
	store := newTestStore(t)

	for _, table := range []string{"jobs", "users"} {
		var count int
		err := store.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, table)
	}
}

func TestStore_WALMode(t *testing.T) {
	store := newTestStore(t)

	var mode string
	require.NoError(t, store.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestStore_InsertAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.InsertJob(ctx, testJob("u1", "Acme", "2024-01-10", enums.StatusApplied))
	require.NoError(t, err)
	_, err = store.InsertJob(ctx, testJob("u1", "Globex", "2024-03-05", enums.StatusInterview))
	require.NoError(t, err)
	_, err = store.InsertJob(ctx, testJob("u1", "Initech", "2024-02-01", enums.StatusOffer))
	require.NoError(t, err)
	_, err = store.InsertJob(ctx, testJob("u2", "Umbrella", "2024-04-01", enums.StatusRejected))
	require.NoError(t, err)

	jobs, err := store.ListJobs(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "Globex", jobs[0].CompanyName)
	assert.Equal(t, "Initech", jobs[1].CompanyName)
	assert.Equal(t, "Acme", jobs[2].CompanyName)
	assert.Equal(t, enums.StatusInterview, jobs[0].Status)
	assert.Equal(t, "2024-03-05", jobs[0].ApplicationDate.Format(DateLayout))
	assert.False(t, jobs[0].CreatedAt.IsZero())
	assert.Equal(t, jobs[0].CreatedAt, jobs[0].UpdatedAt)
	for _, j := range jobs {
		assert.Equal(t, "u1", j.Owner)
	}

	jobs, err = store.ListJobs(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Umbrella", jobs[0].CompanyName)

	jobs, err = store.ListJobs(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestStore_ListSameDateNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { ts = ts.Add(time.Second); return ts }

	_, err := store.InsertJob(ctx, testJob("u1", "First", "2024-05-01", enums.StatusApplied))
	require.NoError(t, err)
	_, err = store.InsertJob(ctx, testJob("u1", "Second", "2024-05-01", enums.StatusApplied))
	require.NoError(t, err)

	jobs, err := store.ListJobs(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Second", jobs[0].CompanyName)
	assert.Equal(t, "First", jobs[1].CompanyName)
}

func TestStore_InsertJob_Errors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("missing owner", func(t *testing.T) {
		j := testJob("", "Acme", "2024-01-01", enums.StatusApplied)
		_, err := store.InsertJob(ctx, j)
		require.Error(t, err)
	})

	t.Run("missing status", func(t *testing.T) {
		j := testJob("u1", "Acme", "2024-01-01", enums.Status{})
		_, err := store.InsertJob(ctx, j)
		require.Error(t, err)
	})

	t.Run("duplicate id", func(t *testing.T) {
		j := testJob("u1", "Acme", "2024-01-01", enums.StatusApplied)
		_, err := store.InsertJob(ctx, j)
		require.NoError(t, err)
		_, err = store.InsertJob(ctx, j)
		require.Error(t, err)
	})
}

func TestStore_GetJob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.InsertJob(ctx, testJob("u1", "Acme", "2024-01-10", enums.StatusApplied))
	require.NoError(t, err)

	got, err := store.GetJob(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = store.GetJob(ctx, "u2", created.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetJob(ctx, "u1", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateJob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { ts = ts.Add(time.Minute); return ts }

	created, err := store.InsertJob(ctx, testJob("u1", "Acme", "2024-01-10", enums.StatusApplied))
	require.NoError(t, err)

	t.Run("status only", func(t *testing.T) {
		st := enums.StatusInterview
		updated, err := store.UpdateJob(ctx, "u1", created.ID, JobChanges{Status: &st})
		require.NoError(t, err)
		assert.Equal(t, enums.StatusInterview, updated.Status)
		assert.Equal(t, "Acme", updated.CompanyName)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	})

	t.Run("all fields", func(t *testing.T) {
		name, role := "Acme Corp", "Staff Engineer"
		date := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
		st := enums.StatusOffer
		updated, err := store.UpdateJob(ctx, "u1", created.ID, JobChanges{CompanyName: &name, Role: &role,
			ApplicationDate: &date, Status: &st})
		require.NoError(t, err)
		assert.Equal(t, "Acme Corp", updated.CompanyName)
		assert.Equal(t, "Staff Engineer", updated.Role)
		assert.Equal(t, date, updated.ApplicationDate)
		assert.Equal(t, enums.StatusOffer, updated.Status)

		got, err := store.GetJob(ctx, "u1", created.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("other owner", func(t *testing.T) {
		st := enums.StatusRejected
		_, err := store.UpdateJob(ctx, "u2", created.ID, JobChanges{Status: &st})
		require.ErrorIs(t, err, ErrNotFound)

		got, err := store.GetJob(ctx, "u1", created.ID)
		require.NoError(t, err)
		assert.Equal(t, enums.StatusOffer, got.Status)
	})

	t.Run("missing job", func(t *testing.T) {
		st := enums.StatusRejected
		_, err := store.UpdateJob(ctx, "u1", "missing", JobChanges{Status: &st})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty status rejected", func(t *testing.T) {
		st := enums.Status{}
		_, err := store.UpdateJob(ctx, "u1", created.ID, JobChanges{Status: &st})
		require.Error(t, err)
	})
}

func TestStore_DeleteJob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.InsertJob(ctx, testJob("u1", "Acme", "2024-01-10", enums.StatusApplied))
	require.NoError(t, err)

	require.ErrorIs(t, store.DeleteJob(ctx, "u2", created.ID), ErrNotFound)
	require.NoError(t, store.DeleteJob(ctx, "u1", created.ID))
	require.ErrorIs(t, store.DeleteJob(ctx, "u1", created.ID), ErrNotFound)

	jobs, err := store.ListJobs(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestStore_ClosedDatabase(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	ctx := context.Background()
	_, err = store.ListJobs(ctx, "u1")
	require.Error(t, err)
	_, err = store.InsertJob(ctx, testJob("u1", "Acme", "2024-01-10", enums.StatusApplied))
	require.Error(t, err)
	require.Error(t, store.DeleteJob(ctx, "u1", "x"))
}

func TestStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u, err := store.CreateUser(ctx, User{ID: "u1", Email: " Alice@Example.com ", PasswordHash: "h1"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = store.CreateUser(ctx, User{ID: "u2", Email: "ALICE@example.com", PasswordHash: "h2"})
	require.ErrorIs(t, err, ErrDuplicate)

	_, err = store.CreateUser(ctx, User{ID: "u3", Email: "", PasswordHash: "h3"})
	require.Error(t, err)

	got, err := store.UserByEmail(ctx, "alice@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "h1", got.PasswordHash)

	got, err = store.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	_, err = store.UserByEmail(ctx, "bob@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	t.Run("upsert keeps id", func(t *testing.T) {
		upd, err := store.UpsertUser(ctx, User{ID: "other", Email: "alice@example.com", PasswordHash: "h9"})
		require.NoError(t, err)
		assert.Equal(t, "u1", upd.ID)
		assert.Equal(t, "h9", upd.PasswordHash)

		created, err := store.UpsertUser(ctx, User{ID: "u5", Email: "bob@example.com", PasswordHash: "hb"})
		require.NoError(t, err)
		assert.Equal(t, "u5", created.ID)
	})

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice@example.com", users[0].Email)
	assert.Equal(t, "bob@example.com", users[1].Email)
}

func TestJobChanges_IsEmpty(t *testing.T) {
	assert.True(t, JobChanges{}.IsEmpty())
	name := "x"
	assert.False(t, JobChanges{CompanyName: &name}.IsEmpty())
}

func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv("JTRACK_TEST_PG")
	if dsn == "" {
		t.Skip("JTRACK_TEST_PG not set")
	}
	ctx := context.Background()
	store, err := NewStore(ctx, Params{Driver: DriverPostgres, DSN: dsn, ConnectAttempts: 3, ConnectDelay: 100 * time.Millisecond})
	require.NoError(t, err)
	defer store.Close()

	owner := "pg-" + uuid.NewString()
	created, err := store.InsertJob(ctx, testJob(owner, "Acme", "2024-01-10", enums.StatusApplied))
	require.NoError(t, err)

	st := enums.StatusOffer
	updated, err := store.UpdateJob(ctx, owner, created.ID, JobChanges{Status: &st})
	require.NoError(t, err)
	assert.Equal(t, enums.StatusOffer, updated.Status)

	jobs, err := store.ListJobs(ctx, owner)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	require.NoError(t, store.DeleteJob(ctx, owner, created.ID))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testJob(owner, company, date string, status enums.Status) Job {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		panic(err)
	}
	return Job{ID: uuid.NewString(), Owner: owner, CompanyName: company, Role: "Engineer",
		ApplicationDate: d, Status: status}
}
