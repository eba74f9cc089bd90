package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/umputun/jtrack/app/web/enums"
)

// supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// DateLayout is the storage and wire format of application dates
const DateLayout = "2006-01-02"

// ErrNotFound returned when a record doesn't exist or belongs to another owner
var ErrNotFound = errors.New("not found")

// ErrDuplicate returned when a user with the same email already exists
var ErrDuplicate = errors.New("duplicate")

// Job represents a job application record
type Job struct {
	ID              string
	Owner           string
	CompanyName     string
	Role            string
	ApplicationDate time.Time // date only, midnight UTC
	Status          enums.Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// JobChanges is a partial update, nil fields are left untouched
type JobChanges struct {
	CompanyName     *string
	Role            *string
	ApplicationDate *time.Time
	Status          *enums.Status
}

// IsEmpty reports whether no field is set
func (c JobChanges) IsEmpty() bool {
	return c.CompanyName == nil && c.Role == nil && c.ApplicationDate == nil && c.Status == nil
}

// User is an account owning job records
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"-"`
}

// Params defines store connection parameters
type Params struct {
	Driver          string        // DriverSQLite or DriverPostgres
	DSN             string        // file path for sqlite, connection string for postgres
	ConnectAttempts int           // ping attempts on start, at least 1
	ConnectDelay    time.Duration // initial delay between ping attempts
}

// Store implements job and user persistence on top of sqlx
type Store struct {
	db     *sqlx.DB
	driver string
	now    func() time.Time
}

// jobRow is the db representation of Job
type jobRow struct {
	ID              string       `db:"id"`
	Owner           string       `db:"owner"`
	CompanyName     string       `db:"company_name"`
	Role            string       `db:"role"`
	ApplicationDate string       `db:"application_date"`
	Status          enums.Status `db:"status"`
	CreatedAt       int64        `db:"created_at"`
	UpdatedAt       int64        `db:"updated_at"`
}

type userRow struct {
	User
	CreatedAtMs int64 `db:"created_at"`
}

const jobColumns = "id, owner, company_name, role, application_date, status, created_at, updated_at"

// NewSQLiteStore creates a new SQLite store for the given file
func NewSQLiteStore(dbPath string) (*Store, error) {
	return NewStore(context.Background(), Params{Driver: DriverSQLite, DSN: dbPath})
}

// NewStore opens the database, waits for it to respond and creates the schema
func NewStore(ctx context.Context, p Params) (*Store, error) {
	if p.Driver == "" {
		p.Driver = DriverSQLite
	}
	if p.Driver != DriverSQLite && p.Driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported driver %q", p.Driver)
	}

	dsn := p.DSN
	if p.Driver == DriverSQLite && !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)"
	}

	db, err := sqlx.Open(p.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	attempts := max(p.ConnectAttempts, 1)
	delay := p.ConnectDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	rptr := repeater.New(&strategy.Backoff{Repeats: attempts, Duration: delay, Factor: 1.5})
	err = rptr.Do(ctx, func() error {
		if e := db.PingContext(ctx); e != nil {
			log.Printf("[DEBUG] database ping failed: %v", e)
			return e
		}
		return nil
	})
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to connect to database: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if p.Driver == DriverSQLite {
		// enable WAL mode for better concurrency
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				return nil, fmt.Errorf("failed to set WAL mode: %w (also failed to close db: %v)", err, closeErr)
			}
			return nil, fmt.Errorf("failed to set WAL mode: %w", err)
		}
	}

	s := &Store{db: db, driver: p.Driver, now: time.Now}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	log.Printf("[DEBUG] %s store ready", p.Driver)
	return s, nil
}

// initialize creates the database schema
func (s *Store) initialize(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			company_name TEXT NOT NULL,
			role TEXT NOT NULL,
			application_date TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_owner ON jobs(owner)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_owner_date ON jobs(owner, application_date)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// ListJobs returns all jobs of the owner, most recent application date first
func (s *Store) ListJobs(ctx context.Context, owner string) ([]Job, error) {
	var rows []jobRow
	q := s.db.Rebind(`SELECT ` + jobColumns + ` FROM jobs WHERE owner = ?
		ORDER BY application_date DESC, created_at DESC, id`)
	if err := s.db.SelectContext(ctx, &rows, q, owner); err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}

	jobs := make([]Job, 0, len(rows))
	for _, r := range rows {
		job, err := r.job()
		if err != nil {
			log.Printf("[WARN] skip job %s with bad row: %v", r.ID, err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// GetJob returns a single job of the owner
func (s *Store) GetJob(ctx context.Context, owner, id string) (Job, error) {
	return s.getJob(ctx, s.db, owner, id)
}

// InsertJob saves a new job. ID, Owner and Status must be set by the caller, timestamps are assigned here
func (s *Store) InsertJob(ctx context.Context, job Job) (Job, error) {
	if job.ID == "" || job.Owner == "" {
		return Job{}, errors.New("job id and owner are required")
	}
	if job.Status.IsZero() {
		return Job{}, errors.New("job status is required")
	}

	ts := s.now().UTC().Truncate(time.Millisecond)
	job.CreatedAt, job.UpdatedAt = ts, ts
	row := newJobRow(job)
	q := `INSERT INTO jobs (` + jobColumns + `) VALUES
		(:id, :owner, :company_name, :role, :application_date, :status, :created_at, :updated_at)`
	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		return Job{}, fmt.Errorf("failed to insert job %s: %w", job.ID, err)
	}
	return row.job()
}

// UpdateJob applies changes to the owner's job and returns the updated record.
// Returns ErrNotFound if the job doesn't exist or belongs to someone else.
func (s *Store) UpdateJob(ctx context.Context, owner, id string, ch JobChanges) (Job, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Job{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint

	sets := []string{"updated_at = ?"}
	args := []any{s.now().UTC().Truncate(time.Millisecond).UnixMilli()}
	if ch.CompanyName != nil {
		sets = append(sets, "company_name = ?")
		args = append(args, *ch.CompanyName)
	}
	if ch.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *ch.Role)
	}
	if ch.ApplicationDate != nil {
		sets = append(sets, "application_date = ?")
		args = append(args, ch.ApplicationDate.Format(DateLayout))
	}
	if ch.Status != nil {
		if ch.Status.IsZero() {
			return Job{}, errors.New("job status can't be empty")
		}
		sets = append(sets, "status = ?")
		args = append(args, ch.Status.String())
	}
	args = append(args, id, owner)

	q := s.db.Rebind("UPDATE jobs SET " + strings.Join(sets, ", ") + " WHERE id = ? AND owner = ?")
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return Job{}, fmt.Errorf("failed to update job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Job{}, fmt.Errorf("failed to get affected rows for job %s: %w", id, err)
	}
	if n == 0 {
		return Job{}, ErrNotFound
	}

	job, err := s.getJob(ctx, tx, owner, id)
	if err != nil {
		return Job{}, err
	}
	if err := tx.Commit(); err != nil {
		return Job{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return job, nil
}

// DeleteJob removes the owner's job, returns ErrNotFound if nothing was deleted
func (s *Store) DeleteJob(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM jobs WHERE id = ? AND owner = ?"), id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows for job %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateUser adds a new user, returns ErrDuplicate if the email is taken
func (s *Store) CreateUser(ctx context.Context, user User) (User, error) {
	user.Email = normalizeEmail(user.Email)
	if user.ID == "" || user.Email == "" || user.PasswordHash == "" {
		return User{}, errors.New("user id, email and password hash are required")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return User{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint

	var count int
	if err := tx.GetContext(ctx, &count, tx.Rebind("SELECT COUNT(*) FROM users WHERE email = ?"), user.Email); err != nil {
		return User{}, fmt.Errorf("failed to check user %s: %w", user.Email, err)
	}
	if count > 0 {
		return User{}, ErrDuplicate
	}

	user.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	_, err = tx.ExecContext(ctx, tx.Rebind("INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)"),
		user.ID, user.Email, user.PasswordHash, user.CreatedAt.UnixMilli())
	if err != nil {
		return User{}, fmt.Errorf("failed to insert user %s: %w", user.Email, err)
	}
	if err := tx.Commit(); err != nil {
		return User{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}

// UpsertUser creates the user or replaces the password hash of an existing one with the same email.
// The id of an existing user is kept, so records stay attached to it.
func (s *Store) UpsertUser(ctx context.Context, user User) (User, error) {
	existing, err := s.UserByEmail(ctx, user.Email)
	switch {
	case errors.Is(err, ErrNotFound):
		return s.CreateUser(ctx, user)
	case err != nil:
		return User{}, err
	}

	_, err = s.db.ExecContext(ctx, s.db.Rebind("UPDATE users SET password_hash = ? WHERE id = ?"),
		user.PasswordHash, existing.ID)
	if err != nil {
		return User{}, fmt.Errorf("failed to update user %s: %w", existing.Email, err)
	}
	existing.PasswordHash = user.PasswordHash
	return existing, nil
}

// UserByEmail returns user by email, case-insensitive
func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, "email", normalizeEmail(email))
}

// UserByID returns user by id
func (s *Store) UserByID(ctx context.Context, id string) (User, error) {
	return s.getUser(ctx, "id", id)
}

// ListUsers returns all users ordered by creation time
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT id, email, password_hash, created_at FROM users ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	users := make([]User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) getJob(ctx context.Context, q sqlx.QueryerContext, owner, id string) (Job, error) {
	var row jobRow
	query := s.db.Rebind(`SELECT ` + jobColumns + ` FROM jobs WHERE id = ? AND owner = ?`)
	if err := sqlx.GetContext(ctx, q, &row, query, id, owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return row.job()
}

func (s *Store) getUser(ctx context.Context, column, value string) (User, error) {
	var row userRow
	q := s.db.Rebind("SELECT id, email, password_hash, created_at FROM users WHERE " + column + " = ?")
	if err := s.db.GetContext(ctx, &row, q, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return row.user(), nil
}

func newJobRow(job Job) jobRow {
	return jobRow{
		ID:              job.ID,
		Owner:           job.Owner,
		CompanyName:     job.CompanyName,
		Role:            job.Role,
		ApplicationDate: job.ApplicationDate.Format(DateLayout),
		Status:          job.Status,
		CreatedAt:       job.CreatedAt.UnixMilli(),
		UpdatedAt:       job.UpdatedAt.UnixMilli(),
	}
}

func (r jobRow) job() (Job, error) {
	date, err := time.Parse(DateLayout, r.ApplicationDate)
	if err != nil {
		return Job{}, fmt.Errorf("invalid application date %q: %w", r.ApplicationDate, err)
	}
	return Job{
		ID:              r.ID,
		Owner:           r.Owner,
		CompanyName:     r.CompanyName,
		Role:            r.Role,
		ApplicationDate: date,
		Status:          r.Status,
		CreatedAt:       time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt:       time.UnixMilli(r.UpdatedAt).UTC(),
	}, nil
}

func (r userRow) user() User {
	u := r.User
	u.CreatedAt = time.UnixMilli(r.CreatedAtMs).UTC()
	return u
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
