package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"

	"github.com/umputun/jtrack/app/persistence"
	"github.com/umputun/jtrack/app/web/enums"
)

//go:generate moq -out mocks/digest_store.go -pkg mocks -skip-ensure -fmt goimports . DigestStore

// DigestStore provides users and their records
type DigestStore interface {
	ListUsers(ctx context.Context) ([]persistence.User, error)
	ListJobs(ctx context.Context, owner string) ([]persistence.Job, error)
}

// DigestSender renders and delivers digests, implemented by Service
type DigestSender interface {
	MakeDigestHTML(d DigestData) (string, error)
	SendTo(ctx context.Context, email string, msg Message) error
}

// DigestData is the content of a single user's digest
type DigestData struct {
	Email  string
	Total  int
	Counts []StatusCount
	Recent []persistence.Job
	TS     time.Time
}

// StatusCount is the number of applications in a status
type StatusCount struct {
	Status string
	Count  int
}

// Digest sends every user a periodic summary of their applications
type Digest struct {
	Store    DigestStore
	Sender   DigestSender
	Schedule string // cron schedule, e.g. "0 9 * * 1" or "@weekly"
	Recent   int    // number of most recent applications to include
	Now      func() time.Time
}

// Run schedules digests and blocks until context is canceled
func (d *Digest) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(d.Schedule, func() {
		if err := d.SendAll(ctx); err != nil {
			log.Printf("[WARN] digest failed, %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", d.Schedule, err)
	}
	log.Printf("[INFO] digest scheduled %q", d.Schedule)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// Next returns the time of the first digest after t
func (d *Digest) Next(t time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(d.Schedule)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid digest schedule %q: %w", d.Schedule, err)
	}
	return sched.Next(t), nil
}

// SendAll sends the digest to every user having at least one application.
// Failure for one user doesn't stop others, all errors are joined.
func (d *Digest) SendAll(ctx context.Context) error {
	users, err := d.Store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var errs []error
	sent := 0
	for _, u := range users {
		jobs, err := d.Store.ListJobs(ctx, u.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to list jobs of %s: %w", u.Email, err))
			continue
		}
		if len(jobs) == 0 {
			continue
		}
		data := d.makeData(u.Email, jobs)
		html, err := d.Sender.MakeDigestHTML(data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		msg := Message{Subject: "Your job applications digest", HTML: html, Text: d.plainText(data)}
		if err := d.Sender.SendTo(ctx, u.Email, msg); err != nil {
			if errors.Is(err, ErrNoEmail) {
				return err
			}
			errs = append(errs, fmt.Errorf("failed to send digest to %s: %w", u.Email, err))
			continue
		}
		sent++
	}
	log.Printf("[INFO] digest sent to %d user(s)", sent)
	return errors.Join(errs...)
}

func (d *Digest) makeData(email string, jobs []persistence.Job) DigestData {
	counts := map[enums.Status]int{}
	for _, j := range jobs {
		counts[j.Status]++
	}
	res := DigestData{Email: email, Total: len(jobs), TS: d.now()}
	for _, st := range enums.StatusValues() {
		res.Counts = append(res.Counts, StatusCount{Status: st.String(), Count: counts[st]})
	}
	recent := d.Recent
	if recent <= 0 {
		recent = 5
	}
	res.Recent = jobs[:min(recent, len(jobs))]
	return res
}

func (d *Digest) plainText(data DigestData) string {
	res := fmt.Sprintf("%d job application(s):", data.Total)
	for _, c := range data.Counts {
		res += fmt.Sprintf(" %s %d,", c.Status, c.Count)
	}
	return res[:len(res)-1]
}

func (d *Digest) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
