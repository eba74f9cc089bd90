package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-pkgz/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/jtrack/app/notify/mocks"
	"github.com/umputun/jtrack/app/persistence"
	"github.com/umputun/jtrack/app/web/enums"
)

func TestDigest_SendAll(t *testing.T) {
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	store := &mocks.DigestStoreMock{
		ListUsersFunc: func(context.Context) ([]persistence.User, error) {
			return []persistence.User{{ID: "u1", Email: "one@example.com"}, {ID: "u2", Email: "two@example.com"},
				{ID: "u3", Email: "three@example.com"}}, nil
		},
		ListJobsFunc: func(_ context.Context, owner string) ([]persistence.Job, error) {
			switch owner {
			case "u1":
				return []persistence.Job{
					{ID: "1", CompanyName: "Acme", Role: "Dev", ApplicationDate: date, Status: enums.StatusApplied},
					{ID: "2", CompanyName: "Globex", Role: "SRE", ApplicationDate: date, Status: enums.StatusOffer},
					{ID: "3", CompanyName: "Initech", Role: "QA", ApplicationDate: date, Status: enums.StatusApplied},
				}, nil
			case "u2":
				return nil, nil
			default:
				return nil, errors.New("db error")
			}
		},
	}
	mail := &mocks.NotifierMock{
		SendFunc:   func(context.Context, string, string) error { return nil },
		SchemaFunc: func() string { return "mailto" },
	}
	svc := newTestService(Params{Retries: 1}, []notify.Notifier{mail})

	d := Digest{Store: store, Sender: svc, Recent: 2, Now: func() time.Time { return date }}
	err := d.SendAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list jobs of three@example.com")

	require.Len(t, mail.SendCalls(), 1, "user without jobs skipped")
	call := mail.SendCalls()[0]
	assert.Equal(t, "mailto:one@example.com?from=from@example.com&subject=Your+job+applications+digest", call.Destination)
	assert.Contains(t, call.Text, `<td>Applied</td><td class="bold">2</td>`)
	assert.Contains(t, call.Text, `<td>Offer</td><td class="bold">1</td>`)
	assert.Contains(t, call.Text, `<td>Rejected</td><td class="bold">0</td>`)
	assert.Contains(t, call.Text, "<td>Globex</td>")
	assert.NotContains(t, call.Text, "Initech", "only two recent jobs")
	assert.Len(t, store.ListJobsCalls(), 3)
}

func TestDigest_SendAllNoEmail(t *testing.T) {
	store := &mocks.DigestStoreMock{
		ListUsersFunc: func(context.Context) ([]persistence.User, error) {
			return []persistence.User{{ID: "u1", Email: "one@example.com"}, {ID: "u2", Email: "two@example.com"}}, nil
		},
		ListJobsFunc: func(context.Context, string) ([]persistence.Job, error) {
			return []persistence.Job{{ID: "1", Status: enums.StatusApplied}}, nil
		},
	}
	slack := &mocks.NotifierMock{SchemaFunc: func() string { return "slack" }}
	d := Digest{Store: store, Sender: newTestService(Params{Retries: 1}, []notify.Notifier{slack})}
	err := d.SendAll(context.Background())
	require.ErrorIs(t, err, ErrNoEmail)
	assert.Len(t, store.ListJobsCalls(), 1, "stops on first user")
}

func TestDigest_PlainText(t *testing.T) {
	d := Digest{}
	data := d.makeData("a@example.com", []persistence.Job{{Status: enums.StatusInterview}, {Status: enums.StatusRejected}})
	assert.Equal(t, "2 job application(s): Applied 0, Interview 1, Rejected 1, Offer 0", d.plainText(data))
	assert.Len(t, data.Recent, 2)
}

func TestDigest_Run(t *testing.T) {
	t.Run("bad schedule", func(t *testing.T) {
		d := Digest{Schedule: "not a schedule"}
		err := d.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid digest schedule")
	})

	t.Run("stops on cancel", func(t *testing.T) {
		d := Digest{Schedule: "@daily"}
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		err := d.Run(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestDigest_Next(t *testing.T) {
	d := Digest{Schedule: "0 9 * * 1"}
	next, err := d.Next(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)) // saturday
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 17, 9, 0, 0, 0, time.UTC), next)

	d.Schedule = "@weekly"
	_, err = d.Next(time.Now())
	require.NoError(t, err)

	d.Schedule = "every monday"
	_, err = d.Next(time.Now())
	require.Error(t, err)
}
