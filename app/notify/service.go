package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/go-pkgz/syncs"
)

//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports github.com/go-pkgz/notify Notifier:NotifierMock

//go:embed templates/*.html
var templatesFS embed.FS

// ErrNoEmail returned by SendTo when email delivery is not configured
var ErrNoEmail = errors.New("email delivery not configured")

// Service delivers notifications to external destinations
type Service struct {
	Params
	destinations     []notify.Notifier
	fromEmail        string
	toEmails         []string
	slackChannels    []string
	telegramChannels []string
	webhooks         []string

	messageTmpl *template.Template
	digestTmpl  *template.Template
	wg          sync.WaitGroup
}

// Params defines service behavior
type Params struct {
	OnError         bool          // forward error notifications
	OnSuccess       bool          // forward success notifications
	Retries         int           // delivery attempts per destination
	Timeout         time.Duration // timeout of a single async delivery
	MessageTemplate string        // optional html template file for notifications
	DigestTemplate  string        // optional html template file for digests
	AppName         string
}

// SendersParams defines destinations and their credentials
type SendersParams struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPTLS      bool
	SMTPTimeout  time.Duration
	FromEmail    string
	ToEmails     []string

	SlackToken    string
	SlackChannels []string

	TelegramToken    string
	TelegramChannels []string
	TelegramTimeout  time.Duration

	Webhooks       []string
	WebhookHeaders []string
	WebhookTimeout time.Duration
}

// Message is a single outbound message. HTML is used for email if set, Text for everything else.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

type delivery struct {
	name string
	dest string
	text string
}

// NewService makes notification service for all configured destinations.
// Returns nil if nothing is configured.
func NewService(p Params, sp SendersParams) *Service {
	res := &Service{
		Params:           p,
		fromEmail:        sp.FromEmail,
		toEmails:         sp.ToEmails,
		slackChannels:    sp.SlackChannels,
		telegramChannels: sp.TelegramChannels,
		webhooks:         sp.Webhooks,
	}

	if sp.SMTPHost != "" {
		res.destinations = append(res.destinations, notify.NewEmail(notify.SMTPParams{
			Host:        sp.SMTPHost,
			Port:        sp.SMTPPort,
			TLS:         sp.SMTPTLS,
			ContentType: "text/html",
			Username:    sp.SMTPUsername,
			Password:    sp.SMTPPassword,
			TimeOut:     sp.SMTPTimeout,
		}))
	}
	if sp.SlackToken != "" && len(sp.SlackChannels) > 0 {
		res.destinations = append(res.destinations, notify.NewSlack(sp.SlackToken))
	}
	if sp.TelegramToken != "" && len(sp.TelegramChannels) > 0 {
		tg, err := notify.NewTelegram(notify.TelegramParams{Token: sp.TelegramToken, Timeout: sp.TelegramTimeout})
		if err != nil {
			log.Printf("[WARN] telegram notifications disabled, %v", err)
		} else {
			res.destinations = append(res.destinations, tg)
		}
	}
	if len(sp.Webhooks) > 0 {
		res.destinations = append(res.destinations, notify.NewWebhook(notify.WebhookParams{
			Timeout: sp.WebhookTimeout,
			Headers: sp.WebhookHeaders,
		}))
	}

	if len(res.destinations) == 0 && len(res.toEmails) == 0 {
		return nil
	}
	res.init()
	return res
}

func (s *Service) init() {
	if s.Retries <= 0 {
		s.Retries = 3
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	if s.AppName == "" {
		s.AppName = "jtrack"
	}
	s.messageTmpl = loadTemplate(s.MessageTemplate, "notification.html")
	s.digestTmpl = loadTemplate(s.DigestTemplate, "digest.html")
}

// IsOnError status enabling on-error notification
func (s *Service) IsOnError() bool { return s.OnError }

// IsOnSuccess status enabling on-success notification
func (s *Service) IsOnSuccess() bool { return s.OnSuccess }

// Notify forwards the notification to all destinations in background if its level is enabled.
// Delivery errors are logged, the caller never waits.
func (s *Service) Notify(_ context.Context, n Notification) {
	if s == nil {
		return
	}
	if (n.Level == LevelError && !s.OnError) || (n.Level == LevelSuccess && !s.OnSuccess) {
		return
	}
	if n.TS.IsZero() {
		n.TS = time.Now()
	}

	msg := Message{Subject: s.subject(n), Text: s.plainText(n)}
	html, err := s.MakeNotificationHTML(n)
	if err != nil {
		log.Printf("[WARN] can't make html notification, %v", err)
	}
	msg.HTML = html

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
		defer cancel()
		if err := s.Send(ctx, msg); err != nil {
			log.Printf("[WARN] failed to deliver notification %q, %v", msg.Subject, err)
		}
	}()
}

// Wait blocks until all background deliveries are done
func (s *Service) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

// Send delivers the message to every configured destination concurrently, retrying each one.
func (s *Service) Send(ctx context.Context, msg Message) error {
	deliveries := s.deliveries(msg)
	if len(deliveries) == 0 {
		return nil
	}

	g := syncs.NewErrSizedGroup(4)
	for _, d := range deliveries {
		g.Go(func() error {
			return s.deliver(ctx, d)
		})
	}
	return g.Wait()
}

// SendTo delivers the message by email to a single address
func (s *Service) SendTo(ctx context.Context, email string, msg Message) error {
	if s == nil || !s.hasSchema("mailto") || s.fromEmail == "" {
		return ErrNoEmail
	}
	text := msg.HTML
	if text == "" {
		text = msg.Text
	}
	return s.deliver(ctx, delivery{name: "email", dest: s.mailto([]string{email}, msg.Subject), text: text})
}

// MakeNotificationHTML renders the html body of a notification
func (s *Service) MakeNotificationHTML(n Notification) (string, error) {
	data := struct {
		Notification
		AppName string
		Failed  bool
	}{Notification: n, AppName: s.AppName, Failed: n.Level == LevelError}
	return execTemplate(s.messageTmpl, data)
}

// MakeDigestHTML renders the html body of a digest
func (s *Service) MakeDigestHTML(d DigestData) (string, error) {
	data := struct {
		DigestData
		AppName string
	}{DigestData: d, AppName: s.AppName}
	return execTemplate(s.digestTmpl, data)
}

func (s *Service) deliver(ctx context.Context, d delivery) error {
	rptr := repeater.New(&strategy.Backoff{Repeats: max(s.Retries, 1), Duration: 500 * time.Millisecond, Factor: 2, Jitter: true})
	err := rptr.Do(ctx, func() error {
		return notify.Send(ctx, s.destinations, d.dest, d.text)
	})
	if err != nil {
		return fmt.Errorf("failed to send to %s: %w", d.name, err)
	}
	log.Printf("[DEBUG] notification sent to %s", d.name)
	return nil
}

// deliveries makes a delivery for each destination which has a matching notifier
func (s *Service) deliveries(msg Message) []delivery {
	var res []delivery
	if len(s.toEmails) > 0 && s.hasSchema("mailto") {
		text := msg.HTML
		if text == "" {
			text = msg.Text
		}
		res = append(res, delivery{name: "email", dest: s.mailto(s.toEmails, msg.Subject), text: text})
	}
	if s.hasSchema("slack") {
		for _, ch := range s.slackChannels {
			dest := "slack:" + ch + "?" + url.Values{"title": []string{msg.Subject}}.Encode()
			res = append(res, delivery{name: "slack " + ch, dest: dest, text: msg.Text})
		}
	}
	if s.hasSchema("telegram") {
		for _, ch := range s.telegramChannels {
			res = append(res, delivery{name: "telegram " + ch, dest: "telegram:" + ch, text: msg.Subject + "\n" + msg.Text})
		}
	}
	for _, wh := range s.webhooks {
		if s.hasSchema(wh) {
			res = append(res, delivery{name: "webhook " + redactURL(wh), dest: wh, text: msg.Text})
		}
	}
	return res
}

func (s *Service) mailto(to []string, subj string) string {
	res := "mailto:" + strings.Join(to, ",") + "?"
	if s.fromEmail != "" {
		res += "from=" + s.fromEmail + "&"
	}
	return res + "subject=" + url.QueryEscape(subj)
}

// hasSchema checks if any notifier accepts destinations starting with the given prefix
func (s *Service) hasSchema(dest string) bool {
	for _, d := range s.destinations {
		if strings.HasPrefix(dest, d.Schema()) {
			return true
		}
	}
	return false
}

func (s *Service) subject(n Notification) string {
	if n.Level == LevelError {
		return fmt.Sprintf("%s: %s failed", s.AppName, n.Op)
	}
	return fmt.Sprintf("%s: %s", s.AppName, n.Op)
}

func (s *Service) plainText(n Notification) string {
	if n.User == "" {
		return n.Message
	}
	return n.Message + " (" + n.User + ")"
}

// loadTemplate parses the custom template file, falls back to the embedded one if not set or broken
func loadTemplate(fname, embedded string) *template.Template {
	if fname != "" {
		data, err := os.ReadFile(fname) // nolint
		if err == nil {
			tmpl, e := template.New(embedded).Parse(string(data))
			if e == nil {
				return tmpl
			}
			err = e
		}
		log.Printf("[WARN] can't use template %s, fallback to default: %v", fname, err)
	}
	return template.Must(template.New(embedded).ParseFS(templatesFS, "templates/"+embedded))
}

func execTemplate(tmpl *template.Template, data any) (string, error) {
	buf := bytes.Buffer{}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to apply template: %w", err)
	}
	return buf.String(), nil
}

// redactURL drops query and credentials, webhook urls often carry tokens
func redactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "webhook"
	}
	return parsed.Scheme + "://" + parsed.Host
}
