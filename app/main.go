package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/joho/godotenv"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/jtrack/app/notify"
	"github.com/umputun/jtrack/app/persistence"
	"github.com/umputun/jtrack/app/records"
	"github.com/umputun/jtrack/app/tracker"
	"github.com/umputun/jtrack/app/users"
	"github.com/umputun/jtrack/app/web"
)

type options struct {
	Store struct {
		Driver          string        `long:"driver" env:"DRIVER" choice:"sqlite" choice:"pgx" default:"sqlite" description:"store driver"`
		DSN             string        `long:"dsn" env:"DSN" default:"jtrack.db" description:"sqlite file or postgres connection string"`
		ConnectAttempts int           `long:"connect-attempts" env:"CONNECT_ATTEMPTS" default:"5" description:"store ping attempts on start"`
		ConnectDelay    time.Duration `long:"connect-delay" env:"CONNECT_DELAY" default:"1s" description:"initial delay between ping attempts"`
	} `group:"store" namespace:"store" env-namespace:"JTRACK_STORE"`

	Web struct {
		Address      string        `long:"address" env:"ADDRESS" default:":8080" description:"web server listen address"`
		BaseURL      string        `long:"base-url" env:"BASE_URL" description:"base URL path for reverse proxy (e.g., /jtrack)"`
		PollInterval time.Duration `long:"poll" env:"POLL" default:"30s" description:"dashboard refresh interval, 0 to disable"`
		CacheTTL     time.Duration `long:"cache-ttl" env:"CACHE_TTL" default:"10m" description:"how long user's list is cached"`
		CacheOwners  int           `long:"cache-owners" env:"CACHE_OWNERS" default:"1000" description:"max number of cached users"`
	} `group:"web" namespace:"web" env-namespace:"JTRACK_WEB"`

	Auth struct {
		LoginTTL    time.Duration `long:"login-ttl" env:"LOGIN_TTL" default:"24h" description:"session lifetime"`
		AllowSignup bool          `long:"signup" env:"SIGNUP" description:"allow new users to sign up"`
		BcryptCost  int           `long:"bcrypt-cost" env:"BCRYPT_COST" default:"10" description:"bcrypt cost of new passwords"`
		LoginRate   float64       `long:"login-rate" env:"LOGIN_RATE" default:"1" description:"login attempts per second per IP"`
		UsersFile   string        `long:"users" env:"USERS" description:"yaml file with accounts to create on start"`
	} `group:"auth" namespace:"auth" env-namespace:"JTRACK_AUTH"`

	Notify struct {
		OnError   bool          `long:"on-error" env:"ON_ERROR" description:"forward failed operations"`
		OnSuccess bool          `long:"on-success" env:"ON_SUCCESS" description:"forward successful operations"`
		Retries   int           `long:"retries" env:"RETRIES" default:"3" description:"delivery attempts per destination"`
		Template  string        `long:"template" env:"TEMPLATE" description:"html template file for notifications"`
		Timeout   time.Duration `long:"timeout" env:"TIMEOUT" default:"30s" description:"delivery timeout"`

		SMTPHost     string        `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host"`
		SMTPPort     int           `long:"smtp-port" env:"SMTP_PORT" default:"587" description:"SMTP port"`
		SMTPUsername string        `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP user name"`
		SMTPPassword string        `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
		SMTPTLS      bool          `long:"smtp-tls" env:"SMTP_TLS" description:"enable SMTP TLS"`
		SMTPTimeOut  time.Duration `long:"smtp-timeout" env:"SMTP_TIMEOUT" default:"10s" description:"SMTP TCP connection timeout"`
		FromEmail    string        `long:"from" env:"FROM" description:"SMTP from email"`
		ToEmails     []string      `long:"to" env:"TO" description:"SMTP to email(s)" env-delim:","`

		SlackToken    string   `long:"slack-token" env:"SLACK_TOKEN" description:"slack token"`
		SlackChannels []string `long:"slack-channel" env:"SLACK_CHANNEL" description:"slack channel(s)" env-delim:","`

		TelegramToken    string   `long:"telegram-token" env:"TELEGRAM_TOKEN" description:"telegram bot token"`
		TelegramChannels []string `long:"telegram-channel" env:"TELEGRAM_CHANNEL" description:"telegram channel(s)" env-delim:","`

		Webhooks       []string `long:"webhook" env:"WEBHOOK" description:"webhook URL(s)" env-delim:","`
		WebhookHeaders []string `long:"webhook-header" env:"WEBHOOK_HEADER" description:"webhook header(s), key:value" env-delim:","`
	} `group:"notify" namespace:"notify" env-namespace:"JTRACK_NOTIFY"`

	Digest struct {
		Enabled  bool   `long:"enabled" env:"ENABLED" description:"send periodic digest email to every user"`
		Schedule string `long:"schedule" env:"SCHEDULE" default:"0 9 * * 1" description:"digest cron schedule"`
		Recent   int    `long:"recent" env:"RECENT" default:"5" description:"number of recent applications in digest"`
		Template string `long:"template" env:"TEMPLATE" description:"html template file for digest"`
	} `group:"digest" namespace:"digest" env-namespace:"JTRACK_DIGEST"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"filename" env:"FILENAME" default:"jtrack.log" description:"log file name"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max size of log file in MB"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of rotated files"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max age of rotated files in days"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"compress rotated files"`
	} `group:"log" namespace:"log" env-namespace:"JTRACK_LOG"`

	EnvFile string `long:"env-file" env:"JTRACK_ENV_FILE" default:".env" description:"env file to load before parsing"`
	Dbg     bool   `long:"dbg" env:"JTRACK_DEBUG" description:"debug mode"`
}

var opts options

var revision = "unknown"

func main() {
	fmt.Printf("jtrack %s\n", revision)
	loadEnvFile(os.Args[1:])

	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	setupLogs()

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel) // handle SIGQUIT, SIGINT and SIGTERM

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	log.Printf("[INFO] jtrack stopped")
}

// run wires store, records client, tracker and web server and blocks until ctx is canceled
func run(ctx context.Context) error {
	store, err := persistence.NewStore(ctx, persistence.Params{
		Driver:          opts.Store.Driver,
		DSN:             opts.Store.DSN,
		ConnectAttempts: opts.Store.ConnectAttempts,
		ConnectDelay:    opts.Store.ConnectDelay,
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("[WARN] failed to close store, %v", err)
		}
	}()

	if opts.Auth.UsersFile != "" {
		f, err := users.Load(opts.Auth.UsersFile)
		if err != nil {
			return err
		}
		if err := users.Seed(ctx, store, f); err != nil {
			return err
		}
	}

	notifiers := []tracker.Notifier{notify.Toasts{}}
	svc := makeNotifyService()
	if svc != nil {
		notifiers = append(notifiers, svc)
		defer svc.Wait()
	}

	trk := tracker.New(records.New(store), tracker.Params{TTL: opts.Web.CacheTTL, MaxOwners: opts.Web.CacheOwners},
		notifiers...)
	if opts.Dbg {
		unsubscribe := trk.Subscribe(func(owner string, s tracker.Snapshot) {
			log.Printf("[DEBUG] list of %s: %s, %d jobs, stale %v, version %d", owner, s.State, len(s.Jobs), s.Stale, s.Version)
		})
		defer unsubscribe()
	}

	if opts.Digest.Enabled {
		if svc == nil {
			log.Printf("[WARN] digest enabled but no notification destination configured")
		} else {
			digest := &notify.Digest{Store: store, Sender: svc, Schedule: opts.Digest.Schedule, Recent: opts.Digest.Recent}
			next, err := digest.Next(time.Now())
			if err != nil {
				return err
			}
			log.Printf("[INFO] first digest at %s", next.Format(time.RFC3339))
			go func() {
				if err := digest.Run(ctx); err != nil && ctx.Err() == nil {
					log.Printf("[WARN] digest stopped, %v", err)
				}
			}()
		}
	}

	srv, err := web.New(web.Config{
		Tracker:      trk,
		Users:        store,
		BaseURL:      validateBaseURL(opts.Web.BaseURL),
		Version:      revision,
		LoginTTL:     opts.Auth.LoginTTL,
		AllowSignup:  opts.Auth.AllowSignup,
		BcryptCost:   opts.Auth.BcryptCost,
		LoginRate:    opts.Auth.LoginRate,
		PollInterval: opts.Web.PollInterval,
	})
	if err != nil {
		return err
	}
	log.Printf("[INFO] starting web server on %s", opts.Web.Address)
	return srv.Run(ctx, opts.Web.Address)
}

// makeNotifyService makes service forwarding notifications to external destinations, nil if none configured
func makeNotifyService() *notify.Service {
	if !opts.Notify.OnError && !opts.Notify.OnSuccess && !opts.Digest.Enabled {
		return nil
	}

	from := opts.Notify.FromEmail
	if from == "" {
		from = "jtrack@" + makeHostName()
	}

	return notify.NewService(notify.Params{
		OnError:         opts.Notify.OnError,
		OnSuccess:       opts.Notify.OnSuccess,
		Retries:         opts.Notify.Retries,
		Timeout:         opts.Notify.Timeout,
		MessageTemplate: opts.Notify.Template,
		DigestTemplate:  opts.Digest.Template,
	}, notify.SendersParams{
		SMTPHost:         opts.Notify.SMTPHost,
		SMTPPort:         opts.Notify.SMTPPort,
		SMTPUsername:     opts.Notify.SMTPUsername,
		SMTPPassword:     opts.Notify.SMTPPassword,
		SMTPTLS:          opts.Notify.SMTPTLS,
		SMTPTimeout:      opts.Notify.SMTPTimeOut,
		FromEmail:        from,
		ToEmails:         opts.Notify.ToEmails,
		SlackToken:       opts.Notify.SlackToken,
		SlackChannels:    opts.Notify.SlackChannels,
		TelegramToken:    opts.Notify.TelegramToken,
		TelegramChannels: opts.Notify.TelegramChannels,
		Webhooks:         opts.Notify.Webhooks,
		WebhookHeaders:   opts.Notify.WebhookHeaders,
	})
}

func makeHostName() string {
	host, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return host
}

// loadEnvFile loads variables from the env file given by --env-file, JTRACK_ENV_FILE or .env.
// Variables already set in the environment are not overwritten, missing default file is fine.
func loadEnvFile(args []string) {
	fname, explicit := ".env", false
	if v := os.Getenv("JTRACK_ENV_FILE"); v != "" {
		fname, explicit = v, true
	}
	for i, a := range args {
		if v, ok := strings.CutPrefix(a, "--env-file="); ok {
			fname, explicit = v, true
		}
		if a == "--env-file" && i+1 < len(args) {
			fname, explicit = args[i+1], true
		}
	}
	if err := godotenv.Load(fname); err != nil && explicit {
		fmt.Fprintf(os.Stderr, "can't load env file %s: %v\n", fname, err)
	}
}

// validateBaseURL normalizes base URL, drops trailing slash and turns "/" into empty
func validateBaseURL(u string) string {
	u = strings.TrimSuffix(u, "/")
	if u != "" && !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return u
}

// setupLogs configures lgr, returns the writer logs go to
func setupLogs() io.Writer {
	var out io.Writer = os.Stdout
	if opts.Log.Enabled {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.EnabledCompress,
		}
	}

	logOpts := []log.Option{log.Msec, log.LevelBraces, log.Out(out), log.Err(out)}
	if opts.Dbg {
		logOpts = append(logOpts, log.Debug, log.CallerFunc, log.CallerPkg, log.CallerFile)
	}
	log.Setup(logOpts...)
	return out
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			log.Printf("[INFO] %s received, shutting down", sig)
			cancel()
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGTERM)
}
