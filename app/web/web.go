// Package web implements the web server of jtrack: HTMX dashboard, login and sign-up pages
// and the JSON API
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"golang.org/x/crypto/bcrypt"

	"github.com/umputun/jtrack/app/persistence"
	"github.com/umputun/jtrack/app/records"
	"github.com/umputun/jtrack/app/tracker"
	"github.com/umputun/jtrack/app/web/enums"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// session represents an active user session
type session struct {
	userID    string
	createdAt time.Time
}

// Server represents the web server
type Server struct {
	tracker        Tracker
	users          Users
	templates      map[string]*template.Template
	baseURL        string // base URL path for reverse proxy (e.g., /jtrack), empty for root
	version        string
	loginTTL       time.Duration               // session TTL
	allowSignup    bool                        // sign-up page enabled
	bcryptCost     int                         // cost of password hashes made on sign-up
	pollInterval   time.Duration               // how often the dashboard re-checks the list, 0 disables
	csrfProtection *http.CrossOriginProtection // csrf protection for POST endpoints
	loginLimiter   *limiter.Limiter            // rate limit of login and sign-up attempts
	sessions       map[string]session          // active user sessions
	sessionsMu     sync.Mutex                  // protects sessions map
	now            func() time.Time
}

// Tracker is the synchronization layer the handlers read from and mutate through
type Tracker interface {
	List(ctx context.Context) ([]persistence.Job, error)
	Snapshot(owner string) tracker.Snapshot
	Create(ctx context.Context, in records.Input) (persistence.Job, error)
	Update(ctx context.Context, id string, ch records.Changes) (persistence.Job, error)
	UpdateStatus(ctx context.Context, id string, status enums.Status) (persistence.Job, error)
	Delete(ctx context.Context, id string) error
	InFlight(owner, id string) bool
}

// Users is the account storage
type Users interface {
	UserByEmail(ctx context.Context, email string) (persistence.User, error)
	UserByID(ctx context.Context, id string) (persistence.User, error)
	CreateUser(ctx context.Context, u persistence.User) (persistence.User, error)
}

// Config holds server configuration
type Config struct {
	Tracker      Tracker
	Users        Users
	BaseURL      string // base URL path for reverse proxy (e.g., /jtrack), empty for root
	Version      string
	LoginTTL     time.Duration    // session TTL, defaults to 24h if not set
	AllowSignup  bool             // enable sign-up of new accounts
	BcryptCost   int              // defaults to bcrypt.DefaultCost
	LoginRate    float64          // login attempts per second per IP, defaults to 1
	PollInterval time.Duration    // dashboard poll interval, 0 disables polling
	Now          func() time.Time // clock for the application date range check, defaults to time.Now
}

// TemplateData holds data for templates
type TemplateData struct {
	BaseURL      string
	Version      string
	Theme        enums.Theme
	CurrentYear  int
	UserEmail    string
	AllowSignup  bool
	PollInterval int // seconds, 0 disables

	Jobs     []JobView   // filtered list
	Stats    []StatCard  // one card per status
	Filter   enums.Filter
	Total    int // all jobs of the user
	Shown    int // jobs passing the filter
	Loading  bool
	ListVer  uint64 // snapshot version the list was rendered from
	ListErr  string // list fetch error, the list area shows it with retry button
	IsOOB    bool

	Form     FormView
	Job      persistence.Job // job of the delete confirmation
	Statuses []enums.Status
}

// JobView is a job card
type JobView struct {
	persistence.Job
	InFlight bool // status change in progress, the inline control is disabled
}

// StatCard is a status card with the number of jobs in that status
type StatCard struct {
	Status enums.Status
	Count  int
	Active bool
}

// FormView is the shared create/edit form
type FormView struct {
	ID     string // empty in create mode
	Values records.Form
	Errors map[string]string // field name -> message
	Today  string
}

// New creates a new web server
func New(cfg Config) (*Server, error) {
	if cfg.Tracker == nil {
		return nil, errors.New("web server initialization failed: Tracker is required")
	}
	if cfg.Users == nil {
		return nil, errors.New("web server initialization failed: Users is required")
	}

	loginTTL := cfg.LoginTTL
	if loginTTL == 0 {
		loginTTL = 24 * time.Hour
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	rate := cfg.LoginRate
	if rate <= 0 {
		rate = 1
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	lmt := tollbooth.NewLimiter(rate, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
	lmt.SetBurst(10)
	lmt.SetMessage("Too many login attempts, try again later")

	s := &Server{
		tracker:        cfg.Tracker,
		users:          cfg.Users,
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		version:        cfg.Version,
		loginTTL:       loginTTL,
		allowSignup:    cfg.AllowSignup,
		bcryptCost:     cost,
		pollInterval:   cfg.PollInterval,
		csrfProtection: http.NewCrossOriginProtection(),
		loginLimiter:   lmt,
		sessions:       make(map[string]session),
		now:            now,
	}

	templates, err := s.parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("web server initialization failed: failed to parse HTML templates: %w", err)
	}
	s.templates = templates
	return s, nil
}

// Run starts the web server
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	go s.purgeSessions(ctx, time.Hour)

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// handler returns the http.Handler with base URL wrapping applied
func (s *Server) handler() http.Handler {
	routes := s.routes()
	if s.baseURL == "" {
		return routes
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.baseURL, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.baseURL+"/", http.StatusMovedPermanently)
	})
	mux.Handle(s.baseURL+"/", http.StripPrefix(s.baseURL, routes))
	return mux
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	// global middleware - applied to all routes
	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("jtrack", "umputun", s.version),
		rest.Ping,
		rest.Trace,
		rest.SizeLimit(64*1024), // 64KB max request size
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)
	// must be done before any routes are defined
	router.Use(s.authMiddleware, s.toastMiddleware)

	// auth pages, skipped by authMiddleware
	authLimit := tollbooth.HTTPMiddleware(s.loginLimiter)
	router.HandleFunc("GET /login", s.handleLoginForm)
	router.With(s.csrfProtection.Handler, authLimit).HandleFunc("POST /login", s.handleLogin)
	router.HandleFunc("GET /logout", s.handleLogout)
	if s.allowSignup {
		router.HandleFunc("GET /signup", s.handleSignupForm)
		router.With(s.csrfProtection.Handler, authLimit).HandleFunc("POST /signup", s.handleSignup)
	}

	router.HandleFunc("GET /", s.handleDashboard)

	// HTMX endpoints
	router.Mount("/api").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.Use(s.csrfProtection.Handler)

		api.HandleFunc("GET /jobs", s.handleJobsPartial)
		api.HandleFunc("POST /filter/{status}", s.handleFilterToggle)
		api.HandleFunc("POST /theme", s.handleThemeToggle)
		api.HandleFunc("GET /jobs/new", s.handleNewJobForm)
		api.HandleFunc("GET /jobs/{id}/edit", s.handleEditJobForm)
		api.HandleFunc("POST /jobs", s.handleCreateJob)
		api.HandleFunc("POST /jobs/{id}", s.handleUpdateJob)
		api.HandleFunc("POST /jobs/{id}/status", s.handleStatusChange)
		api.HandleFunc("GET /jobs/{id}/delete", s.handleDeleteConfirm)
		api.HandleFunc("DELETE /jobs/{id}", s.handleDeleteJob)
	})

	// JSON API for CLI/programmatic access
	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.Use(s.csrfProtection.Handler)
		api.HandleFunc("GET /jobs", s.handleAPIListJobs)
		api.HandleFunc("POST /jobs", s.handleAPICreateJob)
		api.HandleFunc("PATCH /jobs/{id}", s.handleAPIUpdateJob)
		api.HandleFunc("DELETE /jobs/{id}", s.handleAPIDeleteJob)
		api.HandleFunc("GET /stats", s.handleAPIStats)
		api.HandleFunc("GET /schema", s.handleAPISchema)
	})

	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Printf("[ERROR] failed to create static file system: %v", err)
		router.Handle("GET /static/", http.FileServer(http.FS(staticFS)))
	} else {
		router.HandleFiles("/static/", http.FS(fsys))
	}

	return router
}

// render renders a template
func (s *Server) render(w http.ResponseWriter, page, tmplName string, data any) {
	s.renderStatus(w, http.StatusOK, page, tmplName, data)
}

// renderStatus renders a template with the given status code
func (s *Server) renderStatus(w http.ResponseWriter, status int, page, tmplName string, data any) {
	tmpl, ok := s.templates[page]
	if !ok {
		log.Printf("[WARN] template %s not found", page)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, tmplName, data); err != nil {
		log.Printf("[WARN] failed to execute template: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write response: %v", err)
	}
}

// parseTemplates parses all templates
func (s *Server) parseTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)

	funcMap := template.FuncMap{
		"url":        s.url,
		"formatDate": formatDate,
		"lower":      strings.ToLower,
		"plural":     plural,
	}

	// base template with all partials
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templatesFS,
		"templates/base.html", "templates/dashboard.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base template: %w", err)
	}
	templates["base.html"] = base

	// partials separately for HTMX requests
	partials, err := template.New("jobs.html").Funcs(funcMap).ParseFS(templatesFS, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse partials: %w", err)
	}
	templates["partials"] = partials

	// login and sign-up pages are standalone, don't use base
	for _, name := range []string{"login", "signup"} {
		tmpl, err := template.New(name+".html").Funcs(funcMap).ParseFS(templatesFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		templates[name] = tmpl
	}

	return templates, nil
}

// newTemplateData creates a TemplateData with common fields populated from request
func (s *Server) newTemplateData(r *http.Request) TemplateData {
	res := TemplateData{
		BaseURL:      s.baseURL,
		Version:      shortVersion(s.version),
		Theme:        s.getTheme(r),
		CurrentYear:  s.now().Year(),
		AllowSignup:  s.allowSignup,
		PollInterval: int(s.pollInterval.Seconds()),
		Filter:       s.getFilter(r),
		Statuses:     enums.StatusValues(),
	}
	if user, ok := records.UserFrom(r.Context()); ok {
		res.UserEmail = user.Email
	}
	return res
}

func (s *Server) getTheme(r *http.Request) enums.Theme {
	cookie, err := r.Cookie("theme")
	if err != nil {
		return enums.ThemeDark // default to dark when no cookie
	}
	theme, err := enums.ParseTheme(cookie.Value)
	if err != nil {
		log.Printf("[WARN] invalid theme %q: %v", cookie.Value, err)
		return enums.ThemeDark
	}
	return theme
}

// getFilter gets the status filter from cookie or defaults to all
func (s *Server) getFilter(r *http.Request) enums.Filter {
	cookie, err := r.Cookie("filter")
	if err != nil || cookie.Value == "" {
		return enums.FilterAll
	}
	f, err := enums.ParseFilter(cookie.Value)
	if err != nil {
		log.Printf("[WARN] invalid filter %q: %v", cookie.Value, err)
		return enums.FilterAll
	}
	return f
}

// setFilterCookie sets the status filter cookie
func (s *Server) setFilterCookie(w http.ResponseWriter, f enums.Filter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "filter",
		Value:    f.String(),
		Path:     s.cookiePath(),
		MaxAge:   365 * 24 * 60 * 60, // 1 year
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// url prepends the base URL to a path for reverse proxy support
func (s *Server) url(path string) string {
	return s.baseURL + path
}

// cookiePath returns the cookie path with base URL support
func (s *Server) cookiePath() string {
	if s.baseURL == "" {
		return "/"
	}
	return s.baseURL + "/"
}

// formatDate formats application date as "Jan 2, 2006"
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// plural returns the word with "s" appended unless n is 1
func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// shortVersion extracts a short version string from full version
// for version like "v1.7.0-abc1234-20241225", returns "v1.7.0"
func shortVersion(fullVer string) string {
	if fullVer == "" || fullVer == "unknown" {
		return fullVer
	}
	if idx := strings.Index(fullVer, "-"); idx > 0 {
		return fullVer[:idx]
	}
	return fullVer
}
