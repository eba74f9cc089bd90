package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/jtrack/app/persistence"
	"github.com/umputun/jtrack/app/records"
	"github.com/umputun/jtrack/app/web/enums"
)

const (
	authCookie       = "jtrack-auth"
	secureAuthCookie = "__Host-jtrack-auth"
	minPasswordLen   = 8
)

// authPageData is the data of login and sign-up pages
type authPageData struct {
	Error       string
	Email       string
	Theme       enums.Theme
	BaseURL     string
	AllowSignup bool
}

// handleLoginForm displays the login form
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.renderAuthPage(w, r, "login", http.StatusOK, authPageData{})
}

// handleLogin processes the login form submission
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		s.renderAuthPage(w, r, "login", http.StatusUnauthorized, authPageData{Error: "Email and password are required", Email: email})
		return
	}

	user, ok := s.checkPassword(r.Context(), email, password)
	if !ok {
		s.renderAuthPage(w, r, "login", http.StatusUnauthorized, authPageData{Error: "Invalid email or password", Email: email})
		return
	}

	if err := s.startSession(w, r, user.ID); err != nil {
		log.Printf("[ERROR] failed to create session: %v", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	log.Printf("[INFO] user %s logged in", user.Email)
	http.Redirect(w, r, s.url("/"), http.StatusSeeOther)
}

// handleSignupForm displays the sign-up form
func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.renderAuthPage(w, r, "signup", http.StatusOK, authPageData{})
}

// handleSignup creates a new account and logs it in
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")
	fail := func(status int, msg string) {
		s.renderAuthPage(w, r, "signup", status, authPageData{Error: msg, Email: email})
	}

	switch {
	case !validEmail(email):
		fail(http.StatusBadRequest, "Enter a valid email address")
		return
	case len(password) < minPasswordLen:
		fail(http.StatusBadRequest, "Password must be at least 8 characters")
		return
	case password != r.FormValue("confirm"):
		fail(http.StatusBadRequest, "Passwords do not match")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		log.Printf("[ERROR] failed to hash password: %v", err)
		fail(http.StatusInternalServerError, "Failed to create account")
		return
	}

	user, err := s.users.CreateUser(r.Context(), persistence.User{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			fail(http.StatusConflict, "An account with this email already exists")
			return
		}
		log.Printf("[ERROR] failed to create user %s: %v", email, err)
		fail(http.StatusInternalServerError, "Failed to create account")
		return
	}

	if err := s.startSession(w, r, user.ID); err != nil {
		log.Printf("[ERROR] failed to create session: %v", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	log.Printf("[INFO] user %s signed up", user.Email)
	http.Redirect(w, r, s.url("/"), http.StatusSeeOther)
}

// handleLogout logs the user out by dropping the session and clearing the auth cookies
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{authCookie, secureAuthCookie} {
		if c, err := r.Cookie(name); err == nil {
			s.deleteSession(c.Value)
		}
	}

	// clear both possible cookie names, the request may come over a different scheme than the login
	http.SetCookie(w, &http.Cookie{Name: authCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true,
		SameSite: http.SameSiteLaxMode})
	http.SetCookie(w, &http.Cookie{Name: secureAuthCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true,
		Secure: true, SameSite: http.SameSiteStrictMode})

	// tell HTMX to perform a full page refresh instead of swapping content
	w.Header().Set("HX-Refresh", "true")
	http.Redirect(w, r, s.url("/login"), http.StatusSeeOther)
}

// renderAuthPage renders the login or sign-up page
func (s *Server) renderAuthPage(w http.ResponseWriter, r *http.Request, page string, status int, data authPageData) {
	tmpl := s.templates[page]
	if tmpl == nil {
		log.Printf("[ERROR] %s template not found in templates map", page)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	data.Theme = s.getTheme(r)
	data.BaseURL = s.baseURL
	data.AllowSignup = s.allowSignup

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		log.Printf("[ERROR] failed to render %s template: %v", page, err)
	}
}

// authMiddleware checks for the session cookie or falls back to basic auth,
// the authenticated user is attached to the request context
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// skip auth for auth pages and static resources
		switch {
		case r.URL.Path == "/login", r.URL.Path == "/logout", r.URL.Path == "/signup",
			strings.HasPrefix(r.URL.Path, "/static/"):
			next.ServeHTTP(w, r)
			return
		}

		for _, name := range []string{secureAuthCookie, authCookie} {
			cookie, err := r.Cookie(name)
			if err != nil {
				continue
			}
			userID, ok := s.validateSession(cookie.Value)
			if !ok {
				continue
			}
			user, err := s.users.UserByID(r.Context(), userID)
			if err != nil {
				log.Printf("[WARN] session user %s not found: %v", userID, err)
				s.deleteSession(cookie.Value)
				continue
			}
			next.ServeHTTP(w, r.WithContext(records.WithUser(r.Context(), records.User{ID: user.ID, Email: user.Email})))
			return
		}

		// fallback to basic auth for API clients
		if email, password, ok := r.BasicAuth(); ok {
			if user, valid := s.checkPassword(r.Context(), email, password); valid {
				next.ServeHTTP(w, r.WithContext(records.WithUser(r.Context(), records.User{ID: user.ID, Email: user.Email})))
				return
			}
		}

		if r.Header.Get("Accept") == "" || strings.Contains(r.Header.Get("Accept"), "text/html") {
			if r.Header.Get("HX-Request") == "true" {
				// htmx follows redirects in place, ask for a full page load instead
				w.Header().Set("HX-Redirect", s.url("/login"))
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, s.url("/login"), http.StatusSeeOther)
			return
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="jtrack"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

// checkPassword returns the user with the email if the password matches
func (s *Server) checkPassword(ctx context.Context, email, password string) (persistence.User, bool) {
	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			log.Printf("[WARN] failed to get user %s: %v", email, err)
		}
		return persistence.User{}, false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return persistence.User{}, false
	}
	return user, true
}

// startSession creates a session for the user and sets the auth cookie.
// HTTPS requests get __Host- prefixed strict cookie.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, userID string) error {
	token, err := s.createSession(userID)
	if err != nil {
		return err
	}
	cookie := &http.Cookie{
		Name:     authCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.loginTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		cookie.Name = secureAuthCookie
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}
	http.SetCookie(w, cookie)
	return nil
}

// createSession makes a random session token for the user
func (s *Server) createSession(userID string) (string, error) {
	token, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	s.sessions[token.String()] = session{userID: userID, createdAt: time.Now()}
	return token.String(), nil
}

// validateSession returns the user of the session, expired sessions are removed
func (s *Server) validateSession(token string) (userID string, ok bool) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	sess, found := s.sessions[token]
	if !found {
		return "", false
	}
	if time.Since(sess.createdAt) > s.loginTTL {
		delete(s.sessions, token)
		return "", false
	}
	return sess.userID, true
}

func (s *Server) deleteSession(token string) {
	s.sessionsMu.Lock()
	delete(s.sessions, token)
	s.sessionsMu.Unlock()
}

// purgeSessions removes expired sessions periodically until ctx is done
func (s *Server) purgeSessions(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sessionsMu.Lock()
			for token, sess := range s.sessions {
				if time.Since(sess.createdAt) > s.loginTTL {
					delete(s.sessions, token)
				}
			}
			s.sessionsMu.Unlock()
		}
	}
}

// validEmail checks the email has non-empty local and domain parts
func validEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
