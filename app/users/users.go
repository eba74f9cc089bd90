// Package users loads the optional accounts file and seeds the store with it.
// The file is YAML with a list of emails and bcrypt password hashes, so accounts can be
// provisioned without enabling sign-up.
package users

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/umputun/jtrack/app/persistence"
)

//go:generate go run ./internal/schema schema.json

//go:embed schema.json
var embeddedSchemaData []byte

// File is the accounts file
type File struct {
	Users []Account `yaml:"users" json:"users" jsonschema:"required,minItems=1,description=accounts to create or update on start"`
}

// Account is a single user entry
type Account struct {
	Email        string `yaml:"email" json:"email" jsonschema:"required,format=email"`
	PasswordHash string `yaml:"password_hash" json:"password_hash" jsonschema:"required,pattern=^\\$2[aby]\\$,description=bcrypt hash of the password"`
}

// Store creates or updates users
type Store interface {
	UpsertUser(ctx context.Context, user persistence.User) (persistence.User, error)
}

// Load reads and verifies the accounts file
func Load(fname string) (*File, error) {
	data, err := os.ReadFile(fname) // nolint
	if err != nil {
		return nil, fmt.Errorf("can't read users file %s: %w", fname, err)
	}
	var res File
	if err := yaml.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("can't parse users file %s: %w", fname, err)
	}
	if err := Verify(&res); err != nil {
		return nil, fmt.Errorf("invalid users file %s: %w", fname, err)
	}
	return &res, nil
}

// Verify checks the file against the embedded schema rules
func Verify(f *File) error {
	var schema map[string]any
	if err := json.Unmarshal(embeddedSchemaData, &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	if len(f.Users) == 0 {
		return fmt.Errorf("at least one user is required")
	}

	seen := map[string]bool{}
	for i, u := range f.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			return fmt.Errorf("user %d: email is required", i+1)
		}
		if at := strings.Index(email, "@"); at <= 0 || at == len(email)-1 {
			return fmt.Errorf("user %d: invalid email %q", i+1, u.Email)
		}
		if seen[email] {
			return fmt.Errorf("user %d: duplicate email %q", i+1, u.Email)
		}
		seen[email] = true

		if u.PasswordHash == "" {
			return fmt.Errorf("user %d: password_hash is required", i+1)
		}
		if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
			return fmt.Errorf("user %d: password_hash is not a bcrypt hash: %w", i+1, err)
		}
	}
	return nil
}

// Seed creates or updates every account of the file in the store
func Seed(ctx context.Context, store Store, f *File) error {
	for _, u := range f.Users {
		user, err := store.UpsertUser(ctx, persistence.User{ID: uuid.NewString(), Email: u.Email, PasswordHash: u.PasswordHash})
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.Email, err)
		}
		log.Printf("[DEBUG] user %s seeded, id %s", user.Email, user.ID)
	}
	log.Printf("[INFO] %d user(s) seeded", len(f.Users))
	return nil
}

// GenerateSchema generates a JSON schema for the accounts file
func GenerateSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&File{})
}
