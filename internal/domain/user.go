package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Field limits for users.
const (
	MaxNameLength     = 50
	MinProfileNameLen = 2
	MaxBioLength      = 500
	MinPasswordLength = 6
	// MaxPasswordLength is bcrypt's input ceiling.
	MaxPasswordLength = 72
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
)

// Provider identifies how an account authenticates.
type Provider string

// Supported identity providers
const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderLocal, ProviderGoogle, ProviderGitHub:
		return true
	}
	return false
}

// User represents a registered account.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // Plaintext, only set transiently before hashing
	HashedPassword string    `json:"-"` // Empty for OAuth-only accounts
	Bio            string    `json:"bio,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Avatar         string    `json:"avatar,omitempty"`
	Provider       Provider  `json:"provider"`
	ProviderID     string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewUser creates a local account. The caller hashes Password before storage.
func NewUser(name, email, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Password:  password,
		Provider:  ProviderLocal,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// NewOAuthUser creates an account backed by an external identity provider.
// It has no password.
func NewOAuthUser(name, email string, provider Provider, providerID, avatar string) (*User, error) {
	now := time.Now().UTC()
	name = strings.TrimSpace(name)
	if name == "" {
		// Providers may omit the display name; fall back to the mailbox.
		name, _, _ = strings.Cut(NormalizeEmail(email), "@")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}

	user := &User{
		ID:         uuid.New(),
		Name:       name,
		Email:      NormalizeEmail(email),
		Avatar:     avatar,
		Provider:   provider,
		ProviderID: providerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email has a plausible address shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.HashedPassword != ""
}

// Validate checks every field and returns ValidationErrors listing all problems.
func (u *User) Validate() error {
	var errs ValidationErrors

	if u.ID == uuid.Nil {
		errs.Add("id", "is required")
	}

	switch n := utf8.RuneCountInString(u.Name); {
	case n == 0:
		errs.Add("name", "is required")
	case n > MaxNameLength:
		errs.Add("name", "cannot be more than 50 characters")
	}

	if u.Email == "" {
		errs.Add("email", "is required")
	} else if !ValidEmail(u.Email) {
		errs.Add("email", "must be a valid email address")
	}

	if utf8.RuneCountInString(u.Bio) > MaxBioLength {
		errs.Add("bio", "cannot be more than 500 characters")
	}
	if u.Phone != "" && !phonePattern.MatchString(u.Phone) {
		errs.Add("phone", "must be a valid phone number")
	}

	if !u.Provider.Valid() {
		errs.Add("provider", "must be one of local, google, github")
	}

	if u.Password != "" {
		if msg := PasswordProblem(u.Password); msg != "" {
			errs.Add("password", msg)
		}
	} else if u.Provider == ProviderLocal && u.HashedPassword == "" {
		errs.Add("password", "is required")
	}

	return errs.Err()
}

// PasswordProblem describes why password is unacceptable, or returns "".
func PasswordProblem(password string) string {
	switch {
	case len(password) < MinPasswordLength:
		return "must be at least 6 characters"
	case len(password) > MaxPasswordLength:
		return "must be at most 72 characters"
	}
	return ""
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Name  string
	Email string
	Bio   string
	Phone string
}

// ApplyProfile returns a copy of u with the profile fields replaced and validated.
// Profile names need at least two characters.
func (u User) ApplyProfile(p ProfileUpdate, now time.Time) (*User, error) {
	updated := u
	updated.Name = strings.TrimSpace(p.Name)
	updated.Email = NormalizeEmail(p.Email)
	updated.Bio = strings.TrimSpace(p.Bio)
	updated.Phone = strings.TrimSpace(p.Phone)
	updated.Password = ""
	updated.UpdatedAt = now.UTC()

	err := updated.Validate()
	if utf8.RuneCountInString(updated.Name) > 0 && utf8.RuneCountInString(updated.Name) < MinProfileNameLen {
		ve, _ := AsValidationErrors(err)
		ve.Add("name", "must be at least 2 characters")
		err = ve.Err()
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
