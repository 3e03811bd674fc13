// Package auth implements demo accounts: sign-up, sign-in, sessions,
// profiles and theme preferences on top of the storage layer.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ytclone/internal/logger"
	"ytclone/internal/storage"
	"ytclone/internal/validate"
)

const (
	// DefaultSessionTTL is how long a sign-in stays valid.
	DefaultSessionTTL = 7 * 24 * time.Hour

	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 6

	// MaxPasswordLength is bcrypt's input limit.
	MaxPasswordLength = 72
)

// Demo account seeded by EnsureDemoUser.
const (
	DemoUserID   = "demo-user-123"
	DemoEmail    = "demo@youtube.com"
	DemoPassword = "demo123"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrUnauthenticated is returned for a missing, unknown or expired token.
	ErrUnauthenticated = errors.New("auth: not signed in")
)

// Message returns the text a form shows for err.
func Message(err error) string {
	var fe *validate.FormError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fe):
		return fe.Message
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, ErrEmailTaken):
		return "An account with this email already exists"
	case errors.Is(err, ErrUnauthenticated):
		return "Please sign in to continue"
	case errors.Is(err, storage.ErrNotFound):
		return "User not found"
	default:
		return "Something went wrong. Please try again."
	}
}

// SignUpRequest is the sign-up form.
type SignUpRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

// SignInRequest is the sign-in form.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6,max=72"`
}

// ProfileUpdate carries editable profile fields.
type ProfileUpdate struct {
	Name   string `json:"name" validate:"required,max=100"`
	Bio    string `json:"bio" validate:"max=1000"`
	Avatar string `json:"avatar" validate:"omitempty,url"`
}

var formMessages = validate.Messages{
	"name.required":   "Name is required",
	"name":            "Name must be at most 100 characters",
	"email.required":  "Email is required",
	"email":           "Please enter a valid email address",
	"password.min":    "Password must be at least 6 characters long",
	"password.max":    "Password must be at most 72 characters long",
	"confirmPassword": "Passwords do not match",
	"bio":             "Bio must be at most 1000 characters",
	"avatar":          "Avatar must be a URL",
}

// Session is a signed-in user. Callers hold it and pass the token back;
// the service keeps no notion of a current user.
type Session struct {
	Token     string    `json:"token"`
	User      Profile   `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Profile is the public view of a user.
type Profile struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Avatar          string    `json:"avatar"`
	Bio             string    `json:"bio"`
	SubscriberCount string    `json:"subscriberCount"`
	VideosCount     int       `json:"videosCount"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ProfileOf fills in the display defaults for u.
func ProfileOf(u *storage.User) Profile {
	p := Profile{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Avatar:          u.Avatar,
		Bio:             u.Bio,
		SubscriberCount: u.SubscriberCount,
		VideosCount:     u.VideosCount,
		CreatedAt:       u.CreatedAt,
	}
	if p.Avatar == "" {
		p.Avatar = fmt.Sprintf("https://picsum.photos/seed/%s/100/100", u.ID)
	}
	if p.Bio == "" {
		p.Bio = "No bio available"
	}
	if p.SubscriberCount == "" {
		p.SubscriberCount = "0 subscribers"
	}
	return p
}

// Store is the storage the service needs.
type Store interface {
	storage.UserStore
	storage.SessionStore
	storage.PreferenceStore
}

// Service implements the account operations.
type Service struct {
	store    Store
	validate *validate.Validator
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSessionTTL sets the session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithBcryptCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns an account service backed by store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		validate: validate.New(),
		ttl:      DefaultSessionTTL,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureDemoUser seeds the demo account if it does not exist yet.
func (s *Service) EnsureDemoUser(ctx context.Context) error {
	if _, err := s.store.GetUserByEmail(ctx, DemoEmail); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}
	demo := &storage.User{
		ID:              DemoUserID,
		Name:            "Demo User",
		Email:           DemoEmail,
		PasswordHash:    hash,
		Avatar:          "https://picsum.photos/seed/demo-user/100/100",
		Bio:             "Welcome to the YouTube clone demo! This is a sample user account for testing purposes.",
		SubscriberCount: "1.2K subscribers",
		VideosCount:     8,
		CreatedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := s.store.CreateUser(ctx, demo); err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
		return err
	}
	logger.Info("demo user seeded", logger.KeyUserID, DemoUserID)
	return nil
}

// SignUp registers a user and signs them in.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*Session, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req, formMessages); err != nil {
		return nil, err
	}

	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &storage.User{Name: req.Name, Email: req.Email, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	logger.InfoCtx(ctx, "user signed up", logger.KeyUserID, user.ID)
	return s.startSession(ctx, user)
}

// SignIn checks credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req, formMessages); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)); err != nil {
		logger.DebugCtx(ctx, "sign-in rejected", logger.KeyUserID, user.ID)
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, user)
}

func (s *Service) startSession(ctx context.Context, user *storage.User) (*Session, error) {
	now := s.now()
	rec := &storage.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.CreateSession(ctx, rec); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &Session{Token: rec.Token, User: ProfileOf(user), ExpiresAt: rec.ExpiresAt}, nil
}

// SignOut ends the session. Signing out an unknown token is not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	err := s.store.DeleteSession(ctx, token)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

// CurrentUser resolves a session token to its user.
func (s *Service) CurrentUser(ctx context.Context, token string) (*storage.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	rec, err := s.store.GetSession(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if rec.Expired(s.now()) {
		_ = s.store.DeleteSession(ctx, token)
		return nil, ErrUnauthenticated
	}
	user, err := s.store.GetUser(ctx, rec.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	return user, err
}

// Profile returns the public profile of userID.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return ProfileOf(user), nil
}

// UpdateProfile edits the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (Profile, error) {
	upd.Name = strings.TrimSpace(upd.Name)
	if err := s.validate.Struct(upd, formMessages); err != nil {
		return Profile{}, err
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	user.Name = upd.Name
	user.Bio = upd.Bio
	if upd.Avatar != "" {
		user.Avatar = upd.Avatar
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return Profile{}, err
	}
	return ProfileOf(user), nil
}

// Theme returns the saved theme of userID, dark by default.
func (s *Service) Theme(ctx context.Context, userID string) (storage.Theme, error) {
	prefs, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		return "", err
	}
	return prefs.Theme, nil
}

// SetTheme saves the theme of userID.
func (s *Service) SetTheme(ctx context.Context, userID string, theme storage.Theme) error {
	return s.store.SetPreferences(ctx, &storage.Preferences{UserID: userID, Theme: theme})
}

// ToggleTheme flips between dark and light and returns the new theme.
func (s *Service) ToggleTheme(ctx context.Context, userID string) (storage.Theme, error) {
	current, err := s.Theme(ctx, userID)
	if err != nil {
		return "", err
	}
	next := storage.ThemeLight
	if current == storage.ThemeLight {
		next = storage.ThemeDark
	}
	return next, s.SetTheme(ctx, userID, next)
}

// PurgeExpired drops expired sessions and returns how many were removed.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	return s.store.DeleteExpiredSessions(ctx, s.now())
}
