package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ytclone/internal/storage"
	"ytclone/internal/validate"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(storage.NewMemoryStore(),
		WithBcryptCost(bcrypt.MinCost),
		WithClock(c.now),
		WithSessionTTL(time.Hour),
	)
	return svc, c
}

func validSignUp() SignUpRequest {
	return SignUpRequest{
		Name:            "Ada",
		Email:           "ada@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*SignUpRequest)
		wantMsg string
	}{
		{"blank name", func(r *SignUpRequest) { r.Name = "   " }, "Name is required"},
		{"missing email", func(r *SignUpRequest) { r.Email = "" }, "Email is required"},
		{"bad email", func(r *SignUpRequest) { r.Email = "not-an-email" }, "Please enter a valid email address"},
		{"short password", func(r *SignUpRequest) { r.Password, r.ConfirmPassword = "abc", "abc" }, "Password must be at least 6 characters long"},
		{"mismatch", func(r *SignUpRequest) { r.ConfirmPassword = "other12" }, "Passwords do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSignUp()
			tt.mutate(&req)
			_, err := svc.SignUp(ctx, req)
			var fe *validate.FormError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, tt.wantMsg, Message(err))
		})
	}
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, c := newTestService(t)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, validSignUp())
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "Ada", sess.User.Name)
	assert.Equal(t, "No bio available", sess.User.Bio)
	assert.Equal(t, "0 subscribers", sess.User.SubscriberCount)
	assert.Contains(t, sess.User.Avatar, sess.User.ID)
	assert.Equal(t, c.t.Add(time.Hour), sess.ExpiresAt)

	_, err = svc.SignUp(ctx, validSignUp())
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, "An account with this email already exists", Message(err))

	_, err = svc.SignIn(ctx, SignInRequest{Email: "ada@example.com", Password: "wrong12"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.SignIn(ctx, SignInRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "Invalid email or password", Message(err))

	again, err := svc.SignIn(ctx, SignInRequest{Email: "ADA@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEqual(t, sess.Token, again.Token)

	user, err := svc.CurrentUser(ctx, again.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, user.ID)
}

func TestSessionLifecycle(t *testing.T) {
	svc, c := newTestService(t)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, validSignUp())
	require.NoError(t, err)

	_, err = svc.CurrentUser(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.CurrentUser(ctx, "bogus")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, svc.SignOut(ctx, sess.Token))
	require.NoError(t, svc.SignOut(ctx, sess.Token))
	_, err = svc.CurrentUser(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	expiring, err := svc.SignIn(ctx, SignInRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	c.t = c.t.Add(2 * time.Hour)
	_, err = svc.CurrentUser(ctx, expiring.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.SignIn(ctx, SignInRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	c.t = c.t.Add(2 * time.Hour)
	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDemoUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDemoUser(ctx))
	require.NoError(t, svc.EnsureDemoUser(ctx))

	sess, err := svc.SignIn(ctx, SignInRequest{Email: DemoEmail, Password: DemoPassword})
	require.NoError(t, err)
	assert.Equal(t, DemoUserID, sess.User.ID)
	assert.Equal(t, "Demo User", sess.User.Name)
	assert.Equal(t, "1.2K subscribers", sess.User.SubscriberCount)
	assert.Equal(t, 8, sess.User.VideosCount)
	assert.Equal(t, 2024, sess.User.CreatedAt.Year())
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sess, err := svc.SignUp(ctx, validSignUp())
	require.NoError(t, err)

	got, err := svc.UpdateProfile(ctx, sess.User.ID, ProfileUpdate{Name: "Ada L.", Bio: "math", Avatar: "https://example.com/a.png"})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.Equal(t, "math", got.Bio)
	assert.Equal(t, "https://example.com/a.png", got.Avatar)

	_, err = svc.UpdateProfile(ctx, sess.User.ID, ProfileUpdate{Name: "Ada", Avatar: "not a url"})
	assert.Equal(t, "Avatar must be a URL", Message(err))

	_, err = svc.Profile(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestThemeToggle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	theme, err := svc.Theme(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, storage.ThemeDark, theme)

	theme, err = svc.ToggleTheme(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, storage.ThemeLight, theme)

	theme, err = svc.ToggleTheme(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, storage.ThemeDark, theme)
}

func TestMessageFallback(t *testing.T) {
	assert.Empty(t, Message(nil))
	assert.Equal(t, "Something went wrong. Please try again.", Message(errors.New("boom")))
}
