package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestUser(email string) *User {
	return &User{Name: "Test User", Email: email, PasswordHash: []byte("hash")}
}

func TestNewJSONStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.json")

	store, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("store file was not created")
	}
}

func TestJSONStore_PersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.json")
	ctx := context.Background()

	store, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	user := newTestUser("Persist@Example.com")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	upload := &Upload{UserID: user.ID, Title: "My video", Tags: []string{"go"}, ContentType: "video/mp4"}
	if err := store.CreateUpload(ctx, upload); err != nil {
		t.Fatalf("CreateUpload() error = %v", err)
	}
	if err := store.SetPreferences(ctx, &Preferences{UserID: user.ID, Theme: ThemeLight}); err != nil {
		t.Fatalf("SetPreferences() error = %v", err)
	}
	store.Close()

	store2, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore() reopen error = %v", err)
	}
	defer store2.Close()

	got, err := store2.GetUserByEmail(ctx, "persist@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.VideosCount != 1 {
		t.Errorf("VideosCount = %d, want 1", got.VideosCount)
	}
	uploads, err := store2.ListUploadsByUser(ctx, user.ID)
	if err != nil || len(uploads) != 1 || uploads[0].Title != "My video" {
		t.Errorf("ListUploadsByUser() = %v, %v", uploads, err)
	}
	prefs, err := store2.GetPreferences(ctx, user.ID)
	if err != nil || prefs.Theme != ThemeLight {
		t.Errorf("GetPreferences() = %+v, %v", prefs, err)
	}
}

func TestJSONStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewJSONStore(path)
	if !errors.Is(err, ErrStorageCorrupt) {
		t.Fatalf("NewJSONStore() error = %v, want ErrStorageCorrupt", err)
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	user := newTestUser("a@example.com")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID == "" || user.CreatedAt.IsZero() {
		t.Fatalf("CreateUser() did not assign id and timestamps: %+v", user)
	}

	tests := []struct {
		name string
		user *User
		want error
	}{
		{"duplicate email differs in case", newTestUser("A@Example.com"), ErrAlreadyExists},
		{"missing email", newTestUser(""), ErrInvalidInput},
		{"missing hash", &User{Email: "b@example.com"}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.CreateUser(ctx, tt.user)
			if !errors.Is(err, tt.want) {
				t.Errorf("CreateUser() error = %v, want %v", err, tt.want)
			}
		})
	}

	got, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	got.Name = "mutated"
	again, _ := store.GetUser(ctx, user.ID)
	if again.Name != "Test User" {
		t.Error("GetUser() returned a reference into the store")
	}

	got.Bio = "hello"
	got.Email = "new@example.com"
	if err := store.UpdateUser(ctx, got); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if _, err := store.GetUserByEmail(ctx, "a@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old email still indexed: %v", err)
	}
	if u, err := store.GetUserByEmail(ctx, "NEW@example.com"); err != nil || u.Bio != "hello" {
		t.Errorf("GetUserByEmail(new) = %+v, %v", u, err)
	}

	var storErr *StorageError
	_, err = store.GetUser(ctx, "missing")
	if !errors.As(err, &storErr) || storErr.Entity != "user" || storErr.Op != "read" {
		t.Errorf("GetUser(missing) error = %v", err)
	}
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user := newTestUser("s@example.com")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	live := &Session{Token: "live", UserID: user.ID, ExpiresAt: now.Add(time.Hour)}
	dead := &Session{Token: "dead", UserID: user.ID, ExpiresAt: now.Add(-time.Minute)}
	for _, s := range []*Session{live, dead} {
		if err := store.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession(%s) error = %v", s.Token, err)
		}
	}
	if err := store.CreateSession(ctx, &Session{Token: "x", UserID: "nobody"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateSession(unknown user) error = %v", err)
	}

	removed, err := store.DeleteExpiredSessions(ctx, now)
	if err != nil || removed != 1 {
		t.Fatalf("DeleteExpiredSessions() = %d, %v", removed, err)
	}
	if _, err := store.GetSession(ctx, "dead"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired session still present: %v", err)
	}
	if err := store.DeleteSession(ctx, "live"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if err := store.DeleteSession(ctx, "live"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteSession() error = %v", err)
	}
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := &Comment{VideoID: "v1", UserID: "u", Text: "first"}
	second := &Comment{VideoID: "v1", UserID: "u", Text: "second"}
	for _, c := range []*Comment{first, second} {
		if err := store.CreateComment(ctx, c); err != nil {
			t.Fatalf("CreateComment() error = %v", err)
		}
	}
	reply := &Comment{VideoID: "v1", ParentID: first.ID, UserID: "u", Text: "reply"}
	if err := store.CreateComment(ctx, reply); err != nil {
		t.Fatalf("CreateComment(reply) error = %v", err)
	}
	if err := store.CreateComment(ctx, &Comment{VideoID: "v1", Text: "  "}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank comment error = %v", err)
	}
	if err := store.CreateComment(ctx, &Comment{VideoID: "v1", ParentID: "nope", Text: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("orphan reply error = %v", err)
	}

	list, err := store.ListCommentsByVideo(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].ID != reply.ID || list[2].ID != first.ID {
		t.Errorf("ListCommentsByVideo() order wrong: %v", list)
	}

	first.Likes = 5
	if err := store.UpdateComment(ctx, first); err != nil {
		t.Fatalf("UpdateComment() error = %v", err)
	}
	got, _ := store.GetComment(ctx, first.ID)
	if got.Likes != 5 {
		t.Errorf("Likes = %d, want 5", got.Likes)
	}
	first.VideoID = "other"
	if err := store.UpdateComment(ctx, first); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("moving a comment error = %v", err)
	}
}

func TestPreferencesDefaultAndValidation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	prefs, err := store.GetPreferences(ctx, "u1")
	if err != nil || prefs.Theme != ThemeDark {
		t.Fatalf("GetPreferences() = %+v, %v; want dark default", prefs, err)
	}
	if err := store.SetPreferences(ctx, &Preferences{UserID: "u1", Theme: "blue"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("SetPreferences(blue) error = %v", err)
	}
}

func TestFileLockExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked.json")
	first := NewFileLock(path)
	if err := first.Lock(time.Second); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	second := NewFileLock(path)
	if err := second.Lock(50 * time.Millisecond); !errors.Is(err, ErrLockTimeout) {
		t.Errorf("second Lock() error = %v, want ErrLockTimeout", err)
	}

	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if err := second.Lock(time.Second); err != nil {
		t.Errorf("Lock() after release error = %v", err)
	}
	second.Unlock()
}

func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "concurrent.json"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &Comment{VideoID: "v", UserID: "u", Text: "hi"}
			if err := store.CreateComment(ctx, c); err != nil {
				t.Errorf("CreateComment() error = %v", err)
			}
		}()
	}
	wg.Wait()

	list, _ := store.ListCommentsByVideo(ctx, "v")
	if len(list) != 20 {
		t.Errorf("got %d comments, want 20", len(list))
	}
}
