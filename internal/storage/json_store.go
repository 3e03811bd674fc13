package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	schemaVersion = "1.0"
	lockTimeout   = 5 * time.Second
)

// JSONStore implements Store using a single JSON file. A store opened with
// NewMemoryStore keeps everything in memory and never touches disk.
type JSONStore struct {
	path string
	lock *FileLock
	data *storeData
	mu   sync.RWMutex
	now  func() time.Time
}

// storeData is the top-level JSON structure.
type storeData struct {
	Version     string                  `json:"version"`
	UpdatedAt   time.Time               `json:"updated_at"`
	Users       map[string]*User        `json:"users"`
	Sessions    map[string]*Session     `json:"sessions"`
	Uploads     map[string]*Upload      `json:"uploads"`
	Comments    map[string]*Comment     `json:"comments"`
	Preferences map[string]*Preferences `json:"preferences"`
	Indexes     *indexes                `json:"indexes"`
}

// indexes maintains lookup tables for efficient queries.
type indexes struct {
	UserEmail       map[string]string   `json:"user_email"`        // lowercased email -> user_id
	UploadsByUser   map[string][]string `json:"uploads_by_user"`   // user_id -> []upload_id
	CommentsByVideo map[string][]string `json:"comments_by_video"` // video_id -> []comment_id
}

// NewJSONStore opens the store at path, creating it if it does not exist.
// The file is locked for the lifetime of the store.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{
		path: path,
		lock: NewFileLock(path),
		now:  time.Now,
	}

	if err := s.lock.Lock(lockTimeout); err != nil {
		return nil, err
	}

	if err := s.load(); err != nil {
		s.lock.Unlock()
		return nil, err
	}

	return s, nil
}

// NewMemoryStore returns an empty store that is never persisted.
func NewMemoryStore() *JSONStore {
	return &JSONStore{data: newStoreData(), now: time.Now}
}

// load reads the JSON file into memory. Creates empty data if file doesn't exist.
func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.data = newStoreData()
			// Save immediately to catch permission errors early
			return s.save()
		}
		return &StorageError{Op: "read", Entity: "store", Err: err}
	}

	s.data = &storeData{}
	if err := json.Unmarshal(data, s.data); err != nil {
		return &StorageError{Op: "read", Entity: "store", Err: ErrStorageCorrupt}
	}
	s.data.fill()
	return nil
}

// save persists the data to disk atomically.
func (s *JSONStore) save() error {
	s.data.UpdatedAt = s.now()
	if s.path == "" {
		return nil
	}

	writer, err := NewAtomicWriter(s.path)
	if err != nil {
		return &StorageError{Op: "write", Entity: "store", Err: err}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		writer.Abort()
		return &StorageError{Op: "write", Entity: "store", Err: err}
	}

	if err := writer.Commit(); err != nil {
		return &StorageError{Op: "write", Entity: "store", Err: err}
	}

	return nil
}

// Close releases resources held by the store.
func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

func newStoreData() *storeData {
	d := &storeData{Version: schemaVersion, UpdatedAt: time.Now()}
	d.fill()
	return d
}

// fill makes sure every map exists, for files written by older versions.
func (d *storeData) fill() {
	if d.Users == nil {
		d.Users = make(map[string]*User)
	}
	if d.Sessions == nil {
		d.Sessions = make(map[string]*Session)
	}
	if d.Uploads == nil {
		d.Uploads = make(map[string]*Upload)
	}
	if d.Comments == nil {
		d.Comments = make(map[string]*Comment)
	}
	if d.Preferences == nil {
		d.Preferences = make(map[string]*Preferences)
	}
	if d.Indexes == nil {
		d.Indexes = &indexes{}
	}
	if d.Indexes.UserEmail == nil {
		d.Indexes.UserEmail = make(map[string]string)
	}
	if d.Indexes.UploadsByUser == nil {
		d.Indexes.UploadsByUser = make(map[string][]string)
	}
	if d.Indexes.CommentsByVideo == nil {
		d.Indexes.CommentsByVideo = make(map[string][]string)
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// --- UserStore implementation ---

func (s *JSONStore) CreateUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Email == "" || len(user.PasswordHash) == 0 {
		return &StorageError{Op: "create", Entity: "user", ID: user.ID, Err: ErrInvalidInput}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, exists := s.data.Users[user.ID]; exists {
		return &StorageError{Op: "create", Entity: "user", ID: user.ID, Err: ErrAlreadyExists}
	}
	key := emailKey(user.Email)
	if _, exists := s.data.Indexes.UserEmail[key]; exists {
		return &StorageError{Op: "create", Entity: "user", ID: key, Err: ErrAlreadyExists}
	}

	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	stored := *user
	s.data.Users[user.ID] = &stored
	s.data.Indexes.UserEmail[key] = user.ID

	return s.save()
}

func (s *JSONStore) GetUser(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.data.Users[id]
	if !exists {
		return nil, &StorageError{Op: "read", Entity: "user", ID: id, Err: ErrNotFound}
	}
	cp := *user
	return &cp, nil
}

func (s *JSONStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := emailKey(email)
	id, exists := s.data.Indexes.UserEmail[key]
	if !exists {
		return nil, &StorageError{Op: "read", Entity: "user", ID: key, Err: ErrNotFound}
	}
	user, exists := s.data.Users[id]
	if !exists {
		return nil, &StorageError{Op: "read", Entity: "user", ID: id, Err: ErrStorageCorrupt}
	}
	cp := *user
	return &cp, nil
}

func (s *JSONStore) UpdateUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.data.Users[user.ID]
	if !exists {
		return &StorageError{Op: "update", Entity: "user", ID: user.ID, Err: ErrNotFound}
	}

	// Update email index if changed
	oldKey, newKey := emailKey(existing.Email), emailKey(user.Email)
	if oldKey != newKey {
		if _, taken := s.data.Indexes.UserEmail[newKey]; taken {
			return &StorageError{Op: "update", Entity: "user", ID: newKey, Err: ErrAlreadyExists}
		}
		delete(s.data.Indexes.UserEmail, oldKey)
		s.data.Indexes.UserEmail[newKey] = user.ID
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = s.now()
	stored := *user
	s.data.Users[user.ID] = &stored

	return s.save()
}

func (s *JSONStore) ListUsers(ctx context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*User, 0, len(s.data.Users))
	for _, u := range s.data.Users {
		cp := *u
		users = append(users, &cp)
	}
	slices.SortFunc(users, func(a, b *User) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return users, nil
}

// --- SessionStore implementation ---

func (s *JSONStore) CreateSession(ctx context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.Token == "" {
		return &StorageError{Op: "create", Entity: "session", Err: ErrInvalidInput}
	}
	if _, exists := s.data.Users[session.UserID]; !exists {
		return &StorageError{Op: "create", Entity: "session", ID: session.UserID, Err: ErrNotFound}
	}
	if _, exists := s.data.Sessions[session.Token]; exists {
		return &StorageError{Op: "create", Entity: "session", Err: ErrAlreadyExists}
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.now()
	}

	stored := *session
	s.data.Sessions[session.Token] = &stored
	return s.save()
}

func (s *JSONStore) GetSession(ctx context.Context, token string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.data.Sessions[token]
	if !exists {
		// Tokens are secrets; keep them out of error text.
		return nil, &StorageError{Op: "read", Entity: "session", Err: ErrNotFound}
	}
	cp := *session
	return &cp, nil
}

func (s *JSONStore) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data.Sessions[token]; !exists {
		return &StorageError{Op: "delete", Entity: "session", Err: ErrNotFound}
	}
	delete(s.data.Sessions, token)
	return s.save()
}

func (s *JSONStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.data.Sessions {
		if session.Expired(now) {
			delete(s.data.Sessions, token)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.save()
}

// --- UploadStore implementation ---

func (s *JSONStore) CreateUpload(ctx context.Context, upload *Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if upload.ID == "" {
		upload.ID = uuid.NewString()
	}
	if _, exists := s.data.Uploads[upload.ID]; exists {
		return &StorageError{Op: "create", Entity: "upload", ID: upload.ID, Err: ErrAlreadyExists}
	}
	user, exists := s.data.Users[upload.UserID]
	if !exists {
		return &StorageError{Op: "create", Entity: "upload", ID: upload.UserID, Err: ErrNotFound}
	}
	upload.CreatedAt = s.now()

	stored := *upload
	stored.Tags = slices.Clone(upload.Tags)
	s.data.Uploads[upload.ID] = &stored
	s.data.Indexes.UploadsByUser[upload.UserID] = append(
		s.data.Indexes.UploadsByUser[upload.UserID], upload.ID)
	user.VideosCount++

	return s.save()
}

func (s *JSONStore) GetUpload(ctx context.Context, id string) (*Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	upload, exists := s.data.Uploads[id]
	if !exists {
		return nil, &StorageError{Op: "read", Entity: "upload", ID: id, Err: ErrNotFound}
	}
	cp := *upload
	cp.Tags = slices.Clone(upload.Tags)
	return &cp, nil
}

func (s *JSONStore) ListUploadsByUser(ctx context.Context, userID string) ([]*Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.data.Indexes.UploadsByUser[userID]
	uploads := make([]*Upload, 0, len(ids))
	for _, id := range ids {
		if upload, exists := s.data.Uploads[id]; exists {
			cp := *upload
			cp.Tags = slices.Clone(upload.Tags)
			uploads = append(uploads, &cp)
		}
	}
	return uploads, nil
}

// --- CommentStore implementation ---

func (s *JSONStore) CreateComment(ctx context.Context, comment *Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.VideoID == "" || strings.TrimSpace(comment.Text) == "" {
		return &StorageError{Op: "create", Entity: "comment", ID: comment.ID, Err: ErrInvalidInput}
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if _, exists := s.data.Comments[comment.ID]; exists {
		return &StorageError{Op: "create", Entity: "comment", ID: comment.ID, Err: ErrAlreadyExists}
	}
	if comment.ParentID != "" {
		if _, exists := s.data.Comments[comment.ParentID]; !exists {
			return &StorageError{Op: "create", Entity: "comment", ID: comment.ParentID, Err: ErrNotFound}
		}
	}

	now := s.now()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	stored := *comment
	s.data.Comments[comment.ID] = &stored
	s.data.Indexes.CommentsByVideo[comment.VideoID] = append(
		s.data.Indexes.CommentsByVideo[comment.VideoID], comment.ID)

	return s.save()
}

func (s *JSONStore) GetComment(ctx context.Context, id string) (*Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, exists := s.data.Comments[id]
	if !exists {
		return nil, &StorageError{Op: "read", Entity: "comment", ID: id, Err: ErrNotFound}
	}
	cp := *comment
	return &cp, nil
}

func (s *JSONStore) UpdateComment(ctx context.Context, comment *Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.data.Comments[comment.ID]
	if !exists {
		return &StorageError{Op: "update", Entity: "comment", ID: comment.ID, Err: ErrNotFound}
	}
	if existing.VideoID != comment.VideoID || existing.ParentID != comment.ParentID {
		return &StorageError{Op: "update", Entity: "comment", ID: comment.ID, Err: ErrInvalidInput}
	}

	comment.CreatedAt = existing.CreatedAt
	comment.UpdatedAt = s.now()
	stored := *comment
	s.data.Comments[comment.ID] = &stored

	return s.save()
}

func (s *JSONStore) ListCommentsByVideo(ctx context.Context, videoID string) ([]*Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.data.Indexes.CommentsByVideo[videoID]
	comments := make([]*Comment, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if c, exists := s.data.Comments[ids[i]]; exists {
			cp := *c
			comments = append(comments, &cp)
		}
	}
	return comments, nil
}

// --- PreferenceStore implementation ---

func (s *JSONStore) GetPreferences(ctx context.Context, userID string) (*Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if prefs, exists := s.data.Preferences[userID]; exists {
		cp := *prefs
		return &cp, nil
	}
	return &Preferences{UserID: userID, Theme: ThemeDark}, nil
}

func (s *JSONStore) SetPreferences(ctx context.Context, prefs *Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prefs.Theme != ThemeDark && prefs.Theme != ThemeLight {
		return &StorageError{Op: "update", Entity: "preferences", ID: prefs.UserID, Err: ErrInvalidInput}
	}
	prefs.UpdatedAt = s.now()
	stored := *prefs
	s.data.Preferences[prefs.UserID] = &stored
	return s.save()
}

var _ Store = (*JSONStore)(nil)
