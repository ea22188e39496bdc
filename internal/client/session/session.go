// Package session persists the signed-in account of the CLI and notifies
// subscribers when it changes.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
)

// FileName is the session file inside the config dir.
const FileName = "session.json"

// Session is the persisted login state.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
}

// Listener is called with the new session and whether it is signed in.
type Listener func(s Session, signedIn bool)

// Store is a file-backed session holder. It is safe for concurrent use.
type Store struct {
	path string
	now  func() time.Time

	mu   sync.Mutex
	cur  *Session
	subs map[int]Listener
	next int
}

// Open loads the session file from dir. A missing file means signed out.
func Open(dir string) (*Store, error) {
	s := &Store{path: filepath.Join(dir, FileName), now: time.Now, subs: map[int]Listener{}}
	b, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read session: %w", err)
	}
	var cur Session
	if err := json.Unmarshal(b, &cur); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	s.cur = &cur
	return s, nil
}

// NewMemory returns a store that never touches the filesystem.
func NewMemory() *Store {
	return &Store{now: time.Now, subs: map[int]Listener{}}
}

func (s *Store) validLocked() bool {
	return s.cur != nil && s.cur.AccessToken != "" && s.cur.UserID != uuid.Nil && s.now().Before(s.cur.ExpiresAt)
}

// Current returns the session if it is signed in and not expired.
func (s *Store) Current() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validLocked() {
		return Session{}, false
	}
	return *s.cur, true
}

// CurrentUserID returns the signed-in user. Expired sessions count as signed out.
func (s *Store) CurrentUserID() (uuid.UUID, bool) {
	cur, ok := s.Current()
	return cur.UserID, ok
}

// Token returns the bearer token of the current session.
func (s *Store) Token() (string, bool) {
	cur, ok := s.Current()
	return cur.AccessToken, ok
}

// SignIn persists sess and notifies subscribers.
func (s *Store) SignIn(sess Session) error {
	if sess.AccessToken == "" || sess.UserID == uuid.Nil {
		return errors.New("session: empty token or user id")
	}
	s.mu.Lock()
	if err := s.writeLocked(&sess); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cur = &sess
	subs := s.listenersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(sess, true)
	}
	return nil
}

// UpdateProfile replaces the display name of the current session.
func (s *Store) UpdateProfile(displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return errors.New("session: not signed in")
	}
	next := *s.cur
	next.DisplayName = displayName
	if err := s.writeLocked(&next); err != nil {
		return err
	}
	s.cur = &next
	return nil
}

// SignOut forgets the session and notifies subscribers.
func (s *Store) SignOut() error {
	s.mu.Lock()
	if s.path != "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.mu.Unlock()
			return fmt.Errorf("remove session: %w", err)
		}
	}
	var prev Session
	if s.cur != nil {
		prev = *s.cur
	}
	s.cur = nil
	subs := s.listenersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(prev, false)
	}
	return nil
}

// Subscribe registers fn for auth-state changes and returns its cancel func.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) listenersLocked() []Listener {
	out := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func (s *Store) writeLocked(sess *Session) error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session dir: %w", err)
	}
	b, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp, s.path)
}
