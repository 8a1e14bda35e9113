package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/itchan-dev/blogfront/shared/domain"
	"github.com/itchan-dev/blogfront/shared/logger"
)

// fileRecord is the on-disk layout. The user is stored as a serialized
// string under its own key, next to the token.
type fileRecord struct {
	Token string `json:"token"`
	User  string `json:"user"`
}

// FileStore keeps the session in a JSON file, shared by every CLI process of
// the same user.
type FileStore struct {
	Notifier
	path string

	mu   sync.Mutex
	last Session
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: filepath.Clean(path)}
}

// DefaultPath is the per-user session file.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "blogfront", "session.json"), nil
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Read() Session {
	s, err := f.load()
	if err != nil {
		logger.Log.Warn("ignoring unreadable session file", "path", f.path, "error", err)
	}
	return s
}

func (f *FileStore) load() (Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, err
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Session{}, fmt.Errorf("parse session file: %w", err)
	}
	if rec.Token == "" || rec.User == "" {
		return Session{}, nil
	}
	var user domain.User
	if err := json.Unmarshal([]byte(rec.User), &user); err != nil {
		return Session{}, fmt.Errorf("parse session user: %w", err)
	}
	return Session{Token: rec.Token, User: &user}, nil
}

func (f *FileStore) Save(s Session) error {
	if !s.complete() {
		return ErrIncomplete
	}
	user, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	data, err := json.Marshal(fileRecord{Token: s.Token, User: string(user)})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := writeAtomic(f.path, data); err != nil {
		return err
	}
	f.last = s
	f.publish(Event{Kind: Saved, Session: s})
	return nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	was := err == nil || f.last.Present()
	f.last = Session{}
	if was {
		f.publish(Event{Kind: Cleared})
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Watch publishes changes made to the file by other processes until ctx is
// done. Changes made through this store are not published twice.
func (f *FileStore) Watch(ctx context.Context) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	f.mu.Lock()
	f.last, _ = f.load()
	f.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			f.reconcile()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.Warn("session watcher error", "path", f.path, "error", err)
		}
	}
}

func (f *FileStore) reconcile() {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, err := f.load()
	if err != nil {
		// Partially written files show up here; the final write triggers
		// another event.
		logger.Log.Debug("session file not readable yet", "path", f.path, "error", err)
		return
	}
	if current.same(f.last) {
		return
	}
	f.last = current
	if current.Present() {
		f.publish(Event{Kind: Saved, Session: current})
	} else {
		f.publish(Event{Kind: Cleared})
	}
}
