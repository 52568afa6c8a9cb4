// Package store provides durable local persistence for chat sessions and
// their messages.
//
// Layout is a single JSON document with two entries: a session list under
// "sessions" and a session-id to message-sequence map under "messages".
// Every mutation rewrites the document atomically (temp file + rename), so a
// failed write never leaves the two entries inconsistent.
//
// Thread safety: safe for concurrent use within one process (mutex) and
// across processes (file lock).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	// DefaultTitle is applied when a session is created without a title.
	DefaultTitle = "New Chat"

	// lockRetryDelay is the polling interval while waiting for the file lock.
	lockRetryDelay = 25 * time.Millisecond

	dirPerm  = 0o750
	filePerm = 0o600
)

// document is the on-disk shape: two top-level keys, both JSON-serializable.
// Message map keys are decimal session IDs (JSON object keys are strings).
type document struct {
	Sessions []Session            `json:"sessions"`
	Messages map[string][]Message `json:"messages"`
}

func emptyDocument() *document {
	return &document{Messages: make(map[string][]Message)}
}

// Store persists sessions and messages in a JSON document on disk.
type Store struct {
	mu     sync.Mutex
	path   string
	flk    *flock.Flock
	logger *slog.Logger

	// now and newID are swappable for tests.
	now   func() time.Time
	newID func() int64
}

// Open creates a Store backed by the file at path, creating the parent
// directory if needed. The file itself is created lazily on first write.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Store{
		path:   path,
		flk:    flock.New(path + ".lock"),
		logger: logger,
		now:    time.Now,
		newID:  generateID,
	}, nil
}

// Close releases the lock file handle. The store must not be used after.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flk.Close(); err != nil {
		return fmt.Errorf("%w: closing lock file: %v", ErrStorage, err)
	}
	return nil
}

// generateID produces a collision-resistant identifier from the current
// Unix-millisecond time plus a random perturbation, so creates landing on
// the same tick still get distinct IDs.
func generateID() int64 {
	return time.Now().UnixMilli() + rand.Int64N(1000)
}

// ListSessions returns all sessions, most recently created first. An
// uninitialized or unreadable store yields an empty slice, never an error.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock(ctx, true); err != nil {
		return nil, err
	}
	defer s.unlock()

	doc := s.read()
	sessions := make([]Session, len(doc.Sessions))
	copy(sessions, doc.Sessions)
	return sessions, nil
}

// GetSession returns the session with the given id merged with its full
// message sequence. Returns ErrNotFound if the id is absent.
func (s *Store) GetSession(ctx context.Context, id int64) (*SessionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock(ctx, true); err != nil {
		return nil, err
	}
	defer s.unlock()

	doc := s.read()
	sess := findSession(doc, id)
	if sess == nil {
		return nil, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}

	msgs := doc.Messages[messageKey(id)]
	detail := &SessionDetail{
		Session:  *sess,
		Messages: make([]Message, len(msgs)),
	}
	copy(detail.Messages, msgs)
	return detail, nil
}

// CreateSession creates a session with the given title (DefaultTitle when
// empty) and inserts it at the head of the session list.
func (s *Store) CreateSession(ctx context.Context, title string) (*Session, error) {
	if title == "" {
		title = DefaultTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock(ctx, false); err != nil {
		return nil, err
	}
	defer s.unlock()

	doc := s.read()
	now := s.now().UTC()
	sess := Session{
		ID:        s.uniqueID(doc),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	doc.Sessions = append([]Session{sess}, doc.Sessions...)
	if err := s.write(doc); err != nil {
		return nil, err
	}

	s.logger.Debug("created session", "id", sess.ID, "title", sess.Title)
	return &sess, nil
}

// DeleteSession removes the session and drops its message entry. Deleting an
// absent id is not an error, and leaves the store unchanged.
func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock(ctx, false); err != nil {
		return err
	}
	defer s.unlock()

	doc := s.read()
	if findSession(doc, id) == nil {
		if _, ok := doc.Messages[messageKey(id)]; !ok {
			return nil // idempotent: nothing to do, no write
		}
	}

	filtered := doc.Sessions[:0]
	for _, sess := range doc.Sessions {
		if sess.ID != id {
			filtered = append(filtered, sess)
		}
	}
	doc.Sessions = filtered
	delete(doc.Messages, messageKey(id))

	if err := s.write(doc); err != nil {
		return err
	}

	s.logger.Debug("deleted session", "id", id)
	return nil
}

// AppendMessage appends a message to the session's sequence and updates the
// parent session's message_count, updated_at, and last_message in the same
// write. The target session must exist; appending to an absent session id
// fails with ErrNotFound rather than creating an implicit empty session.
func (s *Store) AppendMessage(ctx context.Context, sessionID int64, role, content string) (*Message, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if content == "" {
		return nil, ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock(ctx, false); err != nil {
		return nil, err
	}
	defer s.unlock()

	doc := s.read()
	sess := findSession(doc, sessionID)
	if sess == nil {
		return nil, fmt.Errorf("session %d: %w", sessionID, ErrNotFound)
	}

	msg := Message{
		ID:        s.uniqueID(doc),
		Role:      role,
		Content:   content,
		Timestamp: s.now().UTC(),
	}

	key := messageKey(sessionID)
	doc.Messages[key] = append(doc.Messages[key], msg)

	sess.MessageCount = len(doc.Messages[key])
	sess.UpdatedAt = msg.Timestamp
	sess.LastMessage = &MessageRef{
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		Role:      msg.Role,
	}

	// Single document write keeps session metadata and the message sequence
	// consistent: either both land or neither does.
	if err := s.write(doc); err != nil {
		return nil, err
	}

	s.logger.Debug("appended message",
		"session_id", sessionID,
		"message_id", msg.ID,
		"role", role,
		"count", sess.MessageCount,
	)
	return &msg, nil
}

// Messages returns the message sequence for a session, oldest first.
// Returns ErrNotFound if the session does not exist.
func (s *Store) Messages(ctx context.Context, sessionID int64) ([]Message, error) {
	detail, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return detail.Messages, nil
}

// lock acquires the cross-process file lock, shared for reads.
func (s *Store) lock(ctx context.Context, shared bool) error {
	acquire := s.flk.TryLockContext
	if shared {
		acquire = s.flk.TryRLockContext
	}
	if _, err := acquire(ctx, lockRetryDelay); err != nil {
		return fmt.Errorf("acquiring store lock: %w", err)
	}
	return nil
}

func (s *Store) unlock() {
	if err := s.flk.Unlock(); err != nil {
		s.logger.Warn("releasing store lock", "error", err)
	}
}

// read loads the document from disk. A missing or unreadable file yields an
// empty document; reads never fail.
func (s *Store) read() *document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("reading store file", "path", s.path, "error", err)
		}
		return emptyDocument()
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("parsing store file, treating as empty", "path", s.path, "error", err)
		return emptyDocument()
	}
	if doc.Messages == nil {
		doc.Messages = make(map[string][]Message)
	}
	return &doc
}

// write persists the document atomically: marshal, write to a temp file in
// the same directory, then rename over the target. Failures surface as
// ErrStorage and leave the previous document intact.
func (s *Store) write(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding document: %v", ErrStorage, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".chat-*.json")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrStorage, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: writing temp file: %v", ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: closing temp file: %v", ErrStorage, err)
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: setting permissions: %v", ErrStorage, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: replacing document: %v", ErrStorage, err)
	}
	return nil
}

// uniqueID generates an ID not already used by any session or message in the
// document. Collisions are unlikely (millisecond clock plus perturbation)
// but cheap to rule out entirely.
func (s *Store) uniqueID(doc *document) int64 {
	id := s.newID()
	for idTaken(doc, id) {
		id++
	}
	return id
}

func idTaken(doc *document, id int64) bool {
	for i := range doc.Sessions {
		if doc.Sessions[i].ID == id {
			return true
		}
	}
	for _, msgs := range doc.Messages {
		for i := range msgs {
			if msgs[i].ID == id {
				return true
			}
		}
	}
	return false
}

// findSession returns a pointer into doc.Sessions, or nil when absent.
func findSession(doc *document, id int64) *Session {
	for i := range doc.Sessions {
		if doc.Sessions[i].ID == id {
			return &doc.Sessions[i]
		}
	}
	return nil
}

func messageKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
