package conversation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	filePrefix = "convo_"
	fileSuffix = ".json"
	indent     = "    "
)

// validID admits router tokens (\w+) and generated UUIDs, which carry
// hyphens.
var validID = regexp.MustCompile(`^[\w-]+$`)

// Summary describes a stored conversation without its messages.
type Summary struct {
	ID           string
	Path         string
	Model        string
	MessageCount int
	Preview      string
	UpdatedAt    time.Time
}

// Store maps conversation IDs to JSON files in a single directory.
type Store struct {
	fs     afero.Fs
	dir    string
	model  string
	newID  func() string
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIDGenerator replaces the UUID generator used for new conversations.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) {
		s.newID = fn
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store rooted at dir. model is recorded in
// conversations created by Load.
func NewStore(fsys afero.Fs, dir, model string, opts ...StoreOption) *Store {
	s := &Store{
		fs:     fsys,
		dir:    dir,
		model:  model,
		newID:  func() string { return uuid.New().String() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "conversation_store")
	return s
}

// Dir returns the conversations directory.
func (s *Store) Dir() string {
	return s.dir
}

// NewID generates a fresh conversation ID.
func (s *Store) NewID() string {
	return s.newID()
}

// Path returns the file backing id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, filePrefix+id+fileSuffix)
}

// Lookup validates id and returns its file without touching the
// filesystem.
func (s *Store) Lookup(id string) (string, error) {
	if !validID.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return s.Path(id), nil
}

// Resolve maps id to its file, generating a new ID when id is empty. The
// conversations directory is created if missing.
func (s *Store) Resolve(id string) (path string, resolved string, err error) {
	if id == "" {
		id = s.newID()
	}
	path, err = s.Lookup(id)
	if err != nil {
		return "", "", err
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create conversations directory: %w", err)
	}
	return path, id, nil
}

// Load reads the conversation at path. A missing file yields an empty
// conversation; an unparsable one yields *CorruptStateError.
func (s *Store) Load(path string) (*Conversation, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("starting new conversation", "path", path)
			return New(s.model), nil
		}
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}

	var c Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &CorruptStateError{Path: path, Err: err}
	}
	s.logger.Debug("loaded conversation", "path", path, "messages", len(c.Messages))
	return &c, nil
}

// Save writes c to path, replacing prior content. The file is written to a
// temporary sibling and renamed so an interrupted write never truncates it.
func (s *Store) Save(path string, c *Conversation) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create conversations directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write conversation: %w", err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to replace conversation: %w", err)
	}
	s.logger.Debug("saved conversation", "path", path, "messages", len(c.Messages))
	return nil
}

// List summarizes every conversation in the directory, newest first.
// Unreadable files are logged and skipped.
func (s *Store) List() ([]Summary, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	var summaries []Summary
	for _, entry := range entries {
		id, ok := idFromFilename(entry.Name())
		if entry.IsDir() || !ok {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		c, err := s.Load(path)
		if err != nil {
			s.logger.Warn("skipping conversation", "path", path, "error", err)
			continue
		}
		summary := Summarize(id, path, c)
		if summary.UpdatedAt.IsZero() {
			summary.UpdatedAt = entry.ModTime()
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// Summarize builds a Summary for c.
func Summarize(id, path string, c *Conversation) Summary {
	summary := Summary{
		ID:           id,
		Path:         path,
		Model:        c.Model,
		MessageCount: len(c.Messages),
	}
	if last := c.Last(); last != nil {
		summary.UpdatedAt = last.Timestamp.Time
	}
	if history := c.UserHistory(); len(history) > 0 {
		summary.Preview = history[0]
	}
	return summary
}

// Encode renders c in the on-disk format: JSON indented by four spaces
// with a trailing newline.
func Encode(c *Conversation) ([]byte, error) {
	if c.Messages == nil {
		c.Messages = []*Message{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode conversation: %w", err)
	}
	return buf.Bytes(), nil
}

func idFromFilename(name string) (string, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	return id, validID.MatchString(id)
}
