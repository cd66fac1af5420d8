// Package threads implements the thread store: an in-memory index of forum
// threads backed by one on-disk record per thread.
//
// The record format is line-oriented. The first line is the owner name;
// every following line is either a numbered message ("<index> <author>:
// <body>") or an upload audit line ("<user> uploaded <file>"). Message
// numbering is recomputed by rescanning the record on every post rather
// than trusting a cached counter, so records edited out-of-band still
// number correctly — at the cost of a full scan per post.
package threads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"forum/internal/common"
	"forum/internal/logging"
	"forum/internal/server/blob"
)

// Meta is the in-memory view of one thread. The message log itself lives
// only in the record file; Meta tracks what the store needs for readiness
// checks and ownership decisions.
type Meta struct {
	Owner string
	Files []string
}

// Store owns all thread and message state. A single exclusive lock covers
// both the index and the record files; coarse-grained by design, so a slow
// rescan on one thread stalls unrelated threads rather than corrupting
// either.
type Store struct {
	mu     sync.Mutex
	dir    string
	index  map[string]*Meta
	blobs  blob.Store
	logger logging.Logger
}

// NewStore scans dir for existing thread records and builds the index.
// Names containing '.' or '_' are never thread records; files named like
// an attachment of a known record ("<title>-...") are skipped too.
func NewStore(dir string, blobs blob.Store, logger logging.Logger) (*Store, error) {
	s := &Store{
		dir:    dir,
		index:  make(map[string]*Meta),
		blobs:  blobs,
		logger: logger.With("module", "threads"),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan data dir: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.ContainsAny(name, "._") {
			continue
		}
		candidates = append(candidates, name)
	}

	for _, name := range candidates {
		if isAttachmentOf(name, candidates) {
			continue
		}
		lines, err := readRecord(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("load thread %s: %w", name, err)
		}
		if len(lines) == 0 {
			continue
		}
		s.index[name] = &Meta{Owner: strings.TrimSpace(lines[0])}
	}

	return s, nil
}

// isAttachmentOf reports whether name looks like an attachment of another
// candidate record, i.e. "<other>-<anything>".
func isAttachmentOf(name string, candidates []string) bool {
	for _, other := range candidates {
		if other != name && strings.HasPrefix(name, other+"-") {
			return true
		}
	}
	return false
}

func (s *Store) path(title string) string {
	return filepath.Join(s.dir, title)
}

func validTitle(title string) bool {
	return title != "" && !strings.ContainsAny(title, " \t")
}

// Len reports the number of threads in the index.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// Create makes a new thread owned by owner and writes its record.
func (s *Store) Create(title, owner string) error {
	if !validTitle(title) {
		return common.ErrInvalidTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[title]; ok {
		return common.ErrAlreadyExists
	}
	if err := writeRecord(s.path(title), []string{owner}); err != nil {
		return fmt.Errorf("create thread %s: %w", title, err)
	}
	s.index[title] = &Meta{Owner: owner}
	return nil
}

// List returns all thread titles, sorted.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	titles := make([]string, 0, len(s.index))
	for title := range s.index {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// Post appends a message. The new index is the count of existing message
// lines in the record plus one, recomputed from the file.
func (s *Store) Post(title, author, body string) error {
	if !validTitle(title) {
		return common.ErrInvalidTitle
	}
	if body == "" {
		return common.ErrEmptyBody
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[title]; !ok {
		return common.ErrNotFound
	}

	lines, err := readRecord(s.path(title))
	if err != nil {
		return err
	}
	count := 0
	for i := 1; i < len(lines); i++ {
		if isMessageLine(lines[i]) {
			count++
		}
	}

	f, err := os.OpenFile(s.path(title), os.O_APPEND|os.O_WRONLY, 0o660)
	if err != nil {
		return fmt.Errorf("open record: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, renderMessage(count+1, author, body)); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Read returns the record content without the owner header. An empty
// string means the thread has no messages.
func (s *Store) Read(title string) (string, error) {
	if !validTitle(title) {
		return "", common.ErrInvalidTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[title]; !ok {
		return "", common.ErrNotFound
	}

	data, err := os.ReadFile(s.path(title))
	if err != nil {
		return "", fmt.Errorf("read record: %w", err)
	}
	_, content, _ := strings.Cut(string(data), "\n")
	return content, nil
}

// Edit replaces the body of the message with the given index. Authorship
// is checked against the rendered "<index> <author>: " prefix, so only the
// original author's exact name passes.
func (s *Store) Edit(title, editor string, index int, body string) error {
	if !validTitle(title) {
		return common.ErrInvalidTitle
	}
	if index < 1 {
		return common.ErrInvalidIndex
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[title]; !ok {
		return common.ErrNotFound
	}

	lines, err := readRecord(s.path(title))
	if err != nil {
		return err
	}
	pos := findMessage(lines, index)
	if pos < 0 {
		return common.ErrInvalidIndex
	}
	if !strings.HasPrefix(lines[pos], strconv.Itoa(index)+" "+editor+": ") {
		return common.ErrNotAuthor
	}

	lines[pos] = renderMessage(index, editor, body)
	return writeRecord(s.path(title), lines)
}

// Delete removes the message with the given index and renumbers the
// remaining messages so indices stay dense and contiguous.
func (s *Store) Delete(title, editor string, index int) error {
	if !validTitle(title) {
		return common.ErrInvalidTitle
	}
	if index < 1 {
		return common.ErrInvalidIndex
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[title]; !ok {
		return common.ErrNotFound
	}

	lines, err := readRecord(s.path(title))
	if err != nil {
		return err
	}
	pos := findMessage(lines, index)
	if pos < 0 {
		return common.ErrInvalidIndex
	}
	if !strings.HasPrefix(lines[pos], strconv.Itoa(index)+" "+editor+": ") {
		return common.ErrNotAuthor
	}

	lines = append(lines[:pos], lines[pos+1:]...)
	renumber(lines)
	return writeRecord(s.path(title), lines)
}

// Remove deletes the thread's attachments, then its record and index
// entry — but only when at least one attachment exists. With zero
// attachments the thread survives and nil is still returned; the reply
// string is the same either way. This reproduces the wire-compatible
// behavior of the protocol, quirk included.
func (s *Store) Remove(ctx context.Context, title, requester string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok := s.index[title]
	if !ok {
		return common.ErrNotFound
	}
	if meta.Owner != requester {
		return common.ErrNotOwner
	}

	names, err := s.blobs.ListPrefix(ctx, title+"-")
	if err != nil {
		return fmt.Errorf("list attachments: %w", err)
	}
	if len(names) == 0 {
		s.logger.Warn(ctx, "remove left thread in place, no attachments", "title", title)
		return nil
	}

	for _, name := range names {
		if err := s.blobs.Delete(ctx, name); err != nil {
			return fmt.Errorf("delete attachment %s: %w", name, err)
		}
	}
	if err := os.Remove(s.path(title)); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	delete(s.index, title)
	s.logger.Info(ctx, "thread removed", "title", title, "attachments", len(names))
	return nil
}

// Exists reports whether title is in the index.
func (s *Store) Exists(title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[title]
	return ok
}

// HasFile reports whether filename is registered on title.
func (s *Store) HasFile(title, filename string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok := s.index[title]
	if !ok {
		return false, common.ErrNotFound
	}
	for _, f := range meta.Files {
		if f == filename {
			return true, nil
		}
	}
	return false, nil
}

// RegisterFile records a completed upload: the filename joins the thread's
// file set and an audit line is appended to the record.
func (s *Store) RegisterFile(title, user, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok := s.index[title]
	if !ok {
		return common.ErrNotFound
	}

	f, err := os.OpenFile(s.path(title), os.O_APPEND|os.O_WRONLY, 0o660)
	if err != nil {
		return fmt.Errorf("open record: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s uploaded %s\n", user, filename); err != nil {
		return fmt.Errorf("append audit line: %w", err)
	}

	meta.Files = append(meta.Files, filename)
	return nil
}

// Owner returns the owner of title, or common.ErrNotFound.
func (s *Store) Owner(title string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok := s.index[title]
	if !ok {
		return "", common.ErrNotFound
	}
	return meta.Owner, nil
}
