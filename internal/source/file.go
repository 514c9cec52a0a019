package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rolodex-dev/rolodex/internal/contacts"
)

// ErrUnsupportedFormat is returned for export files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported contact export format")

// FileOptions configures a FileSource.
type FileOptions struct {
	// Path is the export file (.json, .jsonl, .yaml or .yml).
	Path string

	// Consent is true when the user has already allowed access.
	Consent bool

	// Prompter asks for consent. Without one, RequestPermission denies.
	Prompter Prompter

	// OnConsent persists a positive answer.
	OnConsent func() error

	Logger *log.Logger
}

// FileSource reads contacts from an address-book export file.
type FileSource struct {
	path      string
	prompter  Prompter
	onConsent func() error
	logger    *log.Logger

	mu      sync.Mutex
	consent bool
	cache   []contacts.Contact
}

// NewFileSource creates a FileSource.
func NewFileSource(opts FileOptions) *FileSource {
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr, "[source] ", log.LstdFlags)
	}
	return &FileSource{
		path:      opts.Path,
		consent:   opts.Consent,
		prompter:  opts.Prompter,
		onConsent: opts.OnConsent,
		logger:    opts.Logger,
	}
}

// Path returns the export file path.
func (s *FileSource) Path() string {
	return s.path
}

// Permission reports Denied when the file exists but cannot be opened,
// Undetermined until consent is recorded, and Granted otherwise.
func (s *FileSource) Permission(ctx context.Context) (Permission, error) {
	f, err := os.Open(s.path)
	switch {
	case err == nil:
		_ = f.Close()
	case errors.Is(err, fs.ErrPermission):
		return Denied, nil
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Undetermined, fmt.Errorf("failed to check %s: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.consent {
		return Undetermined, nil
	}
	return Granted, nil
}

// RequestPermission prompts for consent and records a positive answer.
func (s *FileSource) RequestPermission(ctx context.Context) (Permission, error) {
	perm, err := s.Permission(ctx)
	if err != nil || perm != Undetermined {
		return perm, err
	}
	if s.prompter == nil {
		return Denied, nil
	}

	question := fmt.Sprintf("Read contacts from %s and send names, companies and job titles to the tagging service?", s.path)
	ok, err := s.prompter.Confirm(ctx, question)
	if err != nil {
		return Undetermined, fmt.Errorf("failed to ask for consent: %w", err)
	}
	if !ok {
		return Denied, nil
	}

	if s.onConsent != nil {
		if err := s.onConsent(); err != nil {
			s.logger.Printf("WARNING: failed to persist consent: %v", err)
		}
	}
	s.mu.Lock()
	s.consent = true
	s.mu.Unlock()
	return Granted, nil
}

// Read returns one page. Offset zero re-reads the file; later pages are served
// from that read so a pass sees one consistent snapshot.
func (s *FileSource) Read(ctx context.Context, offset, limit int) ([]contacts.Contact, error) {
	if offset < 0 || limit <= 0 {
		return nil, fmt.Errorf("invalid page offset=%d limit=%d", offset, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if offset == 0 || s.cache == nil {
		all, err := s.load()
		if err != nil {
			return nil, err
		}
		s.cache = all
	}

	if offset >= len(s.cache) {
		return []contacts.Contact{}, nil
	}
	end := offset + limit
	if end > len(s.cache) {
		end = len(s.cache)
	}
	page := make([]contacts.Contact, end-offset)
	copy(page, s.cache[offset:end])
	return page, nil
}

func (s *FileSource) load() ([]contacts.Contact, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []contacts.Contact{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	list, err := Decode(filepath.Ext(s.path), data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}

	kept := make([]contacts.Contact, 0, len(list))
	for i, c := range list {
		if err := c.Validate(); err != nil {
			s.logger.Printf("WARNING: skipping record %d: %v", i+1, err)
			continue
		}
		kept = append(kept, c)
	}
	return kept, nil
}

// Decode parses an export by file extension. JSON and YAML accept either a
// bare list or an object with a "contacts" list; JSONL holds one contact per
// line.
func Decode(ext string, data []byte) ([]contacts.Contact, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []contacts.Contact{}, nil
	}

	switch strings.ToLower(ext) {
	case ".json":
		return decodeJSON(data)
	case ".jsonl", ".ndjson":
		return decodeJSONL(data)
	case ".yaml", ".yml":
		return decodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func decodeJSON(data []byte) ([]contacts.Contact, error) {
	trimmed := bytes.TrimSpace(data)
	if trimmed[0] == '[' {
		var list []contacts.Contact
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var doc struct {
		Contacts []contacts.Contact `json:"contacts"`
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	if doc.Contacts == nil {
		return []contacts.Contact{}, nil
	}
	return doc.Contacts, nil
}

func decodeJSONL(data []byte) ([]contacts.Contact, error) {
	var list []contacts.Contact
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var c contacts.Contact
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		list = append(list, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func decodeYAML(data []byte) ([]contacts.Contact, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return []contacts.Contact{}, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var list []contacts.Contact
		if err := root.Decode(&list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var doc struct {
		Contacts []contacts.Contact `yaml:"contacts"`
	}
	if err := root.Decode(&doc); err != nil {
		return nil, err
	}
	if doc.Contacts == nil {
		return []contacts.Contact{}, nil
	}
	return doc.Contacts, nil
}
