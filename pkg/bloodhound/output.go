package bloodhound

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const domainsFile = "domains.json"

// OutputFilename builds "[<prefix>_][<timestamp>]domains.json".
func OutputFilename(prefix, timestamp string) string {
	if prefix != "" {
		return prefix + "_" + timestamp + domainsFile
	}
	return timestamp + domainsFile
}

// SinkError is returned when the output file cannot be opened.
type SinkError struct {
	Path string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("could not write file %s: %v", e.Path, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// Sink is an open output file.
type Sink struct {
	path string
	f    *os.File
}

// OpenSink creates or truncates path. On failure nothing is left open.
func OpenSink(path string) (*Sink, error) {
	f, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, &SinkError{Path: path, Err: err}
	}
	return &Sink{path: path, f: f}, nil
}

func (s *Sink) Path() string {
	return s.path
}

// WriteDomains serializes the envelope, one-space indented when indent is set.
func (s *Sink) WriteDomains(d *Domains, indent bool) error {
	enc := json.NewEncoder(s.f)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", " ")
	}
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}
	return nil
}

func (s *Sink) Close() error {
	if s == nil || s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
