package storage

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"xjsf/internal/models"

	"gopkg.in/yaml.v3"
)

// FileSource reads a roster document from disk. Files ending in .yaml or
// .yml are YAML; anything else is XML. Unknown elements, attributes and
// keys are logged and ignored.
type FileSource struct {
	path   string
	logger *slog.Logger
}

func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{path: path, logger: logger}
}

var (
	knownRosterElements = map[string][]string{
		"authentication": {"nameCookie", "passwordCookie"},
		"client":         {"name", "password", "minLimit", "hourLimit", "dayLimit"},
	}
	knownRosterKeys = map[string][]string{
		"authentication": {"name_cookie", "password_cookie"},
		"clients":        {"name", "password", "min_limit", "hour_limit", "day_limit"},
	}
)

func (s *FileSource) LoadRoster(context.Context) (*models.Roster, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRosterNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}

	var roster models.Roster
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		s.warnUnknownKeys(data)
		if err := yaml.Unmarshal(data, &roster); err != nil {
			return nil, fmt.Errorf("failed to parse YAML roster %s: %w", s.path, err)
		}
	default:
		s.warnUnknownElements(data)
		if err := xml.Unmarshal(data, &roster); err != nil {
			return nil, fmt.Errorf("failed to parse XML roster %s: %w", s.path, err)
		}
	}

	if err := roster.Validate(); err != nil {
		return nil, fmt.Errorf("invalid roster %s: %w", s.path, err)
	}
	return &roster, nil
}

func (s *FileSource) Close() error { return nil }

// warnUnknownElements scans the children of the root element. Parse errors
// are left for xml.Unmarshal to report.
func (s *FileSource) warnUnknownElements(data []byte) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth != 2 {
				continue
			}
			attrs, known := knownRosterElements[t.Name.Local]
			if !known {
				s.logger.Warn("Ignoring unknown roster element", "path", s.path, "element", t.Name.Local)
				continue
			}
			for _, a := range t.Attr {
				if !slices.Contains(attrs, a.Name.Local) {
					s.logger.Warn("Ignoring unknown roster attribute",
						"path", s.path, "element", t.Name.Local, "attribute", a.Name.Local)
				}
			}
		case xml.EndElement:
			depth--
		}
	}
}

func (s *FileSource) warnUnknownKeys(data []byte) {
	var top map[string]any
	if err := yaml.Unmarshal(data, &top); err != nil {
		return
	}
	for key, value := range top {
		fields, known := knownRosterKeys[key]
		if !known {
			s.logger.Warn("Ignoring unknown roster key", "path", s.path, "key", key)
			continue
		}
		var entries []any
		switch v := value.(type) {
		case map[string]any:
			entries = []any{v}
		case []any:
			entries = v
		}
		for _, e := range entries {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			for field := range m {
				if !slices.Contains(fields, field) {
					s.logger.Warn("Ignoring unknown roster key", "path", s.path, "key", key+"."+field)
				}
			}
		}
	}
}
