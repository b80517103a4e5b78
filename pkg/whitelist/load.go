package whitelist

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ecerrors "github.com/provide-io/ec3000/go/ec3000/pkg/errors"
)

// Format selects how a whitelist file is decoded.
type Format int

const (
	FormatText Format = iota // one ID per line, optional // or # label
	FormatJSON               // array, or {"whitelist": [...]}
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("%w: %q", ecerrors.ErrUnsupportedFormat, name)
	}
}

// FormatFromPath picks JSON for .json files and text for everything else.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatText
}

// LoadOptions controls whitelist loading.
type LoadOptions struct {
	// Strict rejects identifiers that are not four uppercase hex characters.
	Strict bool
}

// LoadFile reads a whitelist from path, choosing the format by extension.
func LoadFile(path string, opts LoadOptions) (*Whitelist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open whitelist: %w", err)
	}
	defer f.Close()

	wl, err := Parse(f, FormatFromPath(path), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wl, nil
}

// Parse decodes a whitelist from r. Blank identifiers are skipped.
func Parse(r io.Reader, format Format, opts LoadOptions) (*Whitelist, error) {
	var parsed []sourcedEntry
	var err error

	switch format {
	case FormatText:
		parsed, err = parseText(r)
	case FormatJSON:
		parsed, err = parseJSON(r)
	default:
		return nil, fmt.Errorf("%w: %s", ecerrors.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(parsed))
	for i, p := range parsed {
		if opts.Strict && !ValidIdentifier(p.ID) {
			return nil, fmt.Errorf("%s: %w: %q", p.source, ecerrors.ErrInvalidIdentifier, p.ID)
		}
		entries[i] = p.Entry
	}

	return NewFromEntries(entries), nil
}

// sourcedEntry remembers where an entry came from, e.g. "line 7" for text
// files or "entry 2" for JSON arrays.
type sourcedEntry struct {
	Entry
	source string
}

func parseText(r io.Reader) ([]sourcedEntry, error) {
	var entries []sourcedEntry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		e, ok, err := parseTextLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if ok {
			entries = append(entries, sourcedEntry{Entry: e, source: fmt.Sprintf("line %d", lineNo)})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read whitelist: %w", err)
	}
	return entries, nil
}

// parseTextLine accepts both plain lines ("7821 # 3D printer") and C array
// rows ("\"7821\",  // 3D printer"). ok is false for blank and comment-only
// lines.
func parseTextLine(line string) (Entry, bool, error) {
	body, label := splitComment(line)

	body = strings.TrimSpace(body)
	body = strings.TrimSpace(strings.TrimSuffix(body, ","))
	if body == "" {
		return Entry{}, false, nil
	}

	if strings.HasPrefix(body, `"`) {
		if len(body) < 2 || !strings.HasSuffix(body, `"`) {
			return Entry{}, false, fmt.Errorf("%w: unterminated quote in %q", ecerrors.ErrMalformedEntry, body)
		}
		body = body[1 : len(body)-1]
		if strings.Contains(body, `"`) {
			return Entry{}, false, fmt.Errorf("%w: adjacent literals in %q", ecerrors.ErrMalformedEntry, line)
		}
	} else if strings.ContainsAny(body, " \t,") {
		return Entry{}, false, fmt.Errorf("%w: more than one identifier in %q", ecerrors.ErrMalformedEntry, line)
	}

	if body == "" {
		return Entry{}, false, nil
	}
	return Entry{ID: body, Label: strings.TrimSpace(label)}, true, nil
}

func splitComment(line string) (body, comment string) {
	cut := -1
	if i := strings.Index(line, "//"); i >= 0 {
		cut = i
	}
	if i := strings.Index(line, "#"); i >= 0 && (cut < 0 || i < cut) {
		cut = i
	}
	if cut < 0 {
		return line, ""
	}
	comment = strings.TrimLeft(line[cut:], "/#")
	return line[:cut], comment
}

// UnmarshalJSON accepts either a bare string or an {"id", "label"} object.
func (e *Entry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*e = Entry{ID: id}
		return nil
	}

	type plain Entry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: %v", ecerrors.ErrMalformedEntry, err)
	}
	*e = Entry(p)
	return nil
}

type whitelistDocument struct {
	Whitelist []Entry `json:"whitelist"`
}

func parseJSON(r io.Reader) ([]sourcedEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read whitelist: %w", err)
	}

	var raw []Entry
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var doc whitelistDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse whitelist: %w", err)
		}
		raw = doc.Whitelist
	} else {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse whitelist: %w", err)
		}
	}

	var entries []sourcedEntry
	for i, e := range raw {
		if e.ID == "" {
			continue
		}
		entries = append(entries, sourcedEntry{Entry: e, source: fmt.Sprintf("entry %d", i+1)})
	}
	return entries, nil
}
