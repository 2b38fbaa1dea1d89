package seed

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/leadscan/internal/validate"
)

// maxLineSize bounds a single line of a seed file.
const maxLineSize = 1024 * 1024

// ErrEmptyList is returned when no valid URL remains after parsing.
var ErrEmptyList = errors.New("no valid URLs to crawl")

// Rejected is an entry that is not a crawlable URL.
type Rejected struct {
	// Line is the 1-based line number, or the position among arguments.
	Line int
	// Value is the entry as written.
	Value string
}

// List is a parsed seed list.
type List struct {
	// URLs are normalized, unique and in input order.
	URLs []string
	// Rejected are entries that could not be turned into an http(s) URL.
	Rejected []Rejected
	// Duplicates counts entries dropped because they were already listed.
	Duplicates int

	seen map[string]struct{}
}

func newList() *List {
	return &List{URLs: make([]string, 0), seen: make(map[string]struct{})}
}

// add normalizes value and appends it unless it is invalid or a duplicate.
func (l *List) add(line int, value string) {
	value = strings.TrimSpace(value)
	if value == "" || strings.HasPrefix(value, "#") {
		return
	}

	normalized := validate.NormalizeURL(value)
	if !validate.IsValidURL(normalized) {
		l.Rejected = append(l.Rejected, Rejected{Line: line, Value: value})
		return
	}

	key := strings.TrimSuffix(strings.ToLower(normalized), "/")
	if _, ok := l.seen[key]; ok {
		l.Duplicates++
		return
	}
	l.seen[key] = struct{}{}
	l.URLs = append(l.URLs, normalized)
}

// Parse reads a seed list from r.
func Parse(r io.Reader) (*List, error) {
	list := newList()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		list.add(line, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seed list: %w", err)
	}
	return list, nil
}

// LoadFile reads a seed list from path.
func LoadFile(path string) (*List, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided seed file is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Collect merges command line arguments and an optional seed file, in
// that order. It returns ErrEmptyList when nothing crawlable remains.
func Collect(args []string, path string) (*List, error) {
	list := newList()
	for i, arg := range args {
		list.add(i+1, arg)
	}

	if path != "" {
		fromFile, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, u := range fromFile.URLs {
			list.add(0, u)
		}
		list.Rejected = append(list.Rejected, fromFile.Rejected...)
		list.Duplicates += fromFile.Duplicates
	}

	if len(list.URLs) == 0 {
		return list, ErrEmptyList
	}
	return list, nil
}
