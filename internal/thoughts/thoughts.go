// Package thoughts loads the thoughts file: dated Markdown blocks separated
// by a line holding only "---".
package thoughts

import (
	"bufio"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// Separator is the line that separates blocks.
const Separator = "---"

// ErrInvalidDate is wrapped by errors for blocks whose first line is not a
// date.
var ErrInvalidDate = errors.New("invalid date")

// Thought is one dated entry.
type Thought struct {
	Date time.Time
	// Content is the Markdown source, trimmed.
	Content string
	// HTML is the rendered Content; empty until Render is called.
	HTML template.HTML
}

// dateLayouts are tried in order. Layouts without a zone are read in the
// caller's location, except a bare ISO date which is UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"January 2, 2006 3:04 PM",
	"January 2, 2006 at 3:04 PM",
	"January 2, 2006",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
}

// ParseDate parses a block's date line.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Parse reads thoughts in the local time zone.
func Parse(r io.Reader) ([]Thought, error) {
	return ParseIn(r, time.Local)
}

// ParseIn reads thoughts from r, newest first. Blocks with equal dates keep
// their file order. Empty blocks are skipped.
func ParseIn(r io.Reader, loc *time.Location) ([]Thought, error) {
	blocks, err := splitBlocks(r)
	if err != nil {
		return nil, err
	}

	out := make([]Thought, 0, len(blocks))
	for i, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		dateLine, content, _ := strings.Cut(block, "\n")
		date, err := ParseDate(dateLine, loc)
		if err != nil {
			return nil, fmt.Errorf("thoughts: block %d: %w", i+1, err)
		}
		out = append(out, Thought{Date: date, Content: strings.TrimSpace(content)})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func splitBlocks(r io.Reader) ([]string, error) {
	var (
		blocks []string
		cur    strings.Builder
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimRight(line, " \t") == Separator {
			blocks = append(blocks, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("thoughts: read: %w", err)
	}
	return append(blocks, cur.String()), nil
}

// Load reads the thoughts file at path.
func Load(path string, loc *time.Location) ([]Thought, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("thoughts: %w", err)
	}
	defer f.Close()

	ts, err := ParseIn(f, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ts, nil
}

// Render fills in HTML for every thought.
func Render(ts []Thought, render func(string) (template.HTML, error)) error {
	for i := range ts {
		html, err := render(ts[i].Content)
		if err != nil {
			return fmt.Errorf("thoughts: render %s: %w", ts[i].Date.Format(time.DateOnly), err)
		}
		ts[i].HTML = html
	}
	return nil
}
