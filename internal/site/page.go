package site

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the optional YAML header of a page.
type FrontMatter struct {
	Layout    string `yaml:"layout"`
	Title     string `yaml:"title"`
	Permalink string `yaml:"permalink"`
	Draft     bool   `yaml:"draft"`

	// Params holds every other key, exposed to templates as .Page.Params.
	Params map[string]any `yaml:",inline"`
}

// Page is one source file and where it renders to.
type Page struct {
	// Source is relative to the input directory, slash separated.
	Source string
	// Output is relative to the output directory, slash separated.
	Output string
	// URL is the site path the page is served at.
	URL string

	FrontMatter FrontMatter
	// Body is the source with the front matter removed.
	Body string
}

// IsMarkdown reports whether the body is Markdown.
func (p *Page) IsMarkdown() bool {
	return strings.EqualFold(path.Ext(p.Source), ".md")
}

var fence = []byte("---")

// splitFrontMatter separates a leading "---" fenced YAML block from the
// body. Files without one are all body.
func splitFrontMatter(src []byte) (FrontMatter, string, error) {
	var fm FrontMatter
	src = bytes.TrimPrefix(src, []byte("\ufeff"))

	firstLine, rest, ok := bytes.Cut(src, []byte("\n"))
	if !ok || !bytes.Equal(bytes.TrimSpace(firstLine), fence) {
		return fm, string(src), nil
	}

	var header []byte
	for len(rest) > 0 {
		var line []byte
		line, rest, _ = bytes.Cut(rest, []byte("\n"))
		if bytes.Equal(bytes.TrimSpace(line), fence) {
			if err := yaml.Unmarshal(header, &fm); err != nil {
				return fm, "", fmt.Errorf("front matter: %w", err)
			}
			return fm, string(rest), nil
		}
		header = append(header, line...)
		header = append(header, '\n')
	}
	return fm, "", fmt.Errorf("front matter: missing closing %q", fence)
}

// outputPath maps a source path to its output: index pages keep their
// directory, other pages get one of their own.
//
//	index.md      -> index.html
//	about.md      -> about/index.html
//	notes/todo.md -> notes/todo/index.html
func outputPath(source string) string {
	dir, file := path.Split(source)
	name := strings.TrimSuffix(file, path.Ext(file))
	if name == "index" {
		return path.Join(dir, "index.html")
	}
	return path.Join(dir, name, "index.html")
}

// permalinkPath maps a permalink to an output path. A trailing slash or a
// missing extension means a directory index.
func permalinkPath(permalink string) (string, error) {
	p := strings.TrimPrefix(path.Clean("/"+permalink), "/")
	if p == "" {
		return "index.html", nil
	}
	if strings.HasPrefix(p, "..") {
		return "", fmt.Errorf("permalink %q leaves the output directory", permalink)
	}
	if strings.HasSuffix(permalink, "/") || path.Ext(p) == "" {
		return path.Join(p, "index.html"), nil
	}
	return p, nil
}

// urlFor is the site path an output file is served at.
func urlFor(output string) string {
	if output == "index.html" {
		return "/"
	}
	if strings.HasSuffix(output, "/index.html") {
		return "/" + strings.TrimSuffix(output, "index.html")
	}
	return "/" + output
}

// newPage parses one source file. rel is relative to the input directory.
func newPage(rel string, src []byte) (*Page, error) {
	fm, body, err := splitFrontMatter(src)
	if err != nil {
		return nil, err
	}
	source := filepath.ToSlash(rel)
	out := outputPath(source)
	if fm.Permalink != "" {
		if out, err = permalinkPath(fm.Permalink); err != nil {
			return nil, err
		}
	}
	return &Page{
		Source:      source,
		Output:      out,
		URL:         urlFor(out),
		FrontMatter: fm,
		Body:        body,
	}, nil
}
