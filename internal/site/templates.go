package site

import (
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"shadowsite/internal/carousel"
	"shadowsite/internal/config"
	"shadowsite/internal/pathrender"
	"shadowsite/internal/thoughts"
)

// Data is what layouts and HTML pages are executed with.
type Data struct {
	Site     config.SiteConfig
	Page     PageData
	Content  template.HTML
	Thoughts []thoughts.Thought
	// Built is the build start time.
	Built time.Time
}

// PageData describes the page being rendered.
type PageData struct {
	Title  string
	URL    string
	Source string
	Layout string
	Params map[string]any
}

// templates holds the partials and every parsed layout.
type templates struct {
	base    *template.Template
	layouts map[string]*template.Template
}

func (b *Builder) funcs() template.FuncMap {
	loc := b.cfg.GetLocation()
	return template.FuncMap{
		"markdown": func(src string) (template.HTML, error) {
			return b.md.Render(src)
		},
		"formatDate": func(t time.Time) string {
			return carousel.FormatDate(t.In(loc))
		},
		"isoDate": func(t time.Time) string {
			return t.Format(time.RFC3339)
		},
		"pathImage": func(width int) string {
			return "/" + path.Join(filepath.ToSlash(b.cfg.PathImages.Dir), pathrender.FileName(width))
		},
	}
}

// loadTemplates parses partials from the includes directory and layouts
// from the layouts directory. Partials are named by their path relative to
// includes, layouts by their file name.
func (b *Builder) loadTemplates() (*templates, error) {
	base := template.New("").Funcs(b.funcs())
	includes := b.cfg.IncludesDir()
	layoutsDir := b.cfg.LayoutsDir()

	var layoutFiles []string
	err := filepath.WalkDir(includes, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == includes {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".html" {
			return nil
		}
		if within(layoutsDir, p) {
			layoutFiles = append(layoutFiles, p)
			return nil
		}
		rel, _ := filepath.Rel(includes, p)
		return parseInto(base, filepath.ToSlash(rel), p)
	})
	if err != nil {
		return nil, fmt.Errorf("partials: %w", err)
	}

	t := &templates{base: base, layouts: make(map[string]*template.Template)}
	for _, p := range layoutFiles {
		rel, _ := filepath.Rel(layoutsDir, p)
		name := filepath.ToSlash(rel)
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("layout %s: %w", name, err)
		}
		if err := parseInto(clone, name, p); err != nil {
			return nil, fmt.Errorf("layout %s: %w", name, err)
		}
		t.layouts[name] = clone.Lookup(name)
	}
	return t, nil
}

func parseInto(t *template.Template, name, file string) error {
	src, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if _, err := t.New(name).Parse(string(src)); err != nil {
		return err
	}
	return nil
}

// layout finds a layout by name, with or without its .html extension.
func (t *templates) layout(name string) (*template.Template, bool) {
	name = strings.TrimPrefix(path.Clean(filepath.ToSlash(name)), "layouts/")
	if l, ok := t.layouts[name]; ok {
		return l, true
	}
	l, ok := t.layouts[name+".html"]
	return l, ok
}

// page parses an HTML page body as a template with the partials in scope.
func (t *templates) page(p *Page) (*template.Template, error) {
	clone, err := t.base.Clone()
	if err != nil {
		return nil, err
	}
	return clone.New(p.Source).Parse(p.Body)
}

// within reports whether p is dir or below it.
func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
