package site

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"shadowsite/internal/carousel"
	"shadowsite/internal/dom/htmldom"
	"shadowsite/internal/scene"
)

// ContractError lists the widget elements missing from one page.
type ContractError struct {
	Page string
	Err  error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %v", e.Page, e.Err)
}

func (e *ContractError) Unwrap() error { return e.Err }

// postProcess rewrites external links and runs the widgets' element lookup
// over a rendered page. Pages that use a widget must carry all of its
// required elements; the widgets' initial state is written into the output.
func (b *Builder) postProcess(p *Page, rendered []byte) ([]byte, error) {
	doc, err := htmldom.Parse(bytes.NewReader(rendered), htmldom.DefaultViewport)
	if err != nil {
		return nil, err
	}
	changed := b.rewriteLinks(doc.Goquery())

	if b.cfg.Build.CheckContract {
		var errs []error
		if doc.Goquery().Find(scene.SelectorLogo).Length() > 0 {
			if _, err := scene.Resolve(doc); err != nil {
				errs = append(errs, err)
			}
		}
		if doc.Goquery().Find(carousel.SelectorContainer).Length() > 0 {
			if _, err := carousel.Mount(doc, carousel.WithLocation(b.cfg.GetLocation())); err != nil {
				errs = append(errs, err)
			} else {
				changed = true
			}
		}
		if err := errors.Join(errs...); err != nil {
			return nil, &ContractError{Page: p.Source, Err: err}
		}
	}

	if !changed {
		return rendered, nil
	}
	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rewriteLinks opens links to other hosts in a new tab. It reports whether
// anything changed.
func (b *Builder) rewriteLinks(doc *goquery.Document) bool {
	links := b.cfg.Links
	if !links.ExternalNewTab && links.Rel == "" {
		return false
	}
	own := siteHost(b.cfg.Site.BaseURL)

	changed := false
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !isExternal(href, own) {
			return
		}
		if links.ExternalNewTab {
			a.SetAttr("target", "_blank")
		}
		if links.Rel != "" {
			a.SetAttr("rel", mergeRel(a.AttrOr("rel", ""), links.Rel))
		}
		changed = true
	})
	return changed
}

func siteHost(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func isExternal(href, own string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host != "" && host != own
}

// mergeRel adds the tokens of extra missing from rel.
func mergeRel(rel, extra string) string {
	tokens := strings.Fields(rel)
	seen := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		seen[strings.ToLower(t)] = true
	}
	for _, t := range strings.Fields(extra) {
		if !seen[strings.ToLower(t)] {
			tokens = append(tokens, t)
			seen[strings.ToLower(t)] = true
		}
	}
	return strings.Join(tokens, " ")
}
