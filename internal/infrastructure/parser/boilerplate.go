package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"PageDrift/internal/domain"
	"PageDrift/internal/ports"
)

// ErrMissingBody is returned for documents whose body is absent or empty.
// The HTML parser synthesizes a body for any input, so an empty capture and a
// truncated one without markup both land here and count as a failed attempt.
var ErrMissingBody = errors.New("document has no body")

// chromeSelectors are always stripped before counting.
var chromeSelectors = []string{"footer", "header", "nav", "script", "style"}

// DefaultSiteSelectors cover agency-specific chrome seen on tracked federal sites.
var DefaultSiteSelectors = []string{
	"div > #menuh",
	"div > #siteFooter",
	"div.primary-nav",
	"div > #nav-homepage-header",
	"div > #footer-two",
}

// Extractor strips page chrome with goquery and returns visible text or links.
type Extractor struct {
	selectors []string
}

var _ ports.BoilerplateExtractor = (*Extractor)(nil)

// NewExtractor wires site-specific selectors; nil means DefaultSiteSelectors.
func NewExtractor(siteSelectors []string) *Extractor {
	if siteSelectors == nil {
		siteSelectors = DefaultSiteSelectors
	}
	sel := make([]string, 0, len(chromeSelectors)+len(siteSelectors))
	sel = append(sel, chromeSelectors...)
	for _, s := range siteSelectors {
		if s = strings.TrimSpace(s); s != "" {
			sel = append(sel, s)
		}
	}
	return &Extractor{selectors: sel}
}

// Extract returns the stripped text nodes of the body in document order.
func (e *Extractor) Extract(raw []byte) ([]string, error) {
	body, err := parseBody(raw)
	if err != nil {
		return nil, err
	}

	for _, sel := range e.selectors {
		body.Find(sel).Remove()
	}

	return strippedStrings(body), nil
}

// ExtractLinks returns the href of every anchor in the body once scripts and
// styles are removed.
func (e *Extractor) ExtractLinks(raw []byte) (domain.PageLinks, error) {
	var links domain.PageLinks

	body, err := parseBody(raw)
	if err != nil {
		return links, err
	}
	body.Find("script, style").Remove()

	body.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			links.MissingHref++
			return
		}
		links.Hrefs = append(links.Hrefs, href)
	})

	return links, nil
}

func parseBody(raw []byte) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	// The HTML5 parser always synthesizes a body, so an empty one counts as missing.
	body := doc.Find("body").First()
	if body.Length() == 0 || strings.TrimSpace(body.Text()) == "" && body.Children().Length() == 0 {
		return nil, ErrMissingBody
	}
	return body, nil
}

func strippedStrings(sel *goquery.Selection) []string {
	var blocks []string
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if text := strings.TrimSpace(c.Text()); text != "" {
					blocks = append(blocks, text)
				}
				return
			}
			walk(c)
		})
	}
	walk(sel)
	return blocks
}
