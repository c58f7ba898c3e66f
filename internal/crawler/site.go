package crawler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

// SiteCrawler walks an HTML page section by section and emits a
// descriptor per anchor pointing at an ingestable file. Section
// headings (h1 through h5) label every anchor that follows them until
// the next heading; exclusion rules can veto a section or a link.
type SiteCrawler struct {
	log     *logger.Logger
	client  *http.Client
	rootURL string
	rules   *RuleSet
}

func NewSiteCrawler(log *logger.Logger, rootURL string, rules *RuleSet) *SiteCrawler {
	return &SiteCrawler{
		log:     log.With("crawler", "site"),
		client:  &http.Client{Timeout: fetchTimeout},
		rootURL: rootURL,
		rules:   rules,
	}
}

func (c *SiteCrawler) Discover(ctx context.Context) ([]Descriptor, error) {
	var doc *html.Node
	err := fetchWithRetry(ctx, c.log, c.client, c.rootURL, "text/html", func(resp *http.Response) error {
		parsed, err := html.Parse(resp.Body)
		if err != nil {
			return apperr.Wrap(apperr.KindPermanentUpstream, "parse site html", err)
		}
		doc = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}

	descriptors := c.collect(doc)
	excluded := 0
	for _, d := range descriptors {
		if d.ExcludeReason != "" {
			excluded++
		}
	}
	c.log.Info("site discovered", "url", c.rootURL, "files", len(descriptors), "excluded", excluded)
	return descriptors, nil
}

func (c *SiteCrawler) collect(doc *html.Node) []Descriptor {
	var out []Descriptor
	seen := map[string]struct{}{}
	section := ""

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3", "h4", "h5":
				section = strings.TrimSpace(nodeText(n))
			case "a":
				if d, ok := c.descriptorFromAnchor(n, section); ok {
					if _, dup := seen[d.URL]; !dup {
						seen[d.URL] = struct{}{}
						out = append(out, d)
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(doc)
	return out
}

func (c *SiteCrawler) descriptorFromAnchor(n *html.Node, section string) (Descriptor, bool) {
	href := ""
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = strings.TrimSpace(attr.Val)
			break
		}
	}
	if href == "" || !allowedFile(href) {
		return Descriptor{}, false
	}
	linkText := strings.TrimSpace(nodeText(n))
	return Descriptor{
		URL:             c.resolve(href),
		Filename:        filenameFromURL(href),
		ContentTypeHint: hintFor(href),
		SectionLabel:    section,
		ExcludeReason:   c.rules.ExcludeReason(section, linkText),
	}, true
}

func (c *SiteCrawler) resolve(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(c.rootURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(n)
	return b.String()
}

var _ Crawler = (*SiteCrawler)(nil)
