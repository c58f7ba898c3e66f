package crawler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

// listingCandidates are tried in order under the base URL; the first
// body that parses as JSON wins.
var listingCandidates = []string{"api/all-files", "files.json", "list.json", "api/files", "/"}

// descriptorKeys are the object fields that can carry a file location.
var descriptorURLKeys = []string{"key", "url", "href", "path"}
var descriptorNameKeys = []string{"filename", "name"}

// GenericCrawler walks a JSON file listing under a base endpoint.
type GenericCrawler struct {
	log     *logger.Logger
	client  *http.Client
	baseURL string
}

func NewGenericCrawler(log *logger.Logger, baseURL string) *GenericCrawler {
	return &GenericCrawler{
		log:     log.With("crawler", "generic"),
		client:  &http.Client{Timeout: fetchTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *GenericCrawler) Discover(ctx context.Context) ([]Descriptor, error) {
	var lastErr error
	for _, candidate := range listingCandidates {
		listingURL := c.baseURL + "/" + strings.TrimPrefix(candidate, "/")
		if candidate == "/" {
			listingURL = c.baseURL + "/"
		}

		var parsed any
		err := fetchWithRetry(ctx, c.log, c.client, listingURL, "application/json", func(resp *http.Response) error {
			body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
			if err != nil {
				return apperr.Wrap(apperr.KindTransientUpstream, "read listing body", err)
			}
			if err := json.Unmarshal(body, &parsed); err != nil {
				return apperr.Wrap(apperr.KindPermanentUpstream, "listing is not JSON", err)
			}
			return nil
		})
		if err != nil {
			if apperr.IsKind(err, apperr.KindCancelled) {
				return nil, err
			}
			lastErr = err
			c.log.Debug("listing candidate failed", "url", listingURL, "error", err)
			continue
		}

		descriptors := c.extract(parsed)
		c.log.Info("listing discovered", "url", listingURL, "files", len(descriptors))
		return descriptors, nil
	}
	return nil, apperr.Wrap(apperr.KindTransientUpstream, "discovery failed: no listing candidate succeeded", lastErr)
}

// extract walks the parsed JSON collecting file descriptors from arrays
// and the conventional container fields.
func (c *GenericCrawler) extract(node any) []Descriptor {
	var out []Descriptor
	seen := map[string]struct{}{}
	c.walk(node, seen, &out)
	return out
}

func (c *GenericCrawler) walk(node any, seen map[string]struct{}, out *[]Descriptor) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			c.walk(item, seen, out)
		}
	case map[string]any:
		if d, ok := c.descriptorFromObject(v); ok {
			c.add(d, seen, out)
			return
		}
		for _, key := range []string{"files", "items", "data", "results"} {
			if child, ok := v[key]; ok {
				c.walk(child, seen, out)
			}
		}
	case string:
		if allowedFile(v) {
			c.add(c.descriptorFromString(v), seen, out)
		}
	}
}

func (c *GenericCrawler) add(d Descriptor, seen map[string]struct{}, out *[]Descriptor) {
	if d.URL == "" || !allowedFile(d.Filename) {
		return
	}
	if _, dup := seen[d.URL]; dup {
		return
	}
	seen[d.URL] = struct{}{}
	*out = append(*out, d)
}

func (c *GenericCrawler) descriptorFromString(s string) Descriptor {
	return Descriptor{
		URL:             c.resolve(s),
		Filename:        filenameFromURL(s),
		ContentTypeHint: hintFor(s),
	}
}

func (c *GenericCrawler) descriptorFromObject(obj map[string]any) (Descriptor, bool) {
	var location string
	for _, key := range descriptorURLKeys {
		if s, ok := obj[key].(string); ok && s != "" {
			location = s
			break
		}
	}
	if location == "" {
		return Descriptor{}, false
	}
	name := ""
	for _, key := range descriptorNameKeys {
		if s, ok := obj[key].(string); ok && s != "" {
			name = s
			break
		}
	}
	if name == "" {
		name = filenameFromURL(location)
	}
	section := ""
	if s, ok := obj["section"].(string); ok {
		section = s
	}
	return Descriptor{
		URL:             c.resolve(location),
		Filename:        name,
		ContentTypeHint: hintFor(name),
		SectionLabel:    section,
	}, true
}

// resolve makes relative listing entries absolute against the base URL.
func (c *GenericCrawler) resolve(location string) string {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return location
	}
	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	return base.ResolveReference(ref).String()
}

var _ Crawler = (*GenericCrawler)(nil)
