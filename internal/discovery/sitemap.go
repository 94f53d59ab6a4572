package discovery

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/hamed0406/sitemonitor/internal/domain"
)

// maxFeedBytes caps a single sitemap document.
const maxFeedBytes = 10 << 20

// Result is one discovery pass. URLs is deduplicated and sorted; Errs holds
// every feed that contributed nothing because it failed.
type Result struct {
	URLs []string
	Errs error
}

// Discoverer produces the current candidate URL set.
type Discoverer interface {
	Discover(ctx context.Context) Result
}

// Sitemaps fetches each feed independently. A feed rooted at <sitemapindex>
// is expanded one level.
type Sitemaps struct {
	Feeds     []string
	Client    *http.Client
	UserAgent string
	Logger    *zap.Logger
}

func NewSitemaps(feeds []string, timeout time.Duration, userAgent string, logger *zap.Logger) *Sitemaps {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sitemaps{
		Feeds:     feeds,
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		Logger:    logger,
	}
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

type sitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

func (s *Sitemaps) Discover(ctx context.Context) Result {
	seen := make(map[string]struct{})
	var errs error

	for _, feed := range s.Feeds {
		locs, children, err := s.fetch(ctx, feed)
		if err != nil {
			s.Logger.Warn("feed_error", zap.String("feed", feed), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("feed %s: %w", feed, err))
			continue
		}
		for _, child := range children {
			childLocs, _, err := s.fetch(ctx, child)
			if err != nil {
				s.Logger.Warn("feed_error", zap.String("feed", child), zap.String("index", feed), zap.Error(err))
				errs = multierr.Append(errs, fmt.Errorf("feed %s: %w", child, err))
				continue
			}
			locs = append(locs, childLocs...)
		}
		s.Logger.Info("feed_fetched", zap.String("feed", feed), zap.Int("urls", len(locs)))
		for _, u := range locs {
			seen[u] = struct{}{}
		}
	}

	return Result{URLs: sortedKeys(seen), Errs: errs}
}

// fetch returns the page locations of a urlset, or the child sitemap
// locations of a sitemapindex.
func (s *Sitemaps) fetch(ctx context.Context, feed string) (locs, children []string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed, nil)
	if err != nil {
		return nil, nil, err
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read body: %w", err)
	}
	return parse(body)
}

func parse(body []byte) (locs, children []string, err error) {
	root, err := rootElement(body)
	if err != nil {
		return nil, nil, err
	}
	switch root {
	case "urlset":
		var us urlSet
		if err := decode(body, &us); err != nil {
			return nil, nil, err
		}
		for _, u := range us.URLs {
			if loc := strings.TrimSpace(u.Loc); loc != "" {
				locs = append(locs, loc)
			}
		}
		return locs, nil, nil
	case "sitemapindex":
		var idx sitemapIndex
		if err := decode(body, &idx); err != nil {
			return nil, nil, err
		}
		for _, sm := range idx.Sitemaps {
			if loc := strings.TrimSpace(sm.Loc); loc != "" {
				children = append(children, loc)
			}
		}
		return nil, children, nil
	default:
		return nil, nil, fmt.Errorf("unexpected root element <%s>", root)
	}
}

func newDecoder(body []byte) *xml.Decoder {
	d := xml.NewDecoder(strings.NewReader(string(body)))
	d.CharsetReader = charset.NewReaderLabel
	return d
}

func decode(body []byte, v any) error {
	if err := newDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("parse xml: %w", err)
	}
	return nil
}

func rootElement(body []byte) (string, error) {
	d := newDecoder(body)
	for {
		tok, err := d.Token()
		if err != nil {
			return "", fmt.Errorf("parse xml: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

// Merge returns the checked set: everything discovered plus every URL the
// database already tracks, deduplicated and sorted.
func Merge(found []string, db domain.Database) []string {
	seen := make(map[string]struct{}, len(found)+len(db))
	for _, u := range found {
		seen[u] = struct{}{}
	}
	for u := range db {
		seen[u] = struct{}{}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
