package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/sitemonitor/internal/domain"
)

const productsXML = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://shop.example/products/tea</loc></url>
  <url><loc> https://shop.example/products/cup </loc></url>
  <url><loc></loc></url>
</urlset>`

const pagesXML = `<?xml version="1.0" encoding="ISO-8859-1"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://shop.example/pages/about</loc></url>
  <url><loc>https://shop.example/products/tea</loc></url>
</urlset>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/products.xml", func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("User-Agent"), "Mozilla") {
			http.Error(w, "bots not welcome", http.StatusForbidden)
			return
		}
		w.Write([]byte(productsXML))
	})
	mux.HandleFunc("/pages.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pagesXML))
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<urlset><url><loc>oops"))
	})
	mux.HandleFunc("/html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>hi</body></html>"))
	})
	mux.HandleFunc("/gone.xml", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	return httptest.NewServer(mux)
}

func TestSitemaps_DeduplicatesAcrossFeeds(t *testing.T) {
	ts := newFeedServer(t)
	defer ts.Close()

	s := NewSitemaps([]string{ts.URL + "/products.xml", ts.URL + "/pages.xml"}, 2*time.Second, "Mozilla/5.0 test", zap.NewNop())
	res := s.Discover(context.Background())
	if res.Errs != nil {
		t.Fatalf("unexpected errors: %v", res.Errs)
	}
	want := []string{
		"https://shop.example/pages/about",
		"https://shop.example/products/cup",
		"https://shop.example/products/tea",
	}
	if strings.Join(res.URLs, ",") != strings.Join(want, ",") {
		t.Fatalf("want %v, got %v", want, res.URLs)
	}
}

func TestSitemaps_FailingFeedsAreIsolated(t *testing.T) {
	ts := newFeedServer(t)
	defer ts.Close()

	feeds := []string{
		ts.URL + "/broken.xml",
		ts.URL + "/gone.xml",
		ts.URL + "/html",
		"http://127.0.0.1:1/unreachable.xml",
		ts.URL + "/pages.xml",
	}
	s := NewSitemaps(feeds, 2*time.Second, "Mozilla/5.0 test", nil)
	res := s.Discover(context.Background())

	if n := len(multierr.Errors(res.Errs)); n != 4 {
		t.Fatalf("want 4 feed errors, got %d: %v", n, res.Errs)
	}
	if len(res.URLs) != 2 {
		t.Fatalf("healthy feed should still contribute, got %v", res.URLs)
	}
}

func TestSitemaps_ExpandsIndex(t *testing.T) {
	var ts *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>` + ts.URL + `/products.xml</loc></sitemap>
  <sitemap><loc>` + ts.URL + `/missing.xml</loc></sitemap>
</sitemapindex>`))
	})
	mux.HandleFunc("/products.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productsXML))
	})
	ts = httptest.NewServer(mux)
	defer ts.Close()

	res := NewSitemaps([]string{ts.URL + "/sitemap.xml"}, 2*time.Second, "Mozilla/5.0", nil).Discover(context.Background())
	if len(res.URLs) != 2 {
		t.Fatalf("want 2 urls from child sitemap, got %v", res.URLs)
	}
	if len(multierr.Errors(res.Errs)) != 1 {
		t.Fatalf("want the missing child reported, got %v", res.Errs)
	}
}

func TestMerge_KeepsPreviouslyKnownURLs(t *testing.T) {
	db := domain.NewDatabase()
	db.Append("https://shop.example/products/retired", domain.ProbeOutcome{StatusCode: 200})
	db.Append("https://shop.example/products/tea", domain.ProbeOutcome{StatusCode: 200})

	got := Merge([]string{"https://shop.example/products/tea", "https://shop.example/pages/new"}, db)
	want := "https://shop.example/pages/new,https://shop.example/products/retired,https://shop.example/products/tea"
	if strings.Join(got, ",") != want {
		t.Fatalf("want %s, got %v", want, got)
	}
}
