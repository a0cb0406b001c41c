package scraper

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"plugindiff/models"
)

type pageServer struct {
	srv   *httptest.Server
	mu    sync.Mutex
	paths []string
	pages map[string]string
	fail  map[string]int
}

// newPageServer serves the given path to HTML body map, answering 404
// for unknown paths and the configured status for paths in fail.
func newPageServer(t *testing.T, pages map[string]string, fail map[string]int) *pageServer {
	t.Helper()
	ps := &pageServer{pages: pages, fail: fail}
	ps.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.paths = append(ps.paths, r.URL.Path)
		ps.mu.Unlock()

		if code, ok := ps.fail[r.URL.Path]; ok {
			w.WriteHeader(code)
			return
		}
		body, ok := ps.pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, body)
	}))
	t.Cleanup(ps.srv.Close)
	return ps
}

func (ps *pageServer) requested() []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	out := make([]string, len(ps.paths))
	copy(out, ps.paths)
	return out
}

func articleHTML(title, href string) string {
	return fmt.Sprintf(`<article class="post"><h2 class="entry-title"><a href=%q>%s</a></h2></article>`, href, title)
}

func listingPage(articles ...string) string {
	page := "<html><body>"
	for _, a := range articles {
		page += a
	}
	return page + "</body></html>"
}

func classicConfig(baseURL string) models.SourceConfig {
	return models.SourceConfig{
		Name:         "testsource",
		BaseURL:      baseURL,
		CategoryPath: "/plugins/",
		Strategy:     models.StrategyClassic,
	}
}

func TestPageURL(t *testing.T) {
	cfg := models.SourceConfig{BaseURL: "https://weadown.com", CategoryPath: "/wordpress-plugins/"}

	if got := pageURL(cfg, 1); got != "https://weadown.com/wordpress-plugins/" {
		t.Errorf("pageURL(1) = %q", got)
	}
	if got := pageURL(cfg, 2); got != "https://weadown.com/wordpress-plugins/page/2/" {
		t.Errorf("pageURL(2) = %q", got)
	}

	bare := models.SourceConfig{BaseURL: "https://plugins-wp.online", CategoryPath: "plugins-wordpress"}
	if got := pageURL(bare, 3); got != "https://plugins-wp.online/plugins-wordpress/page/3/" {
		t.Errorf("pageURL(3) = %q", got)
	}
}

func TestAbsolutize(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"https://x.example", "/a/b", "https://x.example/a/b"},
		{"https://x.example/", "a/b", "https://x.example/a/b"},
		{"https://x.example", "https://other.example/c", "https://other.example/c"},
		{"https://x.example", "", ""},
	}
	for _, tt := range tests {
		if got := absolutize(tt.base, tt.href); got != tt.want {
			t.Errorf("absolutize(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}

func TestClassicCrawlPaginates(t *testing.T) {
	ps := newPageServer(t, map[string]string{
		"/plugins/":        listingPage(articleHTML("Akismet 5.3", "/akismet"), articleHTML("Jetpack 13.0", "/jetpack")),
		"/plugins/page/2/": listingPage(articleHTML("Wordfence 7.11", "/wordfence")),
	}, nil)

	cat, err := New(classicConfig(ps.srv.URL), Options{}, nil).FetchCatalog(5)
	if err != nil {
		t.Fatalf("FetchCatalog() error = %v", err)
	}
	want := []string{"akismet", "jetpack", "wordfence"}
	got := cat.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	// page 3 was tried, answered not found, and ended the crawl.
	paths := ps.requested()
	if len(paths) != 3 || paths[2] != "/plugins/page/3/" {
		t.Errorf("requested paths = %v, want 3 ending in /plugins/page/3/", paths)
	}

	rec, _ := cat.Get("akismet")
	if rec.URL != ps.srv.URL+"/akismet" {
		t.Errorf("akismet url = %q, want %q", rec.URL, ps.srv.URL+"/akismet")
	}
}

func TestClassicStopsWhenPageRepeats(t *testing.T) {
	same := listingPage(articleHTML("Akismet 5.3", "/akismet"), articleHTML("Jetpack 13.0", "/jetpack"))
	ps := newPageServer(t, map[string]string{
		"/plugins/":        same,
		"/plugins/page/2/": same,
		"/plugins/page/3/": same,
		"/plugins/page/4/": same,
		"/plugins/page/5/": same,
	}, nil)

	cat, err := New(classicConfig(ps.srv.URL), Options{}, nil).FetchCatalog(5)
	if err != nil {
		t.Fatalf("FetchCatalog() error = %v", err)
	}
	if cat.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cat.Len())
	}
	if paths := ps.requested(); len(paths) != 2 {
		t.Errorf("requested %d pages, want 2 (stop once a page adds nothing)", len(paths))
	}
}

func TestClassicFirstPageNotFound(t *testing.T) {
	ps := newPageServer(t, map[string]string{}, nil)

	cat, err := New(classicConfig(ps.srv.URL), Options{}, nil).FetchCatalog(5)
	if err != nil {
		t.Fatalf("FetchCatalog() error = %v, want nil for a 404 first page", err)
	}
	if cat.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cat.Len())
	}
}

func TestClassicFirstPageTransportFailure(t *testing.T) {
	ps := newPageServer(t, nil, map[string]int{"/plugins/": http.StatusInternalServerError})

	cat, err := New(classicConfig(ps.srv.URL), Options{}, nil).FetchCatalog(5)
	if err == nil {
		t.Fatal("FetchCatalog() error = nil, want failure for broken first page")
	}
	if cat == nil || cat.Len() != 0 {
		t.Errorf("catalog = %v, want empty non-nil", cat)
	}
}

func TestClassicLaterPageFailureKeepsPartial(t *testing.T) {
	ps := newPageServer(t,
		map[string]string{"/plugins/": listingPage(articleHTML("Akismet 5.3", "/akismet"))},
		map[string]int{"/plugins/page/2/": http.StatusInternalServerError},
	)

	cat, err := New(classicConfig(ps.srv.URL), Options{}, nil).FetchCatalog(5)
	if err != nil {
		t.Fatalf("FetchCatalog() error = %v, want nil with partial results", err)
	}
	if cat.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cat.Len())
	}
}

func loadMoreConfig(baseURL string) models.SourceConfig {
	return models.SourceConfig{
		Name:         "shopsource",
		BaseURL:      baseURL,
		CategoryPath: "/shop/",
		Strategy:     models.StrategyLoadMore,
		Selectors: models.SelectorConfig{
			Containers: []string{"li.product", "div[class*=product]"},
			Titles:     []string{"h2.woocommerce-loop-product__title", "h2, h3"},
			Links:      []string{"a.woocommerce-LoopProduct-link", "a[href]"},
		},
		LoadMore: models.LoadMoreConfig{
			URLTemplate: baseURL + "/ajax/%d",
		},
	}
}

func productHTML(title, href string) string {
	return fmt.Sprintf(`<li class="product"><h2 class="woocommerce-loop-product__title">%s</h2><a class="woocommerce-LoopProduct-link" href=%q>view</a></li>`, title, href)
}

func shopPage(withControl bool, products ...string) string {
	page := "<html><body><ul>"
	for _, p := range products {
		page += p
	}
	page += "</ul>"
	if withControl {
		page += `<div class="jet-listing-grid__load-more">Load more</div>`
	}
	return page + "</body></html>"
}

func TestLoadMoreDrivesBatches(t *testing.T) {
	firstBatch, _ := json.Marshal(map[string]string{"content": productHTML("Yoast SEO 21.7", "/yoast")})
	repeatBatch, _ := json.Marshal(map[string]string{"content": productHTML("Yoast SEO 21.7", "/yoast")})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shop/":
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, shopPage(true, productHTML("Akismet 5.3", "/akismet"), productHTML("Jetpack 13.0", "/jetpack")))
		case "/ajax/2":
			w.Header().Set("Content-Type", "application/json")
			w.Write(firstBatch)
		case "/ajax/3":
			w.Header().Set("Content-Type", "application/json")
			w.Write(repeatBatch)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cat, err := New(loadMoreConfig(srv.URL), Options{MaxLoads: 5}, nil).FetchCatalog(5)
	if err != nil {
		t.Fatalf("FetchCatalog() error = %v", err)
	}
	if cat.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (two from page 1, one from the batches)", cat.Len())
	}
	if _, ok := cat.Get("yoast seo"); !ok {
		t.Error("catalog missing yoast seo from the JSON batch")
	}
}

func TestLoadMoreAcceptsRawFragment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shop/":
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, shopPage(true, productHTML("Akismet 5.3", "/akismet")))
		case "/ajax/2":
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, productHTML("Wordfence 7.11", "/wordfence"))
		default:
			// transport failure ends loading
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	cat, err := New(loadMoreConfig(srv.URL), Options{MaxLoads: 5}, nil).FetchCatalog(5)
	if err != nil {
		t.Fatalf("FetchCatalog() error = %v", err)
	}
	if cat.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cat.Len())
	}
}

func TestLoadMoreFallsBackToPageProbing(t *testing.T) {
	ps := newPageServer(t, map[string]string{
		"/shop/":        shopPage(false, productHTML("Akismet 5.3", "/akismet"), productHTML("Jetpack 13.0", "/jetpack")),
		"/shop/page/2/": shopPage(false, productHTML("Wordfence 7.11", "/wordfence")),
	}, nil)

	cat, err := New(loadMoreConfig(ps.srv.URL), Options{MaxLoads: 5}, nil).FetchCatalog(5)
	if err != nil {
		t.Fatalf("FetchCatalog() error = %v", err)
	}
	if cat.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cat.Len())
	}

	sawProbe := false
	for _, p := range ps.requested() {
		if p == "/shop/page/2/" {
			sawProbe = true
		}
	}
	if !sawProbe {
		t.Errorf("requested paths = %v, want /shop/page/2/ probe", ps.requested())
	}
}

func TestUnwrapJSON(t *testing.T) {
	tests := []struct {
		body   string
		want   string
		wantOK bool
	}{
		{`{"content":"<p>x</p>"}`, "<p>x</p>", true},
		{`{"html":"<p>y</p>"}`, "<p>y</p>", true},
		{`{"data":{"html":"<p>z</p>"}}`, "<p>z</p>", true},
		{`{"success":true}`, "", false},
		{`not json at all`, "", false},
	}
	for _, tt := range tests {
		got, ok := unwrapJSON([]byte(tt.body))
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("unwrapJSON(%q) = (%q, %v), want (%q, %v)", tt.body, got, ok, tt.want, tt.wantOK)
		}
	}
}
