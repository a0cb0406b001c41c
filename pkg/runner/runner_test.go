package runner

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"plugindiff/models"
	"plugindiff/pkg/coordinator"
	"plugindiff/pkg/db"
	"plugindiff/pkg/notify"
)

type fakeNotifier struct {
	reports []notify.Report
	err     error
}

func (f *fakeNotifier) SendReport(rep notify.Report) error {
	f.reports = append(f.reports, rep)
	return f.err
}

type testRunner struct {
	r        *Runner
	store    *db.DB
	notifier *fakeNotifier
}

func newTestRunner(t *testing.T, cfg models.Config) *testRunner {
	t.Helper()

	store, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	coord := coordinator.New(2, nil)
	t.Cleanup(coord.Shutdown)

	notifier := &fakeNotifier{}
	return &testRunner{
		r:        New(cfg, coord, store, notifier, nil),
		store:    store,
		notifier: notifier,
	}
}

func listingHTML(titles ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i, title := range titles {
		fmt.Fprintf(&b, `<article class="post"><h2 class="entry-title"><a href="/item/%d">%s</a></h2></article>`, i+1, title)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func catalogServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plugins/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, html)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, refURL, candURL string) models.Config {
	t.Helper()
	cfg := models.DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.DelayMS = 0
	cfg.MaxPages = 2
	cfg.Sources = []models.SourceConfig{
		{Name: "ref", BaseURL: refURL, CategoryPath: "/plugins/"},
		{Name: "cand", BaseURL: candURL, CategoryPath: "/plugins/"},
	}
	cfg.Pairs = []models.PairConfig{{Kind: "plugins", Ref: "ref", Cand: "cand"}}
	return cfg
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestRunEndToEnd(t *testing.T) {
	ref := catalogServer(t, listingHTML("Akismet Pro 5.3", "Jetpack 12.8"))
	cand := catalogServer(t, listingHTML("Akismet 5.4"))
	cfg := testConfig(t, ref.URL, cand.URL)
	tr := newTestRunner(t, cfg)

	summary, err := tr.r.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Exact != 1 || summary.Similar != 0 || summary.Outdated != 1 || summary.Missing != 1 {
		t.Errorf("summary = %+v, want 1 exact, 0 similar, 1 outdated, 1 missing", summary)
	}
	if summary.Total() != 2 {
		t.Errorf("Total() = %d, want 2", summary.Total())
	}
	wantPair := PairSummary{Kind: "plugins", Exact: 1, Outdated: 1, Missing: 1}
	if len(summary.Pairs) != 1 || summary.Pairs[0] != wantPair {
		t.Errorf("Pairs = %+v, want [%+v]", summary.Pairs, wantPair)
	}
	if tr.r.IsRunning() {
		t.Error("IsRunning() = true after Run returned")
	}

	run, err := tr.store.GetRun(summary.RunID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.Status != db.StatusSuccess {
		t.Errorf("run status = %q, want %q", run.Status, db.StatusSuccess)
	}
	if run.ExactCount != 1 || run.OutdatedCount != 1 || run.MissingCount != 1 {
		t.Errorf("stored counts = %d/%d/%d/%d", run.ExactCount, run.SimilarCount, run.OutdatedCount, run.MissingCount)
	}

	matches, err := tr.store.GetRunMatches(summary.RunID)
	if err != nil {
		t.Fatalf("GetRunMatches() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("stored %d matches, want 2", len(matches))
	}
	if matches[0].RefName != "akismet" || matches[0].Classification != models.MatchExact || matches[0].Freshness != models.FreshnessOutdated {
		t.Errorf("matches[0] = %+v", matches[0])
	}
	if matches[1].RefName != "jetpack" || matches[1].Classification != models.MatchMissing {
		t.Errorf("matches[1] = %+v", matches[1])
	}

	missingCSV, err := os.ReadFile(filepath.Join(cfg.DataDir, "plugins_missing.csv"))
	if err != nil {
		t.Fatalf("missing report not written: %v", err)
	}
	if !strings.Contains(string(missingCSV), "jetpack") {
		t.Errorf("missing report lacks jetpack:\n%s", missingCSV)
	}
	outdatedCSV, err := os.ReadFile(filepath.Join(cfg.DataDir, "plugins_outdated.csv"))
	if err != nil {
		t.Fatalf("outdated report not written: %v", err)
	}
	if !strings.Contains(string(outdatedCSV), "akismet") {
		t.Errorf("outdated report lacks akismet:\n%s", outdatedCSV)
	}

	if len(tr.notifier.reports) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(tr.notifier.reports))
	}
	if got := tr.notifier.reports[0].Total(); got != 2 {
		t.Errorf("notification differences = %d, want 2", got)
	}
}

func TestRunCandidateCrawlFailureYieldsAllMissing(t *testing.T) {
	ref := catalogServer(t, listingHTML("Akismet Pro 5.3"))
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	tr := newTestRunner(t, testConfig(t, ref.URL, broken.URL))

	summary, err := tr.r.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Missing != 1 || summary.Exact != 0 || summary.Similar != 0 {
		t.Errorf("summary = %+v, want everything missing", summary)
	}

	run, err := tr.store.GetRun(summary.RunID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.Status != db.StatusSuccess {
		t.Errorf("run status = %q, want %q despite failed crawl", run.Status, db.StatusSuccess)
	}

	if len(tr.notifier.reports) != 1 || len(tr.notifier.reports[0].Missing) != 1 {
		t.Errorf("notifications = %+v, want one report with one missing entry", tr.notifier.reports)
	}
}

func TestRunWithoutDifferencesSkipsNotification(t *testing.T) {
	ref := catalogServer(t, listingHTML("Akismet 5.3"))
	cand := catalogServer(t, listingHTML("Akismet 5.3"))
	tr := newTestRunner(t, testConfig(t, ref.URL, cand.URL))

	summary, err := tr.r.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Exact != 1 || summary.Outdated != 0 || summary.Missing != 0 {
		t.Errorf("summary = %+v, want a single up-to-date exact match", summary)
	}
	if len(tr.notifier.reports) != 0 {
		t.Errorf("sent %d notifications, want 0", len(tr.notifier.reports))
	}
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	ref := catalogServer(t, listingHTML("Akismet 5.3"))
	tr := newTestRunner(t, testConfig(t, ref.URL, ref.URL))

	tr.r.running.Store(true)
	defer tr.r.running.Store(false)

	if _, err := tr.r.Run(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Run() error = %v, want ErrAlreadyRunning", err)
	}
	if tr.r.RunAsync() {
		t.Error("RunAsync() = true while a run is active")
	}
}

func TestRunWithoutPairs(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.DataDir = t.TempDir()
	tr := newTestRunner(t, cfg)

	if _, err := tr.r.Run(); err == nil {
		t.Fatal("Run() without pairs should fail")
	}

	runs, err := tr.store.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("recorded %d runs, want 0", len(runs))
	}
}

func TestStopDuringCrawlAbortsRun(t *testing.T) {
	release := make(chan struct{})
	reached := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case reached <- struct{}{}:
		default:
		}
		<-release
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})

	tr := newTestRunner(t, testConfig(t, srv.URL, srv.URL))

	if !tr.r.RunAsync() {
		t.Fatal("RunAsync() = false on idle runner")
	}
	<-reached

	if !tr.r.Stop() {
		t.Fatal("Stop() = false while run is active")
	}
	close(release)

	waitUntil(t, 5*time.Second, func() bool { return !tr.r.IsRunning() })

	run, err := tr.store.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}
	if run.Status != db.StatusError {
		t.Errorf("run status = %q, want %q", run.Status, db.StatusError)
	}
	if run.ErrorMessage != ErrStopped.Error() {
		t.Errorf("error message = %q, want %q", run.ErrorMessage, ErrStopped.Error())
	}
}

func TestStopIdleRunner(t *testing.T) {
	ref := catalogServer(t, listingHTML("Akismet 5.3"))
	tr := newTestRunner(t, testConfig(t, ref.URL, ref.URL))

	if tr.r.Stop() {
		t.Error("Stop() = true with no run in progress")
	}
}
