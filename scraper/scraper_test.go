package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/use-agent/pinscout/models"
)

func newTestScraper(t *testing.T, l Launcher) *Scraper {
	t.Helper()
	sc, err := NewScraper(l, testWorkflow(), DefaultSelectors())
	if err != nil {
		t.Fatalf("NewScraper() error = %v", err)
	}
	return sc
}

func TestRun_EndToEnd(t *testing.T) {
	site := newFakeSite()
	site.appModal = true
	site.locationModal = true
	site.suggestions = 1
	site.results["headphones"] = card(1, "boAt Rockerz 450", "₹1,499") +
		card(2, "JBL Tune 510BT", "") +
		card(3, "Sony WH-CH520", "₹4,490")
	site.results["earbuds"] = cards("Earbud", 12)

	l := &fakeLauncher{site: site}
	sc := newTestScraper(t, l)

	res, err := sc.Run(context.Background(), &models.ScrapeRequest{Pincode: "400001"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantHeadphones := []models.Product{
		{Name: "boAt Rockerz 450", Price: "₹1,499"},
		{Name: "Sony WH-CH520", Price: "₹4,490"},
	}
	if len(res.Headphones) != len(wantHeadphones) {
		t.Fatalf("headphones = %+v, want %+v", res.Headphones, wantHeadphones)
	}
	for i := range wantHeadphones {
		if res.Headphones[i] != wantHeadphones[i] {
			t.Errorf("headphones[%d] = %+v, want %+v", i, res.Headphones[i], wantHeadphones[i])
		}
	}

	if len(res.Earbuds) != 10 {
		t.Fatalf("earbuds has %d entries, want 10", len(res.Earbuds))
	}
	for i, p := range res.Earbuds {
		if want := fmt.Sprintf("Earbud %d", i+1); p.Name != want {
			t.Errorf("earbuds[%d] = %q, want %q", i, p.Name, want)
		}
	}

	if launches, closes := l.counts(); launches != 1 || closes != 1 {
		t.Errorf("launches=%d closes=%d, want 1/1", launches, closes)
	}
	if site.query != "" {
		t.Errorf("search input not reset after last term: %q", site.query)
	}
	if sc.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions() = %d after Run, want 0", sc.ActiveSessions())
	}
}

func TestRun_TermsSearchedInOrder(t *testing.T) {
	site := newFakeSite()
	site.results["headphones"] = cards("H", 1)
	site.results["earbuds"] = cards("E", 1)

	if _, err := newTestScraper(t, &fakeLauncher{site: site}).Run(context.Background(), &models.ScrapeRequest{Pincode: "110001"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"110001", "headphones", "earbuds"}
	if strings.Join(site.typed, ",") != strings.Join(want, ",") {
		t.Errorf("typed %v, want %v", site.typed, want)
	}
}

func TestRun_ReleasesSessionOnEveryFailure(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*fakeSite)
		wantCode string
	}{
		{"navigation timeout", func(f *fakeSite) { f.navigateErr = context.DeadlineExceeded }, models.ErrCodeNavigationTimeout},
		{"navigation error", func(f *fakeSite) { f.navigateErr = errors.New("net::ERR_CONNECTION_RESET") }, models.ErrCodeAutomation},
		{"location input missing", func(f *fakeSite) { f.noLocation = true }, models.ErrCodeSelectorTimeout},
		{"suggestion list missing", func(f *fakeSite) { f.suggestions = 0 }, models.ErrCodeSelectorTimeout},
		{"search link missing", func(f *fakeSite) { f.noSearchLink = true }, models.ErrCodeSelectorTimeout},
		{"search input missing", func(f *fakeSite) { f.noSearchInput = true }, models.ErrCodeSelectorTimeout},
		{"no headphones results", func(f *fakeSite) { f.results["earbuds"] = cards("E", 2) }, models.ErrCodeSelectorTimeout},
		{"no earbuds results", func(f *fakeSite) { f.results["headphones"] = cards("H", 2) }, models.ErrCodeSelectorTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := newFakeSite()
			site.appModal = true
			site.locationModal = true
			tt.setup(site)

			l := &fakeLauncher{site: site}
			res, err := newTestScraper(t, l).Run(context.Background(), &models.ScrapeRequest{Pincode: "400001"})
			if err == nil {
				t.Fatalf("Run() = %+v, want error", res)
			}
			var se *models.ScrapeError
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not a *models.ScrapeError", err)
			}
			if se.Code != tt.wantCode {
				t.Errorf("code = %s, want %s (%v)", se.Code, tt.wantCode, err)
			}
			if !strings.HasPrefix(se.Message, errPrefix) {
				t.Errorf("message %q lacks prefix %q", se.Message, errPrefix)
			}
			if launches, closes := l.counts(); launches != 1 || closes != 1 {
				t.Errorf("launches=%d closes=%d, want 1/1", launches, closes)
			}
		})
	}
}

func TestRun_LaunchFailure(t *testing.T) {
	l := &fakeLauncher{
		launchErr: models.NewScrapeError(models.ErrCodeLaunchFailure, "failed to launch browser", errors.New("chrome not found")),
	}

	_, err := newTestScraper(t, l).Run(context.Background(), &models.ScrapeRequest{Pincode: "400001"})

	var se *models.ScrapeError
	if !errors.As(err, &se) || se.Code != models.ErrCodeLaunchFailure {
		t.Fatalf("err = %v, want LAUNCH_FAILURE", err)
	}
	if !strings.Contains(se.Detail(), "chrome not found") {
		t.Errorf("Detail() = %q, want underlying cause", se.Detail())
	}
	if launches, closes := l.counts(); launches != 1 || closes != 0 {
		t.Errorf("launches=%d closes=%d, want 1/0 (nothing to release)", launches, closes)
	}
}

func TestRun_UnclassifiedLaunchError(t *testing.T) {
	l := &fakeLauncher{launchErr: errors.New("fork/exec: resource temporarily unavailable")}

	_, err := newTestScraper(t, l).Run(context.Background(), &models.ScrapeRequest{Pincode: "400001"})

	var se *models.ScrapeError
	if !errors.As(err, &se) || se.Code != models.ErrCodeAutomation {
		t.Fatalf("err = %v, want AUTOMATION_FAILED", err)
	}
	if se.Message != errPrefix {
		t.Errorf("Message = %q, want %q", se.Message, errPrefix)
	}
}

func TestRun_WaitsForStaleResultsToChange(t *testing.T) {
	site := newFakeSite()
	site.results["headphones"] = cards("H", 3)
	site.results["earbuds"] = cards("E", 4)
	site.staleReads = 2

	res, err := newTestScraper(t, &fakeLauncher{site: site}).Run(context.Background(), &models.ScrapeRequest{Pincode: "400001"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Earbuds) != 4 || res.Earbuds[0].Name != "E 1" {
		t.Errorf("earbuds = %+v, want the 4 earbud cards", res.Earbuds)
	}
}

func TestRun_IdenticalResultsAcceptedAfterBound(t *testing.T) {
	site := newFakeSite()
	same := cards("Same", 2)
	site.results["headphones"] = same
	site.results["earbuds"] = same

	wf := testWorkflow()
	wf.ResultsChangeTimeout = 0
	sc, err := NewScraper(&fakeLauncher{site: site}, wf, DefaultSelectors())
	if err != nil {
		t.Fatalf("NewScraper() error = %v", err)
	}

	res, err := sc.Run(context.Background(), &models.ScrapeRequest{Pincode: "400001"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Earbuds) != 2 {
		t.Errorf("earbuds = %+v, want 2 products", res.Earbuds)
	}
}

func TestNewScraper_RejectsInvalidSelectors(t *testing.T) {
	sel := DefaultSelectors()
	sel.ResultCard = `div[role="button"`

	if _, err := NewScraper(&fakeLauncher{}, testWorkflow(), sel); err == nil {
		t.Fatal("NewScraper() accepted a malformed selector")
	}
}
