package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/pinscout/config"
)

// fakeSite is a stub DOM standing in for the target site. It renders HTML
// from its current UI state and mutates that state on clicks, typing and
// key presses, the way the real page does. Missing elements fail at once
// with context.DeadlineExceeded, as a timed-out wait would.
type fakeSite struct {
	sel Selectors

	// Layout knobs.
	appModal      bool
	locationModal bool
	noLocation    bool // location input never appears
	suggestions   int
	noSearchLink  bool
	noSearchInput bool
	results       map[string]string // term -> cards HTML
	staleReads    int               // HTML reads that still show the previous term
	navigateErr   error

	mu            sync.Mutex
	appModalOpen  bool
	locModalOpen  bool
	locationQuery string
	locationSet   bool
	searchOpen    bool
	focused       string
	selected      bool
	query         string
	displayed     string
	pending       string
	staleLeft     int
	typed         []string
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		sel:         DefaultSelectors(),
		suggestions: 1,
		results:     map[string]string{},
	}
}

func (f *fakeSite) render() string {
	var b strings.Builder
	b.WriteString("<html><body>")

	switch {
	case f.appModalOpen:
		b.WriteString(`<div class="DownloadAppModal__ContinueLink-sc-1x2y">Continue on web</div>`)
	case f.locModalOpen:
		b.WriteString(`<div class="GetLocationModal__SelectManually-sc-9k">Select manually</div>`)
	case !f.locationSet && !f.noLocation:
		b.WriteString(`<input placeholder="search delivery location">`)
		if f.locationQuery != "" {
			for i := 0; i < f.suggestions; i++ {
				fmt.Fprintf(&b, `<div class="LocationSearchList__LocationListContainer-sc-%d">Area %s</div>`, i, f.locationQuery)
			}
		}
	}

	if f.locationSet && !f.searchOpen && !f.noSearchLink {
		b.WriteString(`<a class="SearchBar__Button-sc-1" href="/s/">Search "milk"</a>`)
	}
	if f.searchOpen && !f.noSearchInput {
		b.WriteString(`<input class="SearchBarContainer__Input-sc-2">`)
		if f.displayed != "" {
			b.WriteString(`<div id="plpContainer">`)
			b.WriteString(f.results[f.displayed])
			b.WriteString(`</div>`)
		}
	}

	b.WriteString("</body></html>")
	return b.String()
}

func (f *fakeSite) has(selector string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(f.render()))
	if err != nil {
		return false
	}
	return doc.Find(selector).Length() > 0
}

func (f *fakeSite) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.navigateErr != nil {
		return f.navigateErr
	}
	f.appModalOpen = f.appModal
	f.locModalOpen = f.locationModal
	return nil
}

func (f *fakeSite) WaitElement(ctx context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.has(selector) {
		return context.DeadlineExceeded
	}
	return nil
}

func (f *fakeSite) Click(ctx context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.has(selector) {
		return context.DeadlineExceeded
	}
	f.focused = selector
	f.selected = false
	switch selector {
	case f.sel.AppModalContinue:
		f.appModalOpen = false
	case f.sel.LocationModalManual:
		f.locModalOpen = false
	case f.sel.LocationSuggestion:
		f.locationSet = true
	case f.sel.SearchButton:
		f.searchOpen = true
	}
	return nil
}

func (f *fakeSite) Type(ctx context.Context, selector, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.has(selector) {
		return context.DeadlineExceeded
	}
	f.focused = selector
	f.typed = append(f.typed, text)
	switch selector {
	case f.sel.LocationInput:
		f.locationQuery += text
	case f.sel.SearchInput:
		if f.selected {
			f.query = ""
		}
		f.query += text
	}
	f.selected = false
	return nil
}

func (f *fakeSite) SelectAll(ctx context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.has(selector) {
		return context.DeadlineExceeded
	}
	f.focused = selector
	f.selected = true
	return nil
}

func (f *fakeSite) Press(ctx context.Context, key Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.focused != f.sel.SearchInput {
		return nil
	}
	switch key {
	case KeyEnter:
		if f.displayed != "" && f.staleReads > 0 {
			f.pending = f.query
			f.staleLeft = f.staleReads
		} else {
			f.displayed = f.query
		}
	case KeyBackspace:
		if f.selected {
			f.query = ""
			f.selected = false
		}
	}
	return nil
}

func (f *fakeSite) HTML(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending != "" {
		if f.staleLeft == 0 {
			f.displayed = f.pending
			f.pending = ""
		} else {
			f.staleLeft--
		}
	}
	return f.render(), nil
}

// fakeLauncher counts acquisitions and releases.
type fakeLauncher struct {
	site      *fakeSite
	launchErr error

	mu       sync.Mutex
	launches int
	closes   int
}

func (l *fakeLauncher) Launch(ctx context.Context) (Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches++
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	return &fakeSession{l: l}, nil
}

func (l *fakeLauncher) counts() (launches, closes int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches, l.closes
}

type fakeSession struct {
	l *fakeLauncher
}

func (s *fakeSession) Page() Page { return s.l.site }

func (s *fakeSession) Close() error {
	s.l.mu.Lock()
	defer s.l.mu.Unlock()
	s.l.closes++
	return nil
}

// testWorkflow has no settle delays so tests run instantly.
func testWorkflow() config.WorkflowConfig {
	return config.WorkflowConfig{
		TargetURL:            "https://blinkit.test/",
		NavigationTimeout:    time.Second,
		AppModalTimeout:      time.Second,
		LocationModalTimeout: time.Second,
		LocationInputTimeout: time.Second,
		SuggestionTimeout:    time.Second,
		SearchButtonTimeout:  time.Second,
		SearchInputTimeout:   time.Second,
		ResultCardTimeout:    time.Second,
		ResultsChangeTimeout: 2 * time.Second,
	}
}

// card renders one result card; an empty name or price omits that element.
func card(id int, name, price string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div role="button" class="tw-relative tw-flex" id="%d">`, id)
	b.WriteString(`<div class="tw-text-100">10 MINS</div>`)
	if name != "" {
		fmt.Fprintf(&b, `<div class="tw-text-300 tw-font-semibold tw-line-clamp-2">%s</div>`, name)
	}
	if price != "" {
		fmt.Fprintf(&b, `<div class="tw-flex"><div class="tw-text-200 tw-font-semibold">%s</div></div>`, price)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// cards renders n qualifying cards named "<prefix> n".
func cards(prefix string, n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		b.WriteString(card(i, fmt.Sprintf("%s %d", prefix, i), fmt.Sprintf("₹%d", 100*i)))
	}
	return b.String()
}
