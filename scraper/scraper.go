package scraper

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/use-agent/pinscout/config"
	"github.com/use-agent/pinscout/models"
)

// errPrefix is prepended to every error leaving Run.
const errPrefix = "browser automation error"

// searchTerms are scraped in this order on one page.
var searchTerms = []string{models.TermHeadphones, models.TermEarbuds}

// Key is a keyboard key the workflow presses.
type Key int

const (
	KeyEnter Key = iota
	KeyBackspace
)

// Page is the subset of a browser tab the workflow drives. Every method
// blocks until it succeeds or ctx is done; callers bound ctx per step.
type Page interface {
	// Navigate loads url and waits for the page to settle.
	Navigate(ctx context.Context, url string) error
	// WaitElement waits until at least one element matches selector.
	WaitElement(ctx context.Context, selector string) error
	Click(ctx context.Context, selector string) error
	// Type focuses the first element matching selector and types text.
	Type(ctx context.Context, selector, text string) error
	// SelectAll selects the whole content of the matching input.
	SelectAll(ctx context.Context, selector string) error
	Press(ctx context.Context, key Key) error
	// HTML returns a snapshot of the rendered document.
	HTML(ctx context.Context) (string, error)
}

// Session owns one browser process and its single page.
type Session interface {
	Page() Page
	// Close terminates the browser process. Safe to call more than once.
	Close() error
}

// Launcher acquires a fresh, isolated browser session.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Scraper runs the full navigation and extraction workflow, one isolated
// browser session per call. It is safe for concurrent use; calls share
// nothing but the in-flight counter.
type Scraper struct {
	launcher  Launcher
	workflow  config.WorkflowConfig
	selectors Selectors
	active    atomic.Int32
}

// NewScraper validates the selector table and returns a Scraper.
func NewScraper(l Launcher, wf config.WorkflowConfig, sel Selectors) (*Scraper, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	return &Scraper{
		launcher:  l,
		workflow:  wf,
		selectors: sel,
	}, nil
}

// ActiveSessions reports how many scrapes are in flight.
func (s *Scraper) ActiveSessions() int {
	return int(s.active.Load())
}

// Run is the orchestrator:
//
//  1. Acquire a session.
//  2. DEFER: release it, on every exit path.
//  3. Drive the navigation steps to SearchInputReady.
//  4. For each search term: search, extract, reset.
//
// Every returned error is a *models.ScrapeError with the errPrefix message.
func (s *Scraper) Run(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResult, error) {
	s.active.Add(1)
	defer s.active.Add(-1)

	log := slog.With("pincode", req.Pincode)

	// ── 1. Acquire ────────────────────────────────────────────────────
	log.Info("launching headless browser")
	session, err := s.launcher.Launch(ctx)
	if err != nil {
		return nil, wrapRunError(err)
	}

	// ── 2. Release ────────────────────────────────────────────────────
	defer func() {
		log.Info("closing browser")
		if closeErr := session.Close(); closeErr != nil {
			log.Warn("browser close failed", "error", closeErr)
		}
	}()

	page := session.Page()

	// ── 3. Navigate ───────────────────────────────────────────────────
	nav := &Navigator{log: log}
	if _, err := nav.Drive(ctx, page, navigationSteps(s.workflow, s.selectors, req.Pincode)); err != nil {
		return nil, wrapRunError(err)
	}

	// ── 4. Search terms ───────────────────────────────────────────────
	result := models.NewScrapeResult()
	var previous []models.Product
	for _, term := range searchTerms {
		products, err := s.scrapeTerm(ctx, log, page, term, previous)
		if err != nil {
			return nil, wrapRunError(err)
		}
		result.Set(term, products)
		previous = products
	}

	log.Info("scrape complete",
		"headphones", len(result.Headphones),
		"earbuds", len(result.Earbuds),
	)
	return result, nil
}

// wrapRunError applies the consistent prefix while keeping the code of an
// already classified error.
func wrapRunError(err error) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return models.NewScrapeError(se.Code, errPrefix+": "+se.Message, se.Err)
	}
	return models.NewScrapeError(models.ErrCodeAutomation, errPrefix, err)
}
