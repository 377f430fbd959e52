package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/pinscout/models"
)

// resultsPollInterval is how often the rendered cards are re-read while
// waiting for a new term's results to replace the previous ones.
const resultsPollInterval = 250 * time.Millisecond

// scrapeTerm searches term, extracts its products and resets the input so
// the next term starts from an empty search box. previous holds the last
// term's products and is used to detect stale results.
func (s *Scraper) scrapeTerm(ctx context.Context, log *slog.Logger, p Page, term string, previous []models.Product) ([]models.Product, error) {
	log = log.With("term", term)

	log.Info("searching")
	if err := s.search(ctx, p, term); err != nil {
		return nil, err
	}

	log.Info("results rendered, extracting")
	products, err := s.collect(ctx, log, p, previous)
	if err != nil {
		return nil, err
	}

	log.Info("clearing search input", "products", len(products))
	if err := s.resetSearch(ctx, p); err != nil {
		return nil, err
	}
	return products, nil
}

// search overwrites the search input with term, submits it and waits for
// at least one result card.
func (s *Scraper) search(ctx context.Context, p Page, term string) error {
	input := s.selectors.SearchInput

	if err := waitFor(ctx, p, input, s.workflow.SearchInputTimeout); err != nil {
		return categorizeError(err, models.ErrCodeSelectorTimeout, fmt.Sprintf("search input for %q not found", term))
	}

	err := act(ctx, func(ctx context.Context) error {
		if err := p.Click(ctx, input); err != nil {
			return err
		}
		if err := p.SelectAll(ctx, input); err != nil {
			return err
		}
		if err := p.Type(ctx, input, term); err != nil {
			return err
		}
		return p.Press(ctx, KeyEnter)
	})
	if err != nil {
		return categorizeError(err, models.ErrCodeSelectorTimeout, fmt.Sprintf("submit search %q", term))
	}

	if err := waitFor(ctx, p, s.selectors.ResultCard, s.workflow.ResultCardTimeout); err != nil {
		return categorizeError(err, models.ErrCodeSelectorTimeout, fmt.Sprintf("no results rendered for %q", term))
	}
	return nil
}

// collect extracts the rendered products. If they equal the previous
// term's products the page has likely not re-rendered yet, so the cards
// are polled until they change or ResultsChangeTimeout elapses.
func (s *Scraper) collect(ctx context.Context, log *slog.Logger, p Page, previous []models.Product) ([]models.Product, error) {
	products, err := s.snapshot(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(previous) == 0 || !sameProducts(products, previous) {
		return products, nil
	}

	pollCtx, cancel := context.WithTimeout(ctx, s.workflow.ResultsChangeTimeout)
	defer cancel()
	ticker := time.NewTicker(resultsPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return nil, categorizeError(ctx.Err(), models.ErrCodeSelectorTimeout, "waiting for results to change")
			}
			log.Warn("results unchanged from previous term, using them as rendered")
			return products, nil
		case <-ticker.C:
			products, err = s.snapshot(ctx, p)
			if err != nil {
				return nil, err
			}
			if !sameProducts(products, previous) {
				return products, nil
			}
		}
	}
}

func (s *Scraper) snapshot(ctx context.Context, p Page) ([]models.Product, error) {
	var html string
	err := act(ctx, func(ctx context.Context) error {
		var err error
		html, err = p.HTML(ctx)
		return err
	})
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeSelectorTimeout, "read rendered results")
	}
	return ExtractProducts(html, s.selectors), nil
}

// resetSearch empties the search input and waits for the UI to settle.
func (s *Scraper) resetSearch(ctx context.Context, p Page) error {
	input := s.selectors.SearchInput
	err := act(ctx, func(ctx context.Context) error {
		if err := p.Click(ctx, input); err != nil {
			return err
		}
		if err := p.SelectAll(ctx, input); err != nil {
			return err
		}
		return p.Press(ctx, KeyBackspace)
	})
	if err != nil {
		return categorizeError(err, models.ErrCodeSelectorTimeout, "clear search input")
	}
	if err := settle(ctx, s.workflow.ResetSettle); err != nil {
		return categorizeError(err, models.ErrCodeSelectorTimeout, "settle after reset")
	}
	return nil
}

func sameProducts(a, b []models.Product) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
