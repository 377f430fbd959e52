package scraper

import (
	"fmt"

	"github.com/andybalholm/cascadia"
)

// Selectors is the single lookup table of CSS selectors that address the
// target site's markup. A markup change on the site should only ever touch
// this table.
type Selectors struct {
	AppModalContinue    string // optional "continue on web" link
	LocationModalManual string // optional "select manually" button
	LocationInput       string
	LocationSuggestion  string
	SearchButton        string // top-level link that opens the search view
	SearchInput         string // real input, exists only after the transition
	ResultCard          string
	ResultName          string // relative to a card
	ResultPrice         string // relative to a card
}

// DefaultSelectors returns the selectors for the current blinkit.com markup.
func DefaultSelectors() Selectors {
	return Selectors{
		AppModalContinue:    `div[class*="DownloadAppModal__ContinueLink"]`,
		LocationModalManual: `div[class*="GetLocationModal__SelectManually"]`,
		LocationInput:       `input[placeholder="search delivery location"]`,
		LocationSuggestion:  `div[class*="LocationSearchList__LocationListContainer"]`,
		SearchButton:        `a[class*="SearchBar__Button"]`,
		SearchInput:         `input[class*="SearchBarContainer__Input"]`,
		ResultCard:          `div[role="button"][class][id]`,
		ResultName:          `.tw-text-300.tw-font-semibold`,
		ResultPrice:         `.tw-text-200.tw-font-semibold`,
	}
}

// Validate compiles every selector so that a malformed entry fails at
// startup instead of surfacing as a step timeout.
func (s Selectors) Validate() error {
	for name, sel := range s.entries() {
		if sel == "" {
			return fmt.Errorf("selector %s is empty", name)
		}
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("selector %s (%q): %w", name, sel, err)
		}
	}
	return nil
}

func (s Selectors) entries() map[string]string {
	return map[string]string{
		"AppModalContinue":    s.AppModalContinue,
		"LocationModalManual": s.LocationModalManual,
		"LocationInput":       s.LocationInput,
		"LocationSuggestion":  s.LocationSuggestion,
		"SearchButton":        s.SearchButton,
		"SearchInput":         s.SearchInput,
		"ResultCard":          s.ResultCard,
		"ResultName":          s.ResultName,
		"ResultPrice":         s.ResultPrice,
	}
}
