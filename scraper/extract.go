package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/pinscout/models"
)

// ExtractProducts reads result cards from a rendered HTML snapshot in
// document order. A card yields a Product only when both its name and its
// price are present and non-blank; other cards are skipped. At most
// models.MaxProductsPerTerm products are returned.
func ExtractProducts(rawHTML string, sel Selectors) []models.Product {
	products := []models.Product{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return products
	}

	doc.Find(sel.ResultCard).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		name := cardText(card, sel.ResultName)
		price := cardText(card, sel.ResultPrice)
		if name == "" || price == "" {
			return true
		}
		products = append(products, models.Product{Name: name, Price: price})
		return len(products) < models.MaxProductsPerTerm
	})

	return products
}

// hiddenSelector matches descendants whose text a browser would not render.
const hiddenSelector = `script, style, template, [hidden], [aria-hidden="true"], [style*="display:none"], [style*="display: none"], [style*="visibility:hidden"], [style*="visibility: hidden"]`

// cardText returns the whitespace-collapsed visible text of the first
// descendant of card matching selector, or "" when there is none. goquery
// yields textContent, so hidden descendants are dropped from a copy first
// to approximate innerText. Stylesheet-hidden nodes are not detected.
func cardText(card *goquery.Selection, selector string) string {
	el := card.Find(selector).First()
	if el.Length() == 0 {
		return ""
	}
	visible := el.Clone()
	visible.Find(hiddenSelector).Remove()
	return strings.Join(strings.Fields(visible.Text()), " ")
}
