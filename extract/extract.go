package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/bookingwatch/models"
)

// Extractor holds the rules for each field of a booking page.
type Extractor struct {
	Price        Rule
	HotelName    Rule
	HotelAddress Rule
}

// New returns the booking.com extractor. The price is taken from the
// price helper's own text, then its nested elements, then the alternate
// price displays.
func New() *Extractor {
	return &Extractor{
		Price: Chain(
			OwnText(PriceHelperSelector),
			DescendantText(PriceHelperSelector),
			OwnText(PriceAlternateSelector),
		),
		HotelName:    OwnText(HotelNameSelector),
		HotelAddress: OwnText(HotelAddressSelector),
	}
}

// Parse builds a queryable document from rendered HTML.
func Parse(rawHTML string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}
	return doc, nil
}

// Extract applies every rule to doc. Missing fields are nil; a miss is
// never an error.
func (e *Extractor) Extract(doc *goquery.Document) models.ExtractedFields {
	return models.ExtractedFields{
		Price:        Apply(e.Price, doc),
		HotelName:    Apply(e.HotelName, doc),
		HotelAddress: Apply(e.HotelAddress, doc),
	}
}

// ExtractHTML parses rawHTML and extracts the fields. Unparseable input
// yields an empty set of fields.
func (e *Extractor) ExtractHTML(rawHTML string) models.ExtractedFields {
	doc, err := Parse(rawHTML)
	if err != nil {
		return models.ExtractedFields{}
	}
	return e.Extract(doc)
}
