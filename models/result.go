package models

// ExtractedFields holds the optional text fields scraped from a rendered
// booking page. A nil field means its selector rules matched nothing.
type ExtractedFields struct {
	Price        *string
	HotelName    *string
	HotelAddress *string
}

// JobResult is the record emitted once per target.
//
// Price, URL and Status form the output contract; Price is null when no
// price selector matched. The remaining fields are diagnostics and are
// omitted from JSON when empty.
type JobResult struct {
	// Price is the raw, whitespace-trimmed price text.
	Price *string `json:"price"`

	// URL is the final URL after following redirects.
	URL string `json:"url"`

	// Status is the final HTTP status code.
	Status int `json:"status"`

	Target       string  `json:"target,omitempty"`
	HotelName    *string `json:"hotel_name,omitempty"`
	HotelAddress *string `json:"hotel_address,omitempty"`
	Notified     bool    `json:"notified,omitempty"`
	Engine       string  `json:"engine,omitempty"`
}

// StringValue dereferences an optional field, returning "" when absent.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
