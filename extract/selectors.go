package extract

// CSS selectors for booking.com hotel pages.
// Kept together so a site redesign is a one-file change.
const (
	// Price, tried in order.
	PriceHelperSelector    = `.prco-valign-middle-helper`
	PriceAlternateSelector = `span.prco-price, .bui-price-display__value`

	// Property header.
	HotelNameSelector    = `.d2fee87262.pp-header__title`
	HotelAddressSelector = `.a53cbfa6de.f17adf7576`
)
