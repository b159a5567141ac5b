package job

import (
	"html"
	"strings"

	"github.com/use-agent/bookingwatch/models"
)

const messageHeader = "<b>📋 Booking Information</b>\n\n"

// ComposeMessage renders the Telegram HTML summary for one page. The header
// is always present; each field line appears only when the field was found.
func ComposeMessage(fields models.ExtractedFields) string {
	var b strings.Builder
	b.WriteString(messageHeader)
	writeLine(&b, "🏨 Hotel:", fields.HotelName)
	writeLine(&b, "💰 Price:", fields.Price)
	writeLine(&b, "📍 Address:", fields.HotelAddress)
	return b.String()
}

func writeLine(b *strings.Builder, label string, value *string) {
	if value == nil || *value == "" {
		return
	}
	b.WriteString("<b>")
	b.WriteString(label)
	b.WriteString("</b> ")
	b.WriteString(html.EscapeString(*value))
	b.WriteByte('\n')
}
