package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/bookingwatch/models"
)

func ptr(s string) *string { return &s }

func TestComposeMessage(t *testing.T) {
	tests := []struct {
		name   string
		fields models.ExtractedFields
		want   string
	}{
		{
			name:   "header only",
			fields: models.ExtractedFields{},
			want:   "<b>📋 Booking Information</b>\n\n",
		},
		{
			name:   "price only",
			fields: models.ExtractedFields{Price: ptr("€ 90")},
			want:   "<b>📋 Booking Information</b>\n\n<b>💰 Price:</b> € 90\n",
		},
		{
			name:   "name and address without price",
			fields: models.ExtractedFields{HotelName: ptr("Aurora"), HotelAddress: ptr("Via Roma 1")},
			want: "<b>📋 Booking Information</b>\n\n" +
				"<b>🏨 Hotel:</b> Aurora\n" +
				"<b>📍 Address:</b> Via Roma 1\n",
		},
		{
			name:   "values are escaped",
			fields: models.ExtractedFields{HotelName: ptr("B&B <Sole>")},
			want:   "<b>📋 Booking Information</b>\n\n<b>🏨 Hotel:</b> B&amp;B &lt;Sole&gt;\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComposeMessage(tt.fields))
		})
	}
}
