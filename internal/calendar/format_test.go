package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		html string
		want Format
	}{
		{
			name: "plain text hours",
			html: `<html><body><p>Open daily 10am - 5pm</p><a href="/news?page=2" class="next">Older posts</a></body></html>`,
			want: FormatStatic,
		},
		{
			name: "json-ld opening hours",
			html: `<html><head><script type="application/ld+json">{"@type":"Museum","openingHours":"Mo-Su 10:00-17:00"}</script></head>
				<body><div class="fc-view"></div></body></html>`,
			want: FormatJSONLD,
		},
		{
			name: "organization json-ld only",
			html: `<html><head><script type="application/ld+json">{"@type":"Organization","name":"Mill"}</script></head><body></body></html>`,
			want: FormatStatic,
		},
		{
			name: "fullcalendar class",
			html: `<html><body><div id="cal" class="fc fc-daygrid"></div></body></html>`,
			want: FormatDynamic,
		},
		{
			name: "datepicker script",
			html: `<html><head><script src="/js/flatpickr.min.js"></script></head><body><input></body></html>`,
			want: FormatDynamic,
		},
		{
			name: "next month aria label",
			html: `<html><body><button aria-label="Next month">&gt;</button></body></html>`,
			want: FormatDynamic,
		},
		{
			name: "next month button text",
			html: `<html><body><button>Next month</button></body></html>`,
			want: FormatDynamic,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.html))
		})
	}
}
