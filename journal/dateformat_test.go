package journal

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestDateLayout(t *testing.T) {
	tests := []struct {
		format   string
		expected string
	}{
		{"%Y/%m/%d", "2006/01/02"},
		{"%Y-%m-%d", "2006-01-02"},
		{"%d.%m.%y", "02.01.06"},
		{"%B %d, %Y", "January 02, 2006"},
		{"%a %H:%M:%S", "Mon 15:04:05"},
		{"100%%", "100%"},
		{"%Q", "%Q"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, DateLayout(tt.format), tt.expected)
		})
	}
}
