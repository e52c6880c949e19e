package submission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+1 650-253-0000", "+16502530000", false},
		{"16502530000", "+16502530000", false},
		{"+44 20 7031 3000", "+442070313000", false},
		{"", "", true},
		{"hello", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizePhone(%q) expected error", tt.in)
			}
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestWhatsAppURL(t *testing.T) {
	got := WhatsAppURL("+1 650-253-0000", "New Form Submission: Hi\n\n*Name*: Jo & Co")
	assert.Equal(t, "https://wa.me/16502530000?text=New%20Form%20Submission%3A%20Hi%0A%0A*Name*%3A%20Jo%20%26%20Co", got)
}

func TestWhatsAppURLFallsBackToDigits(t *testing.T) {
	got := WhatsAppURL("(000) 12", "x")
	assert.Equal(t, "https://wa.me/00012?text=x", got)
}
