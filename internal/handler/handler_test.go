package handler

import (
	"testing"

	"imantap/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestHandler_Links(t *testing.T) {
	h := &Handler{cfg: &config.Config{
		BotUsername: "imantap_bot",
		MiniAppURL:  "https://app.imantap.kz",
	}}

	assert.Equal(t, "https://app.imantap.kz?tgWebAppStartParam=42", h.miniAppURL(42))
	assert.Equal(t, "https://t.me/imantap_bot?start=ref_ABC123", h.referralLink("ABC123"))
}

func TestOrDash(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "non-empty string",
			input:    "ABC123",
			expected: "ABC123",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "—",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := orDash(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}
