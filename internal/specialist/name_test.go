package specialist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"talentscout/internal/gateway"
)

func TestExtractFromStructuredOutput(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		response string
		want     string
	}{
		{
			name:     "honorific stripped",
			query:    "Tell me about Dr. Sarah Johnson",
			response: `{"name": "Dr. Sarah Johnson", "confidence": 0.95}`,
			want:     "Sarah Johnson",
		},
		{
			name:     "possessive stripped",
			query:    "What's John Smith's email?",
			response: `{"name": "John Smith's", "confidence": 0.9}`,
			want:     "John Smith",
		},
		{
			name:     "all caps casing preserved",
			query:    "Does POON Kwok Tung have an SFC license?",
			response: `{"name": "POON Kwok Tung", "confidence": 0.95}`,
			want:     "POON Kwok Tung",
		},
		{
			name:     "low confidence forces empty",
			query:    "Find Python developers",
			response: `{"name": "Python Developers", "confidence": 0.2}`,
			want:     "",
		},
		{
			name:     "single character rejected",
			query:    "Tell me about X",
			response: `{"name": "X", "confidence": 0.9}`,
			want:     "",
		},
		{
			name:     "empty name stays empty",
			query:    "Find ML engineers",
			response: `{"name": "", "confidence": 0.1}`,
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{response: tt.response}
			n := NewNameExtractor(newTestRunner(gw), gateway.GenerationConfig{})
			assert.Equal(t, tt.want, n.Extract(context.Background(), tt.query))
		})
	}
}

func TestExtractRegexFallback(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"possessive reference", "What's Hercules Keung's first job?", "Hercules Keung"},
		{"tell me about", "tell me about Mr. David Williams", "David Williams"},
		{"contact for", "Contact for Jennifer Lau please", "Jennifer Lau"},
		{"license question", "Does POON Kwok Tung have a license?", "POON Kwok Tung"},
		{"capitalized pair", "Is there anything on Alice Wong today?", "Alice Wong"},
		{"no name", "find python developers", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{response: "not json at all"}
			n := NewNameExtractor(newTestRunner(gw), gateway.GenerationConfig{})
			assert.Equal(t, tt.want, n.Extract(context.Background(), tt.query))
		})
	}
}

func TestExtractGatewayFailureUsesRegexFallback(t *testing.T) {
	gw := &fakeGateway{err: gateway.ErrUnavailable}
	n := NewNameExtractor(newTestRunner(gw), gateway.GenerationConfig{})
	assert.Equal(t, "Sarah Johnson", n.Extract(context.Background(), "Tell me about Sarah Johnson"))
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dr. Sarah Johnson", "Sarah Johnson"},
		{"Mr David Williams", "David Williams"},
		{"John Smith's", "John Smith"},
		{"POON Kwok Tung", "POON Kwok Tung"},
		{"  Prof. Lee  ", "Lee"},
		{"Mrs.", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanName(tt.in), tt.in)
	}
}
