package specialist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"talentscout/internal/gateway"
)

func TestClassifyStructuredOutput(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		response string
		want     IntentResult
	}{
		{
			name:     "clean search classification",
			message:  "Find Python developers with 5+ years experience",
			response: `{"intent": "search", "confidence": 0.95, "search_query": "Python developers 5+ years", "reasoning": "explicit candidate search"}`,
			want: IntentResult{
				Intent:      IntentSearch,
				Confidence:  0.95,
				SearchQuery: "Python developers 5+ years",
				Reasoning:   "explicit candidate search",
			},
		},
		{
			name:     "license classification",
			message:  "Does POON Kwok Tung have an SFC license?",
			response: `{"intent": "sfc_license", "confidence": 0.9}`,
			want:     IntentResult{Intent: IntentLicense, Confidence: 0.9},
		},
		{
			name:     "greeting stays general with decent confidence",
			message:  "Hello, how does this work?",
			response: `{"intent": "general", "confidence": 0.85, "reasoning": "greeting"}`,
			want:     IntentResult{Intent: IntentGeneral, Confidence: 0.85, Reasoning: "greeting"},
		},
		{
			name:     "empty search query falls back to the message",
			message:  "Show me data scientists",
			response: `{"intent": "search", "confidence": 0.8}`,
			want:     IntentResult{Intent: IntentSearch, Confidence: 0.8, SearchQuery: "Show me data scientists"},
		},
		{
			name:     "confidence clamped into range",
			message:  "Find Go engineers",
			response: `{"intent": "search", "confidence": 1.7, "search_query": "Go engineers"}`,
			want:     IntentResult{Intent: IntentSearch, Confidence: 1.0, SearchQuery: "Go engineers"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{response: tt.response}
			c := NewIntentClassifier(newTestRunner(gw), gateway.GenerationConfig{})
			got := c.Classify(context.Background(), tt.message)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyGatewayFailureDefaultsToGeneral(t *testing.T) {
	gw := &fakeGateway{err: gateway.ErrTimeout}
	c := NewIntentClassifier(newTestRunner(gw), gateway.GenerationConfig{})

	got := c.Classify(context.Background(), "Find Python developers")
	assert.Equal(t, IntentGeneral, got.Intent)
	assert.Equal(t, 0.5, got.Confidence)
}

func TestClassifyCueFallbackPriority(t *testing.T) {
	// Unparsable output forces cue matching over raw output plus message.
	tests := []struct {
		name    string
		message string
		want    Intent
	}{
		{"license cue wins over search cue", "Find out if Jane Chan holds an SFC license", IntentLicense},
		{"search cue wins over info cue", "Find contact people looking for work", IntentSearch},
		{"info cue", "What is the email address on file?", IntentInfo},
		{"no cues", "Good morning!", IntentGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{response: "I think the category would probably be..."}
			c := NewIntentClassifier(newTestRunner(gw), gateway.GenerationConfig{})
			got := c.Classify(context.Background(), tt.message)
			assert.Equal(t, tt.want, got.Intent)
			assert.Equal(t, 0.7, got.Confidence)
		})
	}
}
