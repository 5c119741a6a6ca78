package specialist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"talentscout/internal/gateway"
)

func TestEnhanceKeepsStrictlyLongerExpansion(t *testing.T) {
	gw := &fakeGateway{response: `{
		"enhanced_query": "Python developer software engineer backend Flask Django API REST SQL",
		"original_query": "Python developer",
		"added_terms": ["software engineer", "backend", "Flask", "Django", "API", "REST", "SQL"]
	}`}
	q := NewQueryEnhancer(newTestRunner(gw), gateway.GenerationConfig{})

	got := q.Enhance(context.Background(), "Python developer")
	assert.Equal(t, "Python developer software engineer backend Flask Django API REST SQL", got)
	assert.Contains(t, got, "Python")
	assert.Greater(t, len(got), len("Python developer"))
}

func TestEnhanceRejectsShorterOutput(t *testing.T) {
	gw := &fakeGateway{response: `{"enhanced_query": "Python"}`}
	q := NewQueryEnhancer(newTestRunner(gw), gateway.GenerationConfig{})

	got := q.Enhance(context.Background(), "Python developer with Django")
	assert.Equal(t, "Python developer with Django", got)
}

func TestEnhanceRejectsDroppedOriginalTerms(t *testing.T) {
	gw := &fakeGateway{response: `{"enhanced_query": "software engineer backend services cloud infrastructure"}`}
	q := NewQueryEnhancer(newTestRunner(gw), gateway.GenerationConfig{})

	got := q.Enhance(context.Background(), "Python developer")
	assert.Equal(t, "Python developer", got, "expansion must retain the original terms")
}

func TestEnhanceGatewayFailureReturnsOriginal(t *testing.T) {
	gw := &fakeGateway{err: gateway.ErrEmpty}
	q := NewQueryEnhancer(newTestRunner(gw), gateway.GenerationConfig{})
	assert.Equal(t, "ML engineers", q.Enhance(context.Background(), "ML engineers"))
}

func TestEnhanceUnparsableOutputReturnsOriginal(t *testing.T) {
	gw := &fakeGateway{response: "here are some ideas, no JSON though"}
	q := NewQueryEnhancer(newTestRunner(gw), gateway.GenerationConfig{})
	assert.Equal(t, "ML engineers", q.Enhance(context.Background(), "ML engineers"))
}
