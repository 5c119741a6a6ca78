package specialist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentscout/internal/gateway"
)

var availableLevels = []string{"Senior Level", "Mid Level", "Junior", "Lead/Expert"}

func subsetOf(t *testing.T, got, available []string) {
	t.Helper()
	set := make(map[string]struct{}, len(available))
	for _, v := range available {
		set[v] = struct{}{}
	}
	for _, v := range got {
		_, ok := set[v]
		assert.True(t, ok, "%q is not in the available set", v)
	}
}

func TestMatchExactProposalsPass(t *testing.T) {
	gw := &fakeGateway{response: `{
		"matched_values": ["Senior Level", "Lead/Expert"],
		"confidence": 0.9,
		"reasoning": "senior maps to senior level and lead"
	}`}
	f := NewFilterMatcher(newTestRunner(gw), gateway.GenerationConfig{})

	got := f.Match(context.Background(), "experience_level", "Senior", availableLevels)
	assert.Equal(t, []string{"Senior Level", "Lead/Expert"}, got.MatchedValues)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
	subsetOf(t, got.MatchedValues, availableLevels)
}

func TestMatchPartialInvalidDiscounted(t *testing.T) {
	gw := &fakeGateway{response: `{
		"matched_values": ["Senior Level", "Principal"],
		"confidence": 0.9
	}`}
	f := NewFilterMatcher(newTestRunner(gw), gateway.GenerationConfig{})

	got := f.Match(context.Background(), "experience_level", "Senior", availableLevels)
	assert.Equal(t, []string{"Senior Level"}, got.MatchedValues)
	assert.InDelta(t, 0.81, got.Confidence, 1e-9, "0.9 discounted by 0.9")
	subsetOf(t, got.MatchedValues, availableLevels)
}

func TestMatchCaseInsensitiveRescue(t *testing.T) {
	gw := &fakeGateway{response: `{
		"matched_values": ["senior level", "LEAD/EXPERT"],
		"confidence": 0.8
	}`}
	f := NewFilterMatcher(newTestRunner(gw), gateway.GenerationConfig{})

	got := f.Match(context.Background(), "experience_level", "Senior", availableLevels)
	assert.Equal(t, []string{"Senior Level", "Lead/Expert"}, got.MatchedValues,
		"canonical casing restored from the enumeration")
	assert.InDelta(t, 0.64, got.Confidence, 1e-9, "0.8 discounted by 0.8")
	subsetOf(t, got.MatchedValues, availableLevels)
}

func TestMatchAllInvalidNoRescue(t *testing.T) {
	gw := &fakeGateway{response: `{
		"matched_values": ["Principal", "Architect"],
		"confidence": 0.7
	}`}
	f := NewFilterMatcher(newTestRunner(gw), gateway.GenerationConfig{})

	got := f.Match(context.Background(), "experience_level", "Expert", availableLevels)
	assert.Empty(t, got.MatchedValues)
	subsetOf(t, got.MatchedValues, availableLevels)
}

func TestMatchSubsetInvariantAgainstSuperset(t *testing.T) {
	// A proposal superset mixing valid, case-variant and invented values
	// must always collapse to a subset of the enumeration.
	gw := &fakeGateway{response: `{
		"matched_values": ["Senior Level", "senior level", "Staff", "Lead/Expert", "Guru", "JUNIOR"],
		"confidence": 1.0
	}`}
	f := NewFilterMatcher(newTestRunner(gw), gateway.GenerationConfig{})

	got := f.Match(context.Background(), "experience_level", "experienced", availableLevels)
	subsetOf(t, got.MatchedValues, availableLevels)
	assert.LessOrEqual(t, got.Confidence, 1.0)
	require.NotEmpty(t, got.MatchedValues)
}

func TestMatchGatewayFailureSubstringFallback(t *testing.T) {
	gw := &fakeGateway{err: gateway.ErrUnavailable}
	f := NewFilterMatcher(newTestRunner(gw), gateway.GenerationConfig{})

	got := f.Match(context.Background(), "experience_level", "senior", availableLevels)
	assert.Equal(t, []string{"Senior Level"}, got.MatchedValues)
	assert.InDelta(t, 0.6, got.Confidence, 1e-9)

	got = f.Match(context.Background(), "experience_level", "astronaut", availableLevels)
	assert.Empty(t, got.MatchedValues)
	assert.Zero(t, got.Confidence)
}

func TestMatchEmptyCriterion(t *testing.T) {
	gw := &fakeGateway{err: gateway.ErrUnavailable}
	f := NewFilterMatcher(newTestRunner(gw), gateway.GenerationConfig{})

	got := f.Match(context.Background(), "experience_level", "   ", availableLevels)
	assert.Empty(t, got.MatchedValues)
	assert.Zero(t, got.Confidence)
}
