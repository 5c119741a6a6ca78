package specialist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentscout/internal/gateway"
	"talentscout/internal/schema"
	"talentscout/internal/sfc"
)

// fakeGateway returns a scripted completion and records the last prompt.
type fakeGateway struct {
	response     string
	err          error
	streamChunks []string
	streamErr    error

	lastSystem string
	lastPrompt string
}

func (f *fakeGateway) Generate(_ context.Context, system, prompt string, _ gateway.GenerationConfig) (string, error) {
	f.lastSystem = system
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeGateway) GenerateStream(_ context.Context, system, prompt string, _ gateway.GenerationConfig) (<-chan string, error) {
	f.lastSystem = system
	f.lastPrompt = prompt
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	ch := make(chan string, len(f.streamChunks))
	for _, c := range f.streamChunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func newTestRunner(gw gateway.Gateway) *Runner {
	return NewRunner(gw, nil, nil)
}

func TestRunMissingSlotIsTemplateError(t *testing.T) {
	gw := &fakeGateway{response: "{}"}
	r := newTestRunner(gw)

	def := Definition{
		Name:         "demo",
		UserTemplate: "Value: {value}",
		Slots:        []string{"value"},
		Schema:       &schema.Schema{Name: "demo"},
	}
	out := r.Run(context.Background(), def, map[string]string{})
	require.Error(t, out.Err)

	var terr *TemplateError
	require.ErrorAs(t, out.Err, &terr)
	assert.Equal(t, "value", terr.Slot)
	assert.Empty(t, gw.lastPrompt, "gateway must not be called without a complete template")
}

func TestRunRendersAllSlots(t *testing.T) {
	gw := &fakeGateway{response: `{"x": "1"}`}
	r := newTestRunner(gw)

	def := Definition{
		Name:         "demo",
		SystemPrompt: "sys",
		UserTemplate: "a={a} b={b} a again={a}",
		Slots:        []string{"a", "b"},
		Schema: &schema.Schema{Name: "demo", Fields: []schema.Field{
			{Name: "x", Kind: schema.String},
		}},
	}
	out := r.Run(context.Background(), def, map[string]string{"a": "A", "b": "B"})
	require.NoError(t, out.Err)
	assert.Equal(t, "a=A b=B a again=A", gw.lastPrompt)
	assert.Equal(t, "sys", gw.lastSystem)
	assert.Equal(t, "1", out.Value["x"])
}

func TestRunGatewayErrorPropagatesInOutcome(t *testing.T) {
	gw := &fakeGateway{err: gateway.ErrUnavailable}
	r := newTestRunner(gw)

	def := Definition{Name: "demo", UserTemplate: "hi", Schema: &schema.Schema{Name: "demo"}}
	out := r.Run(context.Background(), def, nil)
	assert.ErrorIs(t, out.Err, gateway.ErrUnavailable)
	assert.Nil(t, out.Value)
}

func TestRunRecoversMessyOutput(t *testing.T) {
	gw := &fakeGateway{response: "Sure, here you go:\n```json\n{\"x\": \"ok\"}\n```"}
	r := newTestRunner(gw)

	def := Definition{
		Name:         "demo",
		UserTemplate: "hi",
		Schema: &schema.Schema{Name: "demo", Fields: []schema.Field{
			{Name: "x", Kind: schema.String},
		}},
	}
	out := r.Run(context.Background(), def, nil)
	require.NoError(t, out.Err)
	assert.Equal(t, "ok", out.Value["x"])
	assert.False(t, out.Attempt.Defaulted)
}

func TestExecuteTextTrims(t *testing.T) {
	gw := &fakeGateway{response: "  a reply  \n"}
	r := newTestRunner(gw)

	got, err := r.ExecuteText(context.Background(), Definition{Name: "t", UserTemplate: "hi"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a reply", got)
}

func TestResponderFallsBackOnError(t *testing.T) {
	gw := &fakeGateway{err: errors.New("boom")}
	resp := NewGeneralResponder(newTestRunner(gw), gateway.GenerationConfig{})

	got := resp.Respond(context.Background(), map[string]string{"user_message": "hello"})
	assert.Equal(t, resp.Fallback(), got)
}

func TestResponderFallbacksAreDistinctPerFlow(t *testing.T) {
	r := newTestRunner(&fakeGateway{})
	gen := gateway.GenerationConfig{}

	fallbacks := []string{
		NewSearchResponder(r, gen).Fallback(),
		NewInfoResponder(r, gen).Fallback(),
		NewGeneralResponder(r, gen).Fallback(),
	}
	seen := map[string]bool{}
	for _, f := range fallbacks {
		assert.NotEmpty(t, f)
		assert.False(t, seen[f], "each flow needs its own apology string")
		seen[f] = true
	}
}

func TestLicenseResponderUsesStructuredFallback(t *testing.T) {
	gw := &fakeGateway{err: errors.New("down")}
	resp := NewLicenseResponder(newTestRunner(gw), gateway.GenerationConfig{})

	out := sfc.Outcome{
		Success:               true,
		CandidateName:         "POON Kwok Tung",
		SFO:                   sfc.StatusActive,
		AMLO:                  sfc.StatusNotActive,
		ManualVerificationURL: sfc.ManualVerificationURL,
	}
	got := resp.Respond(context.Background(), out)
	assert.Contains(t, got, "POON Kwok Tung")
	assert.Contains(t, got, "SFO License: ACTIVE")
	assert.Contains(t, got, "AMLO License: NOT ACTIVE")
	assert.Contains(t, got, sfc.ManualVerificationURL)
}

func TestRenderLicenseOutcomeBranches(t *testing.T) {
	tests := []struct {
		name string
		out  sfc.Outcome
		want []string
	}{
		{
			name: "no records",
			out: sfc.Outcome{
				Success:       false,
				CandidateName: "Jane Chan",
				Err:           "No license records found in SFC register",
			},
			want: []string{"No License Found", "Jane Chan", sfc.ManualVerificationURL},
		},
		{
			name: "technical issue",
			out: sfc.Outcome{
				Success:       false,
				CandidateName: "Jane Chan",
				Err:           "Automation failed: browser crashed",
			},
			want: []string{"Technical Issue", "browser crashed", sfc.ManualVerificationURL},
		},
		{
			name: "unclear statuses",
			out: sfc.Outcome{
				Success:       true,
				CandidateName: "Jane Chan",
				SFO:           sfc.StatusUnknown,
				AMLO:          sfc.StatusUnknown,
			},
			want: []string{"SFO License: STATUS UNCLEAR", "AMLO License: STATUS UNCLEAR"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderLicenseOutcome(tt.out)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}
