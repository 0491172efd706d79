package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"facerate-go/internal/models"
	"facerate-go/internal/stimulus"
	"facerate-go/internal/timeline"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSurvey() *models.Survey {
	return &models.Survey{
		GateInstruction: "Please move every slider.",
		ContinueLabel:   "Next",
		Questions: []models.Question{
			{ID: "Q1", Prompt: "Attractive?", MinLabel: "Not at all", MaxLabel: "Very"},
			{ID: "Q2", Prompt: "Trustworthy?"},
			{ID: "Q3", Prompt: "Dominant?"},
			{ID: "Q4", Prompt: "Tall?"},
		},
	}
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestStepRendersLockedTrial(t *testing.T) {
	codec := stimulus.DefaultCodec()
	trial := timeline.TrialDefinition{Block: "Male", Image: "stimuli/M.F.3_2.2.png", Meta: codec.Parse("stimuli/M.F.3_2.2.png")}
	html := render(t, Step(StepView{
		Step:        timeline.Step{Kind: timeline.KindRating, Block: "Male", Trial: &trial},
		TrialNumber: 3,
		TrialCount:  180,
		Survey:      testSurvey(),
		AssetBase:   "/assets",
	}))

	assert.Contains(t, html, `src="/assets/stimuli/M.F.3_2.2.png"`)
	assert.Equal(t, 4, strings.Count(html, `type="range"`))
	assert.Contains(t, html, `name="q4"`)
	assert.Contains(t, html, `data-control="3"`)
	assert.Contains(t, html, `<button type="submit" disabled>Next</button>`)
	assert.Contains(t, html, "Please move every slider.")
	assert.Contains(t, html, "3 / 180")
}

func TestStepRendersPreloadManifest(t *testing.T) {
	html := render(t, Step(StepView{
		Step:      timeline.Step{Kind: timeline.KindPreload, Images: []string{"stimuli/M.F.1_1.png", "stimuli/F.F.1_1.png"}},
		AssetBase: "/assets",
	}))

	assert.Contains(t, html, "data-preload=")
	assert.Contains(t, html, "/assets/stimuli/M.F.1_1.png")
	assert.Contains(t, html, "/assets/stimuli/F.F.1_1.png")
}

func TestStepRendersClosingRedirect(t *testing.T) {
	step := timeline.Step{Kind: timeline.KindClosing, Body: "Thank you!"}

	html := render(t, Step(StepView{Step: step, RedirectURL: "https://example.org/done", RedirectDelayMs: 1200}))
	assert.Contains(t, html, `data-redirect="https://example.org/done"`)
	assert.Contains(t, html, `data-delay="1200"`)

	html = render(t, Step(StepView{Step: step}))
	assert.Contains(t, html, "Thank you!")
	assert.NotContains(t, html, "data-redirect")
}

func TestLayoutWrapsChildren(t *testing.T) {
	child := Message("hello <world>")
	ctx := templ.WithChildren(context.Background(), child)

	var buf bytes.Buffer
	require.NoError(t, Layout("Survey", "tok", "n0nce").Render(ctx, &buf))
	html := buf.String()

	assert.Contains(t, html, "<title>Survey</title>")
	assert.Contains(t, html, `nonce="n0nce"`)
	assert.Contains(t, html, `data-csrf="tok"`)
	assert.Contains(t, html, "hello &lt;world&gt;")
	assert.Contains(t, html, `e.detail.parameters.touched`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(html), "</html>"))
}
