package views

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"path"

	"facerate-go/internal/models"
	"facerate-go/internal/timeline"

	"github.com/a-h/templ"
)

// StepView is everything needed to render one timeline step.
type StepView struct {
	Step timeline.Step
	// TrialNumber is 1-based among rating trials; TrialCount is their total.
	TrialNumber int
	TrialCount  int
	Survey      *models.Survey
	AssetBase   string

	// Set on the closing step only when the final save succeeded.
	RedirectURL     string
	RedirectDelayMs int64
}

// ImageURL maps a stimulus path to the URL it is served from.
func (v StepView) ImageURL(p string) string {
	return path.Join(v.AssetBase, p)
}

// PreloadJSON is the manifest of image URLs for the preload step.
func (v StepView) PreloadJSON() (string, error) {
	urls := make([]string, len(v.Step.Images))
	for i, p := range v.Step.Images {
		urls[i] = v.ImageURL(p)
	}
	body, err := json.Marshal(urls)
	return string(body), err
}

var stepTmpl = template.Must(template.New("step").Parse(`
{{define "next"}}<button type="button" hx-post="/survey/next" hx-target="#content"{{if .}} data-fullscreen{{end}}>Continue</button>{{end}}

{{if eq .Kind "fullscreen"}}
<section class="screen fullscreen">
  <p>{{.Body}}</p>
  {{template "next" true}}
</section>

{{else if eq .Kind "preload"}}
<section class="screen preload" data-preload="{{.Preload}}">
  <p>Loading images…</p>
</section>

{{else if eq .Kind "instructions"}}
<section class="screen instructions" data-name="{{.Name}}">
  {{if .Block}}<h2>{{.Block}} faces</h2>{{end}}
  <p>{{.Body}}</p>
  {{template "next" false}}
</section>

{{else if eq .Kind "image-slider-response"}}
<form class="trial" data-trial hx-post="/survey/respond" hx-target="#content">
  <p class="progress">{{.Progress}}</p>
  <img src="{{.Image}}" alt="Face stimulus">
  {{range $i, $q := .Questions}}
  <label class="slider">
    <span class="prompt">{{$q.Prompt}}</span>
    <input type="range" name="q{{$q.Number}}" min="1" max="7" step="1" value="4" data-control="{{$i}}">
    <span class="anchors"><span>{{$q.MinLabel}}</span><span>{{$q.MaxLabel}}</span></span>
  </label>
  {{end}}
  <p class="gate-instruction">{{.GateInstruction}}</p>
  <button type="submit" disabled>{{.ContinueLabel}}</button>
</form>

{{else}}
<section class="screen closing"{{if .RedirectURL}} data-redirect="{{.RedirectURL}}" data-delay="{{.RedirectDelayMs}}"{{end}}>
  <p>{{.Body}}</p>
</section>
{{end}}
`))

type sliderQuestion struct {
	models.Question
	Number int
}

type stepData struct {
	Kind            string
	Name            string
	Body            string
	Block           string
	Preload         string
	Image           string
	Progress        string
	Questions       []sliderQuestion
	GateInstruction string
	ContinueLabel   string
	RedirectURL     string
	RedirectDelayMs int64
}

// Step renders the partial for the current step.
func Step(v StepView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		data := stepData{
			Kind:            string(v.Step.Kind),
			Name:            v.Step.Name,
			Body:            v.Step.Body,
			Block:           v.Step.Block,
			RedirectURL:     v.RedirectURL,
			RedirectDelayMs: v.RedirectDelayMs,
		}
		switch v.Step.Kind {
		case timeline.KindPreload:
			manifest, err := v.PreloadJSON()
			if err != nil {
				return err
			}
			data.Preload = manifest
		case timeline.KindRating:
			data.Image = v.ImageURL(v.Step.Trial.Image)
			data.Progress = progress(v.TrialNumber, v.TrialCount)
			if v.Survey != nil {
				data.GateInstruction = v.Survey.GateInstruction
				data.ContinueLabel = v.Survey.ContinueLabel
				for i, q := range v.Survey.Questions {
					data.Questions = append(data.Questions, sliderQuestion{Question: q, Number: i + 1})
				}
			}
		}
		return stepTmpl.Execute(w, data)
	})
}

func progress(number, count int) string {
	if count <= 0 {
		return ""
	}
	return fmt.Sprintf("%d / %d", number, count)
}
