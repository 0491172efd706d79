// Package timeline builds the ordered list of steps a participant walks
// through: intro screens, two randomized blocks of rating trials and a
// closing screen.
package timeline

import (
	"math/rand/v2"

	"facerate-go/internal/stimulus"
)

// Kind identifies what a step asks of the participant.
type Kind string

const (
	KindFullscreen   Kind = "fullscreen"
	KindPreload      Kind = "preload"
	KindInstructions Kind = "instructions"
	KindRating       Kind = "image-slider-response"
	KindClosing      Kind = "closing"
)

// TrialDefinition is one stimulus shown inside a block.
type TrialDefinition struct {
	Block string            `json:"block"`
	Image string            `json:"image"`
	Meta  stimulus.Metadata `json:"meta"`
}

// Block groups the trials of one sex.
type Block struct {
	Label  string
	Intro  string
	Trials []TrialDefinition
}

// Screens carries the copy shown on the non-trial steps.
type Screens struct {
	Fullscreen   string
	Welcome      string
	Instructions string
	BlockIntros  map[string]string
	ThankYou     string
}

// Step is one entry of the linear timeline.
type Step struct {
	Kind   Kind             `json:"type"`
	Name   string           `json:"name"`
	Body   string           `json:"body,omitempty"`
	Block  string           `json:"block,omitempty"`
	Trial  *TrialDefinition `json:"trial,omitempty"`
	Images []string         `json:"images,omitempty"`
}

// Document is the fully linearized timeline for one session.
type Document struct {
	BlockOrder []string `json:"block_order"`
	Steps      []Step   `json:"steps"`
}

// Trials returns the rating trials in presentation order.
func (d Document) Trials() []TrialDefinition {
	var trials []TrialDefinition
	for _, s := range d.Steps {
		if s.Kind == KindRating {
			trials = append(trials, *s.Trial)
		}
	}
	return trials
}

// Preload returns the image manifest of the preload step.
func (d Document) Preload() []string {
	for _, s := range d.Steps {
		if s.Kind == KindPreload {
			return s.Images
		}
	}
	return nil
}

// Definitions builds one trial per stimulus of a sex tag, in codec order.
func Definitions(codec stimulus.Codec, tag string) []TrialDefinition {
	label, _ := stimulus.SexLabel(tag)
	paths := codec.Generate(tag)
	defs := make([]TrialDefinition, len(paths))
	for i, p := range paths {
		defs[i] = TrialDefinition{Block: label, Image: p, Meta: codec.Parse(p)}
	}
	return defs
}

// Build concatenates the blocks, already in their final order, into a
// timeline. It does no randomization.
func Build(blocks [2]Block, screens Screens) Document {
	doc := Document{}

	var images []string
	for _, b := range blocks {
		doc.BlockOrder = append(doc.BlockOrder, b.Label)
		for _, t := range b.Trials {
			images = append(images, t.Image)
		}
	}

	doc.Steps = append(doc.Steps,
		Step{Kind: KindFullscreen, Name: "fullscreen", Body: screens.Fullscreen},
		Step{Kind: KindPreload, Name: "preload", Images: images},
		Step{Kind: KindInstructions, Name: "welcome", Body: screens.Welcome},
		Step{Kind: KindInstructions, Name: "instructions", Body: screens.Instructions},
	)

	for _, b := range blocks {
		doc.Steps = append(doc.Steps, Step{Kind: KindInstructions, Name: "block_intro", Body: b.Intro, Block: b.Label})
		for i := range b.Trials {
			trial := b.Trials[i]
			doc.Steps = append(doc.Steps, Step{Kind: KindRating, Name: "trial", Block: b.Label, Trial: &trial})
		}
	}

	doc.Steps = append(doc.Steps, Step{Kind: KindClosing, Name: "thank_you", Body: screens.ThankYou})
	return doc
}

// Assemble performs the once-per-session construction: trial definitions,
// an independent shuffle per block, a block order draw, then Build.
func Assemble(rng *rand.Rand, codec stimulus.Codec, screens Screens) Document {
	blocks := make([]Block, 0, len(stimulus.SexTags))
	for _, tag := range stimulus.SexTags {
		label, _ := stimulus.SexLabel(tag)
		blocks = append(blocks, Block{
			Label:  label,
			Intro:  screens.BlockIntros[label],
			Trials: ShuffleTrials(rng, Definitions(codec, tag)),
		})
	}
	return Build(ShuffleBlocks(rng, blocks[0], blocks[1]), screens)
}
