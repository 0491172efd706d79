// Package stimulus generates face image paths from the stimulus naming
// grammar and parses them back into metadata.
//
// A stimulus file is named <SexTag>.<faceId>_<heightCode><attractSuffix>.<ext>,
// for example "M.F.3_2.2.png" is male face 3, average height, less attractive.
package stimulus

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

const (
	SexTagMale   = "M.F"
	SexTagFemale = "F.F"
)

// SexTags lists the two tags in the order blocks are declared.
var SexTags = []string{SexTagMale, SexTagFemale}

var sexLabels = map[string]string{
	SexTagMale:   "Male",
	SexTagFemale: "Female",
}

// HeightCodes are enumerated in this order by Generate.
var HeightCodes = []string{"1", "2", "3"}

var heightLabels = map[string]string{
	"1": "Tall",
	"2": "Average",
	"3": "Short",
}

// AttractSuffixes are enumerated in this order by Generate. The empty suffix
// is the attractive version of a face.
var AttractSuffixes = []string{"", ".2", ".3"}

var attractLabels = map[string]string{
	"":   "Attractive",
	".2": "LessAttractive",
	".3": "VeryUnattractive",
}

// Metadata describes one stimulus. Every field is nil when the file name did
// not match the grammar.
type Metadata struct {
	Sex          *string `json:"sex"`
	FaceID       *int    `json:"face_id"`
	HeightCode   *string `json:"height_code"`
	HeightLabel  *string `json:"height_label"`
	AttractCode  *string `json:"attract_code"`
	AttractLabel *string `json:"attract_label"`
}

// Valid reports whether the metadata was recovered from a well-formed name.
func (m Metadata) Valid() bool {
	return m.Sex != nil
}

// Codec holds the fixed parts of the naming grammar.
type Codec struct {
	Dir       string
	Ext       string
	FaceCount int
}

// DefaultCodec returns the codec used when no configuration overrides it.
func DefaultCodec() Codec {
	return Codec{Dir: "stimuli", Ext: "png", FaceCount: 10}
}

// SexLabel maps a sex tag to its block label ("Male" or "Female").
func SexLabel(tag string) (string, bool) {
	label, ok := sexLabels[tag]
	return label, ok
}

// Name builds the base file name of one stimulus.
func (c Codec) Name(tag string, face int, heightCode, attractSuffix string) string {
	return fmt.Sprintf("%s.%d_%s%s.%s", tag, face, heightCode, attractSuffix, c.Ext)
}

// Generate enumerates every stimulus path for a sex tag: face outer, height
// middle, attractiveness inner.
func (c Codec) Generate(tag string) []string {
	paths := make([]string, 0, c.FaceCount*len(HeightCodes)*len(AttractSuffixes))
	for face := 1; face <= c.FaceCount; face++ {
		for _, h := range HeightCodes {
			for _, a := range AttractSuffixes {
				paths = append(paths, c.join(c.Name(tag, face, h, a)))
			}
		}
	}
	return paths
}

func (c Codec) join(name string) string {
	if c.Dir == "" {
		return name
	}
	return path.Join(c.Dir, name)
}

// namePattern matches a stimulus base name with its extension removed.
var namePattern = regexp.MustCompile(`^(M\.F|F\.F)\.([1-9][0-9]*)_([123])(\.2|\.3)?$`)

// Parse recovers the metadata of a stimulus path. Names that do not follow
// the grammar yield empty Metadata instead of an error.
func (c Codec) Parse(p string) Metadata {
	stem, ok := strings.CutSuffix(path.Base(p), "."+c.Ext)
	if !ok {
		return Metadata{}
	}
	m := namePattern.FindStringSubmatch(stem)
	if m == nil {
		return Metadata{}
	}
	face, err := strconv.Atoi(m[2])
	if err != nil || face < 1 || face > c.FaceCount {
		return Metadata{}
	}

	tag, heightCode, attractCode := m[1], m[3], m[4]
	sex := sexLabels[tag]
	height := heightLabels[heightCode]
	attract := attractLabels[attractCode]

	return Metadata{
		Sex:          &sex,
		FaceID:       &face,
		HeightCode:   &heightCode,
		HeightLabel:  &height,
		AttractCode:  &attractCode,
		AttractLabel: &attract,
	}
}
