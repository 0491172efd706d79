package stimulus

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCountAndUniqueness(t *testing.T) {
	codec := DefaultCodec()
	for _, tag := range SexTags {
		paths := codec.Generate(tag)
		require.Len(t, paths, codec.FaceCount*3*3, tag)

		seen := make(map[string]bool, len(paths))
		for _, p := range paths {
			assert.False(t, seen[p], "duplicate path %s", p)
			seen[p] = true
		}
	}
}

func TestGenerateOrder(t *testing.T) {
	codec := Codec{Ext: "png", FaceCount: 2}
	paths := codec.Generate(SexTagFemale)

	assert.Equal(t, []string{
		"F.F.1_1.png", "F.F.1_1.2.png", "F.F.1_1.3.png",
		"F.F.1_2.png", "F.F.1_2.2.png", "F.F.1_2.3.png",
		"F.F.1_3.png", "F.F.1_3.2.png", "F.F.1_3.3.png",
	}, paths[:9])
	assert.Equal(t, "F.F.2_1.png", paths[9])
}

func TestGenerateWithDir(t *testing.T) {
	codec := Codec{Dir: "stimuli", Ext: "png", FaceCount: 1}
	assert.Equal(t, "stimuli/M.F.1_1.png", codec.Generate(SexTagMale)[0])
}

func TestParseRoundTrip(t *testing.T) {
	codec := DefaultCodec()
	for _, tag := range SexTags {
		i := 0
		for face := 1; face <= codec.FaceCount; face++ {
			for _, h := range HeightCodes {
				for _, a := range AttractSuffixes {
					p := codec.Generate(tag)[i]
					i++

					meta := codec.Parse(p)
					require.True(t, meta.Valid(), p)
					wantSex, _ := SexLabel(tag)
					assert.Equal(t, wantSex, *meta.Sex, p)
					assert.Equal(t, face, *meta.FaceID, p)
					assert.Equal(t, h, *meta.HeightCode, p)
					assert.Equal(t, a, *meta.AttractCode, p)
				}
			}
		}
	}
}

func TestParseScenario(t *testing.T) {
	meta := DefaultCodec().Parse("M.F.3_2.2.png")

	require.True(t, meta.Valid())
	assert.Equal(t, "Male", *meta.Sex)
	assert.Equal(t, 3, *meta.FaceID)
	assert.Equal(t, "Average", *meta.HeightLabel)
	assert.Equal(t, "LessAttractive", *meta.AttractLabel)
}

func TestParseLabels(t *testing.T) {
	codec := DefaultCodec()

	meta := codec.Parse("stimuli/F.F.10_1.png")
	require.True(t, meta.Valid())
	assert.Equal(t, "Female", *meta.Sex)
	assert.Equal(t, "Tall", *meta.HeightLabel)
	assert.Equal(t, "Attractive", *meta.AttractLabel)

	meta = codec.Parse("F.F.4_3.3.png")
	require.True(t, meta.Valid())
	assert.Equal(t, "Short", *meta.HeightLabel)
	assert.Equal(t, "VeryUnattractive", *meta.AttractLabel)
}

func TestParseMalformed(t *testing.T) {
	codec := DefaultCodec()
	cases := []string{
		"",
		"M.F.3_2.2",
		"M.F.3_4.png",
		"M.F.3_2.4.png",
		"X.F.3_2.png",
		"M.F.0_1.png",
		fmt.Sprintf("M.F.%d_1.png", codec.FaceCount+1),
		"M.F.3_2.jpg",
		"M.F.3_2.2.png.bak",
		"M.F.03_2.png",
		"M.F.3_2Xpng",
		"M.F.3_2.png.png",
	}
	for _, p := range cases {
		t.Run(p, func(t *testing.T) {
			meta := codec.Parse(p)
			assert.False(t, meta.Valid())
			assert.Equal(t, Metadata{}, meta)
		})
	}
}
