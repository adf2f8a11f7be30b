package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalysis(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		transcript string
		frames     string
	}{
		{
			name: "labelled sections",
			text: "Visuals: barista pours a tulip in slow motion\n" +
				"Transcript: \"three pours, that's the trick\"\n" +
				"Why it works: satisfying loop\n" +
				"Adaptation: film your own pour",
			transcript: "\"three pours, that's the trick\"",
			frames:     "barista pours a tulip in slow motion",
		},
		{
			name:   "markdown headers and no speech",
			text:   "**Visuals:** flat lay of pastries\n\n**Transcript:** None.\n\n**Adaptation:** shoot at opening",
			frames: "flat lay of pastries",
		},
		{
			name: "free text without sections",
			text: "A fun video about latte art.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analysis(tt.text)
			assert.Equal(t, tt.text, got.Summary)
			assert.Equal(t, tt.transcript, got.Transcript)
			assert.Equal(t, tt.frames, got.FrameAnalysis)
			assert.True(t, got.AnalyzedAt.IsZero())
		})
	}
}
