package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest(situation string) NarrationRequest {
	return NarrationRequest{
		Persona: PersonaPrompt{
			Name:      "Mira",
			StyleTags: []string{"mysterious", "warm"},
			VoiceTone: "soft",
		},
		StoryTitle:            "Forest of Whispers",
		PlayerName:            "Alex",
		SituationBeforeAction: situation,
		ActionJustTaken:       "I enter the forest.",
	}
}

func TestPromptBuilder_Build(t *testing.T) {
	b := NewPromptBuilder("gpt-4o-mini", 0)

	systemPrompt, userPrompt := b.Build(testRequest("You stand at the edge of a dark forest."))

	assert.Contains(t, systemPrompt, "Mira")
	assert.Contains(t, systemPrompt, "Forest of Whispers")
	assert.Contains(t, systemPrompt, "mysterious, warm")
	assert.Contains(t, systemPrompt, "soft")
	assert.Contains(t, systemPrompt, "Alex")
	assert.Contains(t, userPrompt, "You stand at the edge of a dark forest.")
	assert.Contains(t, userPrompt, "I enter the forest.")
}

func TestPromptBuilder_Defaults(t *testing.T) {
	b := NewPromptBuilder("gpt-4o-mini", 0)

	req := testRequest("s")
	req.Persona.StyleTags = nil
	req.Persona.VoiceTone = ""
	req.PlayerName = ""

	systemPrompt, _ := b.Build(req)
	assert.Contains(t, systemPrompt, "warm, attentive")
	assert.Contains(t, systemPrompt, "friendly")
	assert.Contains(t, systemPrompt, "the player")
}

func TestPromptBuilder_TrimsOverlongSituation(t *testing.T) {
	b := NewPromptBuilder("gpt-4o-mini", 300)

	head := "OLDEST PART. "
	tail := "The map still glows in your hand."
	situation := head + strings.Repeat("You walk deeper into the forest. ", 200) + tail

	_, userPrompt := b.Build(testRequest(situation))

	// The tail of the situation survives, the head is dropped.
	assert.Contains(t, userPrompt, tail)
	assert.NotContains(t, userPrompt, "OLDEST PART")
	assert.Less(t, len(userPrompt), len(situation))
}

func TestPromptBuilder_ShortSituationUntrimmed(t *testing.T) {
	b := NewPromptBuilder("gpt-4o-mini", 3000)

	situation := "You stand at the edge of a dark forest."
	_, userPrompt := b.Build(testRequest(situation))
	require.Contains(t, userPrompt, situation)
}

func TestPromptBuilder_ZeroBudgetDisablesTrimming(t *testing.T) {
	b := NewPromptBuilder("gpt-4o-mini", 0)

	situation := strings.Repeat("long ", 5000)
	_, userPrompt := b.Build(testRequest(situation))
	assert.Contains(t, userPrompt, situation)
}
