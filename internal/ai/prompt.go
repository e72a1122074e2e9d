package ai

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const narrationSystemPrompt = `You are %s, the narrator and protagonist of the interactive story "%s".
Your style: %s. Your voice tone: %s.
You narrate for the player named %s.

Continue the story by exactly one beat. Stay in character, write vivid second-person prose, 2-4 sentences.
Then offer exactly two distinct short actions the player can take next.

Respond with ONLY a JSON object, no markdown, in this exact shape:
{"narration": "...", "choiceA": "...", "choiceB": "..."}`

const narrationUserPromptTemplate = `The situation before this action:
%s

The action that just happened:
%s`

// PromptBuilder renders narration prompts and keeps them inside a token
// budget by truncating the head of an overlong situation summary (the most
// recent text is the part the model must see).
type PromptBuilder struct {
	model  string
	budget int
}

// NewPromptBuilder creates a builder for the given model. budget limits the
// token count of the rendered prompt pair; zero disables trimming.
func NewPromptBuilder(model string, budget int) *PromptBuilder {
	return &PromptBuilder{model: model, budget: budget}
}

// Build renders the system prompt and the user message for one turn.
func (b *PromptBuilder) Build(req NarrationRequest) (systemPrompt, userPrompt string) {
	style := strings.Join(req.Persona.StyleTags, ", ")
	if style == "" {
		style = "warm, attentive"
	}
	tone := req.Persona.VoiceTone
	if tone == "" {
		tone = "friendly"
	}
	playerName := req.PlayerName
	if playerName == "" {
		playerName = "the player"
	}

	systemPrompt = fmt.Sprintf(narrationSystemPrompt,
		req.Persona.Name, req.StoryTitle, style, tone, playerName)

	situation := b.trimSituation(systemPrompt, req.SituationBeforeAction, req.ActionJustTaken)
	userPrompt = fmt.Sprintf(narrationUserPromptTemplate, situation, req.ActionJustTaken)
	return systemPrompt, userPrompt
}

// trimSituation drops the oldest part of the situation text when the full
// prompt would exceed the token budget.
func (b *PromptBuilder) trimSituation(systemPrompt, situation, action string) string {
	if b.budget <= 0 {
		return situation
	}
	tke, err := tiktoken.EncodingForModel(b.model)
	if err != nil {
		// Unknown model name; fall back to the common encoding.
		tke, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return situation
		}
	}

	fixed := len(tke.Encode(systemPrompt, nil, nil)) +
		len(tke.Encode(narrationUserPromptTemplate, nil, nil)) +
		len(tke.Encode(action, nil, nil))
	remaining := b.budget - fixed
	if remaining <= 0 {
		remaining = 64 // always keep a minimal tail of context
	}

	tokens := tke.Encode(situation, nil, nil)
	if len(tokens) <= remaining {
		return situation
	}
	return tke.Decode(tokens[len(tokens)-remaining:])
}
