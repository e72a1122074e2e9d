package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// narrationPayload is the exact JSON shape the model is instructed to return.
type narrationPayload struct {
	Narration string `json:"narration"`
	ChoiceA   string `json:"choiceA"`
	ChoiceB   string `json:"choiceB"`
}

// ParseNarrationPayload parses and validates the raw model output.
// The contract is strict: a JSON object with narration, choiceA and choiceB,
// all non-empty after trimming. Anything else is a failure; the caller must
// not persist state on error. Markdown code fences around the object are
// tolerated because models add them even when told not to.
func ParseNarrationPayload(raw string) (*NarrationResult, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrNarrationFailed)
	}

	// Cut everything outside the outermost JSON object.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrNarrationFailed)
	}
	text = text[start : end+1]

	var payload narrationPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrNarrationFailed, err)
	}

	narration := strings.TrimSpace(payload.Narration)
	choiceA := strings.TrimSpace(payload.ChoiceA)
	choiceB := strings.TrimSpace(payload.ChoiceB)
	if narration == "" {
		return nil, fmt.Errorf("%w: narration is empty", ErrNarrationFailed)
	}
	if choiceA == "" || choiceB == "" {
		return nil, fmt.Errorf("%w: both choices are required", ErrNarrationFailed)
	}

	return &NarrationResult{
		Narration: narration,
		ChoiceA:   choiceA,
		ChoiceB:   choiceB,
	}, nil
}
