package models

import (
	"time"

	"github.com/google/uuid"
)

// TurnContext is the head pointer of a player's narrative within one story.
// SituationSummary always carries the latest accepted narration (or the
// story's opening situation before the first turn). ChoiceA and ChoiceB are
// either both set or both empty.
type TurnContext struct {
	SituationSummary string `db:"situation_summary" json:"situationSummary"`
	LastUserAction   string `db:"last_user_action" json:"lastUserAction"`
	ChoiceA          string `db:"choice_a" json:"choiceA,omitempty"`
	ChoiceB          string `db:"choice_b" json:"choiceB,omitempty"`
}

// HasChoices reports whether the context offers options for the next action.
func (c TurnContext) HasChoices() bool {
	return c.ChoiceA != "" && c.ChoiceB != ""
}

// TurnRecord is one completed turn in the append-only history.
type TurnRecord struct {
	TurnIndex      int       `db:"turn_index" json:"turnIndex"`
	UserChoice     string    `db:"user_choice" json:"userChoice"`
	AINarration    string    `db:"ai_narration" json:"aiNarration"`
	OfferedChoiceA string    `db:"offered_choice_a" json:"offeredChoiceA"`
	OfferedChoiceB string    `db:"offered_choice_b" json:"offeredChoiceB"`
	Timestamp      time.Time `db:"created_at" json:"timestamp"`
}

// ProgressRecord is the persisted per-(user, story) narrative state.
// CurrentContext and History only ever move together, inside a single
// transaction, so readers never observe one without the other.
type ProgressRecord struct {
	UserID         uuid.UUID    `json:"userId"`
	StoryID        uuid.UUID    `json:"storyId"`
	CurrentContext TurnContext  `json:"currentContext"`
	History        []TurnRecord `json:"history"`
	// Denormalized copies taken at record creation; intentionally never
	// refreshed when the story is edited later.
	StoryTitleSnapshot    string    `json:"storyTitleSnapshot"`
	ProtagonistIDSnapshot uuid.UUID `json:"protagonistIdSnapshot"`
	// Version guards applyTurn writes: the update fails with
	// ErrProgressConflict when it no longer matches the stored row.
	Version      int64     `json:"version"`
	LastPlayedAt time.Time `json:"lastPlayedAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ProgressSnapshot carries the denormalized story fields applyTurn needs
// when it has to create the record on a player's first turn.
type ProgressSnapshot struct {
	StoryTitle    string
	ProtagonistID uuid.UUID
}

// TurnResult is what one advanceTurn call hands back to the client: the new
// narration with its choices and the state the record is now in. NoOp marks
// an empty-input call that generated nothing and changed nothing.
type TurnResult struct {
	Narration string          `json:"narration"`
	ChoiceA   string          `json:"choiceA"`
	ChoiceB   string          `json:"choiceB"`
	TurnIndex int             `json:"turnIndex"`
	Progress  *ProgressRecord `json:"progress,omitempty"`
	NoOp      bool            `json:"noOp,omitempty"`
}
