package handler

import (
	"companion-server/internal/models"
)

// advanceTurnRequest is the body of POST /stories/:id/turn.
type advanceTurnRequest struct {
	PlayerName string `json:"playerName"`
	Input      string `json:"input"`
}

// storyRequest is the body of admin story create and update calls.
type storyRequest struct {
	Title            string   `json:"title" binding:"required"`
	Description      string   `json:"description"`
	ProtagonistID    string   `json:"protagonistId" binding:"required"`
	Tags             []string `json:"tags"`
	OpeningSituation string   `json:"openingSituation" binding:"required"`
	IsPublished      bool     `json:"isPublished"`
}

// personaRequest is the body of admin persona create and update calls.
type personaRequest struct {
	Name      string   `json:"name" binding:"required"`
	StyleTags []string `json:"styleTags"`
	VoiceTone string   `json:"voiceTone"`
	Greeting  string   `json:"greeting"`
	AvatarURL string   `json:"avatarUrl"`
}

// setPublishedRequest is the body of the story publish toggle.
type setPublishedRequest struct {
	IsPublished bool `json:"isPublished"`
}

// listResponse wraps collection payloads.
type listResponse[T any] struct {
	Items []T `json:"items"`
}

func newListResponse[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items}
}

func (r storyRequest) toModel() *models.Story {
	return &models.Story{
		Title:            r.Title,
		Description:      r.Description,
		Tags:             r.Tags,
		OpeningSituation: r.OpeningSituation,
		IsPublished:      r.IsPublished,
	}
}

func (r personaRequest) toModel() *models.Persona {
	return &models.Persona{
		Name:      r.Name,
		StyleTags: r.StyleTags,
		VoiceTone: r.VoiceTone,
		Greeting:  r.Greeting,
		AvatarURL: r.AvatarURL,
	}
}
