package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// advanceTurn runs one turn of the story for the authenticated user.
// An empty input is a no-op that returns the current state.
func (h *Handler) advanceTurn(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	storyID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req advanceTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	playerName := req.PlayerName
	if playerName == "" {
		playerName = actor.DisplayName
	}

	result, err := h.turns.AdvanceTurn(c.Request.Context(), actor.UserID, storyID, playerName, req.Input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getProgress(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	storyID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	record, err := h.turns.GetProgress(c.Request.Context(), actor.UserID, storyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) resetProgress(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	storyID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.turns.ResetProgress(c.Request.Context(), actor.UserID, storyID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listProgress(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	limit, offset := pageParams(c)

	records, err := h.turns.ListProgress(c.Request.Context(), actor.UserID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(records))
}
