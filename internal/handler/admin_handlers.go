package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) adminListStories(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	limit, offset := pageParams(c)
	stories, err := h.catalog.ListAllStories(c.Request.Context(), actor, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(stories))
}

func (h *Handler) adminCreateStory(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	var req storyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	protagonistID, err := uuid.Parse(req.ProtagonistID)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid protagonistId"})
		return
	}

	story := req.toModel()
	story.ProtagonistID = protagonistID
	if err := h.catalog.CreateStory(c.Request.Context(), actor, story); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, story)
}

func (h *Handler) adminUpdateStory(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req storyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	protagonistID, err := uuid.Parse(req.ProtagonistID)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid protagonistId"})
		return
	}

	story := req.toModel()
	story.ID = id
	story.ProtagonistID = protagonistID
	if err := h.catalog.UpdateStory(c.Request.Context(), actor, story); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *Handler) adminSetStoryPublished(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req setPublishedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.catalog.SetStoryPublished(c.Request.Context(), actor, id, req.IsPublished); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) adminDeleteStory(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteStory(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) adminCreatePersona(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	var req personaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	persona := req.toModel()
	if err := h.catalog.CreatePersona(c.Request.Context(), actor, persona); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, persona)
}

func (h *Handler) adminUpdatePersona(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req personaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	persona := req.toModel()
	persona.ID = id
	if err := h.catalog.UpdatePersona(c.Request.Context(), actor, persona); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, persona)
}

func (h *Handler) adminDeletePersona(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeletePersona(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) adminStats(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	stats, err := h.catalog.Stats(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
