package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listStories(c *gin.Context) {
	limit, offset := pageParams(c)
	stories, err := h.catalog.ListStories(c.Request.Context(), c.Query("tag"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(stories))
}

func (h *Handler) getStory(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	story, err := h.catalog.GetStory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *Handler) listPersonas(c *gin.Context) {
	limit, offset := pageParams(c)
	personas, err := h.catalog.ListPersonas(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(personas))
}

func (h *Handler) getPersona(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	persona, err := h.catalog.GetPersona(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, persona)
}
