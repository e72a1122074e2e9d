package handler

import (
	"net/http"
	"strconv"

	"companion-server/internal/chat"
	"companion-server/internal/models"
	"companion-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler wires the HTTP surface to the services.
type Handler struct {
	turns   service.TurnService
	catalog service.CatalogService
	rooms   *chat.RoomManager
	logger  *zap.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(turns service.TurnService, catalog service.CatalogService, rooms *chat.RoomManager, logger *zap.Logger) *Handler {
	return &Handler{
		turns:   turns,
		catalog: catalog,
		rooms:   rooms,
		logger:  logger.Named("Handler"),
	}
}

// RegisterRoutes attaches all application routes to the router.
// The health endpoint and metrics are registered by main alongside the
// middleware stack.
func (h *Handler) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	api := router.Group("", auth)

	api.GET("/stories", h.listStories)
	api.GET("/stories/:id", h.getStory)
	api.GET("/personas", h.listPersonas)
	api.GET("/personas/:id", h.getPersona)

	api.POST("/stories/:id/turn", h.advanceTurn)
	api.GET("/stories/:id/progress", h.getProgress)
	api.DELETE("/stories/:id/progress", h.resetProgress)
	api.GET("/progress", h.listProgress)

	api.GET("/ws/rooms/:room_id", h.serveRoom)

	admin := api.Group("/admin", AdminOnly())
	admin.GET("/stories", h.adminListStories)
	admin.POST("/stories", h.adminCreateStory)
	admin.PUT("/stories/:id", h.adminUpdateStory)
	admin.PATCH("/stories/:id/published", h.adminSetStoryPublished)
	admin.DELETE("/stories/:id", h.adminDeleteStory)
	admin.POST("/personas", h.adminCreatePersona)
	admin.PUT("/personas/:id", h.adminUpdatePersona)
	admin.DELETE("/personas/:id", h.adminDeletePersona)
	admin.GET("/stats", h.adminStats)
}

// mustActor returns the authenticated actor or writes a 401 and reports false.
func (h *Handler) mustActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		respondError(c, models.ErrUnauthorized)
		return models.Actor{}, false
	}
	return actor, true
}

// uuidParam parses a UUID path parameter or writes a 400 and reports false.
func (h *Handler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	return limit, offset
}
