package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"companion-server/internal/chat"
	"companion-server/internal/handler"
	"companion-server/internal/models"
	serviceMocks "companion-server/internal/service/mocks"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	router  *gin.Engine
	turns   *serviceMocks.TurnService
	catalog *serviceMocks.CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	turns := new(serviceMocks.TurnService)
	catalog := new(serviceMocks.CatalogService)
	rooms := chat.NewRoomManager(zap.NewNop())
	h := handler.NewHandler(turns, catalog, rooms, zap.NewNop())

	router := gin.New()
	h.RegisterRoutes(router, handler.AuthMiddleware(testJWTSecret, zap.NewNop()))
	return &testEnv{router: router, turns: turns, catalog: catalog}
}

func signToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	claims := models.UserClaims{
		UserID:      userID.String(),
		DisplayName: "Alex",
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func doJSON(env *testEnv, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing token", func(t *testing.T) {
		rec := doJSON(env, http.MethodGet, "/stories", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := doJSON(env, http.MethodGet, "/stories", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
		require.NoError(t, err)
		rec := doJSON(env, http.MethodGet, "/stories", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token passes", func(t *testing.T) {
		env.catalog.On("ListStories", mock.Anything, "", 0, 0).Return([]models.Story{}, nil).Once()
		rec := doJSON(env, http.MethodGet, "/stories", signToken(t, uuid.New(), "user"), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAdvanceTurnRoute(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	storyID := uuid.New()
	token := signToken(t, userID, "user")

	t.Run("success", func(t *testing.T) {
		env.turns.On("AdvanceTurn", mock.Anything, userID, storyID, "Alex", "I enter the forest.").
			Return(&models.TurnResult{
				Narration: "You find a mysterious map.",
				ChoiceA:   "Pick it up",
				ChoiceB:   "Leave it",
				TurnIndex: 1,
			}, nil).Once()

		rec := doJSON(env, http.MethodPost, "/stories/"+storyID.String()+"/turn", token,
			map[string]string{"input": "I enter the forest."})
		require.Equal(t, http.StatusOK, rec.Code)

		var result models.TurnResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "You find a mysterious map.", result.Narration)
		assert.Equal(t, 1, result.TurnIndex)
	})

	t.Run("invalid story id", func(t *testing.T) {
		rec := doJSON(env, http.MethodPost, "/stories/not-a-uuid/turn", token,
			map[string]string{"input": "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("error mapping", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
		}{
			{models.ErrStoryNotFound, http.StatusNotFound},
			{models.ErrTurnInProgress, http.StatusConflict},
			{models.ErrProgressConflict, http.StatusConflict},
			{models.ErrGenerationFailed, http.StatusBadGateway},
			{models.ErrPersistenceUnavailable, http.StatusServiceUnavailable},
		}
		for _, tc := range cases {
			env.turns.On("AdvanceTurn", mock.Anything, userID, storyID, "Alex", "x").
				Return(nil, tc.err).Once()
			rec := doJSON(env, http.MethodPost, "/stories/"+storyID.String()+"/turn", token,
				map[string]string{"input": "x"})
			assert.Equal(t, tc.status, rec.Code, "error %v", tc.err)
		}
	})
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	env := newTestEnv(t)
	userToken := signToken(t, uuid.New(), "user")

	rec := doJSON(env, http.MethodGet, "/admin/stats", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(env, http.MethodDelete, "/admin/stories/"+uuid.New().String(), userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	env.catalog.AssertNotCalled(t, "Stats", mock.Anything, mock.Anything)
	env.catalog.AssertNotCalled(t, "DeleteStory", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminCreateStory(t *testing.T) {
	env := newTestEnv(t)
	adminID := uuid.New()
	adminToken := signToken(t, adminID, "admin")
	protagonistID := uuid.New()

	env.catalog.On("CreateStory", mock.Anything,
		mock.MatchedBy(func(a models.Actor) bool { return a.UserID == adminID && a.IsAdmin() }),
		mock.MatchedBy(func(s *models.Story) bool {
			return s.Title == "Forest of Whispers" && s.ProtagonistID == protagonistID
		}),
	).Return(nil).Once()

	rec := doJSON(env, http.MethodPost, "/admin/stories", adminToken, map[string]any{
		"title":            "Forest of Whispers",
		"protagonistId":    protagonistID.String(),
		"openingSituation": "You stand at the edge of a dark forest.",
		"tags":             []string{"fantasy"},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	env.catalog.AssertExpectations(t)
}

func TestGetProgressRoute(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	storyID := uuid.New()
	token := signToken(t, userID, "user")

	env.turns.On("GetProgress", mock.Anything, userID, storyID).Return(&models.ProgressRecord{
		UserID:  userID,
		StoryID: storyID,
		CurrentContext: models.TurnContext{
			SituationSummary: "You stand at the edge of a dark forest.",
		},
		History: []models.TurnRecord{},
	}, nil).Once()

	rec := doJSON(env, http.MethodGet, "/stories/"+storyID.String()+"/progress", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var record models.ProgressRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "You stand at the edge of a dark forest.", record.CurrentContext.SituationSummary)
}

func TestResetProgressRoute(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	storyID := uuid.New()
	token := signToken(t, userID, "user")

	env.turns.On("ResetProgress", mock.Anything, userID, storyID).Return(nil).Once()

	rec := doJSON(env, http.MethodDelete, "/stories/"+storyID.String()+"/progress", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	env.turns.AssertExpectations(t)
}
