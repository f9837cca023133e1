package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ulam-ai/internal/core/account"
	"ulam-ai/internal/core/orchestrator"
	"ulam-ai/internal/core/recipe"
	"ulam-ai/internal/core/resultcache"
	"ulam-ai/internal/core/store"
	"ulam-ai/internal/infrastructure/config"
	"ulam-ai/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSuggester struct{}

func (stubSuggester) SuggestDishes(ctx context.Context, req recipe.SuggestRequest) ([]common.DishSuggestion, error) {
	return recipe.Rank([]common.DishSuggestion{
		{ID: "1", Name: "Chicken Adobo", RequiredIngredients: []string{"chicken", "garlic", "vinegar"}},
		{ID: "2", Name: "Ginisang Monggo", RequiredIngredients: []string{"mung beans"}},
	}, req.Pantry), nil
}

type stubDetails struct{}

func (stubDetails) FetchDetail(ctx context.Context, req recipe.DetailRequest) (*common.RecipeDetail, error) {
	return &common.RecipeDetail{
		ChefNote:     "Cook " + req.Dish.Name,
		Ingredients:  []common.DetailIngredient{{Item: "chicken", Status: common.StatusHave}},
		Instructions: []common.InstructionStep{{StepNumber: 1, Text: "Simmer."}},
	}, nil
}

type stubImages struct{}

func (stubImages) Resolve(ctx context.Context, name string) string {
	return "https://img.example/" + name + ".jpg"
}

type stubScanner struct{}

func (stubScanner) ScanIngredients(ctx context.Context, imageData string) ([]string, error) {
	if imageData == "bad" {
		return nil, common.ErrInvalidRequest
	}
	return []string{"Tomato", "Garlic"}, nil
}

type testServer struct {
	router   *gin.Engine
	verifier *account.Verifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	docs := store.NewMemoryStore()
	cache, err := resultcache.New(docs, "ulam_ai_recipe_cache_v1", 0)
	require.NoError(t, err)
	sessions := orchestrator.NewManager(&orchestrator.Deps{
		Suggester:     stubSuggester{},
		Details:       stubDetails{},
		Images:        stubImages{},
		Cache:         cache,
		DetailTimeout: time.Second,
		ImageTimeout:  time.Second,
	}, docs, time.Hour)
	t.Cleanup(sessions.Close)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	accountStore, err := account.NewStore(db)
	require.NoError(t, err)
	verifier := account.NewVerifier(&config.AuthConfig{JWTSecret: "test-secret"})

	cfg := &config.Config{
		App:    config.AppConfig{Debug: true, Version: "test"},
		Server: config.ServerConfig{MaxBodyBytes: 1 << 20, RequestTimeout: 5 * time.Second},
	}
	router := SetupRouter(cfg, &Dependencies{
		Sessions: sessions,
		Scanner:  stubScanner{},
		Accounts: account.NewService(accountStore, verifier),
	})
	return &testServer{router: router, verifier: verifier}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (s *testServer) createSession(t *testing.T) string {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/v1/sessions", nil, "")
	require.Equal(t, http.StatusCreated, code)
	id, _ := body["session_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func errorCode(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

func TestSuggestSelectAndSaveFlow(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t)
	base := "/api/v1/sessions/" + id

	code, body := s.do(t, http.MethodPost, base+"/suggestions", nil, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, common.ErrCodeInvalidRequest, errorCode(body))

	code, body = s.do(t, http.MethodPost, base+"/pantry", map[string]interface{}{"items": []string{"Chicken", "Garlic", "chicken "}}, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{"Chicken", "Garlic"}, body["items"])

	code, body = s.do(t, http.MethodPost, base+"/suggestions", map[string]interface{}{"party_size": 4}, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "suggested", body["phase"])
	suggestions := body["suggestions"].([]interface{})
	require.Len(t, suggestions, 2)
	assert.Equal(t, "Chicken Adobo", suggestions[0].(map[string]interface{})["name"])

	code, _ = s.do(t, http.MethodPost, base+"/selection", map[string]interface{}{"dish_id": "1"}, "")
	require.Equal(t, http.StatusOK, code)

	var view map[string]interface{}
	require.Eventually(t, func() bool {
		_, view = s.do(t, http.MethodGet, base, nil, "")
		image, _ := view["image"].(map[string]interface{})
		return view["phase"] == "ready" && image["status"] == "resolved"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Cook Chicken Adobo", view["detail"].(map[string]interface{})["chefNote"])

	// 未登入不能收藏
	code, body = s.do(t, http.MethodPost, base+"/save", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, common.ErrCodeSaveRejectedNoIdentity, errBody["code"])
	assert.Equal(t, "login", errBody["redirect"])
	assert.Equal(t, float64(3000), errBody["dismiss_after_ms"])

	token, err := s.verifier.Issue(account.Identity{UserID: "cook-1", Email: "cook@example.com", EmailConfirmed: true}, time.Hour)
	require.NoError(t, err)

	code, body = s.do(t, http.MethodPost, base+"/save", nil, token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["saved"])

	code, body = s.do(t, http.MethodGet, "/api/v1/saved", nil, token)
	require.Equal(t, http.StatusOK, code)
	saved := body["recipes"].([]interface{})
	require.Len(t, saved, 1)
	savedID := saved[0].(map[string]interface{})["savedId"].(string)
	assert.Equal(t, "https://img.example/Chicken Adobo.jpg", saved[0].(map[string]interface{})["image"])

	// 另一個會話直接開啟收藏，不需重新生成
	other := "/api/v1/sessions/" + s.createSession(t)
	code, body = s.do(t, http.MethodPost, other+"/selection", map[string]interface{}{"saved_recipe_id": savedID}, token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["phase"])
	assert.Equal(t, "Cook Chicken Adobo", body["detail"].(map[string]interface{})["chefNote"])

	code, _ = s.do(t, http.MethodDelete, "/api/v1/saved/"+savedID, nil, token)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = s.do(t, http.MethodDelete, "/api/v1/saved/"+savedID, nil, token)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(t, http.MethodGet, base+"/recent", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["recipes"], 1)

	code, body = s.do(t, http.MethodPost, base+"/reset", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "idle", body["phase"])
}

func TestSaveRequiresReadyRecipe(t *testing.T) {
	s := newTestServer(t)
	base := "/api/v1/sessions/" + s.createSession(t)
	token, err := s.verifier.Issue(account.Identity{UserID: "cook-1", EmailConfirmed: true}, time.Hour)
	require.NoError(t, err)

	code, body := s.do(t, http.MethodPost, base+"/save", nil, token)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, common.ErrCodeInvalidRequest, errorCode(body))

	code, body = s.do(t, http.MethodPost, base+"/save", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, common.ErrCodeUnauthorized, errorCode(body))
}

func TestPantryEndpoints(t *testing.T) {
	s := newTestServer(t)
	base := "/api/v1/sessions/" + s.createSession(t)

	code, body := s.do(t, http.MethodPost, base+"/pantry/scan", map[string]interface{}{"image": "data:image/jpeg;base64,QUJD"}, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{"Tomato", "Garlic"}, body["detected"])
	assert.Equal(t, []interface{}{"Tomato", "Garlic"}, body["items"])

	code, _ = s.do(t, http.MethodPost, base+"/pantry/scan", map[string]interface{}{"image": "bad"}, "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(t, http.MethodDelete, base+"/pantry/0", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{"Garlic"}, body["items"])

	code, _ = s.do(t, http.MethodDelete, base+"/pantry/7", nil, "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(t, http.MethodDelete, base+"/pantry/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(t, http.MethodDelete, base+"/pantry", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["items"])

	code, _ = s.do(t, http.MethodPost, base+"/pantry", map[string]interface{}{"items": []string{}}, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSelectionErrors(t *testing.T) {
	s := newTestServer(t)
	base := "/api/v1/sessions/" + s.createSession(t)

	code, _ := s.do(t, http.MethodPost, base+"/selection", map[string]interface{}{"dish_id": "missing"}, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPost, base+"/selection", map[string]interface{}{}, "")
	assert.Equal(t, http.StatusBadRequest, code)

	// 精選菜色可以直接選取
	code, body := s.do(t, http.MethodPost, base+"/selection", map[string]interface{}{"dish_id": "f1"}, "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, []interface{}{"detailing", "ready"}, body["phase"])

	code, _ = s.do(t, http.MethodGet, "/api/v1/sessions/not-a-session", nil, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPublicEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/api/v1/featured", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["recipes"], 6)

	code, _ = s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusOK, code)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ulam_http_requests_total")
}
