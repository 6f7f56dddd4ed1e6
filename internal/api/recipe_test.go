package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souschef-app/backend/internal/model"
	"github.com/souschef-app/backend/internal/service"
)

type fakeTranscriber struct {
	transcript string
	err        error
	calls      int
}

func (f *fakeTranscriber) Recognize(_ context.Context, _ string, _ service.AudioConfig) (string, error) {
	f.calls++
	return f.transcript, f.err
}

type fakeInterpreter struct {
	intent *service.Interpretation
	err    error
	input  string
}

func (f *fakeInterpreter) Interpret(_ context.Context, transcript string) (*service.Interpretation, error) {
	f.input = transcript
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

type fakeFinder struct {
	recipes []model.Recipe
	err     error

	searchSentence   string
	searchExclusions []string
	byIDs            []string
	popularHome      bool
	recommendedIDs   []string
	recommendedHome  bool
	category         string
}

func (f *fakeFinder) Search(_ context.Context, sentence string, exclusions []string) ([]model.Recipe, error) {
	f.searchSentence = sentence
	f.searchExclusions = exclusions
	return f.recipes, f.err
}

func (f *fakeFinder) ByIDs(_ context.Context, ids []string) ([]model.Recipe, error) {
	f.byIDs = ids
	return f.recipes, f.err
}

func (f *fakeFinder) Popular(_ context.Context, onHomePage bool) ([]model.Recipe, error) {
	f.popularHome = onHomePage
	return f.recipes, f.err
}

func (f *fakeFinder) Recommended(_ context.Context, likedIDs []string, onHomePage bool) ([]model.Recipe, error) {
	f.recommendedIDs = likedIDs
	f.recommendedHome = onHomePage
	return f.recipes, f.err
}

func (f *fakeFinder) ByCategory(_ context.Context, category string) ([]model.Recipe, error) {
	f.category = category
	return f.recipes, f.err
}

func setupRouter(speech *fakeTranscriber, interp *fakeInterpreter, finder *fakeFinder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewRecipeHandler(speech, interp, finder, nil).RegisterRoutes(router)
	return router
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		req = httptest.NewRequest(method, path, bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	router.ServeHTTP(w, req)
	return w
}

func performRawRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRootAndHealth(t *testing.T) {
	router := setupRouter(&fakeTranscriber{}, &fakeInterpreter{}, &fakeFinder{})

	w := performRequest(router, "GET", "/", nil)
	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"Hello":"World"}`, w.Body.String())

	w = performRequest(router, "GET", "/health/", nil)
	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetRecipesValidatesInput(t *testing.T) {
	audioConfig := map[string]interface{}{
		"encoding":        "LINEAR16",
		"sampleRateHertz": 16000,
		"languageCode":    "en-US",
	}

	t.Run("should reject missing audioUrl before any external call", func(t *testing.T) {
		speech := &fakeTranscriber{}
		router := setupRouter(speech, &fakeInterpreter{}, &fakeFinder{})

		w := performRequest(router, "POST", "/get-recipes", map[string]interface{}{
			"audioConfig": audioConfig,
		})

		assert.Equal(t, 400, w.Code)
		assert.Equal(t, "audioUrl is required", decodeBody(t, w)["error"])
		assert.Zero(t, speech.calls)
	})

	t.Run("should reject missing audioConfig before any external call", func(t *testing.T) {
		speech := &fakeTranscriber{}
		router := setupRouter(speech, &fakeInterpreter{}, &fakeFinder{})

		w := performRequest(router, "POST", "/get-recipes", map[string]interface{}{
			"audioUrl": "base64-audio",
		})

		assert.Equal(t, 400, w.Code)
		assert.Equal(t, "audioConfig is required", decodeBody(t, w)["error"])
		assert.Zero(t, speech.calls)
	})

	t.Run("should reject a malformed body", func(t *testing.T) {
		router := setupRouter(&fakeTranscriber{}, &fakeInterpreter{}, &fakeFinder{})

		w := performRawRequest(router, "POST", "/get-recipes", "{not json")

		assert.Equal(t, 400, w.Code)
		assert.Equal(t, "Invalid JSON in the request body", decodeBody(t, w)["error"])
	})
}

func TestGetRecipesPipeline(t *testing.T) {
	audioPayload := map[string]interface{}{
		"audioUrl": "base64-audio",
		"audioConfig": map[string]interface{}{
			"encoding":        "LINEAR16",
			"sampleRateHertz": 16000,
			"languageCode":    "en-US",
		},
	}

	t.Run("should run transcription, interpretation and search", func(t *testing.T) {
		speech := &fakeTranscriber{transcript: "pancakes without milk"}
		interp := &fakeInterpreter{intent: &service.Interpretation{
			Sentence:   "pancake recipes",
			Exclusions: []string{"milk"},
			Answer:     "Here are some recipes for pancakes.",
		}}
		finder := &fakeFinder{recipes: []model.Recipe{{ID: "p1", Name: "Pancakes"}}}
		router := setupRouter(speech, interp, finder)

		w := performRequest(router, "POST", "/get-recipes", audioPayload)

		assert.Equal(t, 200, w.Code)
		assert.Equal(t, "pancakes without milk", interp.input)
		assert.Equal(t, "pancake recipes", finder.searchSentence)
		assert.Equal(t, []string{"milk", "Milk"}, finder.searchExclusions)

		body := decodeBody(t, w)
		assert.Equal(t, "pancakes without milk", body["input"])
		assert.Equal(t, "Here are some recipes for pancakes.", body["answer"])
		assert.Len(t, body["recipes"], 1)
	})

	t.Run("should fall back to an empty intent when interpretation fails", func(t *testing.T) {
		speech := &fakeTranscriber{transcript: "mumbling"}
		interp := &fakeInterpreter{err: errors.New("model unavailable")}
		finder := &fakeFinder{recipes: []model.Recipe{}}
		router := setupRouter(speech, interp, finder)

		w := performRequest(router, "POST", "/get-recipes", audioPayload)

		assert.Equal(t, 200, w.Code)
		assert.Equal(t, "", finder.searchSentence)
		assert.Empty(t, finder.searchExclusions)
		assert.Equal(t, "No answer provided.", decodeBody(t, w)["answer"])
	})

	t.Run("should surface transcription failures as 500", func(t *testing.T) {
		speech := &fakeTranscriber{err: errors.New("speech request failed with status 403: forbidden")}
		router := setupRouter(speech, &fakeInterpreter{}, &fakeFinder{})

		w := performRequest(router, "POST", "/get-recipes", audioPayload)

		assert.Equal(t, 500, w.Code)
		assert.Contains(t, decodeBody(t, w)["error"], "status 403")
	})
}

func TestGetRecipesByIDs(t *testing.T) {
	t.Run("should require recipeIds", func(t *testing.T) {
		router := setupRouter(&fakeTranscriber{}, &fakeInterpreter{}, &fakeFinder{})

		w := performRequest(router, "POST", "/get-recipes-by-ids", map[string]interface{}{})

		assert.Equal(t, 400, w.Code)
		assert.Equal(t, "recipeIds is required", decodeBody(t, w)["error"])
	})

	t.Run("should fetch the requested ids", func(t *testing.T) {
		finder := &fakeFinder{recipes: []model.Recipe{{ID: "a"}}}
		router := setupRouter(&fakeTranscriber{}, &fakeInterpreter{}, finder)

		w := performRequest(router, "POST", "/get-recipes-by-ids", map[string]interface{}{
			"recipeIds": []string{"a", "b"},
		})

		assert.Equal(t, 200, w.Code)
		assert.Equal(t, []string{"a", "b"}, finder.byIDs)
		assert.Len(t, decodeBody(t, w)["recipes"], 1)
	})
}

func TestGetPopularRecipes(t *testing.T) {
	t.Run("should require onHomePage", func(t *testing.T) {
		router := setupRouter(&fakeTranscriber{}, &fakeInterpreter{}, &fakeFinder{})

		w := performRequest(router, "POST", "/get-popular-recipes", map[string]interface{}{})

		assert.Equal(t, 400, w.Code)
		assert.Equal(t, "onHomePage is required", decodeBody(t, w)["error"])
	})

	t.Run("should pass the home page flag through", func(t *testing.T) {
		finder := &fakeFinder{recipes: []model.Recipe{{ID: "a"}}}
		router := setupRouter(&fakeTranscriber{}, &fakeInterpreter{}, finder)

		w := performRequest(router, "POST", "/get-popular-recipes", map[string]interface{}{
			"onHomePage": true,
		})

		assert.Equal(t, 200, w.Code)
		assert.True(t, finder.popularHome)
	})

	t.Run("should add a message when no recipes exist", func(t *testing.T) {
		finder := &fakeFinder{recipes: []model.Recipe{}}
		router := setupRouter(&fakeTranscriber{}, &fakeInterpreter{}, finder)

		w := performRequest(router, "POST", "/get-popular-recipes", map[string]interface{}{
			"onHomePage": false,
		})

		assert.Equal(t, 200, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "No recipes found.", body["message"])
		assert.Empty(t, body["recipes"])
	})
}

func TestGetRecommendedRecipes(t *testing.T) {
	t.Run("should require likedRecipeIds", func(t *testing.T) {
		router := setupRouter(&fakeTranscriber{}, &fakeInterpreter{}, &fakeFinder{})

		w := performRequest(router, "POST", "/get-recommended-recipes", map[string]interface{}{
			"onHomePage": true,
		})

		assert.Equal(t, 400, w.Code)
		assert.Equal(t, "likedRecipeIds is required", decodeBody(t, w)["error"])
	})

	t.Run("should map missing embeddings to 404", func(t *testing.T) {
		finder := &fakeFinder{err: model.ErrRecipeNotFound}
		router := setupRouter(&fakeTranscriber{}, &fakeInterpreter{}, finder)

		w := performRequest(router, "POST", "/get-recommended-recipes", map[string]interface{}{
			"likedRecipeIds": []string{"ghost"},
			"onHomePage":     true,
		})

		assert.Equal(t, 404, w.Code)
	})

	t.Run("should pass liked ids and flag through", func(t *testing.T) {
		finder := &fakeFinder{recipes: []model.Recipe{{ID: "s"}}}
		router := setupRouter(&fakeTranscriber{}, &fakeInterpreter{}, finder)

		w := performRequest(router, "POST", "/get-recommended-recipes", map[string]interface{}{
			"likedRecipeIds": []string{"a", "b"},
			"onHomePage":     true,
		})

		assert.Equal(t, 200, w.Code)
		assert.Equal(t, []string{"a", "b"}, finder.recommendedIDs)
		assert.True(t, finder.recommendedHome)
	})
}

func TestGetRecipesByCategory(t *testing.T) {
	t.Run("should require category", func(t *testing.T) {
		router := setupRouter(&fakeTranscriber{}, &fakeInterpreter{}, &fakeFinder{})

		w := performRequest(router, "POST", "/get-recipes-by-category", map[string]interface{}{})

		assert.Equal(t, 400, w.Code)
		assert.Equal(t, "category is required", decodeBody(t, w)["error"])
	})

	t.Run("should fetch the requested category", func(t *testing.T) {
		finder := &fakeFinder{recipes: []model.Recipe{{ID: "d"}}}
		router := setupRouter(&fakeTranscriber{}, &fakeInterpreter{}, finder)

		w := performRequest(router, "POST", "/get-recipes-by-category", map[string]interface{}{
			"category": "Dinner",
		})

		assert.Equal(t, 200, w.Code)
		assert.Equal(t, "Dinner", finder.category)
	})
}
