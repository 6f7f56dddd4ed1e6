package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/souschef-app/backend/internal/model"
	"github.com/souschef-app/backend/internal/service"
)

// Transcriber converts uploaded audio content into a transcript.
type Transcriber interface {
	Recognize(ctx context.Context, content string, cfg service.AudioConfig) (string, error)
}

// Interpreter extracts search intent from a transcript.
type Interpreter interface {
	Interpret(ctx context.Context, transcript string) (*service.Interpretation, error)
}

// RecipeFinder is the retrieval surface the handlers depend on.
type RecipeFinder interface {
	Search(ctx context.Context, sentence string, exclusions []string) ([]model.Recipe, error)
	ByIDs(ctx context.Context, ids []string) ([]model.Recipe, error)
	Popular(ctx context.Context, onHomePage bool) ([]model.Recipe, error)
	Recommended(ctx context.Context, likedIDs []string, onHomePage bool) ([]model.Recipe, error)
	ByCategory(ctx context.Context, category string) ([]model.Recipe, error)
}

type RecipeHandler struct {
	speech  Transcriber
	interp  Interpreter
	recipes RecipeFinder
	logger  *logrus.Logger
}

func NewRecipeHandler(speech Transcriber, interp Interpreter, recipes RecipeFinder, logger *logrus.Logger) *RecipeHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RecipeHandler{
		speech:  speech,
		interp:  interp,
		recipes: recipes,
		logger:  logger,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.Root)
	router.GET("/health/", h.Health)
	router.POST("/get-recipes", h.GetRecipes)
	router.POST("/get-recipes-by-ids", h.GetRecipesByIDs)
	router.POST("/get-popular-recipes", h.GetPopularRecipes)
	router.POST("/get-recommended-recipes", h.GetRecommendedRecipes)
	router.POST("/get-recipes-by-category", h.GetRecipesByCategory)
}

func (h *RecipeHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"Hello": "World"})
}

func (h *RecipeHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type getRecipesRequest struct {
	AudioURL    string               `json:"audioUrl"`
	AudioConfig *service.AudioConfig `json:"audioConfig"`
}

// GetRecipes runs the voice pipeline: transcribe, interpret, search.
func (h *RecipeHandler) GetRecipes(c *gin.Context) {
	var req getRecipesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON in the request body"})
		return
	}
	if req.AudioURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audioUrl is required"})
		return
	}
	if req.AudioConfig == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audioConfig is required"})
		return
	}

	ctx := c.Request.Context()

	transcript, err := h.speech.Recognize(ctx, req.AudioURL, *req.AudioConfig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	intent, err := h.interp.Interpret(ctx, transcript)
	if err != nil {
		// Interpreter failure never fails the request; search proceeds with
		// an empty intent.
		h.logger.WithError(err).Warn("transcript interpretation failed")
		intent = &service.Interpretation{Exclusions: []string{}, Answer: service.NoAnswer}
	}

	recipes, err := h.recipes.Search(ctx, intent.Sentence, service.ExpandExclusions(intent.Exclusions))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipes": recipes,
		"input":   transcript,
		"answer":  intent.Answer,
	})
}

func (h *RecipeHandler) GetRecipesByIDs(c *gin.Context) {
	var req struct {
		RecipeIDs []string `json:"recipeIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON in the request body"})
		return
	}
	if len(req.RecipeIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipeIds is required"})
		return
	}

	recipes, err := h.recipes.ByIDs(c.Request.Context(), req.RecipeIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) GetPopularRecipes(c *gin.Context) {
	var req struct {
		OnHomePage *bool `json:"onHomePage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON in the request body"})
		return
	}
	if req.OnHomePage == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "onHomePage is required"})
		return
	}

	recipes, err := h.recipes.Popular(c.Request.Context(), *req.OnHomePage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(recipes) == 0 {
		c.JSON(http.StatusOK, gin.H{"recipes": []model.Recipe{}, "message": "No recipes found."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) GetRecommendedRecipes(c *gin.Context) {
	var req struct {
		LikedRecipeIDs []string `json:"likedRecipeIds"`
		OnHomePage     *bool    `json:"onHomePage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON in the request body"})
		return
	}
	if len(req.LikedRecipeIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "likedRecipeIds is required"})
		return
	}
	if req.OnHomePage == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "onHomePage is required"})
		return
	}

	recipes, err := h.recipes.Recommended(c.Request.Context(), req.LikedRecipeIDs, *req.OnHomePage)
	if err != nil {
		if errors.Is(err, model.ErrRecipeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) GetRecipesByCategory(c *gin.Context) {
	var req struct {
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON in the request body"})
		return
	}
	if req.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category is required"})
		return
	}

	recipes, err := h.recipes.ByCategory(c.Request.Context(), req.Category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}
