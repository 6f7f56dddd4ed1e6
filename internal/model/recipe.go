package model

import "errors"

// ErrRecipeNotFound is returned when referenced recipe ids have no stored
// record or embedding. Handlers map it to a 404 response.
var ErrRecipeNotFound = errors.New("recipe not found or embedding missing")

// RecipeDocument is the searchable content body of a recipe. It is stored
// verbatim in the vector store as a single JSON string and parsed back into
// its fields on read.
type RecipeDocument struct {
	Name         string   `json:"Name"`
	Description  string   `json:"Description"`
	Ingredients  []string `json:"Ingredients"`
	Instructions []string `json:"Instructions"`
	DishType     string   `json:"DishType"`
	SubCategory  string   `json:"SubCategory"`
}

// RecipeMetadata holds the structured fields used for filtering and sorting,
// stored alongside the document body in the point payload.
type RecipeMetadata struct {
	ID           string  `json:"Id"`
	Name         string  `json:"Name"`
	Ingredients  string  `json:"Ingredients"`
	URL          string  `json:"Url"`
	ImageURL     string  `json:"ImageUrl"`
	Author       string  `json:"Author"`
	Ratings      float64 `json:"Ratings"`
	Time         int     `json:"Time"`
	Servings     string  `json:"Servings"`
	Difficulty   string  `json:"Difficulty"`
	Votes        int     `json:"Votes"`
	MainCategory string  `json:"MainCategory"`
}

// Difficulty levels as exposed in recipe metadata. Source data labels are
// mapped to these at ingestion time; unknown labels map to the empty string.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Recipe is the public-facing shape returned by every endpoint, merging
// document fields with selected metadata. It is constructed per request and
// never persisted.
type Recipe struct {
	ID           string   `json:"Id"`
	Name         string   `json:"Name"`
	Description  string   `json:"Description"`
	Ingredients  []string `json:"Ingredients"`
	Instructions []string `json:"Instructions"`
	DishType     string   `json:"DishType"`
	ImageURL     string   `json:"ImageUrl"`
	Author       string   `json:"Author"`
	Difficulty   string   `json:"Difficulty"`
	Time         int      `json:"Time"`
	Servings     string   `json:"Servings"`
	Votes        int      `json:"Votes"`
}
