// Package ingest loads the scraped recipe collections and prepares them for
// the vector store.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/souschef-app/backend/internal/model"
	"github.com/souschef-app/backend/internal/store"
)

// SourceFiles are the recipe collections read from the data directory.
var SourceFiles = []string{
	"recipes.json",
	"baking.json",
	"budget.json",
	"health.json",
	"inspiration.json",
}

// SourceRecipe mirrors one entry of the scraped collections.
type SourceRecipe struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Ingredients  []string          `json:"ingredients"`
	Steps        []string          `json:"steps"`
	DishType     string            `json:"dish_type"`
	SubCategory  string            `json:"subcategory"`
	URL          string            `json:"url"`
	Image        string            `json:"image"`
	Author       string            `json:"author"`
	Ratings      float64           `json:"rattings"`
	Times        map[string]string `json:"times"`
	Serves       flexString        `json:"serves"`
	Difficult    string            `json:"difficult"`
	VoteCount    int               `json:"vote_count"`
	MainCategory string            `json:"maincategory"`
}

// flexString accepts both string and numeric JSON values; the scraped data
// is inconsistent about the serves field.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}

	return fmt.Errorf("invalid serves value: %s", string(data))
}

// LoadRecipes reads every source file from dir and returns the combined
// collection.
func LoadRecipes(dir string) ([]SourceRecipe, error) {
	var recipes []SourceRecipe
	for _, name := range SourceFiles {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var batch []SourceRecipe
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		recipes = append(recipes, batch...)
	}
	return recipes, nil
}

var (
	hoursPattern   = regexp.MustCompile(`(\d+)\s*hrs?`)
	minutesPattern = regexp.MustCompile(`(\d+)\s*mins?`)
)

// ParseDuration converts a free-text duration like "1 hr 20 mins" to
// minutes. Range forms ("20 mins - 30 mins") resolve to the upper bound.
// Unrecognized text yields 0.
func ParseDuration(s string) int {
	if idx := strings.Index(s, "-"); idx >= 0 {
		s = s[idx+1:]
	}

	var hours, minutes int
	if m := hoursPattern.FindStringSubmatch(s); m != nil {
		fmt.Sscanf(m[1], "%d", &hours)
	}
	if m := minutesPattern.FindStringSubmatch(s); m != nil {
		fmt.Sscanf(m[1], "%d", &minutes)
	}
	return hours*60 + minutes
}

func totalTime(times map[string]string) int {
	total := 0
	if prep, ok := times["Preparation"]; ok {
		total += ParseDuration(prep)
	}
	if cook, ok := times["Cooking"]; ok {
		total += ParseDuration(cook)
	}
	return total
}

func mapDifficulty(label string) string {
	switch label {
	case "Easy":
		return model.DifficultyEasy
	case "More effort":
		return model.DifficultyMedium
	case "A challenge":
		return model.DifficultyHard
	default:
		return ""
	}
}

// dedupeKey identifies duplicate scrapes of the same recipe across the
// source collections.
type dedupeKey struct {
	name         string
	description  string
	ingredients  string
	instructions string
	author       string
}

// BuildRecords turns source recipes into store records with the document
// blob marshaled and the metadata normalized. Duplicate recipes (same name,
// description, ingredients, instructions and author) are skipped; the
// returned count notes how many were dropped. Vectors are left empty for the
// caller to fill via the embedder.
func BuildRecords(recipes []SourceRecipe) ([]store.Record, int, error) {
	seen := make(map[dedupeKey]bool, len(recipes))
	records := make([]store.Record, 0, len(recipes))
	skipped := 0

	for _, src := range recipes {
		key := dedupeKey{
			name:         src.Name,
			description:  src.Description,
			ingredients:  strings.Join(src.Ingredients, "\n"),
			instructions: strings.Join(src.Steps, "\n"),
			author:       src.Author,
		}
		if seen[key] {
			skipped++
			continue
		}
		seen[key] = true

		doc := model.RecipeDocument{
			Name:         src.Name,
			Description:  src.Description,
			Ingredients:  src.Ingredients,
			Instructions: src.Steps,
			DishType:     src.DishType,
			SubCategory:  src.SubCategory,
		}
		blob, err := json.Marshal(doc)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal document for recipe %s: %w", src.ID, err)
		}

		records = append(records, store.Record{
			ID:       src.ID,
			Document: string(blob),
			Meta: model.RecipeMetadata{
				ID:           src.ID,
				Name:         src.Name,
				Ingredients:  strings.Join(src.Ingredients, ", "),
				URL:          src.URL,
				ImageURL:     src.Image,
				Author:       src.Author,
				Ratings:      src.Ratings,
				Time:         totalTime(src.Times),
				Servings:     string(src.Serves),
				Difficulty:   mapDifficulty(src.Difficult),
				Votes:        src.VoteCount,
				MainCategory: src.MainCategory,
			},
		})
	}
	return records, skipped, nil
}
