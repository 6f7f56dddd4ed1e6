package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/souschef-app/backend/internal/model"
	"github.com/souschef-app/backend/internal/store"
)

const (
	// Semantic search fans out to this many candidates before the distance
	// cut is applied.
	searchLimit = 50
	// Results at or beyond this cosine distance are discarded.
	maxDistance = 0.9

	homePopularLimit = 5
	fullPopularLimit = 1000

	homeRecommendLimit = 6
	fullRecommendLimit = 101

	popularCacheTTL = 5 * time.Minute
)

// VectorStore is the retrieval surface RecipeService depends on, satisfied
// by store.Store and by fakes in tests.
type VectorStore interface {
	Search(ctx context.Context, vector []float32, limit uint64, exclusions []string) ([]store.Hit, error)
	Fetch(ctx context.Context, ids []string, withVectors bool) ([]store.Record, error)
	All(ctx context.Context) ([]store.Record, error)
	ByCategory(ctx context.Context, category string) ([]store.Record, error)
}

// Embedder produces the query vector for semantic search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RecipeCache is the slice of the redis client the popular listing uses,
// satisfied by *redis.Client and by fakes in tests.
type RecipeCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RecipeService retrieves recipes from the vector store and shapes them into
// the public response form. The cache is optional; a nil cache disables
// response caching for the popular listing.
type RecipeService struct {
	store    VectorStore
	embedder Embedder
	cache    RecipeCache
	logger   *logrus.Logger
}

func NewRecipeService(vs VectorStore, embedder Embedder, cache RecipeCache, logger *logrus.Logger) *RecipeService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RecipeService{
		store:    vs,
		embedder: embedder,
		cache:    cache,
		logger:   logger,
	}
}

// Search embeds the interpreted sentence, retrieves the top candidates with
// the exclusion terms filtered out, and keeps only close matches.
func (s *RecipeService) Search(ctx context.Context, sentence string, exclusions []string) ([]model.Recipe, error) {
	vector, err := s.embedder.Embed(ctx, sentence)
	if err != nil {
		return nil, err
	}

	hits, err := s.store.Search(ctx, vector, searchLimit, exclusions)
	if err != nil {
		return nil, err
	}

	kept := make([]store.Record, 0, len(hits))
	for _, hit := range hits {
		if hit.Distance < maxDistance {
			kept = append(kept, hit.Record)
		}
	}
	return mergeRecipes(kept, false, nil)
}

// ByIDs fetches the given recipe ids verbatim. Unknown ids are absent from
// the result.
func (s *RecipeService) ByIDs(ctx context.Context, ids []string) ([]model.Recipe, error) {
	records, err := s.store.Fetch(ctx, ids, false)
	if err != nil {
		return nil, err
	}
	return mergeRecipes(records, false, nil)
}

// Popular returns the whole collection sorted by votes, truncated to 5 on
// the home page and 1000 otherwise. Shaped results are cached briefly since
// this is the only full-collection scan in the API.
func (s *RecipeService) Popular(ctx context.Context, onHomePage bool) ([]model.Recipe, error) {
	limit := fullPopularLimit
	cacheKey := "recipes:popular:full"
	if onHomePage {
		limit = homePopularLimit
		cacheKey = "recipes:popular:home"
	}

	if cached, ok := s.cachedRecipes(ctx, cacheKey); ok {
		return cached, nil
	}

	records, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}

	recipes, err := mergeRecipes(records, true, nil)
	if err != nil {
		return nil, err
	}
	if len(recipes) > limit {
		recipes = recipes[:limit]
	}

	s.cacheRecipes(ctx, cacheKey, recipes)
	return recipes, nil
}

// Recommended looks up the embeddings of the liked recipes, queries for
// nearest neighbors of their mean vector and drops the liked recipes from
// the shaped result. Returns model.ErrRecipeNotFound when none of the liked
// ids has a stored embedding.
func (s *RecipeService) Recommended(ctx context.Context, likedIDs []string, onHomePage bool) ([]model.Recipe, error) {
	liked, err := s.store.Fetch(ctx, likedIDs, true)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(liked))
	for _, rec := range liked {
		if len(rec.Vector) > 0 {
			vectors = append(vectors, rec.Vector)
		}
	}
	if len(vectors) == 0 {
		return nil, model.ErrRecipeNotFound
	}

	limit := fullRecommendLimit
	if onHomePage {
		limit = homeRecommendLimit
	}

	hits, err := s.store.Search(ctx, meanVector(vectors), uint64(limit), nil)
	if err != nil {
		return nil, err
	}

	records := make([]store.Record, len(hits))
	for i, hit := range hits {
		records[i] = hit.Record
	}
	return mergeRecipes(records, false, likedIDs)
}

// ByCategory returns every recipe whose MainCategory matches exactly,
// sorted by votes.
func (s *RecipeService) ByCategory(ctx context.Context, category string) ([]model.Recipe, error) {
	records, err := s.store.ByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return mergeRecipes(records, true, nil)
}

func (s *RecipeService) cachedRecipes(ctx context.Context, key string) ([]model.Recipe, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.WithError(err).Debug("popular recipe cache read failed")
		}
		return nil, false
	}

	var recipes []model.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		s.logger.WithError(err).Debug("popular recipe cache entry is malformed")
		return nil, false
	}
	return recipes, true
}

func (s *RecipeService) cacheRecipes(ctx context.Context, key string, recipes []model.Recipe) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(recipes)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, popularCacheTTL).Err(); err != nil {
		s.logger.WithError(err).Debug("popular recipe cache write failed")
	}
}

// mergeRecipes parses each record's document blob and merges it with the
// record's metadata into the public recipe shape. With sortByVotes set,
// records are ordered by Votes descending, input order breaking ties.
// Records whose id appears in excludeIDs are dropped.
func mergeRecipes(records []store.Record, sortByVotes bool, excludeIDs []string) ([]model.Recipe, error) {
	if sortByVotes {
		ordered := make([]store.Record, len(records))
		copy(ordered, records)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Meta.Votes > ordered[j].Meta.Votes
		})
		records = ordered
	}

	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	recipes := make([]model.Recipe, 0, len(records))
	for _, rec := range records {
		if excluded[rec.Meta.ID] {
			continue
		}

		var doc model.RecipeDocument
		if err := json.Unmarshal([]byte(rec.Document), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse document for recipe %s: %w", rec.Meta.ID, err)
		}

		recipes = append(recipes, model.Recipe{
			ID:           rec.Meta.ID,
			Name:         doc.Name,
			Description:  doc.Description,
			Ingredients:  doc.Ingredients,
			Instructions: doc.Instructions,
			DishType:     doc.DishType,
			ImageURL:     rec.Meta.ImageURL,
			Author:       rec.Meta.Author,
			Difficulty:   rec.Meta.Difficulty,
			Time:         rec.Meta.Time,
			Servings:     rec.Meta.Servings,
			Votes:        rec.Meta.Votes,
		})
	}
	return recipes, nil
}

func meanVector(vectors [][]float32) []float32 {
	mean := make([]float32, len(vectors[0]))
	for _, vec := range vectors {
		for i, v := range vec {
			mean[i] += v
		}
	}
	n := float32(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}
