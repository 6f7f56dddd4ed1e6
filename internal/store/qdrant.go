// Package store wraps the Qdrant collection that holds the recipe corpus.
// Each recipe is one point: the vector embeds the document blob, the payload
// carries the blob itself plus the structured metadata fields.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/souschef-app/backend/internal/model"
)

const (
	// VectorSize matches the output dimension of text-embedding-004.
	VectorSize = 768

	documentField  = "document"
	scrollPageSize = 256
)

// Record binds a stored recipe point: external id, raw document blob, parsed
// metadata and, when requested, its embedding vector. Keeping the pieces in
// one struct avoids the parallel-array pairing the payload layout would
// otherwise force on callers.
type Record struct {
	ID       string
	Document string
	Meta     model.RecipeMetadata
	Vector   []float32
}

// Hit is a Record returned from similarity search together with its distance.
// Lower distance means a closer semantic match.
type Hit struct {
	Record
	Distance float32
}

// Store is a long-lived client for the recipe collection, safe for use from
// concurrent requests.
type Store struct {
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
	collection  string
}

// Connect dials the Qdrant grpc endpoint and returns a Store bound to the
// given collection. The connection is kept for the life of the process.
func Connect(addr, collection string) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant at %s: %w", addr, err)
	}

	return &Store{
		points:      qdrant.NewPointsClient(conn),
		collections: qdrant.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// EnsureCollection creates the recipe collection and its payload indexes if
// they do not exist yet. The document field gets a full-text index so
// exclusion terms can be matched against the blob; MainCategory gets a
// keyword index for exact-match category fetches.
func (s *Store) EnsureCollection(ctx context.Context) error {
	_, err := s.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{CollectionName: s.collection})
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to look up collection %q: %w", s.collection, err)
	}

	_, err = s.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     VectorSize,
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %q: %w", s.collection, err)
	}

	textIndex := qdrant.FieldType_FieldTypeText
	if _, err := s.points.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		FieldName:      documentField,
		FieldType:      &textIndex,
	}); err != nil {
		return fmt.Errorf("failed to index %s field: %w", documentField, err)
	}

	keywordIndex := qdrant.FieldType_FieldTypeKeyword
	if _, err := s.points.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		FieldName:      "MainCategory",
		FieldType:      &keywordIndex,
	}); err != nil {
		return fmt.Errorf("failed to index MainCategory field: %w", err)
	}

	return nil
}

// PointID maps an external recipe id to its Qdrant point id. The mapping is
// a deterministic UUIDv5, so lookups never need a translation table.
func PointID(recipeID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(recipeID)).String()
}

// Upsert writes the given records in one bulk call.
func (s *Store) Upsert(ctx context.Context, records []Record) error {
	points := make([]*qdrant.PointStruct, len(records))
	for i, rec := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(rec.ID)),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: payloadFromRecord(rec),
		}
	}

	resp, err := s.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert recipes: %w", err)
	}
	st := resp.GetResult().GetStatus()
	if st != qdrant.UpdateStatus_Acknowledged && st != qdrant.UpdateStatus_Completed {
		return fmt.Errorf("unexpected upsert status: %s", st)
	}
	return nil
}

// Search returns the nearest neighbors of vector, at most limit of them.
// Each exclusion term becomes a must-not text-match condition on the document
// blob, so a returned recipe contains none of the given terms.
func (s *Store) Search(ctx context.Context, vector []float32, limit uint64, exclusions []string) ([]Hit, error) {
	req := &qdrant.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          limit,
		WithPayload:    withPayload(),
	}
	if len(exclusions) > 0 {
		conditions := make([]*qdrant.Condition, len(exclusions))
		for i, term := range exclusions {
			conditions[i] = documentContains(term)
		}
		req.Filter = &qdrant.Filter{MustNot: conditions}
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("recipe search failed: %w", err)
	}

	hits := make([]Hit, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		rec, err := recordFromPayload(point.GetPayload())
		if err != nil {
			return nil, err
		}
		// Cosine scores report similarity; callers reason in distance.
		hits = append(hits, Hit{Record: rec, Distance: 1 - point.GetScore()})
	}
	return hits, nil
}

// Fetch retrieves records by their external ids. Unknown ids are silently
// absent from the result, matching store get semantics.
func (s *Store) Fetch(ctx context.Context, ids []string, withVectors bool) ([]Record, error) {
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(PointID(id))
	}

	req := &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            pointIDs,
		WithPayload:    withPayload(),
	}
	if withVectors {
		req.WithVectors = &qdrant.WithVectorsSelector{
			SelectorOptions: &qdrant.WithVectorsSelector_Enable{Enable: true},
		}
	}

	resp, err := s.points.Get(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recipes by id: %w", err)
	}

	records := make([]Record, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		rec, err := recordFromPayload(point.GetPayload())
		if err != nil {
			return nil, err
		}
		if withVectors {
			rec.Vector = point.GetVectors().GetVector().GetData()
		}
		records = append(records, rec)
	}
	return records, nil
}

// All scrolls the entire collection.
func (s *Store) All(ctx context.Context) ([]Record, error) {
	return s.scroll(ctx, nil)
}

// ByCategory scrolls every recipe whose MainCategory equals category.
func (s *Store) ByCategory(ctx context.Context, category string) ([]Record, error) {
	return s.scroll(ctx, &qdrant.Filter{
		Must: []*qdrant.Condition{{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   "MainCategory",
					Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: category}},
				},
			},
		}},
	})
}

func (s *Store) scroll(ctx context.Context, filter *qdrant.Filter) ([]Record, error) {
	var records []Record
	limit := uint32(scrollPageSize)
	var offset *qdrant.PointId

	for {
		resp, err := s.points.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Filter:         filter,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    withPayload(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll recipes: %w", err)
		}
		for _, point := range resp.GetResult() {
			rec, err := recordFromPayload(point.GetPayload())
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		offset = resp.GetNextPageOffset()
		if offset == nil {
			return records, nil
		}
	}
}

func withPayload() *qdrant.WithPayloadSelector {
	return &qdrant.WithPayloadSelector{
		SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
	}
}

// documentContains builds a full-text match condition on the document blob.
// The match is token-based: a multi-word term matches on token presence, not
// as a literal substring of the blob.
func documentContains(term string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key:   documentField,
				Match: &qdrant.Match{MatchValue: &qdrant.Match_Text{Text: term}},
			},
		},
	}
}
