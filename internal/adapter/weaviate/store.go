package weaviate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"semsearch/internal/document"
	"semsearch/internal/embedding"
	"semsearch/internal/vector"
)

const (
	// DefaultSearchLimit caps how many results one query returns.
	DefaultSearchLimit = 10
	// DefaultSearchThreshold is the minimum cosine similarity a record must
	// meet to be included in results.
	DefaultSearchThreshold = 0.7
	// DefaultScanLimit bounds the brute-force scan. Queries are O(N) over
	// the collection; this is the documented scaling ceiling.
	DefaultScanLimit = 10000
)

// Store persists vector records in Weaviate and answers similarity queries
// with a linear scan: candidate objects (and their vectors) are fetched with
// equality filters pushed down, cosine similarity is computed here.
type Store struct {
	client    *weaviate.Client
	scanLimit int
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client, scanLimit: DefaultScanLimit}
}

func NewStoreWithScanLimit(client *weaviate.Client, scanLimit int) *Store {
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}
	return &Store{client: client, scanLimit: scanLimit}
}

// EnsureSchema creates or patches the ArticleChunk class.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return vector.EnsureSchema(ctx, vector.NewWeaviateClientAdapter(s.client))
}

// UpsertMany writes records in one batched call. Writes are field-level
// merges: optional metadata fields omitted on an incoming record keep the
// values already stored under the same id. Weaviate batch writes replace
// the whole object, so the merge happens here before the write.
func (s *Store) UpsertMany(ctx context.Context, records []document.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	objects := make([]*models.Object, 0, len(records))
	for _, rec := range records {
		merged, err := s.mergeExisting(ctx, rec)
		if err != nil {
			return err
		}
		objects = append(objects, &models.Object{
			ID:         strfmt.UUID(merged.ID),
			Class:      vector.ClassArticleChunk,
			Properties: recordProperties(merged),
			Vector:     models.C11yVector(merged.Vector),
		})
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: batch upsert: %v", document.ErrExternalService, err)
	}
	for _, obj := range resp {
		if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
			return fmt.Errorf("%w: batch upsert: %s",
				document.ErrExternalService, obj.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// UpsertOne writes a single record with the same merge semantics.
func (s *Store) UpsertOne(ctx context.Context, record document.VectorRecord) error {
	return s.UpsertMany(ctx, []document.VectorRecord{record})
}

// GetByTitle returns every record of an article, ordered by chunk index.
// An unknown title yields an empty slice, not an error.
func (s *Store) GetByTitle(ctx context.Context, title string) ([]document.VectorRecord, error) {
	where := filters.Where().
		WithPath([]string{"title"}).
		WithOperator(filters.Equal).
		WithValueString(title)

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassArticleChunk).
		WithWhere(where).
		WithSort(graphql.Sort{Path: []string{"chunkIndex"}, Order: graphql.Asc}).
		WithLimit(s.scanLimit).
		WithFields(chunkFields()...).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: get by title: %v", document.ErrExternalService, err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("%w: get by title: %v", document.ErrExternalService, res.Errors[0].Message)
	}

	records := []document.VectorRecord{}
	for _, props := range objectsFromResponse(res) {
		records = append(records, recordFromProps(props))
	}
	return records, nil
}

// DeleteByTitle removes every record of an article in one batched call and
// returns how many were matched. No matches is surfaced as ErrNotFound.
func (s *Store) DeleteByTitle(ctx context.Context, title string) (int, error) {
	where := filters.Where().
		WithPath([]string{"title"}).
		WithOperator(filters.Equal).
		WithValueString(title)

	resp, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassArticleChunk).
		WithOutput("minimal").
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: batch delete: %v", document.ErrExternalService, err)
	}

	matches := 0
	if resp != nil && resp.Results != nil {
		matches = int(resp.Results.Matches)
	}
	if matches == 0 {
		return 0, fmt.Errorf("%w: no embeddings for title %q", document.ErrNotFound, title)
	}
	return matches, nil
}

// DeleteByID removes a single record. A missing id is an error, not a no-op.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	if _, err := s.getByID(ctx, id); err != nil {
		return err
	}
	err := s.client.Data().Deleter().
		WithClassName(vector.ClassArticleChunk).
		WithID(id).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: delete object: %v", document.ErrExternalService, err)
	}
	return nil
}

// Stats scans the collection and aggregates per-article counts.
func (s *Store) Stats(ctx context.Context) (document.Stats, error) {
	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassArticleChunk).
		WithLimit(s.scanLimit).
		WithFields(graphql.Field{Name: "title"}).
		Do(ctx)
	if err != nil {
		return document.Stats{}, fmt.Errorf("%w: stats scan: %v", document.ErrExternalService, err)
	}
	if len(res.Errors) > 0 {
		return document.Stats{}, fmt.Errorf("%w: stats scan: %v", document.ErrExternalService, res.Errors[0].Message)
	}

	stats := document.Stats{}
	titles := make(map[string]bool)
	for _, props := range objectsFromResponse(res) {
		stats.TotalEmbeddings++
		if title, ok := props["title"].(string); ok {
			titles[title] = true
		}
	}
	stats.UniqueArticles = len(titles)
	if stats.UniqueArticles > 0 {
		stats.AverageChunksPerArticle = float64(stats.TotalEmbeddings) / float64(stats.UniqueArticles)
	}
	return stats, nil
}

// Search ranks stored records against the query vector. Filters are pushed
// down to Weaviate as equality clauses; similarity, threshold and ordering
// are computed here over the fetched candidates.
func (s *Store) Search(ctx context.Context, queryVector []float32, opts *document.SearchOptions) ([]document.SearchResult, error) {
	limit := DefaultSearchLimit
	threshold := DefaultSearchThreshold
	var where *filters.WhereBuilder
	if opts != nil {
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		if opts.Threshold != nil {
			threshold = *opts.Threshold
		}
		where = whereFromFilters(opts.Filters)
	}

	query := s.client.GraphQL().Get().
		WithClassName(vector.ClassArticleChunk).
		WithLimit(s.scanLimit).
		WithFields(chunkFields()...)
	if where != nil {
		query = query.WithWhere(where)
	}

	res, err := query.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: search scan: %v", document.ErrExternalService, err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("%w: search scan: %v", document.ErrExternalService, res.Errors[0].Message)
	}

	results := []document.SearchResult{}
	for _, props := range objectsFromResponse(res) {
		rec := recordFromProps(props)
		similarity, err := embedding.CosineSimilarity(queryVector, rec.Vector)
		if err != nil {
			return nil, err
		}
		if similarity < threshold {
			continue
		}
		results = append(results, document.SearchResult{
			ID:         rec.ID,
			Content:    rec.Content,
			Metadata:   rec.Metadata,
			Similarity: similarity,
			Distance:   1 - similarity,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *Store) mergeExisting(ctx context.Context, rec document.VectorRecord) (document.VectorRecord, error) {
	existing, err := s.getByID(ctx, rec.ID)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return rec, nil
		}
		return rec, err
	}
	if rec.Metadata.Author == "" {
		rec.Metadata.Author = existing.Metadata.Author
	}
	if rec.Metadata.URL == "" {
		rec.Metadata.URL = existing.Metadata.URL
	}
	if rec.Metadata.PublishedDate == "" {
		rec.Metadata.PublishedDate = existing.Metadata.PublishedDate
	}
	return rec, nil
}

func (s *Store) getByID(ctx context.Context, id string) (*document.VectorRecord, error) {
	objs, err := s.client.Data().ObjectsGetter().
		WithClassName(vector.ClassArticleChunk).
		WithID(id).
		WithVector().
		Do(ctx)
	if err != nil {
		var clientErr *fault.WeaviateClientError
		if errors.As(err, &clientErr) && clientErr.StatusCode == 404 {
			return nil, fmt.Errorf("%w: embedding %q", document.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get object: %v", document.ErrExternalService, err)
	}
	if len(objs) == 0 {
		return nil, fmt.Errorf("%w: embedding %q", document.ErrNotFound, id)
	}

	obj := objs[0]
	props, _ := obj.Properties.(map[string]interface{})
	rec := recordFromProps(props)
	rec.ID = string(obj.ID)
	rec.Vector = []float32(obj.Vector)
	return &rec, nil
}

func recordProperties(rec document.VectorRecord) map[string]interface{} {
	return map[string]interface{}{
		"content":       rec.Content,
		"title":         rec.Metadata.Title,
		"author":        rec.Metadata.Author,
		"url":           rec.Metadata.URL,
		"publishedDate": rec.Metadata.PublishedDate,
		"chunkIndex":    rec.Metadata.ChunkIndex,
		"totalChunks":   rec.Metadata.TotalChunks,
		"createdAt":     rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func chunkFields() []graphql.Field {
	return []graphql.Field{
		{Name: "content"},
		{Name: "title"},
		{Name: "author"},
		{Name: "url"},
		{Name: "publishedDate"},
		{Name: "chunkIndex"},
		{Name: "totalChunks"},
		{Name: "createdAt"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "vector"}}},
	}
}

// objectsFromResponse unwraps Get.ArticleChunk from a GraphQL response into
// raw property maps.
func objectsFromResponse(res *models.GraphQLResponse) []map[string]interface{} {
	var out []map[string]interface{}
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return out
	}
	objs, ok := data[vector.ClassArticleChunk].([]interface{})
	if !ok {
		return out
	}
	for _, o := range objs {
		if props, ok := o.(map[string]interface{}); ok {
			out = append(out, props)
		}
	}
	return out
}

func recordFromProps(props map[string]interface{}) document.VectorRecord {
	rec := document.VectorRecord{}
	if v, ok := props["content"].(string); ok {
		rec.Content = v
	}
	if v, ok := props["title"].(string); ok {
		rec.Metadata.Title = v
	}
	if v, ok := props["author"].(string); ok {
		rec.Metadata.Author = v
	}
	if v, ok := props["url"].(string); ok {
		rec.Metadata.URL = v
	}
	if v, ok := props["publishedDate"].(string); ok {
		rec.Metadata.PublishedDate = v
	}
	if v, ok := props["chunkIndex"].(float64); ok {
		rec.Metadata.ChunkIndex = int(v)
	}
	if v, ok := props["totalChunks"].(float64); ok {
		rec.Metadata.TotalChunks = int(v)
	}
	if v, ok := props["createdAt"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			rec.CreatedAt = ts
		}
	}
	if additional, ok := props["_additional"].(map[string]interface{}); ok {
		if id, ok := additional["id"].(string); ok {
			rec.ID = id
		}
		if raw, ok := additional["vector"].([]interface{}); ok {
			vec := make([]float32, 0, len(raw))
			for _, f := range raw {
				if n, ok := f.(float64); ok {
					vec = append(vec, float32(n))
				}
			}
			rec.Vector = vec
		}
	}
	return rec
}

func whereFromFilters(fs []document.Filter) *filters.WhereBuilder {
	if len(fs) == 0 {
		return nil
	}
	if len(fs) == 1 {
		return filters.Where().
			WithPath([]string{fs[0].Field}).
			WithOperator(filters.Equal).
			WithValueString(fs[0].Value)
	}
	operands := make([]*filters.WhereBuilder, len(fs))
	for i, f := range fs {
		operands[i] = filters.Where().
			WithPath([]string{f.Field}).
			WithOperator(filters.Equal).
			WithValueString(f.Value)
	}
	return filters.Where().WithOperator(filters.And).WithOperands(operands)
}
