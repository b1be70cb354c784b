package vector

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"
)

// ClassArticleChunk is the Weaviate class holding one object per embedded
// chunk. Vectorizer is "none": vectors are computed by us and supplied on
// write.
const ClassArticleChunk = "ArticleChunk"

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

// EnsureSchema creates the ArticleChunk class if it is missing and adds any
// properties a previous version of the schema did not have.
func EnsureSchema(ctx context.Context, client SchemaClient) error {
	exists, err := client.ClassExists(ctx, ClassArticleChunk)
	if err != nil {
		return err
	}

	properties := []*models.Property{
		{
			Name:     "content",
			DataType: []string{"text"},
		},
		{
			Name:     "title",
			DataType: []string{"string"}, // exact match for filters and cascade deletes
		},
		{
			Name:     "author",
			DataType: []string{"string"},
		},
		{
			Name:     "url",
			DataType: []string{"string"},
		},
		{
			Name:     "publishedDate",
			DataType: []string{"string"},
		},
		{
			Name:     "chunkIndex",
			DataType: []string{"int"},
		},
		{
			Name:     "totalChunks",
			DataType: []string{"int"},
		},
		{
			Name:     "createdAt",
			DataType: []string{"date"},
		},
	}

	if !exists {
		class := &models.Class{
			Class:       ClassArticleChunk,
			Description: "An embedded chunk of an ingested article",
			Vectorizer:  "none",
			Properties:  properties,
		}
		return client.CreateClass(ctx, class)
	}

	class, err := client.GetClass(ctx, ClassArticleChunk)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, ClassArticleChunk, p); err != nil {
				return err
			}
		}
	}

	return nil
}
