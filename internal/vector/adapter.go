package vector

import (
	"context"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// WeaviateClientAdapter narrows the weaviate client's schema builders to the
// SchemaClient surface EnsureSchema consumes, keeping the ArticleChunk schema
// logic testable against a mock instead of a live instance.
type WeaviateClientAdapter struct {
	client *weaviate.Client
}

func NewWeaviateClientAdapter(client *weaviate.Client) *WeaviateClientAdapter {
	return &WeaviateClientAdapter{client: client}
}

func (a *WeaviateClientAdapter) ClassExists(ctx context.Context, className string) (bool, error) {
	return a.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
}

func (a *WeaviateClientAdapter) CreateClass(ctx context.Context, class *models.Class) error {
	return a.client.Schema().ClassCreator().WithClass(class).Do(ctx)
}

func (a *WeaviateClientAdapter) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return a.client.Schema().ClassGetter().WithClassName(className).Do(ctx)
}

// AddProperty backfills one column on an already created class; EnsureSchema
// uses it when the stored schema predates a property.
func (a *WeaviateClientAdapter) AddProperty(ctx context.Context, className string, property *models.Property) error {
	return a.client.Schema().PropertyCreator().WithClassName(className).WithProperty(property).Do(ctx)
}
