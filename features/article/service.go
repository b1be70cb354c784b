package article

import "context"

type Repository interface {
	Upsert(ctx context.Context, a *Article) error
	List(ctx context.Context) ([]Article, error)
	DeleteByTitle(ctx context.Context, title string) error
	Count(ctx context.Context) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Record(ctx context.Context, a *Article) error {
	return s.repo.Upsert(ctx, a)
}

func (s *Service) List(ctx context.Context) ([]Article, error) {
	return s.repo.List(ctx)
}

func (s *Service) DeleteByTitle(ctx context.Context, title string) error {
	return s.repo.DeleteByTitle(ctx, title)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
