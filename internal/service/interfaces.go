package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"calendar_syncer/internal/domain"
	"calendar_syncer/internal/notion"
)

type Source interface {
	Name() string
	FetchEvents(ctx context.Context) ([]domain.SourceEvent, error)
}

type Store interface {
	FindDatabase(ctx context.Context, query string) (*notion.Database, error)
	QueryPages(ctx context.Context, databaseID, idProperty string) ([]notion.Page, error)
	CreatePage(ctx context.Context, databaseID string, properties map[string]notion.PropertyValue) (string, error)
	UpdatePage(ctx context.Context, pageID string, properties map[string]notion.PropertyValue) error
}

type Publisher interface {
	Publish(ctx context.Context, change *domain.Change, isNew bool) error
	Close() error
}

type RunStore interface {
	Record(ctx context.Context, run *domain.RunRecord) (int64, error)
}
