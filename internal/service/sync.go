package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"calendar_syncer/internal/config"
	"calendar_syncer/internal/domain"
	"calendar_syncer/internal/sync"
)

// SyncService reconciles the calendar feed against the destination
// database once per Sync call. All remote errors while building the two
// snapshots abort the run before any write; errors while executing
// individual requests are counted and the run continues.
type SyncService struct {
	source    Source
	store     Store
	publisher Publisher
	runs      RunStore
	logger    *slog.Logger
	config    *config.Config
}

func NewSyncService(
	source Source,
	store Store,
	publisher Publisher,
	runs RunStore,
	logger *slog.Logger,
	cfg *config.Config,
) *SyncService {
	return &SyncService{
		source:    source,
		store:     store,
		publisher: publisher,
		runs:      runs,
		logger:    logger.With("source", source.Name()),
		config:    cfg,
	}
}

func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := time.Now()
	dryRun := s.config.Sync.DryRun

	s.logger.Info("starting sync",
		"database", s.config.Notion.Database,
		"dry_run", dryRun,
	)

	events, err := s.source.FetchEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	s.logger.Info("fetched events from feed", "count", len(events))

	db, err := s.store.FindDatabase(ctx, s.config.Notion.Database)
	if err != nil {
		return nil, fmt.Errorf("find database: %w", err)
	}

	titleProperty, ok := db.TitleProperty()
	if !ok {
		return nil, fmt.Errorf("database %s has no title property", db.ID)
	}

	pages, err := s.store.QueryPages(ctx, db.ID, s.config.Notion.IDProperty)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	s.logger.Info("fetched records from destination", "count", len(pages))

	idx, err := sync.BuildIndex(events, pages, s.config.Notion.IDProperty)
	if err != nil {
		return nil, fmt.Errorf("index snapshots: %w", err)
	}

	mapping := sync.Mapping{
		TitleProperty:    titleProperty,
		IDProperty:       s.config.Notion.IDProperty,
		DateProperty:     s.config.Notion.DateProperty,
		LocationProperty: s.config.Notion.LocationProperty,
	}

	var window *sync.Window
	if s.config.Window.Enabled() {
		w := sync.NewWindow(time.Now(), s.config.Window.DaysPast, s.config.Window.DaysFuture)
		window = &w
	}

	plan, err := sync.NewReconciler(mapping, window, s.logger).Plan(idx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	stats := &domain.SyncStats{
		Feed:      s.source.Name(),
		Fetched:   len(events),
		Unchanged: plan.Unchanged,
		Skipped:   plan.Skipped,
		Orphaned:  plan.Orphaned,
		Errors:    plan.Errors,
		DryRun:    dryRun,
	}

	s.logger.Info("reconciliation plan",
		"creations", len(plan.Creations),
		"updates", len(plan.Updates),
		"unchanged", plan.Unchanged,
		"skipped", plan.Skipped,
		"orphaned", plan.Orphaned,
	)

	for _, req := range plan.Creations {
		s.logger.Info("creating event", "uid", req.ID, "title", req.Title)
		if dryRun {
			stats.Created++
			continue
		}
		pageID, err := s.store.CreatePage(ctx, db.ID, req.Properties)
		if err != nil {
			s.logger.Error("create failed", "uid", req.ID, "error", err)
			stats.Errors++
			continue
		}
		stats.Created++
		s.publish(ctx, stats, &domain.Change{UID: req.ID, Title: req.Title, PageID: pageID}, true)
	}

	for _, req := range plan.Updates {
		s.logger.Info("updating event", "uid", req.ID, "title", req.Title)
		if dryRun {
			stats.Updated++
			continue
		}
		if err := s.store.UpdatePage(ctx, req.PageID, req.Patch); err != nil {
			s.logger.Error("update failed", "uid", req.ID, "error", err)
			stats.Errors++
			continue
		}
		stats.Updated++
		s.publish(ctx, stats, &domain.Change{UID: req.ID, Title: req.Title, PageID: req.PageID}, false)
	}

	if err := s.recordRun(ctx, stats, startTime); err != nil {
		return stats, fmt.Errorf("record run: %w", err)
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("sync completed",
		"created", stats.Created,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"skipped", stats.Skipped,
		"orphaned", stats.Orphaned,
		"errors", stats.Errors,
		"published", stats.Published,
		"dry_run", stats.DryRun,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *SyncService) publish(ctx context.Context, stats *domain.SyncStats, change *domain.Change, isNew bool) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, change, isNew); err != nil {
		s.logger.Error("publish failed", "uid", change.UID, "error", err)
		stats.Errors++
		return
	}
	stats.Published++
}

func (s *SyncService) recordRun(ctx context.Context, stats *domain.SyncStats, startTime time.Time) error {
	if s.runs == nil {
		return nil
	}

	_, err := s.runs.Record(ctx, &domain.RunRecord{
		Feed:       stats.Feed,
		StartedAt:  startTime.UTC(),
		Created:    stats.Created,
		Updated:    stats.Updated,
		Skipped:    stats.Skipped,
		Orphaned:   stats.Orphaned,
		Errors:     stats.Errors,
		DryRun:     stats.DryRun,
		DurationMS: time.Since(startTime).Milliseconds(),
	})
	return err
}
