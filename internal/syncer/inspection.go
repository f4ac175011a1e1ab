package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crewops/opsync/internal/assets"
	"github.com/crewops/opsync/internal/domain"
	"github.com/crewops/opsync/internal/localstore"
	"github.com/crewops/opsync/internal/remote"
)

// InspectionService handles inspection reports and property templates.
// Canonical, image-bearing records live in the remote store; the local
// cache only ever holds the light variant (photo arrays replaced by
// counts), so the cache stays bounded. Inline image payloads are migrated
// to object storage before the canonical record is pushed.
type InspectionService struct {
	store    *localstore.Store
	mirror   *remote.Mirror
	pipeline *assets.Pipeline
	logger   *slog.Logger
}

// NewInspectionService wires the inspection service.
func NewInspectionService(store *localstore.Store, mirror *remote.Mirror, pipeline *assets.Pipeline, logger *slog.Logger) *InspectionService {
	return &InspectionService{store: store, mirror: mirror, pipeline: pipeline, logger: logger}
}

// SaveReport migrates the report's inline images to object storage, pushes
// the canonical record to the mirror and caches the light variant locally.
// A failed upload aborts the whole save with the record unmigrated. When
// the mirror is unconfigured, migration is skipped (object storage shares
// the remote credentials) and only the light variant is cached.
func (s *InspectionService) SaveReport(ctx context.Context, report domain.InspectionReport) (domain.InspectionReport, domain.SyncResult, error) {
	if report.SubmittedAt.IsZero() {
		report.SubmittedAt = time.Now().UTC()
	}

	if s.mirror.Configured() {
		migrated, uploaded, changed, err := s.pipeline.MigrateReport(ctx, report)
		if err != nil {
			return domain.InspectionReport{}, domain.SyncResult{}, err
		}
		if changed {
			s.logger.Info("Report images migrated to object storage",
				slog.String("report_id", report.ReportID),
				slog.Int("uploaded", uploaded),
			)
		}
		report = migrated
	}

	saved, result, err := dualWrite(ctx, s.logger, report, s.mirror.UpsertReport, func(ctx context.Context, r domain.InspectionReport) bool {
		reports := s.store.LoadReports(ctx)
		reports = upsertByID(reports, r.Lighten(), lightReportKey)
		return s.store.SaveReports(ctx, MergeReports(reports, nil))
	})
	if err != nil {
		return domain.InspectionReport{}, domain.SyncResult{}, err
	}
	return saved, result, nil
}

// ListReports returns the light report list, optionally bounded by a
// checkout-date range. With a configured mirror the remote list is
// lightened, merged with the cache and re-persisted as the new baseline.
func (s *InspectionService) ListReports(ctx context.Context, fromDate, toDate string) ([]domain.InspectionReportLight, domain.SyncResult, error) {
	local := s.store.LoadReports(ctx)
	if !s.mirror.Configured() {
		return MergeReports(local, nil), domain.FallbackResult("remote not configured"), nil
	}

	fetched, err := s.mirror.ListReports(ctx, fromDate, toDate)
	if err != nil {
		detail, recoverable := fallbackDetail(err)
		if !recoverable {
			return nil, domain.SyncResult{}, err
		}
		return MergeReports(local, nil), domain.FallbackResult(detail), nil
	}

	lightened := make([]domain.InspectionReportLight, 0, len(fetched))
	for _, report := range fetched {
		lightened = append(lightened, report.Lighten())
	}

	merged := MergeReports(lightened, local)
	s.store.SaveReports(ctx, merged)
	return merged, domain.RemoteResult(), nil
}

// GetReport fetches the canonical, image-bearing report. Only the remote
// store holds it; without a configured mirror this returns
// ErrNotConfigured and the caller has to make do with the light variant.
func (s *InspectionService) GetReport(ctx context.Context, reportID string) (domain.InspectionReport, error) {
	return s.mirror.GetReport(ctx, reportID)
}

// DeleteReport removes a report remotely and drops the cached light
// variant.
func (s *InspectionService) DeleteReport(ctx context.Context, reportID string) (domain.SyncResult, error) {
	return dualDelete(ctx,
		func(ctx context.Context) error { return s.mirror.DeleteReport(ctx, reportID) },
		func(ctx context.Context) bool {
			reports := s.store.LoadReports(ctx)
			reports = removeByID(reports, reportID, lightReportKey)
			return s.store.SaveReports(ctx, reports)
		},
	)
}

// SaveTemplate migrates a property template's inline reference images and
// dual-writes the result. Templates are cached in full: their reference
// images are URLs after migration, so they stay small.
func (s *InspectionService) SaveTemplate(ctx context.Context, template domain.PropertyTemplate) (domain.PropertyTemplate, domain.SyncResult, error) {
	stamp(&template.CreatedAt, &template.UpdatedAt)

	if s.mirror.Configured() {
		migrated, uploaded, changed, err := s.pipeline.MigrateTemplate(ctx, template)
		if err != nil {
			return domain.PropertyTemplate{}, domain.SyncResult{}, err
		}
		if changed {
			s.logger.Info("Template images migrated to object storage",
				slog.String("template_id", template.TemplateID),
				slog.Int("uploaded", uploaded),
			)
		}
		template = migrated
	}

	return dualWrite(ctx, s.logger, template, s.mirror.UpsertTemplate, func(ctx context.Context, t domain.PropertyTemplate) bool {
		templates := s.store.LoadTemplates(ctx)
		templates = upsertByID(templates, t, templateKey)
		return s.store.SaveTemplates(ctx, templates)
	})
}

// ListTemplates returns the property templates, merged with the mirror
// when reachable.
func (s *InspectionService) ListTemplates(ctx context.Context) ([]domain.PropertyTemplate, domain.SyncResult, error) {
	local := s.store.LoadTemplates(ctx)
	if !s.mirror.Configured() {
		return local, domain.FallbackResult("remote not configured"), nil
	}

	fetched, err := s.mirror.ListTemplates(ctx)
	if err != nil {
		detail, recoverable := fallbackDetail(err)
		if !recoverable {
			return nil, domain.SyncResult{}, err
		}
		return local, domain.FallbackResult(detail), nil
	}

	merged := MergeByID(fetched, local, templateKey)
	s.store.SaveTemplates(ctx, merged)
	return merged, domain.RemoteResult(), nil
}

// ListEmployees returns the inspection-side employee mirror. The dispatch
// service maintains it on every employee write and delete, so it is
// served straight from the cache.
func (s *InspectionService) ListEmployees(ctx context.Context) []domain.InspectionEmployee {
	return s.store.LoadInspectionEmployees(ctx)
}

// BackfillRemote pushes the cached property templates to the mirror.
// Reports cannot be backfilled: the cache only holds light variants and
// the canonical records never existed locally.
func (s *InspectionService) BackfillRemote(ctx context.Context) (int, error) {
	if !s.mirror.Configured() {
		return 0, domain.ErrNotConfigured
	}

	pushed := 0
	for _, template := range s.store.LoadTemplates(ctx) {
		if _, err := s.mirror.UpsertTemplate(ctx, template); err != nil {
			if errors.Is(err, domain.ErrRelationMissing) {
				s.logger.Warn("Skipping template backfill, relation not provisioned")
				return pushed, nil
			}
			return pushed, fmt.Errorf("backfill of templates failed: %w", err)
		}
		pushed++
	}

	s.logger.Info("Template backfill finished", slog.Int("pushed", pushed))
	return pushed, nil
}

// MigrateRemoteAssets sweeps the remote store for records still carrying
// inline image payloads (saved through the local-fallback path or by an
// older client) and rewrites them to object-storage URLs. Returns the
// number of uploads performed.
func (s *InspectionService) MigrateRemoteAssets(ctx context.Context) (int, error) {
	if !s.mirror.Configured() {
		return 0, domain.ErrNotConfigured
	}

	uploads := 0

	reports, err := s.mirror.ListReports(ctx, "", "")
	if err != nil && !errors.Is(err, domain.ErrRelationMissing) {
		return 0, fmt.Errorf("failed to list reports for migration: %w", err)
	}
	for _, report := range reports {
		migrated, uploaded, changed, err := s.pipeline.MigrateReport(ctx, report)
		if err != nil {
			return uploads, fmt.Errorf("failed to migrate report %s: %w", report.ReportID, err)
		}
		if !changed {
			continue
		}
		if _, err := s.mirror.UpsertReport(ctx, migrated); err != nil {
			return uploads, fmt.Errorf("failed to store migrated report %s: %w", report.ReportID, err)
		}
		uploads += uploaded
	}

	templates, err := s.mirror.ListTemplates(ctx)
	if err != nil && !errors.Is(err, domain.ErrRelationMissing) {
		return uploads, fmt.Errorf("failed to list templates for migration: %w", err)
	}
	for _, template := range templates {
		migrated, uploaded, changed, err := s.pipeline.MigrateTemplate(ctx, template)
		if err != nil {
			return uploads, fmt.Errorf("failed to migrate template %s: %w", template.TemplateID, err)
		}
		if !changed {
			continue
		}
		if _, err := s.mirror.UpsertTemplate(ctx, migrated); err != nil {
			return uploads, fmt.Errorf("failed to store migrated template %s: %w", template.TemplateID, err)
		}
		uploads += uploaded
	}

	s.logger.Info("Remote asset sweep finished", slog.Int("uploads", uploads))
	return uploads, nil
}

func lightReportKey(r domain.InspectionReportLight) string { return r.ReportID }
func templateKey(t domain.PropertyTemplate) string         { return t.TemplateID }
