package assets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crewops/opsync/internal/domain"
)

// dataURIPrefix marks an inline base64 image payload. Anything else
// (typically an https URL from an earlier migration) is left untouched.
const dataURIPrefix = "data:image/"

// Uploader is the slice of object storage the pipeline needs.
type Uploader interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}

// Pipeline walks the fixed image slots of a record, uploads every inline
// payload exactly once (content-keyed dedup within the process) and
// rewrites the slot to the public URL. Migration is all-or-nothing per
// record: any failed upload aborts with the record unchanged.
type Pipeline struct {
	uploader Uploader
	cache    *Cache
	logger   *slog.Logger
}

// NewPipeline creates a pipeline sharing the given dedup cache.
func NewPipeline(uploader Uploader, cache *Cache, logger *slog.Logger) *Pipeline {
	return &Pipeline{uploader: uploader, cache: cache, logger: logger}
}

// IsInlineImage reports whether v is an inline base64 image payload.
func IsInlineImage(v string) bool {
	return strings.HasPrefix(v, dataURIPrefix) && strings.Contains(v, ";base64,")
}

// decodeDataURI splits an inline payload into bytes, MIME type and a file
// extension.
func decodeDataURI(v string) (data []byte, contentType, ext string, err error) {
	header, payload, found := strings.Cut(v, ";base64,")
	if !found {
		return nil, "", "", fmt.Errorf("not a base64 data URI")
	}

	contentType = strings.TrimPrefix(header, "data:")
	subtype := strings.TrimPrefix(contentType, "image/")
	switch subtype {
	case "jpeg":
		ext = ".jpg"
	case "svg+xml":
		ext = ".svg"
	default:
		ext = "." + subtype
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to decode image payload: %w", err)
	}
	return data, contentType, ext, nil
}

// sanitizeScope folds a free-form scope name (property name, report id)
// into a safe object-path segment.
func sanitizeScope(scope string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(scope) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "record"
	}
	return b.String()
}

// migration carries the per-call state of one record's migration.
type migration struct {
	p        *Pipeline
	scope    string
	index    int
	uploaded int
	changed  bool
}

// migrateSlot rewrites every inline payload in the slot, uploading as
// needed. Values already holding URLs are skipped.
func (m *migration) migrateSlot(ctx context.Context, slot []string) error {
	for i, value := range slot {
		if !IsInlineImage(value) {
			continue
		}

		data, contentType, ext, err := decodeDataURI(value)
		if err != nil {
			return err
		}

		key := contentKey(data)
		if url, ok := m.p.cache.Lookup(key); ok {
			slot[i] = url
			m.changed = true
			m.index++
			continue
		}

		objectPath := fmt.Sprintf("%s/%d_%d_%s%s",
			sanitizeScope(m.scope),
			time.Now().UnixMilli(),
			m.index,
			uuid.NewString()[:8],
			ext,
		)

		url, err := m.p.uploader.Upload(ctx, objectPath, data, contentType)
		if err != nil {
			return fmt.Errorf("failed to upload image %d of %s: %w", m.index, m.scope, err)
		}

		m.p.cache.Store(key, url)
		slot[i] = url
		m.uploaded++
		m.changed = true
		m.index++
	}
	return nil
}

// deepCopy round-trips v through JSON so the migration can rewrite slots
// without touching the caller's record until the whole migration holds.
func deepCopy[T any](v T) (T, error) {
	var out T
	raw, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

// MigrateReport migrates every image slot of an inspection report:
// top-level note images, per-section reference images and photos,
// per-checklist-item photos, damage photos, check-in/check-out evidence.
// Returns the migrated copy, the number of uploads performed, and whether
// anything changed (so callers can skip a redundant backing-store write).
func (p *Pipeline) MigrateReport(ctx context.Context, report domain.InspectionReport) (domain.InspectionReport, int, bool, error) {
	scope := report.PropertyName
	if scope == "" {
		scope = report.ReportID
	}

	copied, err := deepCopy(report)
	if err != nil {
		return report, 0, false, fmt.Errorf("failed to copy report: %w", err)
	}

	m := &migration{p: p, scope: scope}

	slots := [][]string{copied.NoteImages}
	for i := range copied.Sections {
		slots = append(slots, copied.Sections[i].ReferenceImages, copied.Sections[i].Photos)
		for j := range copied.Sections[i].Items {
			slots = append(slots, copied.Sections[i].Items[j].Photos)
		}
	}
	for i := range copied.Damages {
		slots = append(slots, copied.Damages[i].Photos)
	}
	if copied.CheckIn != nil {
		slots = append(slots, copied.CheckIn.Photos)
	}
	if copied.CheckOut != nil {
		slots = append(slots, copied.CheckOut.Photos)
	}

	for _, slot := range slots {
		if err := m.migrateSlot(ctx, slot); err != nil {
			return report, 0, false, err
		}
	}

	if m.uploaded > 0 {
		p.logger.Info("Report assets migrated",
			slog.String("report_id", report.ReportID),
			slog.Int("uploaded", m.uploaded),
		)
	}
	return copied, m.uploaded, m.changed, nil
}

// MigrateTemplate migrates a property template's note images and
// per-section reference images.
func (p *Pipeline) MigrateTemplate(ctx context.Context, template domain.PropertyTemplate) (domain.PropertyTemplate, int, bool, error) {
	scope := template.PropertyName
	if scope == "" {
		scope = template.TemplateID
	}

	copied, err := deepCopy(template)
	if err != nil {
		return template, 0, false, fmt.Errorf("failed to copy template: %w", err)
	}

	m := &migration{p: p, scope: scope}

	slots := [][]string{copied.NoteImages}
	for i := range copied.Sections {
		slots = append(slots, copied.Sections[i].ReferenceImages)
	}

	for _, slot := range slots {
		if err := m.migrateSlot(ctx, slot); err != nil {
			return template, 0, false, err
		}
	}
	return copied, m.uploaded, m.changed, nil
}

// MigrateJob migrates a job's embedded image URLs.
func (p *Pipeline) MigrateJob(ctx context.Context, job domain.Job) (domain.Job, int, bool, error) {
	scope := job.Title
	if scope == "" {
		scope = job.JobID
	}

	copied, err := deepCopy(job)
	if err != nil {
		return job, 0, false, fmt.Errorf("failed to copy job: %w", err)
	}

	m := &migration{p: p, scope: scope}
	if err := m.migrateSlot(ctx, copied.ImageURLs); err != nil {
		return job, 0, false, err
	}
	return copied, m.uploaded, m.changed, nil
}
