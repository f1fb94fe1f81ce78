package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-audit/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const tableName = "activity_logs"

// RepositoryConfig wires the Bun-backed activity repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*LogEntry]
	Clock      types.Clock
	IDGen      types.IDGenerator
}

// Repository persists activity logs and exposes the aggregation helpers used
// by the query layer. Rows are only ever inserted.
type Repository struct {
	repo  repository.Repository[*LogEntry]
	db    *bun.DB
	clock types.Clock
	idGen types.IDGenerator
}

// NewRepository constructs the append-only activity store.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.DB == nil {
		return nil, errors.New("activity: db required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*LogEntry]{
			NewRecord: func() *LogEntry { return &LogEntry{} },
			GetID: func(entry *LogEntry) uuid.UUID {
				if entry == nil {
					return uuid.Nil
				}
				return entry.ID
			},
			SetID: func(entry *LogEntry, id uuid.UUID) {
				if entry != nil {
					entry.ID = id
				}
			},
			GetIdentifier: func() string {
				return "id"
			},
		})
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}

	return &Repository{
		repo:  repo,
		db:    cfg.DB,
		clock: clock,
		idGen: idGen,
	}, nil
}

var _ types.ActivityStore = (*Repository)(nil)

// Records exposes the underlying go-repository-bun repository. CRUD
// controllers use it for schema metadata while writes go through the
// create command.
func (r *Repository) Records() repository.Repository[*LogEntry] {
	return r.repo
}

// Insert persists a new entry, assigning the id and creation time when unset.
func (r *Repository) Insert(ctx context.Context, entry types.ActivityEntry) (types.ActivityEntry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = r.idGen.UUID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.clock.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	row, err := toLogEntry(entry)
	if err != nil {
		return types.ActivityEntry{}, err
	}
	if _, err := r.repo.Create(ctx, row); err != nil {
		return types.ActivityEntry{}, err
	}
	entry.Metadata = cloneMap(entry.Metadata)
	return entry, nil
}

// FindMany returns a newest-first page of raw records plus the total number of
// rows matching the filter.
func (r *Repository) FindMany(ctx context.Context, filter types.ActivityFilter, page types.Pagination) ([]types.ActivityRecord, int, error) {
	page = NormalizePagination(page, DefaultPageSize, 0)
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			q = ApplyNewestFirst(q, page)
			return applyActivityFilter(q, filter)
		},
	}

	rows, total, err := r.repo.List(ctx, criteria...)
	if err != nil {
		return nil, 0, err
	}
	records := make([]types.ActivityRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, toActivityRecord(row))
	}
	return records, total, nil
}

// Count returns the number of rows matching the filter.
func (r *Repository) Count(ctx context.Context, filter types.ActivityFilter) (int, error) {
	q := r.db.NewSelect().Table(tableName)
	return applyActivityFilter(q, filter).Count(ctx)
}

// GroupCount aggregates rows by the supplied column, largest groups first.
// Rows without a workspace are skipped when grouping by workspace.
func (r *Repository) GroupCount(ctx context.Context, field types.GroupField, filter types.ActivityFilter, limit int) ([]types.GroupCount, error) {
	column, err := groupColumn(field)
	if err != nil {
		return nil, err
	}
	q := r.db.NewSelect().
		Table(tableName).
		ColumnExpr("? AS group_key", bun.Ident(column)).
		ColumnExpr("COUNT(*) AS total").
		Where("? IS NOT NULL", bun.Ident(column)).
		GroupExpr("?", bun.Ident(column)).
		OrderExpr("total DESC").
		OrderExpr("? ASC", bun.Ident(column))
	if limit > 0 {
		q = q.Limit(limit)
	}
	q = applyActivityFilter(q, filter)

	type row struct {
		Key   sql.NullString `bun:"group_key"`
		Total int            `bun:"total"`
	}
	var rows []row
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]types.GroupCount, 0, len(rows))
	for _, rec := range rows {
		out = append(out, types.GroupCount{Key: rec.Key.String, Count: rec.Total})
	}
	return out, nil
}

// CountWindows counts rows per time window in a single statement of
// conditional sums. The result is aligned with windows.
func (r *Repository) CountWindows(ctx context.Context, filter types.ActivityFilter, windows []types.TimeWindow) ([]int, error) {
	if len(windows) == 0 {
		return nil, nil
	}
	q := r.db.NewSelect().Table(tableName)
	for i, window := range windows {
		cond, args := windowCondition(window)
		q = q.ColumnExpr("COALESCE(SUM(CASE WHEN "+cond+" THEN 1 ELSE 0 END), 0) AS w"+strconv.Itoa(i), args...)
	}
	q = applyActivityFilter(q, filter)

	counts := make([]int, len(windows))
	dest := make([]any, len(windows))
	for i := range counts {
		dest[i] = &counts[i]
	}
	if err := q.Scan(ctx, dest...); err != nil {
		return nil, err
	}
	return counts, nil
}

func windowCondition(window types.TimeWindow) (string, []any) {
	conds := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if !window.From.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, window.From.UTC())
	}
	if !window.To.IsZero() {
		conds = append(conds, "created_at < ?")
		args = append(args, window.To.UTC())
	}
	if len(conds) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(conds, " AND "), args
}

func groupColumn(field types.GroupField) (string, error) {
	switch field {
	case types.GroupByAction:
		return "action", nil
	case types.GroupByWorkspaceID:
		return "workspace_id", nil
	default:
		return "", fmt.Errorf("activity: unsupported group field %q", field)
	}
}

func applyActivityFilter(q *bun.SelectQuery, filter types.ActivityFilter) *bun.SelectQuery {
	if workspaceID := strings.TrimSpace(filter.WorkspaceID); workspaceID != "" {
		q = q.Where("workspace_id = ?", workspaceID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", string(filter.Action))
	}
	if userID := strings.TrimSpace(filter.UserID); userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if filter.DateFrom != nil && !filter.DateFrom.IsZero() {
		q = q.Where("created_at >= ?", filter.DateFrom.UTC())
	}
	if filter.DateTo != nil && !filter.DateTo.IsZero() {
		q = q.Where("created_at <= ?", filter.DateTo.UTC())
	}
	return q
}

func toLogEntry(entry types.ActivityEntry) (*LogEntry, error) {
	row := &LogEntry{
		ID:          entry.ID,
		WorkspaceID: strings.TrimSpace(entry.WorkspaceID),
		UserID:      strings.TrimSpace(entry.UserID),
		UserEmail:   strings.TrimSpace(entry.UserEmail),
		Action:      string(entry.Action),
		EntityType:  string(entry.EntityType),
		EntityID:    entry.EntityID,
		CreatedAt:   entry.CreatedAt,
	}
	if entry.Metadata != nil {
		payload, err := json.Marshal(entry.Metadata)
		if err != nil {
			return nil, fmt.Errorf("activity: encode metadata: %w", err)
		}
		row.Metadata = string(payload)
	}
	return row, nil
}

func toActivityRecord(row *LogEntry) types.ActivityRecord {
	if row == nil {
		return types.ActivityRecord{}
	}
	return types.ActivityRecord{
		ID:          row.ID,
		WorkspaceID: row.WorkspaceID,
		UserID:      row.UserID,
		UserEmail:   row.UserEmail,
		Action:      row.Action,
		EntityType:  row.EntityType,
		EntityID:    row.EntityID,
		Metadata:    decodeMetadata(row.Metadata),
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

// decodeMetadata returns the stored JSON as a generic value. Undecodable
// payloads read as absent so one bad row cannot break a listing.
func decodeMetadata(raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// ToActivityRecord converts the Bun model into the raw record shape.
func ToActivityRecord(row *LogEntry) types.ActivityRecord {
	return toActivityRecord(row)
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
