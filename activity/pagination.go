package activity

import (
	"github.com/goliatone/go-audit/pkg/types"
	"github.com/uptrace/bun"
)

const (
	// DefaultPageSize is used when callers do not request a limit.
	DefaultPageSize = 50
	// MaxPageSize caps every listing regardless of the requested limit.
	MaxPageSize = 100
)

// NormalizePagination applies the default limit, caps it at max and clamps
// negative offsets.
func NormalizePagination(p types.Pagination, def, max int) types.Pagination {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if max > 0 && p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ApplyNewestFirst orders rows by created_at DESC with id DESC as the stable
// tie-break and applies the page window.
func ApplyNewestFirst(q *bun.SelectQuery, page types.Pagination) *bun.SelectQuery {
	if q == nil {
		return nil
	}
	q = q.OrderExpr("created_at DESC, id DESC")
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	return q
}
