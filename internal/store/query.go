package store

import (
	"strings"

	"github.com/dreamware/csync/internal/types"
)

// selectBuilder assembles a parameterized SELECT (or COUNT) statement,
// mirroring the Select builder the original server used to compose its
// metadata and user queries.
type selectBuilder struct {
	fields  []string
	table   string
	wheres  []string
	values  []any
	orderBy []string
	limit   bool
	offset  bool
	count   bool
}

func newSelect(table string, fields ...string) *selectBuilder {
	return &selectBuilder{table: table, fields: fields}
}

func newCountSelect(table string) *selectBuilder {
	return &selectBuilder{table: table, fields: []string{"COUNT(1)"}, count: true}
}

func (s *selectBuilder) where(clause string, value any) {
	s.wheres = append(s.wheres, clause)
	s.values = append(s.values, value)
}

func (s *selectBuilder) addOrderBy(clause string) {
	if s.count {
		return
	}
	s.orderBy = append(s.orderBy, clause)
}

// applyQuery applies the common pagination/search/time-range filters shared
// by every metadata and user query.
func (s *selectBuilder) applyQuery(q baseQuery, searchField string) {
	if q.hasSearch {
		s.where(searchField+" LIKE ?", "%"+q.search+"%")
	}
	if q.hasAfter {
		s.where("update_time > ?", q.updateAfter)
	}
	if q.hasBefore {
		s.where("update_time < ?", q.updateBefore)
	}
	if s.count {
		return
	}

	// A zero limit means "unbounded" at the store layer; the default of
	// types.DefaultLimit is an HTTP request-decoding concern (spec section
	// 6), applied by the handlers before a Query ever reaches here.
	if q.limit == 0 {
		return
	}
	s.limit = true
	s.offset = true
	s.values = append(s.values, q.limit, q.offset)
}

func (s *selectBuilder) build() (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(s.fields, ", "))
	b.WriteString(" FROM ")
	b.WriteString(s.table)

	if len(s.wheres) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(s.wheres, " AND "))
	}
	if len(s.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.orderBy, ", "))
	}
	if s.limit {
		b.WriteString(" LIMIT ?")
		if s.offset {
			b.WriteString(" OFFSET ?")
		}
	}

	return b.String(), s.values
}

// updateBuilder assembles a parameterized UPDATE statement.
type updateBuilder struct {
	table  string
	fields []string
	wheres []string
	values []any
}

func newUpdate(table string) *updateBuilder {
	return &updateBuilder{table: table}
}

func (u *updateBuilder) set(field string, value any) {
	u.fields = append(u.fields, field)
	u.values = append(u.values, value)
}

func (u *updateBuilder) where(clause string, value any) {
	u.wheres = append(u.wheres, clause)
	u.values = append(u.values, value)
}

// build returns an empty string when there is nothing to set, matching the
// original builder's no-op behavior for a patch with no fields.
func (u *updateBuilder) build() (string, []any) {
	if len(u.fields) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(u.table)
	b.WriteString(" SET ")
	for i, f := range u.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f)
		b.WriteString(" = ?")
	}
	if len(u.wheres) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(u.wheres, " AND "))
	}

	return b.String(), u.values
}

// baseQuery is the builder-facing shape of types.Query.
type baseQuery struct {
	offset       uint64
	limit        uint64
	search       string
	hasSearch    bool
	updateAfter  uint64
	hasAfter     bool
	updateBefore uint64
	hasBefore    bool
}

func newBaseQuery(q types.Query) baseQuery {
	return baseQuery{
		offset:       q.Offset,
		limit:        q.Limit,
		search:       q.Search,
		hasSearch:    q.HasSearch,
		updateAfter:  q.UpdateAfter,
		hasAfter:     q.HasAfter,
		updateBefore: q.UpdateBefore,
		hasBefore:    q.HasBefore,
	}
}
