package database

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Paginate applies limit and offset as given. Non-positive values leave the
// corresponding clause out; bounds are enforced by callers.
func Paginate(limit, offset int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit > 0 {
			db = db.Limit(limit)
		}
		if offset > 0 {
			db = db.Offset(offset)
		}
		return db
	}
}

// SortColumn returns sortBy when it is in the allow-list and fallback otherwise.
// Only allow-listed names ever reach the ORDER BY clause.
func SortColumn(allowed []string, fallback, sortBy string) string {
	for _, column := range allowed {
		if column == sortBy {
			return column
		}
	}
	return fallback
}

// SortDescending treats anything other than "asc" (any case) as descending.
func SortDescending(sortOrder string) bool {
	return !strings.EqualFold(strings.TrimSpace(sortOrder), SortAsc)
}

// Sort orders by an allow-listed column of table, then by id in the same
// direction so that pages are stable when the sort column has ties.
func Sort(table string, allowed []string, fallback, sortBy, sortOrder string) func(db *gorm.DB) *gorm.DB {
	column := SortColumn(allowed, fallback, sortBy)
	desc := SortDescending(sortOrder)

	return func(db *gorm.DB) *gorm.DB {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Table: table, Name: column}, Desc: desc})
		if column != "id" {
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Table: table, Name: "id"}, Desc: desc})
		}
		return db
	}
}

// ContainsPattern wraps term for a case-insensitive substring LIKE match.
func ContainsPattern(term string) string {
	return "%" + strings.ToLower(term) + "%"
}

// Search matches term as a case-insensitive substring of any of columns.
// Columns are fixed identifiers supplied by the repositories; the term is
// always bound. An empty term disables the filter.
func Search(term string, columns ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" || len(columns) == 0 {
			return db
		}

		pattern := ContainsPattern(term)
		conds := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, column := range columns {
			conds[i] = "LOWER(" + column + ") LIKE ?"
			args[i] = pattern
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}
