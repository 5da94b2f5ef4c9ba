package repository

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPage  = 1
	defaultLimit = 100
)

// Filter is a single comparison from the query string, already mapped to a column.
type Filter struct {
	Column string
	Op     string
	Value  string
}

// Query captures filtering, sorting, field limiting and pagination for list
// endpoints.
type Query struct {
	Filters []Filter
	Sort    []clause.OrderByColumn
	Fields  []string
	Page    int
	Limit   int
}

// Columns maps JSON field names accepted from clients to database columns.
type Columns map[string]string

var (
	filterKey = regexp.MustCompile(`^(\w+)(?:\[(gte|gt|lte|lt)\])?$`)
	operators = map[string]string{"": "=", "gte": ">=", "gt": ">", "lte": "<=", "lt": "<"}
	reserved  = map[string]bool{"page": true, "sort": true, "limit": true, "fields": true}
)

// ParseQuery reads ?field[op]=v, sort, fields, page and limit. Fields not in
// allowed are ignored, so callers can never reach arbitrary columns.
func ParseQuery(values url.Values, allowed Columns) Query {
	q := Query{Page: defaultPage, Limit: defaultLimit}

	for key, vals := range values {
		if reserved[key] || len(vals) == 0 {
			continue
		}
		m := filterKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		column, ok := allowed[m[1]]
		if !ok {
			continue
		}
		q.Filters = append(q.Filters, Filter{Column: column, Op: operators[m[2]], Value: vals[len(vals)-1]})
	}

	for _, field := range splitList(values.Get("sort")) {
		desc := strings.HasPrefix(field, "-")
		column, ok := allowed[strings.TrimPrefix(field, "-")]
		if !ok {
			continue
		}
		q.Sort = append(q.Sort, clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	}
	if len(q.Sort) == 0 {
		if column, ok := allowed["createdAt"]; ok {
			q.Sort = []clause.OrderByColumn{{Column: clause.Column{Name: column}, Desc: true}}
		}
	}

	for _, field := range splitList(values.Get("fields")) {
		if column, ok := allowed[field]; ok {
			q.Fields = append(q.Fields, column)
		}
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		q.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit > 0 {
		q.Limit = limit
	}
	return q
}

// Apply adds the query's clauses to db. The primary key is always selected
// when fields are limited.
func (q Query) Apply(db *gorm.DB) *gorm.DB {
	for _, f := range q.Filters {
		db = db.Where(clause.Expr{
			SQL:  "? " + f.Op + " ?",
			Vars: []interface{}{clause.Column{Name: f.Column}, f.Value},
		})
	}
	for _, s := range q.Sort {
		db = db.Order(s)
	}
	if len(q.Fields) > 0 {
		db = db.Select(append([]string{"id"}, q.Fields...))
	}
	if q.Limit > 0 {
		db = db.Offset((q.Page - 1) * q.Limit).Limit(q.Limit)
	}
	return db
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
