package store

import (
	"fmt"
	"slices"
	"strings"
)

type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *sqlBuilder) cond(c Condition) string {
	switch c := c.(type) {
	case eqCond:
		if normalize(c.value) == nil {
			return c.field + " IS NULL"
		}
		return c.field + " = " + b.arg(c.value)
	case inCond:
		if len(c.values) == 0 {
			return "FALSE"
		}
		ph := make([]string, len(c.values))
		for i, v := range c.values {
			ph[i] = b.arg(v)
		}
		return c.field + " IN (" + strings.Join(ph, ", ") + ")"
	case orCond:
		return b.join(c.conds, " OR ", "FALSE")
	case andCond:
		return b.join(c.conds, " AND ", "TRUE")
	}
	return "TRUE"
}

func (b *sqlBuilder) join(conds []Condition, sep, empty string) string {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		if c != nil {
			parts = append(parts, b.cond(c))
		}
	}
	if len(parts) == 0 {
		return empty
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func buildSelect(c Collection, q Query) (string, []any, error) {
	if err := checkCollection(c); err != nil {
		return "", nil, err
	}
	if err := q.validate(); err != nil {
		return "", nil, err
	}

	var b sqlBuilder
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(string(c))
	if q.Where != nil {
		sb.WriteString(" WHERE ")
		sb.WriteString(b.cond(q.Where))
	}
	if len(q.OrderBy) > 0 {
		parts := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts[i] = o.Field + " " + dir
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(b.arg(q.Limit))
	}
	return sb.String(), b.args, nil
}

func buildInsert(c Collection, rec Record) (string, []any, error) {
	if err := checkCollection(c); err != nil {
		return "", nil, err
	}
	if rec.ID() == "" {
		return "", nil, fmt.Errorf("create %s: id is required", c)
	}
	cols := sortedKeys(rec)
	var b sqlBuilder
	ph := make([]string, len(cols))
	for i, col := range cols {
		if err := checkField(col); err != nil {
			return "", nil, err
		}
		ph[i] = b.arg(rec[col])
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		c, strings.Join(cols, ", "), strings.Join(ph, ", "))
	return sql, b.args, nil
}

func buildUpdate(c Collection, id string, fields Record) (string, []any, error) {
	if err := checkCollection(c); err != nil {
		return "", nil, err
	}
	var b sqlBuilder
	var sets []string
	for _, col := range sortedKeys(fields) {
		if col == "id" {
			continue
		}
		if err := checkField(col); err != nil {
			return "", nil, err
		}
		sets = append(sets, col+" = "+b.arg(fields[col]))
	}
	if len(sets) == 0 {
		return "", nil, fmt.Errorf("update %s %s: no fields to set", c, id)
	}
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s RETURNING *",
		c, strings.Join(sets, ", "), b.arg(id))
	return sql, b.args, nil
}

func sortedKeys(r Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
