package taskstore

import (
	"fmt"
	"strings"
)

// buildListQuery compiles filters and options into a single SQL statement
// over the cache. Filters combine conjunctively; each one becomes an EXISTS
// subquery against the typed index column matching the filter value's type,
// so a record lacking the field matches nothing.
func buildListQuery(collection string, filters []Filter, opts ListOptions) (string, []any, error) {
	var b strings.Builder
	args := []any{collection}

	b.WriteString("SELECT r.id, r.body, r.updated_at FROM records r WHERE r.collection = ?")

	for _, f := range filters {
		if err := validateFieldName(collection, f.Field); err != nil {
			return "", nil, err
		}
		column, arg, err := indexColumn(collection, f)
		if err != nil {
			return "", nil, err
		}

		if f.Op == Contains {
			b.WriteString(fmt.Sprintf(
				" AND EXISTS (SELECT 1 FROM record_indexes i WHERE i.collection = r.collection AND i.id = r.id AND i.field = ? AND i.%s LIKE '%%' || ? || '%%')",
				column))
		} else {
			b.WriteString(fmt.Sprintf(
				" AND EXISTS (SELECT 1 FROM record_indexes i WHERE i.collection = r.collection AND i.id = r.id AND i.field = ? AND i.%s %s ?)",
				column, f.Op))
		}
		args = append(args, f.Field, arg)
	}

	switch opts.OrderBy {
	case OrderUpdatedAtAsc:
		b.WriteString(" ORDER BY r.updated_at ASC, r.id ASC")
	case OrderUpdatedAtDesc:
		b.WriteString(" ORDER BY r.updated_at DESC, r.id ASC")
	default:
		b.WriteString(" ORDER BY r.id ASC")
	}

	if opts.Limit > 0 || opts.Offset > 0 {
		limit := opts.Limit
		if limit <= 0 {
			limit = -1 // SQLite: no limit, offset still applies
		}
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, opts.Offset)
	}

	return b.String(), args, nil
}

// indexColumn maps the filter value's type to its typed cache column and
// returns the driver argument.
func indexColumn(collection string, f Filter) (string, any, error) {
	switch v := f.Value.(type) {
	case Text:
		return "value_text", string(v), nil
	case Int:
		if f.Op == Contains {
			return "", nil, newError(ErrCodeValidation, collection, "",
				fmt.Sprintf("contains requires a text value for field %q", f.Field), nil)
		}
		return "value_int", int64(v), nil
	case Bool:
		if f.Op == Contains {
			return "", nil, newError(ErrCodeValidation, collection, "",
				fmt.Sprintf("contains requires a text value for field %q", f.Field), nil)
		}
		return "value_bool", bool(v), nil
	case nil:
		return "", nil, newError(ErrCodeValidation, collection, "",
			fmt.Sprintf("filter on field %q has no value", f.Field), nil)
	default:
		return "", nil, newError(ErrCodeValidation, collection, "",
			fmt.Sprintf("unsupported filter value type %T for field %q", f.Value, f.Field), nil)
	}
}
