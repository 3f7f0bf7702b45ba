package taskstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListQuery_NoFilters(t *testing.T) {
	query, args, err := buildListQuery("tasks", nil, ListOptions{})
	require.NoError(t, err)

	assert.Equal(t, "SELECT r.id, r.body, r.updated_at FROM records r WHERE r.collection = ? ORDER BY r.id ASC", query)
	assert.Equal(t, []any{"tasks"}, args)
}

func TestBuildListQuery_TypedColumns(t *testing.T) {
	cases := []struct {
		name   string
		filter Filter
		column string
		arg    any
	}{
		{"text", Filter{Field: "status", Op: Eq, Value: Text("pending")}, "value_text", "pending"},
		{"int", Filter{Field: "priority", Op: Gt, Value: Int(2)}, "value_int", int64(2)},
		{"bool", Filter{Field: "done", Op: Eq, Value: Bool(true)}, "value_bool", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			query, args, err := buildListQuery("tasks", []Filter{tc.filter}, ListOptions{})
			require.NoError(t, err)
			assert.Contains(t, query, "i."+tc.column)
			assert.Equal(t, []any{"tasks", tc.filter.Field, tc.arg}, args)
		})
	}
}

func TestBuildListQuery_ContainsUsesLike(t *testing.T) {
	query, args, err := buildListQuery("tasks",
		[]Filter{{Field: "status", Op: Contains, Value: Text("end")}}, ListOptions{})
	require.NoError(t, err)

	assert.Contains(t, query, "i.value_text LIKE '%' || ? || '%'")
	assert.Equal(t, []any{"tasks", "status", "end"}, args)
}

func TestBuildListQuery_Ordering(t *testing.T) {
	query, _, err := buildListQuery("tasks", nil, ListOptions{OrderBy: OrderUpdatedAtAsc})
	require.NoError(t, err)
	assert.Contains(t, query, "ORDER BY r.updated_at ASC, r.id ASC")

	query, _, err = buildListQuery("tasks", nil, ListOptions{OrderBy: OrderUpdatedAtDesc})
	require.NoError(t, err)
	assert.Contains(t, query, "ORDER BY r.updated_at DESC, r.id ASC")
}

func TestBuildListQuery_Pagination(t *testing.T) {
	query, args, err := buildListQuery("tasks", nil, ListOptions{Limit: 10, Offset: 5})
	require.NoError(t, err)
	assert.Contains(t, query, "LIMIT ? OFFSET ?")
	assert.Equal(t, []any{"tasks", 10, 5}, args)

	// Offset without limit uses SQLite's unlimited sentinel.
	_, args, err = buildListQuery("tasks", nil, ListOptions{Offset: 5})
	require.NoError(t, err)
	assert.Equal(t, []any{"tasks", -1, 5}, args)
}

func TestBuildListQuery_RejectsBadFieldName(t *testing.T) {
	_, _, err := buildListQuery("tasks",
		[]Filter{{Field: "bad-field", Op: Eq, Value: Text("x")}}, ListOptions{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestBuildListQuery_RejectsMissingValue(t *testing.T) {
	_, _, err := buildListQuery("tasks",
		[]Filter{{Field: "status", Op: Eq}}, ListOptions{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}
