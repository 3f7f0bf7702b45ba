package taskstore

// FilterOp is a comparison operator applied to an indexed field.
type FilterOp int

const (
	Eq FilterOp = iota
	Ne
	Gt
	Gte
	Lt
	Lte
	// Contains matches text values holding the filter value as a substring.
	// Valid only with Text values.
	Contains
)

// String returns the SQL comparison for the operator.
func (op FilterOp) String() string {
	switch op {
	case Eq:
		return "="
	case Ne:
		return "!="
	case Gt:
		return ">"
	case Gte:
		return ">="
	case Lt:
		return "<"
	case Lte:
		return "<="
	case Contains:
		return "LIKE"
	default:
		return "?"
	}
}

// Filter is one predicate of a conjunctive query: field op value.
// A record matches only if it has an index row for Field whose typed column
// satisfies the comparison; records that never declared the field match no
// predicate referencing it.
type Filter struct {
	Field string
	Op    FilterOp
	Value IndexValue
}

// Order selects the optional result ordering of List.
type Order int

const (
	// OrderNone orders by id only (deterministic default).
	OrderNone Order = iota
	// OrderUpdatedAtAsc orders oldest revision first.
	OrderUpdatedAtAsc
	// OrderUpdatedAtDesc orders newest revision first.
	OrderUpdatedAtDesc
)

// ListOptions carries optional ordering and pagination for List.
// The zero value means: order by id, no limit, no offset.
type ListOptions struct {
	OrderBy Order
	Limit   int
	Offset  int
}
