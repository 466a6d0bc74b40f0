package querybuilder

import "sort"

// InsertRows holds one value slice per inserted row
type InsertRows [][]interface{}

// UpdateData maps column names to their new values
type UpdateData map[string]interface{}

func (d UpdateData) sortedColumns() []string {
	cols := make([]string, 0, len(d))
	for col := range d {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

type CondType int

const (
	CondTypeAnd CondType = iota + 1
	CondTypeOr
)

func (c CondType) String() string {
	switch c {
	case CondTypeAnd:
		return "AND"
	case CondTypeOr:
		return "OR"
	}
	return ""
}

// Condition is one WHERE clause or a parenthesized group of them
type Condition struct {
	condType   CondType
	clause     string
	args       []interface{}
	subCond    []Condition
	isSubGroup bool
}

type JoinType int

const (
	JoinTypeInner JoinType = iota + 1
	JoinTypeLeft
)

func (j JoinType) String() string {
	switch j {
	case JoinTypeInner:
		return "INNER JOIN"
	case JoinTypeLeft:
		return "LEFT JOIN"
	}
	return ""
}

type join struct {
	joinType JoinType
	table    string
	alias    string
	on       string
}
