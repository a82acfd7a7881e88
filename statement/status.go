package statement

import "fmt"

// Status is the lifecycle phase of a statement. Phases are strictly ordered;
// every operation checks the current phase before acting, and the numeric
// ordering is what makes "has this statement been compiled yet?" a plain
// comparison.
type Status int

const (
	// StatusNew is a freshly created statement with no refinements applied.
	StatusNew Status = iota + 1

	// StatusRefined has accumulated clauses but no SQL yet.
	StatusRefined

	// StatusSqlized has its SQL text and bind list compiled and frozen.
	StatusSqlized

	// StatusPrepared holds a live database statement handle.
	StatusPrepared

	// StatusExecuted has run against the database and owns a row cursor.
	StatusExecuted
)

var statusNames = [...]string{
	StatusNew:      "new",
	StatusRefined:  "refined",
	StatusSqlized:  "sqlized",
	StatusPrepared: "prepared",
	StatusExecuted: "executed",
}

// String returns the lowercase phase label used in error messages and logs.
func (s Status) String() string {
	if s >= StatusNew && s <= StatusExecuted {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int(s))
}
