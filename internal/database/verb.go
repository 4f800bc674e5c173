package database

import "strings"

// Verb is the lower-cased first word of a statement. Query uses it to
// decide the shape of its result:
//
//	select, show            → rows
//	insert, update, delete  → number of affected rows
//	anything else           → ErrKindUnsupported (the statement still runs)
//
// The set is deliberately small and fixed. REPLACE, WITH ... SELECT and
// similar statements should go through Row or Column, which never look at
// the verb.
type Verb string

const (
	VerbSelect Verb = "select"
	VerbShow   Verb = "show"
	VerbInsert Verb = "insert"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)

// VerbOf returns the first whitespace-delimited token of query, lower-cased.
func VerbOf(query string) Verb {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return Verb(strings.ToLower(fields[0]))
}

// ReturnsRows reports whether Query fetches a result set for v.
func (v Verb) ReturnsRows() bool {
	return v == VerbSelect || v == VerbShow
}

// AffectsRows reports whether Query reports an affected-row count for v.
func (v Verb) AffectsRows() bool {
	return v == VerbInsert || v == VerbUpdate || v == VerbDelete
}
