package kadedb

// Ptr returns a pointer to a copy of v, convenient for constructing
// optional Predicate/DocPredicate arguments and Constraints fields
// inline.
func Ptr[T any](v T) *T { return &v }
