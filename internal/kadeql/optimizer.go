package kadeql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kadedb/kadedb"
)

// Canonicalize applies the dialect's five canonicalization rules to a
// storage predicate tree, bottom-up:
//
//  1. NOT NOT p -> p.
//  2. De Morgan push-through: NOT (a AND b) -> (NOT a) OR (NOT b), and
//     the dual.
//  3. Associative flattening of AND/OR children of the same kind.
//  4. Constant folding of literal-vs-literal comparisons. Every
//     Comparison leaf this package builds (via buildPredicate) compares
//     a column to a literal, never a literal to a literal, so there is
//     nothing for this engine to fold; the rule is a documented no-op
//     here rather than dead code guarding against an unreachable shape.
//  5. Deduplication of structurally-equal children, then a
//     deterministic child ordering so logically equivalent predicates
//     produce equal trees.
//
// eval(row, Canonicalize(p)) == eval(row, p) for every row and p.
func Canonicalize(p kadedb.Predicate) kadedb.Predicate {
	switch {
	case p.IsComparison():
		return p

	case p.IsNot():
		if len(p.Children) == 0 {
			return p
		}
		child := Canonicalize(p.Children[0])
		switch {
		case child.IsNot():
			if len(child.Children) == 0 {
				return kadedb.Not(child)
			}
			return child.Children[0]
		case child.IsAnd():
			return Canonicalize(kadedb.Or(negateAll(child.Children)...))
		case child.IsOr():
			return Canonicalize(kadedb.And(negateAll(child.Children)...))
		default:
			return kadedb.Not(child)
		}

	case p.IsAnd() || p.IsOr():
		isAnd := p.IsAnd()
		flat := flattenChildren(p.Children, isAnd)
		deduped := dedupeChildren(flat)
		sort.Slice(deduped, func(i, j int) bool {
			return canonicalKey(deduped[i]) < canonicalKey(deduped[j])
		})
		if isAnd {
			return kadedb.And(deduped...)
		}
		return kadedb.Or(deduped...)

	default:
		return p
	}
}

func negateAll(children []kadedb.Predicate) []kadedb.Predicate {
	out := make([]kadedb.Predicate, len(children))
	for i, c := range children {
		out[i] = Canonicalize(kadedb.Not(c))
	}
	return out
}

func flattenChildren(children []kadedb.Predicate, isAnd bool) []kadedb.Predicate {
	var out []kadedb.Predicate
	for _, c := range children {
		cc := Canonicalize(c)
		switch {
		case isAnd && cc.IsAnd():
			out = append(out, cc.Children...)
		case !isAnd && cc.IsOr():
			out = append(out, cc.Children...)
		default:
			out = append(out, cc)
		}
	}
	return out
}

func dedupeChildren(children []kadedb.Predicate) []kadedb.Predicate {
	seen := make(map[string]bool, len(children))
	var out []kadedb.Predicate
	for _, c := range children {
		k := canonicalKey(c)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

// canonicalKey renders a predicate subtree into a structural string
// key: equal trees (up to child order) produce equal keys, which both
// dedup and the deterministic sort rely on.
func canonicalKey(p kadedb.Predicate) string {
	switch {
	case p.IsComparison():
		return fmt.Sprintf("C|%s|%d|%s", p.Column, int(p.Op), p.RHS.String())
	case p.IsAnd():
		return "A[" + joinSortedKeys(p.Children) + "]"
	case p.IsOr():
		return "O[" + joinSortedKeys(p.Children) + "]"
	case p.IsNot():
		if len(p.Children) == 0 {
			return "N[]"
		}
		return "N[" + canonicalKey(p.Children[0]) + "]"
	default:
		return "?"
	}
}

func joinSortedKeys(children []kadedb.Predicate) string {
	keys := make([]string, len(children))
	for i, c := range children {
		keys[i] = canonicalKey(c)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
