// Package symtab provides a small interner shared by the variable
// resolver, the loop labeler, and the TAC generator. Each of those passes
// mints fresh, compiler-generated names from its own per-pass counter;
// this package backs the invariant that those names are pairwise
// distinct with an xxhash-keyed set, so a collision is an O(1) lookup
// rather than a lingering correctness hope. The resolver and the loop
// labeler each use one Table for the whole program; the TAC generator
// uses a fresh Table per function, so its temporaries and labels are
// distinct within one function only.
package symtab

import "github.com/cespare/xxhash/v2"

// Table tracks every unique name minted during one compilation and
// reports whether a name has been seen before.
type Table struct {
	seen map[uint64]string
}

func New() *Table {
	return &Table{seen: make(map[uint64]string)}
}

// Insert records name as freshly minted. It reports false if name was
// already present, which, for the namespaces this package guards
// (renamed variables, loop labels, TAC temporaries), indicates a bug in
// the counter that produced it, not a user-facing error.
func (t *Table) Insert(name string) bool {
	h := xxhash.Sum64String(name)
	if existing, ok := t.seen[h]; ok && existing == name {
		return false
	}
	t.seen[h] = name
	return true
}

// MustInsert panics if name collides with a previously inserted name.
// The panic is a defect signal: every caller site mints names from a
// monotonic per-pass counter, so a collision can only mean the counter
// or its namespace prefix is wrong.
func (t *Table) MustInsert(name string) {
	if !t.Insert(name) {
		panic("symtab: duplicate unique name " + name)
	}
}

// Count reports how many distinct names have been inserted so far.
func (t *Table) Count() int { return len(t.seen) }
