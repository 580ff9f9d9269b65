package ledger

import "slices"

// LockOrder returns the distinct account numbers sorted ascending. Every
// multi-account operation acquires row locks in this order; two callers
// locking the same accounts can then never wait on each other in a cycle.
func LockOrder(accountNumbers ...string) []string {
	out := make([]string, 0, len(accountNumbers))
	for _, n := range accountNumbers {
		if n == "" || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
