package ioadapter

import (
	"path/filepath"
	"sort"

	"github.com/kbukum/flowbatch/perrors"
)

// ExpandGlob expands pattern to the list of matching paths in
// lexicographic order, per §4.6's "globbing expands to a list of
// adapters consumed in lexicographic filename order (deterministic)".
// filepath.Glob already returns matches in sorted order on every
// platform Go supports, but the sort here is explicit rather than
// assumed, since determinism is a spec requirement, not an incidental
// property of the current implementation.
func ExpandGlob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, perrors.InvalidArgument("ioadapter: malformed glob pattern " + pattern)
	}
	sort.Strings(matches)
	return matches, nil
}
