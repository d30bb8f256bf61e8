package adapter

import (
	"cmp"
	"slices"
)

var kindOrder = map[ImportKind]int{ImportNamespace: 0, ImportDefault: 1, ImportNamed: 2}

// MergeImports deduplicates imports and orders them by source, then kind,
// then imported name.
func MergeImports(imports ...[]Import) []Import {
	seen := make(map[Import]bool)
	var out []Import
	for _, list := range imports {
		for _, imp := range list {
			if imp.Source == "" || seen[imp] {
				continue
			}
			seen[imp] = true
			out = append(out, imp)
		}
	}
	slices.SortFunc(out, func(a, b Import) int {
		return cmp.Or(
			cmp.Compare(a.Source, b.Source),
			cmp.Compare(kindOrder[a.Kind], kindOrder[b.Kind]),
			cmp.Compare(a.Imported, b.Imported),
			cmp.Compare(a.Local, b.Local),
		)
	})
	return out
}
