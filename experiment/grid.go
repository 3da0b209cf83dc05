package experiment

import "sort"

// ExpandGrid enumerates every hyperparameter combination of a grid. Keys are
// visited in sorted order and values in their given order, so the sequence
// of combinations is the same on every run. An empty grid expands to nothing.
func ExpandGrid(grid map[string][]any) []map[string]any {
	if len(grid) == 0 {
		return nil
	}

	keys := make([]string, 0, len(grid))
	for k := range grid {
		if len(grid[k]) == 0 {
			return nil
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	combos := []map[string]any{{}}
	for _, k := range keys {
		next := make([]map[string]any, 0, len(combos)*len(grid[k]))
		for _, base := range combos {
			for _, v := range grid[k] {
				combo := make(map[string]any, len(base)+1)
				for bk, bv := range base {
					combo[bk] = bv
				}
				combo[k] = v
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}
