package tracking

import "hmadashboard/internal/model"

// Reconcile merges a read-only seed collection with locally persisted
// overrides. An override replaces the seed project with the same id in
// place; overrides without a seed counterpart are appended in their own order.
func Reconcile(seed, overrides []model.Project) []model.Project {
	merged := make([]model.Project, 0, len(seed)+len(overrides))
	index := make(map[model.ID]int, len(seed)+len(overrides))

	put := func(p model.Project) {
		if i, ok := index[p.ID]; ok {
			merged[i] = p.Clone()
			return
		}
		index[p.ID] = len(merged)
		merged = append(merged, p.Clone())
	}

	for _, p := range seed {
		put(p)
	}
	for _, p := range overrides {
		put(p)
	}
	return merged
}
