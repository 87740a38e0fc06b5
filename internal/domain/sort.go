package domain

import (
	"cmp"
	"slices"
)

// SortCriterion selects the ordering applied by FilterAndSort.
type SortCriterion string

const (
	SortByName     SortCriterion = "name"
	SortByPriority SortCriterion = "priority"
)

// FilterAndSort returns a reordered copy of tasks. The input slice is never modified.
// Unknown criteria return the tasks in their original order. Ties keep input order.
func FilterAndSort(tasks []Task, criterion SortCriterion) []Task {
	out := make([]Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Clone()
	}

	switch criterion {
	case SortByName:
		slices.SortStableFunc(out, func(a, b Task) int {
			return cmp.Compare(a.Title, b.Title)
		})
	case SortByPriority:
		slices.SortStableFunc(out, func(a, b Task) int {
			return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
		})
	}
	return out
}
