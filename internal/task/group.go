package task

import "slices"

// Group is one stage and the tasks filed under it.
type Group struct {
	Stage string
	Tasks []Task
}

// FilterIncomplete drops completed tasks when onlyIncomplete is set.
func FilterIncomplete(tasks []Task, onlyIncomplete bool) []Task {
	if !onlyIncomplete {
		return tasks
	}

	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

// GroupByStage groups tasks by stage in first-seen order. Tasks inside a
// group are ordered by start date; tasks without a valid start sort last.
func GroupByStage(tasks []Task) []Group {
	index := make(map[string]int)
	var groups []Group

	for _, t := range tasks {
		stage := t.StageOrDefault()
		i, ok := index[stage]
		if !ok {
			i = len(groups)
			index[stage] = i
			groups = append(groups, Group{Stage: stage})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}

	for i := range groups {
		slices.SortStableFunc(groups[i].Tasks, compareStart)
	}

	return groups
}

// Stages lists the distinct stage labels in first-seen order.
func Stages(tasks []Task) []string {
	seen := make(map[string]bool)
	var stages []string
	for _, t := range tasks {
		if t.Stage == "" || seen[t.Stage] {
			continue
		}
		seen[t.Stage] = true
		stages = append(stages, t.Stage)
	}
	return stages
}

func compareStart(a, b Task) int {
	da, okA := ParseDate(a.StartDate)
	db, okB := ParseDate(b.StartDate)
	switch {
	case okA && okB:
		return da.Compare(db)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return 0
	}
}
