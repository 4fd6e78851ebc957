package database

import "github.com/nao1215/catalogcrawl/internal/model"

// Change is an assessment whose content differs between two runs.
type Change struct {
	Before model.Assessment
	After  model.Assessment
}

// Fields returns the column names whose values differ.
func (c Change) Fields() []string {
	before, after := c.Before.Row(), c.After.Row()
	fields := make([]string, 0, len(before))
	for i, col := range model.Columns() {
		if before[i] != after[i] {
			fields = append(fields, col)
		}
	}
	return fields
}

// Diff describes how the dataset of one run differs from another's.
// Records are matched by URL.
type Diff struct {
	// BaseRunID is the older run, when the diff came from the database.
	BaseRunID int64

	// TargetRunID is the newer run, when the diff came from the database.
	TargetRunID int64

	// Added holds records only present in the target, in target order.
	Added []model.Assessment

	// Removed holds records only present in the base, in base order.
	Removed []model.Assessment

	// Changed holds records present in both with a different content hash,
	// in target order.
	Changed []Change

	// Unchanged counts records present in both with identical content.
	Unchanged int
}

// Empty reports whether the two datasets hold the same records.
func (d *Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// CompareDatasets compares base against target by URL and content hash.
func CompareDatasets(base, target *model.Dataset) *Diff {
	diff := &Diff{
		Added:   make([]model.Assessment, 0),
		Removed: make([]model.Assessment, 0),
		Changed: make([]Change, 0),
	}

	before := base.ByURL()
	after := target.ByURL()

	if target != nil {
		for _, a := range target.Records {
			old, ok := before[a.URL]
			switch {
			case !ok:
				diff.Added = append(diff.Added, a)
			case old.Hash() != a.Hash():
				diff.Changed = append(diff.Changed, Change{Before: old, After: a})
			default:
				diff.Unchanged++
			}
		}
	}

	if base != nil {
		for _, a := range base.Records {
			if _, ok := after[a.URL]; !ok {
				diff.Removed = append(diff.Removed, a)
			}
		}
	}

	return diff
}
