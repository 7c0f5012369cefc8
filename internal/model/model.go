// Package model defines the results of a codemod run.
package model

// Status is the outcome for one file.
type Status string

const (
	Changed   Status = "changed"
	Unchanged Status = "unchanged"
	// Skipped files were discovered but not parsed, e.g. because of size.
	Skipped Status = "skipped"
	Failed  Status = "error"
)

// FileResult is the outcome of running the selected recipes on one file.
type FileResult struct {
	Path     string
	Language string
	Status   Status
	// Recipes lists, in order, the recipes that changed the file.
	Recipes []string
	// Error holds the failure or skip reason.
	Error string
	// Diff is the unified diff, when requested.
	Diff string
}

// Report is the complete result of a run, ready for serialization.
type Report struct {
	Roots   []string
	Recipes []string
	DryRun  bool
	Files   []FileResult
}

// Count returns the number of files with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for i := range r.Files {
		if r.Files[i].Status == s {
			n++
		}
	}
	return n
}

// Failed reports whether any file failed.
func (r *Report) Failed() bool {
	return r.Count(Failed) > 0
}
