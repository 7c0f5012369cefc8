package model

import "testing"

func TestReportCount(t *testing.T) {
	t.Parallel()

	r := &Report{Files: []FileResult{
		{Path: "a.js", Status: Changed},
		{Path: "b.js", Status: Unchanged},
		{Path: "c.js", Status: Changed},
		{Path: "d.js", Status: Skipped},
	}}
	if got := r.Count(Changed); got != 2 {
		t.Errorf("Count(Changed) = %d, want 2", got)
	}
	if r.Failed() {
		t.Error("Failed() = true without errors")
	}

	r.Files = append(r.Files, FileResult{Path: "e.js", Status: Failed, Error: "syntax error"})
	if !r.Failed() {
		t.Error("Failed() = false with an error")
	}
}
