package transfer

import (
	"testing"
	"time"

	"github.com/ddloads/networksync/pkg/model"
)

func TestCompareAddedModifiedDeletedUnchanged(t *testing.T) {
	local := []model.FileEntry{
		{Path: "a.txt", Hash: "h1"},
		{Path: "b.txt", Hash: "h2-new"},
		{Path: "c.txt", Hash: "h3"},
	}
	remote := []model.FileEntry{
		{Path: "b.txt", Hash: "h2-old"},
		{Path: "c.txt", Hash: "h3"},
		{Path: "d.txt", Hash: "h4"},
	}

	diff := Compare(local, remote)

	if len(diff.Added) != 1 || diff.Added[0].Path != "a.txt" {
		t.Errorf("Added = %+v, want [a.txt]", diff.Added)
	}
	if len(diff.Modified) != 1 || diff.Modified[0].Path != "b.txt" {
		t.Errorf("Modified = %+v, want [b.txt]", diff.Modified)
	}
	if len(diff.Deleted) != 1 || diff.Deleted[0].Path != "d.txt" {
		t.Errorf("Deleted = %+v, want [d.txt]", diff.Deleted)
	}
	if len(diff.Unchanged) != 1 || diff.Unchanged[0].Path != "c.txt" {
		t.Errorf("Unchanged = %+v, want [c.txt]", diff.Unchanged)
	}
}

func TestDetectConflictsMtimeRule(t *testing.T) {
	earlier := time.Now().Add(-time.Hour)
	later := time.Now()

	local := []model.FileEntry{
		{Path: "conflict.txt", Hash: "local-hash", ModifiedAt: later},
		{Path: "remote-wins.txt", Hash: "local-hash-2", ModifiedAt: earlier},
		{Path: "tie.txt", Hash: "local-hash-3", ModifiedAt: earlier},
	}
	remote := []model.FileEntry{
		{Path: "conflict.txt", Hash: "remote-hash", ModifiedAt: earlier},
		{Path: "remote-wins.txt", Hash: "remote-hash-2", ModifiedAt: later},
		{Path: "tie.txt", Hash: "remote-hash-3", ModifiedAt: earlier},
	}

	conflicts := DetectConflicts(local, remote)
	if len(conflicts) != 1 || conflicts[0].Path != "conflict.txt" {
		t.Fatalf("DetectConflicts = %+v, want exactly [conflict.txt]", conflicts)
	}
}
