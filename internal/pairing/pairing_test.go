package pairing

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/daryltucker/afdb-filter/internal/model"
)

func TestClassify(t *testing.T) {
	r := DefaultRules()
	tests := []struct {
		name     string
		wantKey  string
		wantRole model.ArtifactRole
		wantOK   bool
	}{
		{"P1-model-v1.cif.gz", "P1", model.RoleModel, true},
		{"P1-confidence-v1.json.gz", "P1", model.RoleConfidence, true},
		{"UP000005640/AF-Q9Y6K9-F1-model_v4.cif.gz", "UP000005640/AF-Q9Y6K9-F1", model.RoleModel, true},
		{"AF-Q9Y6K9-F1-confidence_v4.json.gz", "AF-Q9Y6K9-F1", model.RoleConfidence, true},
		// wrong suffix for the role
		{"P1-model-v1.json.gz", "", 0, false},
		{"P1-confidence-v1.cif.gz", "", 0, false},
		{"P1-predicted_aligned_error_v4.json.gz", "", 0, false},
		{"README.txt", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, role, ok := r.Classify(tt.name)
			if ok != tt.wantOK || key != tt.wantKey || role != tt.wantRole {
				t.Fatalf("Classify(%q) = (%q, %v, %v), want (%q, %v, %v)",
					tt.name, key, role, ok, tt.wantKey, tt.wantRole, tt.wantOK)
			}
		})
	}
}

func TestGroupCompleteAndModelOnly(t *testing.T) {
	g := DefaultRules().Group([]string{
		"P1-model-v1.cif.gz",
		"P1-confidence-v1.json.gz",
		"P2-model-v1.cif.gz",
	})

	want := map[string]Pair{
		"P1": {Model: "P1-model-v1.cif.gz", Confidence: "P1-confidence-v1.json.gz"},
		"P2": {Model: "P2-model-v1.cif.gz"},
	}
	if diff := cmp.Diff(want, g.Pairs); diff != "" {
		t.Fatalf("pairs mismatch (-want +got):\n%s", diff)
	}
	if len(g.Pairs) != 2 || g.Complete() != 1 || g.Incomplete() != 1 {
		t.Fatalf("total=%d complete=%d incomplete=%d", len(g.Pairs), g.Complete(), g.Incomplete())
	}
	if len(g.Duplicates) != 0 {
		t.Fatalf("unexpected duplicates: %+v", g.Duplicates)
	}
}

func TestGroupIgnoresUnrelatedEntries(t *testing.T) {
	g := DefaultRules().Group([]string{"notes.md", "P3-pae.json.gz", ""})
	if len(g.Pairs) != 0 {
		t.Fatalf("expected no pairs, got %+v", g.Pairs)
	}
}

func TestGroupDuplicateLastWins(t *testing.T) {
	g := DefaultRules().Group([]string{
		"a/P1-model-v1.cif.gz",
		"P1-confidence-v1.json.gz",
		"a/P1-model-v2.cif.gz",
	})
	// keys differ by directory prefix, so only the v1/v2 pair under a/ collides
	if got := g.Pairs["a/P1"].Model; got != "a/P1-model-v2.cif.gz" {
		t.Fatalf("last write should win, got %q", got)
	}
	want := []Duplicate{{
		Key:      "a/P1",
		Role:     model.RoleModel,
		Replaced: "a/P1-model-v1.cif.gz",
		Entry:    "a/P1-model-v2.cif.gz",
	}}
	if diff := cmp.Diff(want, g.Duplicates); diff != "" {
		t.Fatalf("duplicates mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupCustomRules(t *testing.T) {
	r := Rules{ModelMarker: "_m", ModelSuffix: ".cif", ConfidenceMarker: "_c", ConfidenceSuffix: ".json"}
	g := r.Group([]string{"X_m.cif", "X_c.json"})
	if !g.Pairs["X"].Complete() {
		t.Fatalf("expected complete pair, got %+v", g.Pairs)
	}
}
