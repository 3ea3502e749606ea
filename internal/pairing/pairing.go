// Package pairing groups archive entry names into model/confidence pairs
// keyed by protein identifier.
package pairing

import (
	"strings"

	"github.com/daryltucker/afdb-filter/internal/model"
)

// Rules describes how entry names are recognised.
type Rules struct {
	ModelMarker      string
	ModelSuffix      string
	ConfidenceMarker string
	ConfidenceSuffix string
}

// DefaultRules matches AlphaFold DB proteome archives
// (AF-P12345-F1-model_v4.cif.gz, AF-P12345-F1-confidence_v4.json.gz).
func DefaultRules() Rules {
	return Rules{
		ModelMarker:      "-model",
		ModelSuffix:      ".cif.gz",
		ConfidenceMarker: "-confidence",
		ConfidenceSuffix: ".json.gz",
	}
}

// Pair is the partial record kept per protein key.
type Pair struct {
	Model      string
	Confidence string
}

// Complete reports whether both artifacts are present.
func (p Pair) Complete() bool {
	return p.Model != "" && p.Confidence != ""
}

// Duplicate records an entry that replaced an earlier one for the same key and role.
type Duplicate struct {
	Key      string
	Role     model.ArtifactRole
	Replaced string
	Entry    string
}

// Groups is the result of Group. Pairs is read-only after construction.
type Groups struct {
	Pairs      map[string]Pair
	Duplicates []Duplicate
}

// Complete returns the number of keys with both artifacts.
func (g Groups) Complete() int {
	n := 0
	for _, p := range g.Pairs {
		if p.Complete() {
			n++
		}
	}
	return n
}

// Incomplete returns the number of keys missing an artifact.
func (g Groups) Incomplete() int {
	return len(g.Pairs) - g.Complete()
}

// Classify extracts the protein key and role from an entry name. ok is false
// for names that match neither pattern. The key is everything before the
// first occurrence of the marker.
func (r Rules) Classify(name string) (key string, role model.ArtifactRole, ok bool) {
	if i := strings.Index(name, r.ModelMarker); i >= 0 && strings.HasSuffix(name, r.ModelSuffix) {
		return name[:i], model.RoleModel, true
	}
	if i := strings.Index(name, r.ConfidenceMarker); i >= 0 && strings.HasSuffix(name, r.ConfidenceSuffix) {
		return name[:i], model.RoleConfidence, true
	}
	return "", 0, false
}

// Group pairs entry names by protein key. Later entries win over earlier
// ones for the same key and role; each replacement is reported in Duplicates.
func (r Rules) Group(names []string) Groups {
	g := Groups{Pairs: make(map[string]Pair)}
	for _, name := range names {
		key, role, ok := r.Classify(name)
		if !ok {
			continue
		}
		p := g.Pairs[key]
		var prev *string
		switch role {
		case model.RoleModel:
			prev = &p.Model
		case model.RoleConfidence:
			prev = &p.Confidence
		}
		if *prev != "" && *prev != name {
			g.Duplicates = append(g.Duplicates, Duplicate{Key: key, Role: role, Replaced: *prev, Entry: name})
		}
		*prev = name
		g.Pairs[key] = p
	}
	return g
}
