// Package structure reads macromolecular coordinate files (mmCIF and PDB)
// into a minimal residue/atom model.
package structure

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrFormat is returned for input that cannot be read as a structure.
var ErrFormat = errors.New("structure: format")

// Vec3 is a Cartesian coordinate in Ångström.
type Vec3 [3]float64

// Atom is one atom of a residue. Of several alternate locations only the
// one with the highest occupancy is kept.
type Atom struct {
	Name      string
	Coord     Vec3
	Occupancy float64
}

// Residue groups atoms sharing model, chain, sequence number and insertion code.
type Residue struct {
	Model   int
	Chain   string
	Name    string
	Seq     int
	InsCode string
	Atoms   []Atom
}

// Atom returns the named atom, if present.
func (r *Residue) Atom(name string) (Atom, bool) {
	for _, a := range r.Atoms {
		if a.Name == name {
			return a, true
		}
	}
	return Atom{}, false
}

// Header carries the PDB metadata used by the metadata filter.
// Zero values mean the record was absent.
type Header struct {
	DepositionDate time.Time
	Resolution     *float64
	Method         string
}

// Structure is an ordered list of residues across all models and chains.
type Structure struct {
	Header   Header
	Residues []Residue
}

// Representative is one residue's designated atom with its sequence position.
type Representative struct {
	Coord Vec3
	Seq   int
}

// Representatives returns, in file order, the named atom of every residue
// that has one. Residues without it are skipped, not padded.
func (s *Structure) Representatives(atom string) []Representative {
	out := make([]Representative, 0, len(s.Residues))
	for i := range s.Residues {
		if a, ok := s.Residues[i].Atom(atom); ok {
			out = append(out, Representative{Coord: a.Coord, Seq: s.Residues[i].Seq})
		}
	}
	return out
}

// builder accumulates atom records into residues, starting a new residue
// whenever the residue identity changes between consecutive records.
type builder struct {
	s    Structure
	cur  *Residue
	seen map[string]int // atom name -> index in cur.Atoms
}

func (b *builder) add(mdl int, chain, resName string, seq int, ins, atom string, c Vec3, occ float64) {
	if b.cur == nil || b.cur.Model != mdl || b.cur.Chain != chain || b.cur.Seq != seq || b.cur.InsCode != ins {
		b.s.Residues = append(b.s.Residues, Residue{Model: mdl, Chain: chain, Name: resName, Seq: seq, InsCode: ins})
		b.cur = &b.s.Residues[len(b.s.Residues)-1]
		b.seen = make(map[string]int)
	}
	// highest occupancy wins, ties keep the earlier record
	if i, ok := b.seen[atom]; ok {
		if occ > b.cur.Atoms[i].Occupancy {
			b.cur.Atoms[i].Coord = c
			b.cur.Atoms[i].Occupancy = occ
		}
		return
	}
	b.seen[atom] = len(b.cur.Atoms)
	b.cur.Atoms = append(b.cur.Atoms, Atom{Name: atom, Coord: c, Occupancy: occ})
}

// parseOccupancy reads an occupancy value. Missing or unreadable values
// count as fully occupied.
func parseOccupancy(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !finite(v) {
		return 1
	}
	return v
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
