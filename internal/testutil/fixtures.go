// Package testutil builds archive fixtures for tests.
package testutil

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Point is a representative atom used to synthesise mmCIF models.
type Point struct {
	X, Y, Z float64
	Seq     int
}

// CIF renders points as an mmCIF document with one CA atom (and an N atom)
// per residue.
func CIF(points []Point) string {
	var b strings.Builder
	b.WriteString("data_fixture\n#\nloop_\n")
	for _, c := range []string{
		"group_PDB", "id", "label_atom_id", "label_comp_id", "label_seq_id",
		"Cartn_x", "Cartn_y", "Cartn_z", "auth_seq_id", "auth_asym_id", "pdbx_PDB_model_num",
	} {
		b.WriteString("_atom_site." + c + "\n")
	}
	id := 1
	for _, p := range points {
		fmt.Fprintf(&b, "ATOM %d N ALA %d %.3f %.3f %.3f %d A 1\n", id, p.Seq, p.X+0.5, p.Y, p.Z, p.Seq)
		id++
		fmt.Fprintf(&b, "ATOM %d CA ALA %d %.3f %.3f %.3f %d A 1\n", id, p.Seq, p.X, p.Y, p.Z, p.Seq)
		id++
	}
	b.WriteString("#\n")
	return b.String()
}

// Confidence renders a confidence report JSON document.
func Confidence(scores []float64) string {
	residues := make([]int, len(scores))
	for i := range residues {
		residues[i] = i + 1
	}
	body, _ := json.Marshal(map[string]any{
		"residueNumber":   residues,
		"confidenceScore": scores,
	})
	return string(body)
}

// Gzip compresses s.
func Gzip(t testing.TB, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

// Entry is one tar member.
type Entry struct {
	Name string
	Body []byte
}

// WriteTar writes entries, in order, to dir/name and returns the path.
func WriteTar(t testing.TB, dir, name string, entries []Entry) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	tw := tar.NewWriter(f)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: 0o644, Size: int64(len(e.Body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header %s: %v", e.Name, err)
		}
		if _, err := tw.Write(e.Body); err != nil {
			t.Fatalf("tar body %s: %v", e.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	return path
}

// Tetrahedron returns four points with pairwise distances under 8 Å and
// sequence positions more than 12 apart.
func Tetrahedron() []Point {
	return []Point{
		{X: 0, Y: 0, Z: 0, Seq: 1},
		{X: 3, Y: 0, Z: 0, Seq: 20},
		{X: 1.5, Y: 2.6, Z: 0, Seq: 40},
		{X: 1.5, Y: 0.87, Z: 2.45, Seq: 60},
	}
}

// ExtendedChain returns n points 10 Å apart along x, so no pair is in contact.
func ExtendedChain(n int) []Point {
	out := make([]Point, n)
	for i := range out {
		out[i] = Point{X: float64(i) * 10, Seq: i + 1}
	}
	return out
}
