package structure

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Date layouts seen in PDB headers: the legacy HEADER column and ISO dates.
var dateLayouts = []string{"02-Jan-06", "2006-01-02"}

// ParseDate parses a PDB deposition date in either supported layout.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q does not match any known format", ErrFormat, s)
}

// ParsePDB reads ATOM/HETATM records and the HEADER, EXPDTA and REMARK 2
// header records of a legacy PDB file.
func ParsePDB(r io.Reader) (*Structure, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var b builder
	mdl := 1
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		rec := line
		if len(rec) > 6 {
			rec = rec[:6]
		}
		switch strings.TrimSpace(rec) {
		case "HEADER":
			if len(line) >= 59 {
				if d := strings.TrimSpace(line[50:59]); d != "" {
					t, err := ParseDate(d)
					if err != nil {
						return nil, fmt.Errorf("line %d: %w", lineNo, err)
					}
					b.s.Header.DepositionDate = t
				}
			}
		case "EXPDTA":
			if len(line) > 10 {
				method := strings.TrimSpace(line[10:])
				// multiple methods are separated by ';', keep the first
				method, _, _ = strings.Cut(method, ";")
				b.s.Header.Method = strings.ToLower(strings.TrimSpace(method))
			}
		case "REMARK":
			if res, ok := parseResolution(line); ok {
				b.s.Header.Resolution = &res
			}
		case "MODEL":
			if len(line) > 10 {
				n, err := strconv.Atoi(strings.TrimSpace(line[10:min(len(line), 14)]))
				if err == nil {
					mdl = n
				}
			}
		case "ATOM", "HETATM":
			if err := addPDBAtom(&b, mdl, line); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return &b.s, nil
}

// parseResolution reads "REMARK   2 RESOLUTION.    2.50 ANGSTROMS.".
// "NOT APPLICABLE" yields ok=false.
func parseResolution(line string) (float64, bool) {
	if len(line) < 10 || strings.TrimSpace(line[6:10]) != "2" {
		return 0, false
	}
	rest := strings.TrimSpace(line[10:])
	if !strings.HasPrefix(rest, "RESOLUTION.") {
		return 0, false
	}
	fields := strings.Fields(strings.TrimPrefix(rest, "RESOLUTION."))
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func addPDBAtom(b *builder, mdl int, line string) error {
	if len(line) < 54 {
		return fmt.Errorf("%w: short atom record (%d columns)", ErrFormat, len(line))
	}
	seq, err := strconv.Atoi(strings.TrimSpace(line[22:26]))
	if err != nil {
		return fmt.Errorf("%w: residue number %q", ErrFormat, line[22:26])
	}
	var c Vec3
	for k, span := range [3][2]int{{30, 38}, {38, 46}, {46, 54}} {
		raw := strings.TrimSpace(line[span[0]:span[1]])
		if c[k], err = strconv.ParseFloat(raw, 64); err != nil || !finite(c[k]) {
			return fmt.Errorf("%w: coordinate %q", ErrFormat, raw)
		}
	}
	name := strings.TrimSpace(line[12:16])
	resName := strings.TrimSpace(line[17:20])
	chain := strings.TrimSpace(line[21:22])
	ins := strings.TrimSpace(line[26:27])
	occ := 1.0
	if len(line) >= 60 {
		occ = parseOccupancy(line[54:60])
	}
	b.add(mdl, chain, resName, seq, ins, name, c, occ)
	return nil
}
