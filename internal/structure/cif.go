package structure

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const maxLine = 16 << 20

// ParseCIF reads the _atom_site loop of an mmCIF document. Atom names come
// from label_atom_id, sequence numbers from auth_seq_id and chains from
// auth_asym_id, falling back to the other variant when a column is absent.
func ParseCIF(r io.Reader) (*Structure, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var (
		b          builder
		sawData    bool
		sawAtoms   bool
		inLoop     bool
		rowsActive bool
		atomLoop   bool
		cols       []string
		cm         *columnMap
		pending    []string
		lineNo     int
	)

	flush := func() error {
		if atomLoop && len(pending) > 0 {
			return fmt.Errorf("%w: line %d: _atom_site row has %d of %d values", ErrFormat, lineNo, len(pending), len(cols))
		}
		inLoop, rowsActive, atomLoop = false, false, false
		cols, cm, pending = nil, nil, nil
		return nil
	}
	startRows := func() error {
		if rowsActive {
			return nil
		}
		rowsActive = true
		if atomLoop {
			m, err := newColumnMap(cols)
			if err != nil {
				return err
			}
			cm = m
			sawAtoms = true
		}
		return nil
	}
	emit := func() error {
		for len(pending) >= len(cols) {
			if err := cm.add(&b, pending[:len(cols)]); err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			pending = pending[len(cols):]
		}
		return nil
	}

	for sc.Scan() {
		lineNo++
		raw := sc.Text()

		// semicolon-delimited text field
		if strings.HasPrefix(raw, ";") {
			var text strings.Builder
			text.WriteString(raw[1:])
			closed := false
			for sc.Scan() {
				lineNo++
				if strings.HasPrefix(sc.Text(), ";") {
					closed = true
					break
				}
				text.WriteByte('\n')
				text.WriteString(sc.Text())
			}
			if !closed {
				return nil, fmt.Errorf("%w: line %d: unterminated text field", ErrFormat, lineNo)
			}
			if !inLoop {
				continue
			}
			if err := startRows(); err != nil {
				return nil, err
			}
			if atomLoop {
				pending = append(pending, text.String())
				if err := emit(); err != nil {
					return nil, err
				}
			}
			continue
		}

		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#"):
			if rowsActive {
				if err := flush(); err != nil {
					return nil, err
				}
			}
			continue
		case hasFoldPrefix(line, "data_"):
			if err := flush(); err != nil {
				return nil, err
			}
			sawData = true
			continue
		case hasFoldPrefix(line, "loop_"):
			if err := flush(); err != nil {
				return nil, err
			}
			inLoop = true
			continue
		case strings.HasPrefix(line, "_"):
			if inLoop && !rowsActive {
				name := strings.Fields(line)[0]
				cols = append(cols, name)
				if hasFoldPrefix(name, "_atom_site.") {
					atomLoop = true
				}
				continue
			}
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}

		if !inLoop {
			continue
		}
		if err := startRows(); err != nil {
			return nil, err
		}
		if !atomLoop {
			continue
		}
		toks, err := tokenize(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, lineNo, err)
		}
		pending = append(pending, toks...)
		if err := emit(); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if !sawData {
		return nil, fmt.Errorf("%w: no data block", ErrFormat)
	}
	if !sawAtoms {
		return nil, fmt.Errorf("%w: no _atom_site loop", ErrFormat)
	}
	return &b.s, nil
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// tokenize splits a CIF data line, honouring single and double quotes. A
// quote only closes a value when followed by whitespace or end of line.
func tokenize(line string) ([]string, error) {
	var out []string
	i := 0
	for i < len(line) {
		for i < len(line) && isSpace(line[i]) {
			i++
		}
		if i >= len(line) {
			break
		}
		if q := line[i]; q == '\'' || q == '"' {
			j := i + 1
			for {
				k := strings.IndexByte(line[j:], q)
				if k < 0 {
					return nil, fmt.Errorf("unterminated quote at column %d", i+1)
				}
				j += k
				if j+1 == len(line) || isSpace(line[j+1]) {
					break
				}
				j++
			}
			out = append(out, line[i+1:j])
			i = j + 1
			continue
		}
		j := i
		for j < len(line) && !isSpace(line[j]) {
			j++
		}
		out = append(out, line[i:j])
		i = j
	}
	return out, nil
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' }

// columnMap resolves _atom_site column positions once per loop.
type columnMap struct {
	atom, comp, chain, seq, ins, model int
	x, y, z                            int
	occ                                int
}

func newColumnMap(cols []string) (*columnMap, error) {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[strings.TrimPrefix(strings.ToLower(c), "_atom_site.")] = i
	}
	pick := func(names ...string) int {
		for _, n := range names {
			if i, ok := idx[strings.ToLower(n)]; ok {
				return i
			}
		}
		return -1
	}
	m := &columnMap{
		atom:  pick("label_atom_id", "auth_atom_id"),
		comp:  pick("label_comp_id", "auth_comp_id"),
		chain: pick("auth_asym_id", "label_asym_id"),
		seq:   pick("auth_seq_id", "label_seq_id"),
		ins:   pick("pdbx_PDB_ins_code"),
		model: pick("pdbx_PDB_model_num"),
		x:     pick("Cartn_x"),
		y:     pick("Cartn_y"),
		z:     pick("Cartn_z"),
		occ:   pick("occupancy"),
	}
	for name, i := range map[string]int{"atom_id": m.atom, "seq_id": m.seq, "Cartn_x": m.x, "Cartn_y": m.y, "Cartn_z": m.z} {
		if i < 0 {
			return nil, fmt.Errorf("%w: _atom_site loop lacks %s", ErrFormat, name)
		}
	}
	return m, nil
}

func (m *columnMap) add(b *builder, row []string) error {
	get := func(i int) string {
		if i < 0 {
			return ""
		}
		v := row[i]
		if v == "?" || v == "." {
			return ""
		}
		return v
	}
	seq, err := strconv.Atoi(get(m.seq))
	if err != nil {
		return fmt.Errorf("%w: seq id %q", ErrFormat, row[m.seq])
	}
	var c Vec3
	for k, i := range [3]int{m.x, m.y, m.z} {
		c[k], err = strconv.ParseFloat(row[i], 64)
		if err != nil || !finite(c[k]) {
			return fmt.Errorf("%w: coordinate %q", ErrFormat, row[i])
		}
	}
	mdl := 1
	if v := get(m.model); v != "" {
		if mdl, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("%w: model number %q", ErrFormat, v)
		}
	}
	b.add(mdl, get(m.chain), get(m.comp), seq, get(m.ins), get(m.atom), c, parseOccupancy(get(m.occ)))
	return nil
}
