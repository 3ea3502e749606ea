package engine

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
)

type section struct {
	offset int64
	size   int64
}

// archive is an opened tar container with an index of its regular files.
// Entries are read back through section readers, so pairing can happen
// before any member is decompressed.
type archive struct {
	path  string
	file  *os.File
	names []string
	index map[string]section
}

// openArchive opens path and indexes every regular file in one pass.
// The caller must Close the archive.
func openArchive(path string) (*archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	a := &archive{path: path, file: f, index: make(map[string]section)}

	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: read %s: %v", ErrIO, path, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		// tar.Reader does not buffer, so the file offset is the start of the data
		off, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: seek %s: %v", ErrIO, path, err)
		}
		a.names = append(a.names, hdr.Name)
		a.index[hdr.Name] = section{offset: off, size: hdr.Size}
	}
	return a, nil
}

// Names returns entry names in archive order.
func (a *archive) Names() []string { return a.names }

// Open returns a reader over one entry's bytes.
func (a *archive) Open(name string) (io.Reader, error) {
	s, ok := a.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no entry %q", ErrIO, a.path, name)
	}
	return io.NewSectionReader(a.file, s.offset, s.size), nil
}

func (a *archive) Close() error {
	return a.file.Close()
}

// scanNames lists member names without building an index.
func scanNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()

	var names []string
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return names, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrIO, path, err)
		}
		names = append(names, hdr.Name)
	}
}
