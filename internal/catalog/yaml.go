package catalog

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/relalg/internal/ir"
)

// File is the YAML catalog fixture format.
//
//	tables:
//	  - name: emp
//	    columns:
//	      - {name: id, type: BIGINT}
//	      - {name: dept, type: TEXT, nullable: true}
type File struct {
	Tables []*ir.TableDesc `yaml:"tables"`
}

// ParseYAML decodes a catalog fixture. Tables without an id get their
// one-based position.
func ParseYAML(r io.Reader) ([]*ir.TableDesc, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "parse catalog yaml")
	}
	for i, t := range f.Tables {
		if t == nil || t.Name == "" {
			return nil, errors.Newf("tables[%d]: name is required", i)
		}
		if len(t.Columns) == 0 {
			return nil, errors.Newf("tables[%d] %q: at least one column is required", i, t.Name)
		}
		for j, c := range t.Columns {
			if c.Name == "" {
				return nil, errors.Newf("tables[%d].columns[%d]: name is required", i, j)
			}
		}
		if t.ID == 0 {
			t.ID = i + 1
		}
	}
	return f.Tables, nil
}

// LoadFile reads a YAML fixture into a Memory catalog.
func LoadFile(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open catalog %s", path)
	}
	defer f.Close()

	tables, err := ParseYAML(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	m := &Memory{tables: make(map[string]*ir.TableDesc, len(tables))}
	for _, t := range tables {
		if err := m.Add(t); err != nil {
			return nil, errors.Wrapf(err, "%s", path)
		}
	}
	return m, nil
}
