package catalog

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/roach88/relalg/internal/ir"
)

// Source is a catalog the CLI can open, query and close.
type Source interface {
	LookupTable(name string) (*ir.TableDesc, bool)
	Tables() []*ir.TableDesc
	Close() error
}

// OpenPath opens a YAML fixture (.yaml, .yml) or a SQLite catalog.
func OpenPath(ctx context.Context, path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		m, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		s, err := Open(ctx, path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
