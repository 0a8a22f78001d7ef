package compiler

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/relalg/internal/ctxlog"
	"github.com/roach88/relalg/internal/ir"
)

// Catalog resolves table names for Scan nodes. Implementations must be
// safe for concurrent lookups when one Builder serves several goroutines.
type Catalog interface {
	LookupTable(name string) (*ir.TableDesc, bool)
}

// Builder turns JSON plans into bound, optionally coalesced DAGs. A
// Builder holds no per-build state and may be shared between goroutines.
type Builder struct {
	catalog  Catalog
	coalesce bool
	ids      IDGenerator
}

// Option configures a Builder.
type Option func(*Builder)

// WithCoalescing turns the node coalescer on or off. It is on by default.
func WithCoalescing(on bool) Option {
	return func(b *Builder) { b.coalesce = on }
}

// WithIDGenerator replaces the UUIDv7 build id source.
func WithIDGenerator(g IDGenerator) Option {
	return func(b *Builder) { b.ids = g }
}

// NewBuilder returns a Builder resolving tables through cat.
func NewBuilder(cat Catalog, opts ...Option) *Builder {
	b := &Builder{catalog: cat, coalesce: true, ids: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build decodes plan, constructs and binds every node, coalesces fusable
// sequences, and returns the finished DAG. filename is only used in
// error positions. On error no DAG is returned.
func (b *Builder) Build(ctx context.Context, filename string, plan []byte) (*ir.DAG, error) {
	return b.run(ctx, filename, plan, b.coalesce)
}

// Bind is Build without the coalescing step: the result has one node per
// plan entry.
func (b *Builder) Bind(ctx context.Context, filename string, plan []byte) (*ir.DAG, error) {
	return b.run(ctx, filename, plan, false)
}

func (b *Builder) run(ctx context.Context, filename string, plan []byte, coalesce bool) (*ir.DAG, error) {
	log := ctxlog.FromContext(ctx)

	rels, err := decodePlan(filename, plan)
	if err != nil {
		return nil, err
	}
	st := &build{catalog: b.catalog}
	if err := st.readNodes(rels); err != nil {
		return nil, err
	}
	log.Debug("nodes constructed", "file", filename, "rels", len(rels))

	if err := st.bind(); err != nil {
		return nil, err
	}
	if err := checkPostconditions(&ir.DAG{Nodes: st.nodes}, "bind"); err != nil {
		return nil, err
	}

	nodes := st.nodes
	if coalesce {
		patterns, err := st.findPatterns()
		if err != nil {
			return nil, err
		}
		if nodes, err = st.coalesce(patterns); err != nil {
			return nil, err
		}
		if err := checkPostconditions(&ir.DAG{Nodes: nodes}, "coalesce"); err != nil {
			return nil, err
		}
		log.Debug("coalesced", "compounds", len(patterns), "nodes", len(nodes))
	}

	dag := &ir.DAG{BuildID: b.ids.Generate(), Nodes: nodes}
	log.Debug("build complete", "build_id", dag.BuildID, "nodes", dag.Len())
	return dag, nil
}

// checkPostconditions turns validator findings into a build error. A
// surviving AbstractInput is a plan error; anything else is a bug here.
func checkPostconditions(d *ir.DAG, phase string) error {
	errs := Validate(d)
	if len(errs) == 0 {
		return nil
	}
	for _, e := range errs {
		if e.Code == ErrResidualAbstractInput {
			return &MalformedPlanError{Node: e.Node, Field: e.Field, Message: e.Message}
		}
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return errors.WithDetail(
		errors.AssertionFailedf("%s: %d postcondition violations", phase, len(errs)),
		strings.Join(msgs, "\n"))
}
