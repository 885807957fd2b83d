package compiler

import (
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/model"
)

// Options configures a compilation.
type Options struct {
	// Workers bounds the number of classes resolved in parallel.
	// Values below 1 resolve classes one at a time.
	Workers int
	Logger  *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithWorkers sets the number of parallel resolution workers.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithLogger sets the logger used for Debug level progress records.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func defaultOptions() Options {
	return Options{
		Workers: runtime.GOMAXPROCS(0),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Compile resolves a definition set into an instantiable model.
//
// The stages run in a fixed order:
//  1. Index definitions and resolve user types
//  2. Emit enumerations
//  3. Linearize every class
//  4. Resolve slots per class (in parallel, bounded by Workers)
//  5. Classify ranges and compile defaults
//  6. Order classes dependencies-first over the reference graph
//
// The first schema error in declaration order is returned and no model is
// produced. The same schema always yields the same model and error.
func Compile(schema *ir.SchemaDefinition, opts ...Option) (*model.CompiledModel, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var first error
	c := &compilation{
		schema: schema,
		opts:   o,
		emit: func(err error) bool {
			first = err
			return false
		},
	}
	def, ok := c.run()
	if !ok {
		return nil, first
	}
	return model.NewCompiledModel(*def)
}

// compilation carries one run of the pipeline. emit receives each schema
// error and returns whether to keep going.
type compilation struct {
	schema *ir.SchemaDefinition
	opts   Options
	emit   func(error) bool
	ix     *index
	failed bool
}

func (c *compilation) fail(err error) bool {
	c.failed = true
	return c.emit(err)
}

func (c *compilation) run() (*model.Definition, bool) {
	log := c.opts.Logger
	log.Debug("compiling schema",
		"schema", c.schema.Name,
		"classes", len(c.schema.Classes),
		"enums", len(c.schema.Enums),
		"types", len(c.schema.Types))

	ix, ok := newIndex(c.schema, c.fail)
	if !ok {
		return nil, false
	}
	c.ix = ix
	if !c.checkSchemaSlots() {
		return nil, false
	}

	enums := make([]*ir.EnumModel, 0, len(c.schema.Enums))
	for i := range c.schema.Enums {
		def := &c.schema.Enums[i]
		if ix.enums[def.Name] != def {
			continue
		}
		m, err := EmitEnum(def)
		if err != nil {
			if !c.fail(err) {
				return nil, false
			}
			continue
		}
		enums = append(enums, m)
	}

	// Chains are computed up front so workers only read the index.
	classes := make([]*ir.ClassDefinition, 0, len(c.schema.Classes))
	ix.chains = make(map[string][]string, len(c.schema.Classes))
	for i := range c.schema.Classes {
		def := &c.schema.Classes[i]
		if ix.classes[def.Name] != def {
			continue
		}
		chain, err := ix.linearize(def.Name)
		if err != nil {
			if !c.fail(err) {
				return nil, false
			}
			continue
		}
		ix.chains[def.Name] = chain
		classes = append(classes, def)
	}

	slots := make([][]resolvedSlot, len(classes))
	errs := make([]error, len(classes))
	var g errgroup.Group
	g.SetLimit(max(c.opts.Workers, 1))
	for i, def := range classes {
		g.Go(func() error {
			slots[i], errs[i] = ix.resolveSlots(def.Name, ix.chains[def.Name])
			return nil
		})
	}
	_ = g.Wait()

	ix.shapes = make(map[string]bool, len(classes))
	for i, def := range classes {
		if errs[i] != nil {
			if !c.fail(errs[i]) {
				return nil, false
			}
			continue
		}
		hasID := false
		for _, s := range slots[i] {
			hasID = hasID || s.attr.Identifier
		}
		ix.shapes[def.Name] = hasID
	}

	resolved := make([]*ir.ResolvedClassModel, 0, len(classes))
	for i, def := range classes {
		if errs[i] != nil {
			continue
		}
		m, err := c.emitClass(def, slots[i])
		if err != nil {
			if !c.fail(err) {
				return nil, false
			}
			continue
		}
		log.Debug("class resolved",
			"class", m.Name,
			"ancestors", len(m.Ancestors),
			"attributes", len(m.Attributes),
			"identifier", m.Identifier)
		resolved = append(resolved, m)
	}
	if c.failed {
		return nil, false
	}

	order, cycles := emissionOrder(buildReferenceGraph(resolved))
	byName := make(map[string]*ir.ResolvedClassModel, len(resolved))
	for _, m := range resolved {
		byName[m.Name] = m
	}
	ordered := make([]*ir.ResolvedClassModel, len(order))
	for i, name := range order {
		ordered[i] = byName[name]
	}
	for _, cy := range cycles {
		log.Debug("reference cycle", "path", cy.Path)
	}

	return &model.Definition{
		Name:    c.schema.Name,
		Classes: ordered,
		Enums:   enums,
		Types:   ix.types,
		Cycles:  cycles,
	}, true
}

// emitClass classifies resolved slots and compiles their defaults.
func (c *compilation) emitClass(def *ir.ClassDefinition, slots []resolvedSlot) (*ir.ResolvedClassModel, error) {
	m := &ir.ResolvedClassModel{
		Name:        def.Name,
		Description: def.Description,
		Ancestors:   c.ix.chains[def.Name],
		Attributes:  make([]ir.ResolvedAttribute, 0, len(slots)),
		Abstract:    def.Abstract,
		Mixin:       def.Mixin,
	}
	for i := range slots {
		s := &slots[i]
		if err := c.ix.classify(def.Name, s); err != nil {
			return nil, err
		}
		if err := c.ix.compileDefault(def.Name, &s.attr); err != nil {
			return nil, err
		}
		if s.attr.Identifier {
			m.Identifier = s.attr.Name
		}
		m.Attributes = append(m.Attributes, s.attr)
	}
	return m, nil
}
