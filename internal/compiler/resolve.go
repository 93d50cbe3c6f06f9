package compiler

import "github.com/roach88/canspec/internal/ir"

// Edge records that From contains at least one field of type To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the dependency graph produced by Resolve. Each declaration maps
// to the distinct types it references, in first-reference order; several
// fields of the same type collapse into one edge.
type Graph struct {
	nodes []string
	deps  dependencyGraph
}

// dependencyGraph maps a declaration name to the names it depends on.
type dependencyGraph map[string][]string

// Deps returns the distinct dependencies of a declaration.
func (g *Graph) Deps(name string) []string {
	return g.deps[name]
}

// Edges returns every edge, types before messages, declaration order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, from := range g.nodes {
		for _, to := range g.deps[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// Resolve checks every reference field against the registry and builds the
// dependency graph. Types are resolved before messages, each in declaration
// order, so the first failure is deterministic.
func Resolve(reg *Registry) (*Graph, error) {
	g := &Graph{deps: make(dependencyGraph)}

	decls := make([]*Decl, 0, len(reg.Types())+len(reg.Messages()))
	decls = append(decls, reg.Types()...)
	decls = append(decls, reg.Messages()...)

	for _, d := range decls {
		g.nodes = append(g.nodes, d.Name)
		g.deps[d.Name] = []string{}

		seen := make(map[string]bool)
		for _, f := range d.Fields {
			if f.Type == "" || f.Type == ir.BuiltinBool {
				continue
			}

			target, err := reg.Lookup(f.Type)
			if err != nil {
				return nil, &UnknownTypeError{Name: f.Type, Decl: d.Name, Field: f.Name, Pos: f.Pos}
			}
			switch target.Kind {
			case DeclMessage:
				return nil, &InvalidReferenceError{
					Decl:   d.Name,
					Field:  f.Name,
					Target: f.Type,
					Reason: "messages cannot be used as field types",
					Pos:    f.Pos,
				}
			case DeclStruct, DeclEnum:
			default:
				return nil, &InvalidReferenceError{
					Decl:   d.Name,
					Field:  f.Name,
					Target: f.Type,
					Reason: "built-in types are not referenceable",
					Pos:    f.Pos,
				}
			}

			if !seen[f.Type] {
				seen[f.Type] = true
				g.deps[d.Name] = append(g.deps[d.Name], f.Type)
			}
		}
	}
	return g, nil
}
