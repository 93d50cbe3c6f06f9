package compiler

import "slices"

// visit states for the depth-first ordering.
const (
	unvisited = iota
	inProgress
	emitted
)

// Order linearizes structs and enums so that every type comes after every
// type it contains.
//
// The algorithm is a depth-first post-order walk: roots are visited in
// declaration order and dependencies in field order, so mutually
// independent types keep their declaration order. A dependency that is
// still in progress closes a cycle, reported as a CyclicDependencyError
// whose path starts and ends at the first member reached.
func Order(reg *Registry, g *Graph) ([]*Decl, error) {
	var (
		state = make(map[string]int)
		stack []string
		order = make([]*Decl, 0, len(reg.Types()))
	)

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case emitted:
			return nil
		case inProgress:
			return cycleError(reg, stack, name)
		}

		state[name] = inProgress
		stack = append(stack, name)

		for _, dep := range g.Deps(name) {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = emitted

		d, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		order = append(order, d)
		return nil
	}

	for _, d := range reg.Types() {
		if err := visit(d.Name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// cycleError reconstructs the cycle path from the DFS stack: the members
// from the first occurrence of name to the top, then name again.
func cycleError(reg *Registry, stack []string, name string) error {
	start := slices.Index(stack, name)
	path := append(slices.Clone(stack[start:]), name)

	err := &CyclicDependencyError{Cycle: path}
	if d, lookupErr := reg.Lookup(name); lookupErr == nil {
		err.Pos = d.Pos
	}
	return err
}
