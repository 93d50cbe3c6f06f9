package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/canspec/internal/ir"
	"github.com/roach88/canspec/internal/schema"
)

const roverYAML = "../../testdata/schemas/rover.yaml"
const roverCUE = "../../testdata/schemas/rover.cue"

// parse builds a tree from inline YAML.
func parse(t *testing.T, src string) *schema.Node {
	t.Helper()
	root, err := schema.ParseYAML([]byte(src), "test.yaml")
	require.NoError(t, err)
	return root
}

// compileYAML compiles inline YAML with default options.
func compileYAML(t *testing.T, src string) (*ir.Bus, error) {
	t.Helper()
	return Compile(parse(t, src), Options{})
}

// mustCompile compiles inline YAML and fails the test on error.
func mustCompile(t *testing.T, src string) *ir.Bus {
	t.Helper()
	bus, err := compileYAML(t, src)
	require.NoError(t, err)
	return bus
}

// registryFor decodes and registers inline YAML.
func registryFor(t *testing.T, src string) *Registry {
	t.Helper()
	s, err := Decode(parse(t, src))
	require.NoError(t, err)
	reg := NewRegistry()
	for _, d := range append(s.Types, s.Messages...) {
		require.NoError(t, reg.Register(d))
	}
	return reg
}

func typeNames(types []ir.TypeDef) []string {
	names := make([]string, len(types))
	for i, td := range types {
		names[i] = td.Name
	}
	return names
}

func declNames(decls []*Decl) []string {
	names := make([]string, len(decls))
	for i, d := range decls {
		names[i] = d.Name
	}
	return names
}
