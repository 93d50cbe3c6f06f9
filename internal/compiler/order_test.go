package compiler

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderFor(t *testing.T, src string) ([]*Decl, *Graph, error) {
	t.Helper()
	reg := registryFor(t, src)
	g, err := Resolve(reg)
	require.NoError(t, err)
	order, err := Order(reg, g)
	return order, g, err
}

// TestOrder_DependenciesFirst tests the rover ordering.
func TestOrder_DependenciesFirst(t *testing.T) {
	order, _, err := orderFor(t, `
name: rover
structs:
  MotorTelemetry: [{position: {range: [0, 360], size: 10}}, {direction: MotorDir}]
  MotorDir: {enum: [Forward, Reverse, Stopped]}
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"MotorDir", "MotorTelemetry"}, declNames(order))
}

// TestOrder_TieBreakDeclarationOrder tests that independent types keep
// their declaration order.
func TestOrder_TieBreakDeclarationOrder(t *testing.T) {
	order, _, err := orderFor(t, `
name: b
structs:
  Zeta: [{x: bool}]
  Alpha: {enum: [A]}
  Mid: [{a: Alpha}, {z: Zeta}]
  Beta: [{x: bool}]
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid", "Beta"}, declNames(order))
}

// TestOrder_DeepChain tests a chain declared in reverse.
func TestOrder_DeepChain(t *testing.T) {
	order, _, err := orderFor(t, `
name: b
structs:
  A: [{b: B}]
  B: [{c: C}]
  C: [{d: D}]
  D: [{x: bool}]
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "C", "B", "A"}, declNames(order))
}

// TestOrder_Cycles tests cycle detection and the reported path.
func TestOrder_Cycles(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		cycle []string
	}{
		{
			name:  "self reference",
			src:   "name: b\nstructs:\n  Node: [{next: Node}]\n",
			cycle: []string{"Node", "Node"},
		},
		{
			name:  "two members",
			src:   "name: b\nstructs:\n  A: [{b: B}]\n  B: [{a: A}]\n",
			cycle: []string{"A", "B", "A"},
		},
		{
			name:  "cycle below an acyclic root",
			src:   "name: b\nstructs:\n  Root: [{x: X}]\n  X: [{y: Y}]\n  Y: [{z: Z}]\n  Z: [{x: X}]\n",
			cycle: []string{"X", "Y", "Z", "X"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := orderFor(t, tt.src)
			var cyc *CyclicDependencyError
			require.ErrorAs(t, err, &cyc)
			assert.Equal(t, tt.cycle, cyc.Cycle)
			assert.True(t, cyc.Pos.IsValid())
		})
	}
}

// TestOrder_RandomDAGs checks the ordering property on generated graphs:
// every type appears after each type it references.
func TestOrder_RandomDAGs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		n := 2 + rng.Intn(12)
		var b strings.Builder
		b.WriteString("name: b\nstructs:\n")
		// Declare in random order; edges only go from higher to lower index.
		perm := rng.Perm(n)
		for _, i := range perm {
			fmt.Fprintf(&b, "  T%d:\n    - flag: bool\n", i)
			for j := 0; j < i; j++ {
				if rng.Intn(3) == 0 {
					fmt.Fprintf(&b, "    - f%d: T%d\n", j, j)
				}
			}
		}

		order, g, err := orderFor(t, b.String())
		require.NoError(t, err)
		require.Len(t, order, n)

		pos := make(map[string]int, len(order))
		for i, d := range order {
			pos[d.Name] = i
		}
		for _, e := range g.Edges() {
			assert.Less(t, pos[e.To], pos[e.From], "%s must precede %s", e.To, e.From)
		}
	}
}
