package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectedComponents(t *testing.T) {
	g := Build(records("a", "b", "c", "d", "e"), []DependencyEdge{
		edge("a", "b"), edge("c", "b"), edge("d", "d"),
	}, DefaultBuildOptions())

	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d"}, {"e"}}, ConnectedComponents(g))
	assert.Equal(t, 3, g.Metrics.Components)
}

func TestCohesion(t *testing.T) {
	g := Build(records("a", "b", "c", "d"), []DependencyEdge{
		edge("a", "b"), edge("b", "c"), edge("c", "d"),
	}, DefaultBuildOptions())

	// a-b and b-c are internal, c-d crosses the boundary.
	assert.InDelta(t, 2.0/3.0, Cohesion([]string{"a", "b", "c"}, g), 1e-9)
	assert.Equal(t, 0.0, Cohesion([]string{"a"}, Build(records("a"), nil, DefaultBuildOptions())))

	_, diamond, clusters := diamondAnalysis()
	assert.InDelta(t, clusters[0].Cohesion, Cohesion(clusters[0].Members, diamond), 1e-9)
}

func TestCommonDir(t *testing.T) {
	assert.Equal(t, "src/app/", CommonDir([]string{"src/app/a.py", "src/app/b.py"}))
	assert.Equal(t, "src/", CommonDir([]string{"src/app/a.py", "src/lib/b.py"}))
	assert.Equal(t, "", CommonDir([]string{"src/a.py", "main.py"}))
	assert.Equal(t, "", CommonDir(nil))
}
