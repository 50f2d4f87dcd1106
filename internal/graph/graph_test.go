package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/stevedore/internal/model"
)

// podWith builds a PodConfig where each entry maps a service to its link
// targets.
func podWith(links map[string][]string) *model.PodConfig {
	cfg := &model.PodConfig{Version: "2", Services: map[string]*model.ServiceDefinition{}}
	for name, targets := range links {
		def := &model.ServiceDefinition{Image: "img"}
		for _, t := range targets {
			def.Links = append(def.Links, model.Link{Target: t})
		}
		cfg.Services[name] = def
	}
	return cfg
}

func TestBuild_Edges(t *testing.T) {
	g, err := Build(podWith(map[string][]string{
		"proxy": {"web"},
		"web":   {"db", "cache"},
		"db":    nil,
		"cache": nil,
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"cache", "db", "proxy", "web"}, g.Services())
	assert.Equal(t, []string{"cache", "db"}, g.DependenciesOf("web"))
	assert.Equal(t, []string{"proxy"}, g.DependentsOf("web"))
	assert.Empty(t, g.DependenciesOf("db"))
	assert.True(t, g.Contains("proxy"))
	assert.False(t, g.Contains("ghost"))
}

func TestBuild_DuplicateLinksCollapse(t *testing.T) {
	g, err := Build(podWith(map[string][]string{
		"web": {"db", "db"},
		"db":  nil,
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"db"}, g.DependenciesOf("web"))
}

func TestBuild_UnknownServiceError(t *testing.T) {
	_, err := Build(podWith(map[string][]string{
		"web": {"db"},
	}))

	var uerr *UnknownServiceError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "web", uerr.From)
	assert.Equal(t, "db", uerr.To)
}

func TestBuild_CyclicDependencyError(t *testing.T) {
	_, err := Build(podWith(map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}))

	var cerr *CyclicDependencyError
	require.ErrorAs(t, err, &cerr)
	assert.ElementsMatch(t, []string{"a", "b"}, cerr.Cycle)
	assert.Contains(t, cerr.Error(), "->")
}

func TestBuild_SelfLinkIsCycle(t *testing.T) {
	_, err := Build(podWith(map[string][]string{
		"a": {"a"},
	}))

	var cerr *CyclicDependencyError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"a"}, cerr.Cycle)
}

func TestBuild_LongerCycleReported(t *testing.T) {
	_, err := Build(podWith(map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
		"d": nil,
	}))

	var cerr *CyclicDependencyError
	require.ErrorAs(t, err, &cerr)
	assert.Len(t, cerr.Cycle, 3)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, cerr.Cycle)
}

func TestPlan_Batches(t *testing.T) {
	g, err := Build(podWith(map[string][]string{
		"proxy":  {"web"},
		"web":    {"db", "cache"},
		"db":     nil,
		"cache":  nil,
		"worker": {"db"},
	}))
	require.NoError(t, err)

	plan := g.Plan()
	require.Len(t, plan.Batches, 3)
	assert.Equal(t, []string{"cache", "db"}, plan.Batches[0])
	assert.Equal(t, []string{"web", "worker"}, plan.Batches[1])
	assert.Equal(t, []string{"proxy"}, plan.Batches[2])
}

// TestPlan_TopologicalProperty checks the invariant directly: for every
// edge A→B, B's batch strictly precedes A's.
func TestPlan_TopologicalProperty(t *testing.T) {
	links := map[string][]string{
		"a": {"b", "c"},
		"b": {"d"},
		"c": {"d", "e"},
		"d": nil,
		"e": nil,
		"f": {"a", "e"},
	}
	g, err := Build(podWith(links))
	require.NoError(t, err)

	plan := g.Plan()
	for from, targets := range links {
		for _, to := range targets {
			assert.Less(t, plan.BatchIndex(to), plan.BatchIndex(from),
				"dependency %s of %s must run in an earlier batch", to, from)
		}
	}
}

func TestPlan_Deterministic(t *testing.T) {
	links := map[string][]string{
		"a": nil, "b": nil, "c": nil, "d": {"a", "b"}, "e": {"c"},
	}
	g, err := Build(podWith(links))
	require.NoError(t, err)

	first := g.Plan()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, g.Plan())
	}
}

func TestAncestorClosure_Minimal(t *testing.T) {
	g, err := Build(podWith(map[string][]string{
		"proxy":  {"web"},
		"web":    {"db"},
		"db":     nil,
		"other":  {"cache"},
		"cache":  nil,
		"island": nil,
	}))
	require.NoError(t, err)

	closure, err := g.AncestorClosure("proxy")
	require.NoError(t, err)
	assert.Equal(t, []string{"db", "proxy", "web"}, closure)

	closure, err = g.AncestorClosure("db")
	require.NoError(t, err)
	assert.Equal(t, []string{"db"}, closure)

	_, err = g.AncestorClosure("ghost")
	assert.Error(t, err)
}

func TestPlanFor_RestrictedToClosure(t *testing.T) {
	g, err := Build(podWith(map[string][]string{
		"proxy": {"web"},
		"web":   {"db"},
		"db":    nil,
		"other": nil,
	}))
	require.NoError(t, err)

	closure, err := g.AncestorClosure("proxy")
	require.NoError(t, err)

	plan, err := g.PlanFor(closure)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"db"}, {"web"}, {"proxy"}}, plan.Batches)
	assert.NotContains(t, plan.Services(), "other")
}

func TestPlanFor_RejectsNonClosedSet(t *testing.T) {
	g, err := Build(podWith(map[string][]string{
		"web": {"db"},
		"db":  nil,
	}))
	require.NoError(t, err)

	_, err = g.PlanFor([]string{"web"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not dependency-closed")

	_, err = g.PlanFor([]string{"ghost"})
	assert.Error(t, err)
}

func TestPlan_Reversed(t *testing.T) {
	g, err := Build(podWith(map[string][]string{
		"web": {"db"},
		"db":  nil,
	}))
	require.NoError(t, err)

	rev := g.Plan().Reversed()
	assert.Equal(t, [][]string{{"web"}, {"db"}}, rev.Batches)
}

func TestPlan_String(t *testing.T) {
	g, err := Build(podWith(map[string][]string{
		"web": {"db"},
		"db":  nil,
	}))
	require.NoError(t, err)

	assert.Equal(t, "[db] -> [web]", g.Plan().String())
}
