package compiler

import (
	"sort"

	"arbiter-hq/arbiter/pkg/apl/ast"
)

// depEdge is one dependency of a head predicate on a body predicate.
type depEdge struct {
	to      string // body predicate
	negated bool   // true if the dependency passes through `not`
	rule    *ast.Rule
}

// depGraph is the predicate dependency graph of one policy set.
type depGraph struct {
	nodes []string
	edges map[string][]depEdge
}

// buildGraph constructs the dependency graph from the enabled rules.
// Every predicate mentioned anywhere (head or body) becomes a node, so pure
// input predicates get a stratum too.
func buildGraph(rules []*ast.Rule) *depGraph {
	g := &depGraph{edges: make(map[string][]depEdge)}
	seen := make(map[string]bool)

	addNode := func(p string) {
		if !seen[p] {
			seen[p] = true
			g.nodes = append(g.nodes, p)
		}
	}

	for _, r := range rules {
		addNode(r.Head.Predicate)
		for _, lit := range r.Body {
			switch lit.Kind {
			case ast.LiteralAtom:
				addNode(lit.Atom.Predicate)
				g.edges[r.Head.Predicate] = append(g.edges[r.Head.Predicate], depEdge{
					to: lit.Atom.Predicate, rule: r,
				})
			case ast.LiteralNegated:
				addNode(lit.Atom.Predicate)
				g.edges[r.Head.Predicate] = append(g.edges[r.Head.Predicate], depEdge{
					to: lit.Atom.Predicate, negated: true, rule: r,
				})
			}
		}
	}

	// Deterministic node order keeps SCC numbering (and therefore error
	// reporting) stable across compiles of the same set.
	sort.Strings(g.nodes)
	return g
}

// sccResult holds the strongly connected components of the graph in
// reverse topological order of the condensation: every edge out of
// components[i] targets some components[j] with j < i.
type sccResult struct {
	components [][]string
	index      map[string]int // predicate -> component position
}

// tarjan computes strongly connected components iteratively.
func (g *depGraph) tarjan() *sccResult {
	res := &sccResult{index: make(map[string]int)}

	idx := make(map[string]int, len(g.nodes))
	low := make(map[string]int, len(g.nodes))
	onStack := make(map[string]bool, len(g.nodes))
	var stack []string
	next := 0

	type frame struct {
		node string
		edge int
	}

	for _, start := range g.nodes {
		if _, visited := idx[start]; visited {
			continue
		}

		frames := []frame{{node: start}}
		idx[start] = next
		low[start] = next
		next++
		stack = append(stack, start)
		onStack[start] = true

		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			edges := g.edges[f.node]

			if f.edge < len(edges) {
				child := edges[f.edge].to
				f.edge++
				if _, visited := idx[child]; !visited {
					idx[child] = next
					low[child] = next
					next++
					stack = append(stack, child)
					onStack[child] = true
					frames = append(frames, frame{node: child})
				} else if onStack[child] {
					if idx[child] < low[f.node] {
						low[f.node] = idx[child]
					}
				}
				continue
			}

			// All edges explored: pop the frame, fold lowlink into parent,
			// and emit a component if this node is a root.
			node := f.node
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := &frames[len(frames)-1]
				if low[node] < low[parent.node] {
					low[parent.node] = low[node]
				}
			}
			if low[node] == idx[node] {
				var comp []string
				for {
					top := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[top] = false
					comp = append(comp, top)
					if top == node {
						break
					}
				}
				pos := len(res.components)
				for _, p := range comp {
					res.index[p] = pos
				}
				res.components = append(res.components, comp)
			}
		}
	}

	return res
}

// stratify assigns a stratum number to every predicate, or returns the rule
// whose negated dependency closes a cycle (the set is unstratifiable).
//
// Components are processed in the reverse topological order produced by
// tarjan, so every dependency of a component is already assigned when the
// component itself is visited.
func (g *depGraph) stratify() (map[string]int, *ast.Rule) {
	scc := g.tarjan()

	// A negated edge inside one component means a predicate transitively
	// negates itself.
	for _, from := range g.nodes {
		for _, e := range g.edges[from] {
			if e.negated && scc.index[from] == scc.index[e.to] {
				return nil, e.rule
			}
		}
	}

	compStratum := make([]int, len(scc.components))
	for i, comp := range scc.components {
		s := 0
		for _, from := range comp {
			for _, e := range g.edges[from] {
				target := scc.index[e.to]
				if target == i {
					continue // intra-component positive edge
				}
				dep := compStratum[target]
				if e.negated {
					dep++
				}
				if dep > s {
					s = dep
				}
			}
		}
		compStratum[i] = s
	}

	strata := make(map[string]int, len(g.nodes))
	for _, p := range g.nodes {
		strata[p] = compStratum[scc.index[p]]
	}
	return strata, nil
}
