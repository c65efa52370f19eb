package pipelinecore

import "fmt"

// BuildLevels groups node ids into dependency levels via Kahn's
// algorithm: nodes in the same level have no edge between them and may
// be scheduled concurrently. Adapted from the gokit DAG package's
// dag.BuildLevels, generalized from string-named nodes to arena indices
// and from an explicit edge list to each Node's own Inputs/RightNode.
func BuildLevels(nodes []*Node) ([][]int, error) {
	inDegree := make(map[int]int, len(nodes))
	dependents := make(map[int][]int)

	for _, n := range nodes {
		if _, ok := inDegree[n.ID]; !ok {
			inDegree[n.ID] = 0
		}
	}
	addEdge := func(from, to int) {
		inDegree[to]++
		dependents[from] = append(dependents[from], to)
	}
	for _, n := range nodes {
		for _, in := range n.Inputs {
			addEdge(in, n.ID)
		}
		if n.Kind == KindJoin {
			addEdge(n.RightNode, n.ID)
		}
	}

	var queue []int
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	var levels [][]int
	visited := 0
	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []int
		for _, id := range queue {
			for _, dep := range dependents[id] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited != len(nodes) {
		return nil, fmt.Errorf("pipelinecore: cycle detected among operator nodes, processed %d of %d", visited, len(nodes))
	}
	return levels, nil
}

// Ancestors returns the set of node ids (including target itself) that
// target transitively depends on. Used by the executor to extract the
// minimal subgraph needed to materialize a single handle rather than the
// whole arena.
func Ancestors(nodes []*Node, target int) map[int]bool {
	byID := make(map[int]*Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	seen := map[int]bool{}
	var visit func(id int)
	visit = func(id int) {
		if seen[id] {
			return
		}
		seen[id] = true
		n, ok := byID[id]
		if !ok {
			return
		}
		for _, in := range n.Inputs {
			visit(in)
		}
		if n.Kind == KindJoin {
			visit(n.RightNode)
		}
	}
	visit(target)
	return seen
}
