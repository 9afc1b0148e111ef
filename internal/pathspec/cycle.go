package pathspec

import (
	"fmt"
	"sort"
	"strings"
)

// nextGraph maps a type name to the type names its entries continue with.
type nextGraph map[string][]string

// checkCycles rejects any chain of next references that returns to its
// start. The first cycle found, in sorted type order, is reported.
func checkCycles(names []string, parsed map[string][]parsedSpec) error {
	graph := make(nextGraph, len(names))
	for _, name := range names {
		graph[name] = []string{}
		for _, spec := range parsed[name] {
			if spec.next != "" {
				graph[name] = append(graph[name], spec.next)
			}
		}
	}

	for _, scc := range tarjanSCC(names, graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			path := reconstructCyclePath(scc, graph)
			return &ConfigError{
				Code:    ErrCodeCycle,
				Type:    path[0],
				Path:    path,
				Message: fmt.Sprintf("next references form a cycle: %s", strings.Join(path, " -> ")),
			}
		}
	}
	return nil
}

func hasSelfLoop(node string, graph nextGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in the given order and each component is returned
// sorted, so the result is deterministic.
func tarjanSCC(nodes []string, graph nextGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop its component
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	sort.Slice(sccs, func(i, j int) bool { return sccs[i][0] < sccs[j][0] })
	return sccs
}

// reconstructCyclePath walks edges inside the component from its first
// member until it returns there. A self-loop yields [name, name].
func reconstructCyclePath(scc []string, graph nextGraph) []string {
	if len(scc) == 1 {
		return []string{scc[0], scc[0]}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
