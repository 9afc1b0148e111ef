package store

import (
	"context"
	"fmt"

	"github.com/roach88/yggdrasil/internal/graph"
	"github.com/roach88/yggdrasil/internal/rdf"
)

// nodeSet is a set of encoded terms.
type nodeSet map[string]struct{}

func (n nodeSet) add(v string) { n[v] = struct{}{} }

func (n nodeSet) has(v string) bool {
	_, ok := n[v]
	return ok
}

func (n nodeSet) keys() []string {
	out := make([]string, 0, len(n))
	for k := range n {
		out = append(out, k)
	}
	return out
}

// edges caches the one-hop neighbours of nodes for a single step predicate
// and direction in one graph.
type edges struct {
	q      querier
	graph  string
	pred   string
	from   string
	to     string
	adj    map[string][]string
	loaded nodeSet
}

func newEdges(q querier, g string, step rdf.Step) *edges {
	e := &edges{
		q:      q,
		graph:  g,
		pred:   enc(step.Predicate),
		from:   "s",
		to:     "o",
		adj:    map[string][]string{},
		loaded: nodeSet{},
	}
	if step.Inverse {
		e.from, e.to = "o", "s"
	}
	return e
}

// load fetches the neighbours of every node not fetched yet.
func (e *edges) load(ctx context.Context, nodes []string) error {
	var todo []string
	for _, n := range nodes {
		if !e.loaded.has(n) {
			e.loaded.add(n)
			todo = append(todo, n)
		}
	}
	for _, chunk := range chunks(todo, maxVars) {
		query := fmt.Sprintf(
			`SELECT %s, %s FROM quads WHERE g = ? AND p = ? AND %s IN (%s)`,
			e.from, e.to, e.from, placeholders(len(chunk)))
		rows, err := e.q.QueryContext(ctx, query, args([]any{e.graph, e.pred}, chunk)...)
		if err != nil {
			return fmt.Errorf("path hop %s: %w", e.pred, err)
		}
		for rows.Next() {
			var a, b string
			if err := rows.Scan(&a, &b); err != nil {
				rows.Close()
				return fmt.Errorf("scan hop: %w", err)
			}
			e.adj[a] = append(e.adj[a], b)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return fmt.Errorf("iterate hop: %w", err)
		}
	}
	return nil
}

// closure returns, for every node, the nodes reachable in one or more hops.
func (e *edges) closure(ctx context.Context, nodes []string) (map[string]nodeSet, error) {
	pending := nodes
	for len(pending) > 0 {
		if err := e.load(ctx, pending); err != nil {
			return nil, err
		}
		var next []string
		for _, n := range pending {
			for _, m := range e.adj[n] {
				if !e.loaded.has(m) {
					next = append(next, m)
				}
			}
		}
		pending = next
	}

	out := make(map[string]nodeSet, len(nodes))
	for _, n := range nodes {
		seen := nodeSet{}
		stack := append([]string(nil), e.adj[n]...)
		for len(stack) > 0 {
			m := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen.has(m) {
				continue
			}
			seen.add(m)
			stack = append(stack, e.adj[m]...)
		}
		out[n] = seen
	}
	return out, nil
}

// walk evaluates path in graph g from each start node and returns the
// nodes every start reaches. The identity path reaches the start itself.
func walk(ctx context.Context, q querier, g string, starts []string, path rdf.Path) (map[string]nodeSet, error) {
	cur := make(map[string]nodeSet, len(starts))
	for _, st := range starts {
		cur[st] = nodeSet{st: {}}
	}

	for _, step := range path {
		frontier := nodeSet{}
		for _, set := range cur {
			for n := range set {
				frontier.add(n)
			}
		}
		nodes := frontier.keys()
		e := newEdges(q, g, step)

		var reach map[string]nodeSet
		switch step.Modifier {
		case rdf.ModZeroOrMore, rdf.ModOneOrMore:
			r, err := e.closure(ctx, nodes)
			if err != nil {
				return nil, err
			}
			reach = r
		default:
			if err := e.load(ctx, nodes); err != nil {
				return nil, err
			}
			reach = make(map[string]nodeSet, len(nodes))
			for _, n := range nodes {
				set := nodeSet{}
				for _, m := range e.adj[n] {
					set.add(m)
				}
				reach[n] = set
			}
		}

		keepSelf := step.Modifier == rdf.ModZeroOrMore || step.Modifier == rdf.ModZeroOrOne
		for st, set := range cur {
			next := nodeSet{}
			for n := range set {
				if keepSelf {
					next.add(n)
				}
				for m := range reach[n] {
					next.add(m)
				}
			}
			cur[st] = next
		}
	}
	return cur, nil
}

// conditionCache memoises condition results per node.
type conditionCache struct {
	q     querier
	graph string
	memo  map[int]map[string]bool
}

func newConditionCache(q querier, g string) *conditionCache {
	return &conditionCache{q: q, graph: g, memo: map[int]map[string]bool{}}
}

// holds evaluates condition i for every node and returns the results.
func (c *conditionCache) holds(ctx context.Context, i int, cond graph.Condition, nodes []string) (map[string]bool, error) {
	memo := c.memo[i]
	if memo == nil {
		memo = map[string]bool{}
		c.memo[i] = memo
	}
	var todo []string
	for _, n := range nodes {
		if _, ok := memo[n]; !ok {
			todo = append(todo, n)
		}
	}
	if len(todo) > 0 {
		reached, err := walk(ctx, c.q, c.graph, todo, cond.Path)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		wanted := nodeSet{}
		for _, v := range cond.Values {
			wanted.add(v.String())
		}
		for _, n := range todo {
			ok := false
			if len(wanted) == 0 {
				ok = len(reached[n]) > 0
			} else {
				for m := range reached[n] {
					if wanted.has(m) {
						ok = true
						break
					}
				}
			}
			memo[n] = ok != cond.Negate
		}
	}
	return memo, nil
}

// filter keeps the nodes that satisfy every condition anchored on anchor.
func (c *conditionCache) filter(ctx context.Context, conds []graph.Condition, anchor graph.Anchor, nodes []string) ([]string, error) {
	keep := nodes
	for i, cond := range conds {
		if cond.On != anchor {
			continue
		}
		res, err := c.holds(ctx, i, cond, keep)
		if err != nil {
			return nil, err
		}
		var next []string
		for _, n := range keep {
			if res[n] {
				next = append(next, n)
			}
		}
		keep = next
	}
	return keep, nil
}
