// Package flow is a minimal state-graph runner: named nodes transform a
// shared state, fixed edges sequence them, and conditional edges branch
// on a routing key extracted from the state.
package flow

import (
	"context"
	"fmt"
)

// End is the terminal pseudo-node.
const End = "__end__"

// maxSteps bounds a run so a miswired graph cannot loop forever.
const maxSteps = 100

// NodeFunc transforms the state at one node.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// RouteFunc extracts the routing key from the state after a source node.
type RouteFunc[S any] func(state S) string

type conditionalEdge[S any] struct {
	route   RouteFunc[S]
	targets map[string]string
}

// Graph is a directed graph of nodes over a state type S.
type Graph[S any] struct {
	nodes       map[string]NodeFunc[S]
	edges       map[string]string
	conditional map[string]conditionalEdge[S]
	entry       string
}

// New creates an empty graph.
func New[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:       make(map[string]NodeFunc[S]),
		edges:       make(map[string]string),
		conditional: make(map[string]conditionalEdge[S]),
	}
}

// AddNode registers a named node.
func (g *Graph[S]) AddNode(name string, fn NodeFunc[S]) *Graph[S] {
	g.nodes[name] = fn
	return g
}

// AddEdge adds a fixed edge from one node to the next (or End).
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.edges[from] = to
	return g
}

// AddConditionalEdges routes from a source node using a key extracted
// from the state, mapped through targets.
func (g *Graph[S]) AddConditionalEdges(from string, route RouteFunc[S], targets map[string]string) *Graph[S] {
	g.conditional[from] = conditionalEdge[S]{route: route, targets: targets}
	return g
}

// SetEntryPoint sets the first node to run.
func (g *Graph[S]) SetEntryPoint(name string) *Graph[S] {
	g.entry = name
	return g
}

// Run executes the graph from the entry point until End, threading the
// state through each node.
func (g *Graph[S]) Run(ctx context.Context, state S) (S, error) {
	current := g.entry
	if current == "" {
		return state, fmt.Errorf("flow: no entry point set")
	}

	for step := 0; step < maxSteps; step++ {
		if current == End {
			return state, nil
		}
		node, ok := g.nodes[current]
		if !ok {
			return state, fmt.Errorf("flow: unknown node %q", current)
		}

		if err := ctx.Err(); err != nil {
			return state, err
		}

		next, err := node(ctx, state)
		if err != nil {
			return state, fmt.Errorf("flow: node %q: %w", current, err)
		}
		state = next

		if cond, ok := g.conditional[current]; ok {
			key := cond.route(state)
			target, ok := cond.targets[key]
			if !ok {
				return state, fmt.Errorf("flow: node %q produced unmapped route %q", current, key)
			}
			current = target
			continue
		}
		target, ok := g.edges[current]
		if !ok {
			return state, fmt.Errorf("flow: node %q has no outgoing edge", current)
		}
		current = target
	}

	return state, fmt.Errorf("flow: exceeded %d steps, aborting", maxSteps)
}
