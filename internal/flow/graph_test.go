package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type counterState struct {
	trail []string
	n     int
}

func TestGraphSequencing(t *testing.T) {
	g := New[counterState]()
	visit := func(name string) NodeFunc[counterState] {
		return func(_ context.Context, s counterState) (counterState, error) {
			s.trail = append(s.trail, name)
			return s, nil
		}
	}
	g.AddNode("a", visit("a")).
		AddNode("b", visit("b")).
		AddNode("c", visit("c")).
		SetEntryPoint("a").
		AddEdge("a", "b").
		AddEdge("b", "c").
		AddEdge("c", End)

	got, err := g.Run(context.Background(), counterState{})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, got.trail)
}

func TestGraphConditionalRouting(t *testing.T) {
	g := New[counterState]()
	g.AddNode("work", func(_ context.Context, s counterState) (counterState, error) {
		s.n++
		s.trail = append(s.trail, "work")
		return s, nil
	})
	g.AddNode("done", func(_ context.Context, s counterState) (counterState, error) {
		s.trail = append(s.trail, "done")
		return s, nil
	})
	g.SetEntryPoint("work")
	g.AddConditionalEdges("work", func(s counterState) string {
		if s.n < 3 {
			return "again"
		}
		return "finish"
	}, map[string]string{
		"again":  "work",
		"finish": "done",
	})
	g.AddEdge("done", End)

	got, err := g.Run(context.Background(), counterState{})
	require.NoError(t, err)
	require.Equal(t, 3, got.n)
	require.Equal(t, []string{"work", "work", "work", "done"}, got.trail)
}

func TestGraphNodeError(t *testing.T) {
	boom := errors.New("boom")
	g := New[counterState]()
	g.AddNode("fails", func(_ context.Context, s counterState) (counterState, error) {
		return s, boom
	})
	g.SetEntryPoint("fails")

	_, err := g.Run(context.Background(), counterState{})
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), `node "fails"`)
}

func TestGraphNoEntryPoint(t *testing.T) {
	g := New[counterState]()
	_, err := g.Run(context.Background(), counterState{})
	require.Error(t, err)
}

func TestGraphUnmappedRoute(t *testing.T) {
	g := New[counterState]()
	g.AddNode("a", func(_ context.Context, s counterState) (counterState, error) {
		return s, nil
	})
	g.SetEntryPoint("a")
	g.AddConditionalEdges("a", func(counterState) string {
		return "nowhere"
	}, map[string]string{"somewhere": End})

	_, err := g.Run(context.Background(), counterState{})
	require.Error(t, err)
	require.Contains(t, err.Error(), `unmapped route "nowhere"`)
}

func TestGraphMissingEdge(t *testing.T) {
	g := New[counterState]()
	g.AddNode("a", func(_ context.Context, s counterState) (counterState, error) {
		return s, nil
	})
	g.SetEntryPoint("a")

	_, err := g.Run(context.Background(), counterState{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no outgoing edge")
}

func TestGraphInfiniteLoopAborts(t *testing.T) {
	g := New[counterState]()
	g.AddNode("spin", func(_ context.Context, s counterState) (counterState, error) {
		s.n++
		return s, nil
	})
	g.SetEntryPoint("spin")
	g.AddEdge("spin", "spin")

	got, err := g.Run(context.Background(), counterState{})
	require.Error(t, err)
	require.Equal(t, maxSteps, got.n)
}

func TestGraphContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	g := New[counterState]()
	g.AddNode("once", func(_ context.Context, s counterState) (counterState, error) {
		s.n++
		cancel()
		return s, nil
	})
	g.SetEntryPoint("once")
	g.AddEdge("once", "once")

	got, err := g.Run(ctx, counterState{})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, got.n, "the run stops at the next step boundary")
}
