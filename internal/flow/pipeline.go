package flow

import (
	"context"
	"fmt"

	"github.com/scopetalk/scopetalk/internal/domain"
)

// Review decisions returned by a Reviewer.
const (
	DecisionAccept = "accept"
	DecisionReject = "reject"
	DecisionEdit   = "edit"
)

// PipelineState is the state threaded through the summary review pipeline.
type PipelineState struct {
	SessionID  string
	Transcript []domain.Turn
	Summary    string
	Feedback   string
	Edited     string
	Decision   string
	Iteration  int
}

// TranscriptSource fetches a session's durable transcript.
type TranscriptSource interface {
	ReadAll(ctx context.Context, sessionID string) ([]domain.Turn, error)
}

// Summarizer produces and revises summaries.
type Summarizer interface {
	Summarize(ctx context.Context, turns []domain.Turn) (string, error)
	Revise(ctx context.Context, turns []domain.Turn, existingSummary string, comments []domain.Comment) (string, error)
}

// SummarySink stores the accepted summary.
type SummarySink interface {
	UploadSummary(ctx context.Context, sessionID, summary string) error
}

// Reviewer asks a human to judge a summary. It returns the decision, the
// feedback text for a reject, or the replacement text for an edit.
type Reviewer interface {
	Review(ctx context.Context, sessionID, summary string) (decision, text string, err error)
}

// NewSummaryPipeline wires the review loop: fetch the transcript,
// summarize it, hand the result to a human, and either save it, revise it
// with the reviewer's feedback, or save the reviewer's own edit.
func NewSummaryPipeline(source TranscriptSource, summarizer Summarizer, sink SummarySink, reviewer Reviewer) *Graph[PipelineState] {
	g := New[PipelineState]()

	g.AddNode("fetch", func(ctx context.Context, state PipelineState) (PipelineState, error) {
		turns, err := source.ReadAll(ctx, state.SessionID)
		if err != nil {
			return state, fmt.Errorf("fetch transcript: %w", err)
		}
		state.Transcript = turns
		return state, nil
	})

	g.AddNode("summarize", func(ctx context.Context, state PipelineState) (PipelineState, error) {
		state.Iteration++
		if state.Feedback == "" {
			text, err := summarizer.Summarize(ctx, state.Transcript)
			if err != nil {
				return state, err
			}
			state.Summary = text
			return state, nil
		}
		// A rejection's feedback is folded in as a whole-summary comment.
		text, err := summarizer.Revise(ctx, state.Transcript, state.Summary, []domain.Comment{
			{HighlightedText: state.Summary, Comment: state.Feedback},
		})
		if err != nil {
			return state, err
		}
		state.Summary = text
		state.Feedback = ""
		return state, nil
	})

	g.AddNode("validate", func(ctx context.Context, state PipelineState) (PipelineState, error) {
		decision, text, err := reviewer.Review(ctx, state.SessionID, state.Summary)
		if err != nil {
			return state, fmt.Errorf("review summary: %w", err)
		}
		state.Decision = decision
		switch decision {
		case DecisionReject:
			state.Feedback = text
		case DecisionEdit:
			state.Edited = text
		}
		return state, nil
	})

	g.AddNode("apply_edit", func(_ context.Context, state PipelineState) (PipelineState, error) {
		state.Summary = state.Edited
		state.Edited = ""
		return state, nil
	})

	g.AddNode("save", func(ctx context.Context, state PipelineState) (PipelineState, error) {
		if err := sink.UploadSummary(ctx, state.SessionID, state.Summary); err != nil {
			return state, fmt.Errorf("save summary: %w", err)
		}
		return state, nil
	})

	g.SetEntryPoint("fetch")
	g.AddEdge("fetch", "summarize")
	g.AddEdge("summarize", "validate")
	g.AddConditionalEdges("validate", func(state PipelineState) string {
		return state.Decision
	}, map[string]string{
		DecisionAccept: "save",
		DecisionReject: "summarize",
		DecisionEdit:   "apply_edit",
	})
	g.AddEdge("apply_edit", "save")
	g.AddEdge("save", End)

	return g
}
