// Package summary generates and revises project summaries from intake
// transcripts.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/scopetalk/scopetalk/internal/apperr"
	"github.com/scopetalk/scopetalk/internal/domain"
)

// summarizePrompt fixes the heading skeleton every summary carries.
const summarizePrompt = `You are given a document that is a conversation between a product manager and a client.

Please summarize the contents of this document into a few paragraphs with the following headings:

- High-level goals/business objectives
    - Problem they are trying to solve
        - Specific situations they anticipate
    - Concrete description of project
    - Stakeholders
- Functional & non-functional capabilities/features
    - Each feature + how it addresses the problem + "need" vs. "nice-to-have"
    - How each feature will be implemented, technologies involved
- Technical considerations
    - Resource plan
    - Maintenance
    - Tools/frameworks
    - Tech stack
- Requirements/constraints
    - Budget, scale, scope, etc.
- Teams/team members
- Project assumptions
- Project deliverables`

// revisePrompt instructs the engine to fold reviewer comments into an
// existing summary. Heading preservation is prompt-enforced only; the
// output is not structurally validated.
const revisePrompt = `You are given:
1. A conversation transcript between a product manager and a client
2. An initial AI-generated summary of that conversation
3. A set of reviewer comments, each tied to a highlighted portion of the summary

Your task is to produce an improved summary that incorporates the reviewer's feedback.
For each comment, consider the highlighted text it refers to and revise that section accordingly.
Keep the same heading structure as the original summary.

---
TRANSCRIPT:
%s

---
INITIAL SUMMARY:
%s

---
REVIEWER COMMENTS:
%s

---
Now write the improved summary:`

const titlePrompt = `Generate a concise 3-5 word title for this project or product. Return ONLY the title, nothing else.`

// Engine is the text-generation dependency.
type Engine interface {
	Generate(ctx context.Context, system string, history []domain.Turn, message string) (string, error)
}

// Service produces and revises summaries.
type Service struct {
	engine Engine
}

// NewService creates a summary service over the given engine.
func NewService(engine Engine) *Service {
	return &Service{engine: engine}
}

// FormatTranscript renders turns into the AI:/Client: line format used in
// summarization prompts.
func FormatTranscript(turns []domain.Turn) string {
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		speaker := "Client"
		if turn.Role == domain.RoleBot {
			speaker = "AI"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, turn.Message))
	}
	return strings.Join(lines, "\n")
}

// Summarize produces a summary of the transcript under the fixed heading
// skeleton.
func (s *Service) Summarize(ctx context.Context, turns []domain.Turn) (string, error) {
	if len(turns) == 0 {
		return "", apperr.New(apperr.CodeValidation, "empty_transcript")
	}

	text, err := s.engine.Generate(ctx, summarizePrompt, nil, FormatTranscript(turns))
	if err != nil {
		return "", apperr.Wrap(apperr.CodeUpstream, "summarize_failed", err)
	}
	return text, nil
}

// Revise folds reviewer comments into an existing summary. Revision
// without a prior summary or without at least one comment is rejected
// rather than silently re-running plain summarization.
func (s *Service) Revise(ctx context.Context, turns []domain.Turn, existingSummary string, comments []domain.Comment) (string, error) {
	if strings.TrimSpace(existingSummary) == "" {
		return "", apperr.New(apperr.CodeValidation, "empty_summary")
	}
	if len(comments) == 0 {
		return "", apperr.New(apperr.CodeValidation, "no_comments")
	}

	prompt := fmt.Sprintf(revisePrompt, FormatTranscript(turns), existingSummary, formatComments(comments))
	text, err := s.engine.Generate(ctx, "", nil, prompt)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeUpstream, "revise_failed", err)
	}
	return text, nil
}

func formatComments(comments []domain.Comment) string {
	lines := make([]string, 0, len(comments))
	for i, c := range comments {
		lines = append(lines, fmt.Sprintf("%d. Regarding %q: %s", i+1, c.HighlightedText, c.Comment))
	}
	return strings.Join(lines, "\n")
}

// GenerateTitle produces a short project title from the given text,
// falling back to the text's first words when the engine fails.
func (s *Service) GenerateTitle(ctx context.Context, text string) string {
	result, err := s.engine.Generate(ctx, titlePrompt, nil, text)
	if err != nil {
		return fallbackTitle(text)
	}
	title := strings.Trim(strings.TrimSpace(result), `"'`)
	words := strings.Fields(title)
	if len(words) == 0 {
		return fallbackTitle(text)
	}
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}

func fallbackTitle(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "New Project"
	}
	if len(words) > 4 {
		words = words[:4]
	}
	return strings.Join(words, " ")
}
