// Package interview implements the staged intake conversation: stage
// tracking, prompt assembly, turn processing, and defensive parsing of
// engine output.
package interview

import (
	"strings"

	"github.com/scopetalk/scopetalk/internal/domain"
)

// Stage is one phase of the structured interview. Stages are visited in
// strictly increasing order; a completed stage is never re-entered.
type Stage int

const (
	// StageProblemDefinition explores the problem, scope, and stakeholders.
	StageProblemDefinition Stage = iota
	// StageFunctionalRequirements explores features and their priority.
	StageFunctionalRequirements
	// StageTechnicalRequirements explores budget and tech stack.
	StageTechnicalRequirements
	// StageLogistics explores scope boundaries and deliverables.
	StageLogistics
	// StageTeam explores team members and coordinating teams.
	StageTeam
	// StageComplete wraps up with a final open question.
	StageComplete
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageProblemDefinition:
		return "problem_definition"
	case StageFunctionalRequirements:
		return "functional_requirements"
	case StageTechnicalRequirements:
		return "technical_requirements"
	case StageLogistics:
		return "logistics"
	case StageTeam:
		return "team"
	case StageComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// stageMarkers lists, per stage, the stable substrings its question set is
// known to produce. Finding a stage's markers in a prior bot turn means
// that stage's questions were already asked, so the interview moves to the
// stage after it. Matching is substring-based and case-insensitive: the
// engine drifts on phrasing, and whole-sentence equality would regress
// sessions on any drift.
var stageMarkers = [...][]string{
	StageProblemDefinition: {
		"what is the specific problem you want to solve",
		"what is the scope of the problem",
	},
	StageFunctionalRequirements: {
		"what kind of features",
		"mission-critical features",
	},
	StageTechnicalRequirements: {
		"what is our budget",
		"tech stack",
	},
	StageLogistics: {
		"in scope/out of scope",
		"deliverables",
	},
	StageTeam: {
		"team members",
		"teams involved",
	},
}

// NextStage derives the upcoming stage purely from transcript content.
// It reduces to the most advanced stage whose markers appear in any bot
// turn and returns the stage after it; an empty or marker-free transcript
// yields StageProblemDefinition. Forward-only progression holds even when
// markers appear out of order in the text.
func NextStage(transcript []domain.Turn) Stage {
	furthest := -1
	for _, turn := range transcript {
		if turn.Role != domain.RoleBot {
			continue
		}
		msg := strings.ToLower(turn.Message)
		for stage := StageTeam; stage > Stage(furthest); stage-- {
			if containsAny(msg, stageMarkers[stage]) {
				furthest = int(stage)
				break
			}
		}
	}
	if furthest < 0 {
		return StageProblemDefinition
	}
	next := Stage(furthest) + 1
	if next > StageComplete {
		return StageComplete
	}
	return next
}

func containsAny(msg string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
