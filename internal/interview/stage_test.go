package interview

import (
	"testing"

	"github.com/scopetalk/scopetalk/internal/domain"
)

func bot(msg string) domain.Turn {
	return domain.Turn{Role: domain.RoleBot, Message: msg}
}

func user(msg string) domain.Turn {
	return domain.Turn{Role: domain.RoleUser, Message: msg}
}

func TestNextStageEmptyTranscript(t *testing.T) {
	if got := NextStage(nil); got != StageProblemDefinition {
		t.Errorf("Expected problem_definition for empty transcript, got %s", got)
	}
	if got := NextStage([]domain.Turn{user("We want to build a tutoring app")}); got != StageProblemDefinition {
		t.Errorf("Expected problem_definition for user-only transcript, got %s", got)
	}
}

func TestNextStageProgression(t *testing.T) {
	tests := []struct {
		name       string
		transcript []domain.Turn
		want       Stage
	}{
		{
			name: "problem definition asked",
			transcript: []domain.Turn{
				user("We want to build a tutoring app"),
				bot("Great idea!\n1. What is the specific problem you want to solve?\n2. What is the scope of the problem?"),
			},
			want: StageFunctionalRequirements,
		},
		{
			name: "functional requirements asked",
			transcript: []domain.Turn{
				bot("What is the specific problem you want to solve?"),
				user("Students can't find tutors"),
				bot("What kind of features do you envision?"),
			},
			want: StageTechnicalRequirements,
		},
		{
			name: "technical requirements asked",
			transcript: []domain.Turn{
				bot("What kind of features do you envision?"),
				bot("Do you have a preferred tech stack?"),
			},
			want: StageLogistics,
		},
		{
			name: "logistics asked",
			transcript: []domain.Turn{
				bot("What is in scope/out of scope for this project?"),
			},
			want: StageTeam,
		},
		{
			name: "team asked",
			transcript: []domain.Turn{
				bot("Who are the team members who will work on this project?"),
			},
			want: StageComplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextStage(tt.transcript); got != tt.want {
				t.Errorf("NextStage() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNextStageMarkersInUserTurnsIgnored(t *testing.T) {
	transcript := []domain.Turn{
		user("Our team members keep asking about the tech stack"),
	}
	if got := NextStage(transcript); got != StageProblemDefinition {
		t.Errorf("User turns must not advance the stage, got %s", got)
	}
}

func TestNextStageCaseInsensitive(t *testing.T) {
	transcript := []domain.Turn{
		bot("WHAT KIND OF FEATURES would help most?"),
	}
	if got := NextStage(transcript); got != StageTechnicalRequirements {
		t.Errorf("Expected case-insensitive marker match, got %s", got)
	}
}

func TestNextStageOutOfOrderMarkersResolveForward(t *testing.T) {
	// Engine glitch: a later stage's marker appears before an earlier one.
	transcript := []domain.Turn{
		bot("Are there other teams involved that we should coordinate with?"),
		bot("What is the specific problem you want to solve?"),
	}
	if got := NextStage(transcript); got != StageComplete {
		t.Errorf("Out-of-order markers must resolve to the most advanced stage, got %s", got)
	}
}

func TestNextStageMonotonicAcrossCalls(t *testing.T) {
	// Simulate a full interview; the sequence of derived stages must be
	// non-decreasing as bot turns accumulate.
	botTurns := []domain.Turn{
		bot("What is the specific problem you want to solve?"),
		bot("What kind of features do you envision?"),
		bot("What is our budget for this project?"),
		bot("What are the expected deliverables?"),
		bot("Who are the team members who will work on this project?"),
		bot("Is there anything else you want to add?"),
	}

	var transcript []domain.Turn
	prev := NextStage(transcript)
	for _, turn := range botTurns {
		transcript = append(transcript, turn)
		got := NextStage(transcript)
		if got < prev {
			t.Fatalf("Stage regressed from %s to %s after %q", prev, got, turn.Message)
		}
		prev = got
	}
	if prev != StageComplete {
		t.Errorf("Expected to end at complete, got %s", prev)
	}
}

func TestStageString(t *testing.T) {
	if StageProblemDefinition.String() != "problem_definition" {
		t.Errorf("Unexpected name: %s", StageProblemDefinition)
	}
	if Stage(99).String() != "unknown" {
		t.Errorf("Expected unknown for invalid stage")
	}
}
