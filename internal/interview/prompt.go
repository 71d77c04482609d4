package interview

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scopetalk/scopetalk/internal/domain"
)

// systemPersona is the fixed interviewer persona prepended to every turn.
const systemPersona = `You are an experienced product manager conducting a structured intake interview with a client about a project they want to build. You are friendly, concise, and methodical: you work through problem definition, functional requirements, technical requirements, logistics, and team, one stage at a time, and you never repeat a question the client has already answered.`

// formatRules constrains the engine to the StructuredReply JSON schema.
const formatRules = `CRITICAL: You MUST return ONLY valid JSON. No plain text, no explanations outside JSON.

JSON structure with these exact keys:
- text: string (brief PM commentary - DO NOT include questions here)
- inputType: "options", "text", or "mixed"
- options: array of strings (only for inputType="options")
- allowOther: boolean
- sections: array of section objects (REQUIRED for inputType="mixed")

RULES:
1) ALWAYS return valid JSON only
2) Questions go in the sections array, NOT in the text field
3) NEVER repeat questions already answered in the conversation`

// stakeholderOptions is shared by the stakeholder questions.
var stakeholderOptions = []string{"Students", "Faculty", "Staff", "Other"}

// StageQuestions returns the canonical question set for a stage. Question
// wording embeds the stage's markers so that a rendered bot turn is
// detectable by NextStage on later calls.
func StageQuestions(stage Stage) []domain.Section {
	switch stage {
	case StageProblemDefinition:
		return []domain.Section{
			{Question: "What is the specific problem you want to solve?", InputType: domain.InputText, Options: []string{}},
			{Question: "What is the scope of the problem?", InputType: domain.InputText, Options: []string{}},
			{Question: "What are some specific examples of when you faced this problem?", InputType: domain.InputText, Options: []string{}},
			{Question: "What have you or others already tried to do to solve this problem?", InputType: domain.InputText, Options: []string{}},
			{Question: "Who are the stakeholders in this problem?", InputType: domain.InputOptions, Options: stakeholderOptions, AllowOther: true},
			{Question: "Who cares most about this problem being solved?", InputType: domain.InputOptions, Options: stakeholderOptions, AllowOther: true},
		}
	case StageFunctionalRequirements:
		return []domain.Section{
			{Question: "What kind of features do you envision for this project?", InputType: domain.InputText, Options: []string{}},
			{Question: "Which of these are mission-critical features, and which are nice-to-have?", InputType: domain.InputText, Options: []string{}},
		}
	case StageTechnicalRequirements:
		return []domain.Section{
			{Question: "What is our budget for this project?", InputType: domain.InputOptions, Options: []string{"Under $10k", "$10k-$50k", "$50k-$250k", "Over $250k"}, AllowOther: true},
			{Question: "Do you have a preferred tech stack or existing systems to integrate with?", InputType: domain.InputText, Options: []string{}},
		}
	case StageLogistics:
		return []domain.Section{
			{Question: "What is in scope/out of scope for this project?", InputType: domain.InputText, Options: []string{}},
			{Question: "What are the expected deliverables and their timeline?", InputType: domain.InputText, Options: []string{}},
		}
	case StageTeam:
		return []domain.Section{
			{Question: "Who are the team members who will work on this project?", InputType: domain.InputText, Options: []string{}},
			{Question: "Are there other teams involved that we should coordinate with?", InputType: domain.InputText, Options: []string{}},
		}
	default:
		return nil
	}
}

// BuildSystemPrompt assembles the per-turn system prompt: fixed persona,
// schema rules, and stage-specific instructions including the canonical
// question set the engine is expected to ask next.
func BuildSystemPrompt(stage Stage) string {
	var sb strings.Builder
	sb.WriteString(systemPersona)
	sb.WriteString("\n\n")
	sb.WriteString(formatRules)
	sb.WriteString("\n\n")

	if stage == StageComplete {
		sb.WriteString(`All interview stages are complete. Ask "Is there anything else you want to add?" and return inputType="text" with empty options and sections. If the client has nothing to add, thank them and explain their project summary will be generated.`)
		return sb.String()
	}

	sections := StageQuestions(stage)
	example := domain.StructuredReply{
		Text:      "Great, let's keep going. I have a few questions for the next part of the interview.",
		InputType: domain.InputMixed,
		Options:   []string{},
		Sections:  sections,
	}
	// The example is marshaled rather than hand-written so prompt text and
	// schema cannot drift apart.
	exampleJSON, err := json.MarshalIndent(example, "", "  ")
	if err != nil {
		exampleJSON = []byte("{}")
	}

	fmt.Fprintf(&sb, "CURRENT STAGE: %s\n", stage)
	fmt.Fprintf(&sb, "You MUST return inputType=\"mixed\" with exactly %d sections covering these questions:\n", len(sections))
	for _, s := range sections {
		fmt.Fprintf(&sb, "- %s\n", s.Question)
	}
	sb.WriteString("\nReturn JSON with this structure (adapt the commentary in \"text\" to the conversation, keep the questions):\n")
	sb.Write(exampleJSON)

	return sb.String()
}
