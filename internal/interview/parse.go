package interview

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scopetalk/scopetalk/internal/domain"
)

// ParseReply decodes engine output into a StructuredReply. The engine is
// unreliable: on any decode failure the whole raw text becomes a plain
// text reply. Decoded replies that violate the StructuredReply invariants
// (mixed without sections, options without options) are coerced to the
// simplest valid variant rather than rejected. Parse failures are never
// surfaced to the caller.
func ParseReply(raw string) domain.StructuredReply {
	jsonText := stripCodeFence(raw)

	var reply domain.StructuredReply
	if err := json.Unmarshal([]byte(jsonText), &reply); err != nil {
		return plainText(raw)
	}
	if reply.Text == "" && len(reply.Sections) == 0 && len(reply.Options) == 0 {
		// Decoded to an effectively empty reply, e.g. raw was "{}" or a
		// JSON scalar. Preserve the raw text instead.
		return plainText(raw)
	}

	return normalize(reply)
}

func plainText(raw string) domain.StructuredReply {
	return domain.StructuredReply{
		Text:      strings.TrimSpace(raw),
		InputType: domain.InputText,
		Options:   []string{},
		Sections:  []domain.Section{},
	}
}

func normalize(reply domain.StructuredReply) domain.StructuredReply {
	switch reply.InputType {
	case domain.InputMixed:
		if len(reply.Sections) == 0 {
			reply.InputType = domain.InputText
		}
	case domain.InputOptions:
		if len(reply.Options) == 0 {
			reply.InputType = domain.InputText
		}
	case domain.InputText:
	default:
		reply.InputType = domain.InputText
	}
	if reply.Options == nil {
		reply.Options = []string{}
	}
	if reply.Sections == nil {
		reply.Sections = []domain.Section{}
	}
	for i := range reply.Sections {
		if reply.Sections[i].Options == nil {
			reply.Sections[i].Options = []string{}
		}
	}
	return reply
}

// stripCodeFence removes a surrounding markdown code fence, which the
// engine adds despite instructions not to.
func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// RenderTranscriptMessage flattens a reply into the single string persisted
// as the bot turn, so the transcript is self-describing without the
// structured fields: display text plus numbered sections or bulleted
// options.
func RenderTranscriptMessage(reply domain.StructuredReply) string {
	var sb strings.Builder
	sb.WriteString(reply.Text)

	if len(reply.Sections) > 0 {
		for i, section := range reply.Sections {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, section.Question)
			if len(section.Options) > 0 {
				fmt.Fprintf(&sb, " (options: %s)", strings.Join(section.Options, ", "))
			}
		}
		return sb.String()
	}

	for _, option := range reply.Options {
		fmt.Fprintf(&sb, "\n- %s", option)
	}
	if reply.AllowOther && len(reply.Options) > 0 {
		sb.WriteString("\n- Other (please describe)")
	}
	return sb.String()
}
