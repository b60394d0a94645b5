package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/formwork/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of the conditional dependencies of a
// question list. Edges run from trigger to target and carry the rule.
// Shapes follow the question type:
// - Section header: {{Hexagon}}
// - Select / yes-no: {Rhombus}
// - File upload: [(Cylinder)]
// - Default: [Rectangle]
// When states are given, each question is styled hidden, required or optional.
func GenerateMermaid(questions []domain.Question, states domain.States) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := make(map[string]bool, len(questions))
	for _, q := range questions {
		ids[q.ID] = true
	}

	for _, q := range questions {
		safeID := sanitizeMermaidID(q.ID)

		opener, closer := "[", "]"
		switch q.Type {
		case domain.QuestionSectionHeader:
			opener, closer = "{{", "}}"
		case domain.QuestionSingleSelect, domain.QuestionMultiSelect, domain.QuestionYesNo:
			opener, closer = "{", "}"
		case domain.QuestionFileUpload:
			opener, closer = "[(", ")]"
		}

		label := q.ID
		if q.Text != "" {
			label = fmt.Sprintf("%s <br/> %s", q.ID, escapeLabel(q.Text))
		}
		if q.IsRequired() {
			label += " *"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))
	}

	for _, q := range questions {
		for _, r := range q.ConditionalLogic {
			cond := escapeLabel(fmt.Sprintf("%s %v: %s", r.Operator, r.Value, r.Action))
			arrow := fmt.Sprintf("-- \"%s\" -->", cond)
			if !ids[r.QuestionID] {
				// Dangling triggers are drawn dotted so they stand out.
				arrow = fmt.Sprintf("-. \"%s\" .->", cond)
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(r.QuestionID), arrow, sanitizeMermaidID(q.ID)))
		}
	}

	if len(states) > 0 {
		sb.WriteString("\n    %% State Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef hidden fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4 4,color:#000;\n")
		sb.WriteString("    classDef required fill:#ffeb3b,stroke:#fbc02d,stroke-width:3px,color:#000;\n")
		sb.WriteString("    classDef optional fill:#e1f5fe,stroke:#01579b,stroke-width:1px,color:#000;\n")

		for _, q := range questions {
			state, ok := states[q.ID]
			if !ok {
				continue
			}
			class := "optional"
			switch state {
			case domain.StateHidden:
				class = "hidden"
			case domain.StateVisibleRequired:
				class = "required"
			}
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", sanitizeMermaidID(q.ID), class))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
