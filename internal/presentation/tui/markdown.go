package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/formwork/pkg/domain"
)

// DiffMarkdown renders a template diff as a review document.
func DiffMarkdown(d *domain.TemplateDiff) string {
	var sb strings.Builder
	if d == nil {
		return "_Nothing to compare._\n"
	}
	fmt.Fprintf(&sb, "# Changes v%d → v%d\n\n", d.FromVersion, d.ToVersion)
	if d.IsEmpty() {
		sb.WriteString("_No changes._\n")
		return sb.String()
	}

	if len(d.Fields) > 0 {
		sb.WriteString("## Template\n\n| Field | Before | After |\n|---|---|---|\n")
		for _, f := range d.Fields {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", f.Field, cell(f.From), cell(f.To))
		}
		sb.WriteString("\n")
	}

	q := d.Questions
	if len(q.Added)+len(q.Removed)+len(q.Changed) > 0 {
		sb.WriteString("## Questions\n\n")
		for _, a := range q.Added {
			fmt.Fprintf(&sb, "- **added** `%s` (%s) %s\n", a.ID, a.Type, a.Text)
		}
		for _, r := range q.Removed {
			fmt.Fprintf(&sb, "- **removed** `%s` (%s) %s\n", r.ID, r.Type, r.Text)
		}
		for _, c := range q.Changed {
			fmt.Fprintf(&sb, "- **changed** `%s`: %s\n", c.ID, strings.Join(c.Fields, ", "))
		}
		sb.WriteString("\n")
	}

	br := d.BusinessRules
	if len(br.Added)+len(br.Removed)+len(br.Changed) > 0 {
		sb.WriteString("## Business rules\n\n")
		for _, a := range br.Added {
			fmt.Fprintf(&sb, "- **added** `%s`\n", a.ID)
		}
		for _, r := range br.Removed {
			fmt.Fprintf(&sb, "- **removed** `%s`\n", r.ID)
		}
		for _, c := range br.Changed {
			fmt.Fprintf(&sb, "- **changed** `%s`\n", c.ID)
		}
	}
	return sb.String()
}

// StatesMarkdown renders the effective state of each question in template order.
// Questions without a state are skipped.
func StatesMarkdown(questions []domain.Question, states domain.States) string {
	var sb strings.Builder
	sb.WriteString("| Question | State |\n|---|---|\n")
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		seen[q.ID] = true
		if s, ok := states[q.ID]; ok {
			fmt.Fprintf(&sb, "| %s | %s |\n", q.ID, s)
		}
	}
	// States for unknown ids still show up, sorted.
	var extra []string
	for id := range states {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		fmt.Fprintf(&sb, "| %s | %s |\n", id, states[id])
	}
	return sb.String()
}

func cell(v any) string {
	if v == nil {
		return "-"
	}
	s := strings.ReplaceAll(fmt.Sprint(v), "|", "\\|")
	if s == "" {
		return "-"
	}
	return s
}
