/*
Package formwork is a form definition and conditional logic engine for healthcare
survey templates.

A template is an ordered list of typed questions. Each question may carry validation
rules (required, min, max, pattern, custom) and conditional rules that show, hide,
require or make it optional based on another question's answer. The engine:

  - evaluates conditional logic over a response set in dependency order, producing the
    effective state (visible_required, visible_optional, hidden) of every question;
  - compiles a validation schema from the questions and that effective state;
  - edits questions under strict definition checks (unique ids, known types, acyclic
    dependencies, no dangling triggers);
  - versions templates: published versions are immutable, edits fork a new version,
    and at most one version per lineage is active.

# Usage

	eng := formwork.New(formwork.WithStore(memory.NewStore()))

	b := dsl.New("Patient Intake").Type("intake")
	b.Add("smoker").YesNo("Do you smoke?").Required()
	b.Add("packs").Numeric("Packs per day").Min(1).
		ShowWhen("smoker", domain.OpEquals, "yes")

	tpl, err := eng.CreateTemplate(ctx, b.MustBuild())
	if err != nil {
		log.Fatal(err)
	}

	sub, err := eng.Submit(ctx, tpl.ID, map[string]any{"smoker": "yes", "packs": 2})

Storage, locking and events are ports (see package ports) with memory, Redis, SQLite
and PostgreSQL adapters. The cmd/formwork binary exposes the engine over HTTP, MCP and
a CLI.
*/
package formwork
