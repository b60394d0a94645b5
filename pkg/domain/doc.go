/*
Package domain contains the core models of the form definition engine.

It defines survey templates, their questions, validation and conditional rules, and the
errors the engine reports. This package is kept pure and free of external dependencies
like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - FormTemplate: A versioned definition of a survey, grouped into a lineage.
  - Question: A single item of a template (type, options, validation, conditional logic).
  - ConditionalRule: A trigger/target rule that shows, hides, requires or relaxes a question.
  - EffectiveState: The resolved visibility and requiredness of a question for a response set.
  - Diff: A structural comparison between two template versions.
*/
package domain
