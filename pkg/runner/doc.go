/*
Package runner fills in a form template interactively.

The Runner walks the questions in display order, asking only the ones whose
effective state is visible. Conditional logic is re-evaluated after every answer,
so answering a trigger can reveal or hide the questions that follow it. Each answer
is sanitized, converted to the question's value shape and checked against the
question's validation rules before it is accepted; a rejected answer is asked again
with the reason.

# Key Components

  - Runner: the question loop.
  - IOHandler: decouples how prompts are shown and answers are read.
  - TextHandler: interactive terminal usage, optionally rendering Markdown.
  - JSONHandler: JSON Lines for driving the runner from another program.

# Usage

	r := runner.NewRunner(
		runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithLogger(logger),
	)

	responses, err := r.Fill(ctx, template, nil)
*/
package runner
