/*
Package logic resolves the effective state of every question of a template from a
(possibly partial) response set.

Conditional rules live on the target question and name a trigger question. The
evaluator builds the trigger→target graph, rejects cycles, and evaluates targets in
topological order so a question's state is settled before anything that depends on it.

Precedence is fail-closed and decided per axis:

  - Visibility: any fired hide rule hides the question. Otherwise a question with show
    rules is visible only when one of them fired. Questions without show rules are visible.
  - Requiredness (visible questions only): a fired require rule wins over a fired optional
    rule. With neither fired the static required flag applies.

A hidden question's answer is treated as absent when evaluating rules that depend on
it, so hiding cascades down chains of dependent questions. Rules over absent answers
never fire.
*/
package logic
