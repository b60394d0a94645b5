// Package schema compiles the validation rules declared on a template's questions into
// an executable Validator.
//
// Each question type implies a base value shape (text, number, date, option values...)
// and declared rules are folded on top of it. The compiler reports definition problems
// up front, so a compiled Validator never fails on its own configuration:
//
//	v, err := schema.Compile(template.Questions,
//	    schema.WithEffectiveState(states),
//	    schema.WithPredicates(predicates),
//	)
//	if err != nil {
//	    // IncompatibleRuleError, InvalidPatternError, unsupported type...
//	}
//
//	res := v.Validate(map[string]any{"age": 42})
//	if !res.Valid {
//	    // res.Errors holds every failure, not just the first one
//	}
//
// Hidden questions are skipped entirely, so their answers are ignored and they are
// never required.
package schema
