/*
Package dsl provides a fluent builder for constructing form templates in Go.

It is an alternative to JSON/YAML definition files, useful for tests, fixtures and
programmatically generated forms. Build runs the same definition checks as the question
manager, so an invalid template never leaves the builder.

Example usage:

	b := dsl.New("Patient Intake").Type("intake")

	b.Add("smoker").
		YesNo("Do you smoke?").
		Required()

	b.Add("packs").
		Numeric("How many packs per day?").
		Min(1).
		ShowWhen("smoker", domain.OpEquals, "yes")

	tpl, err := b.Build()
*/
package dsl
