/*
Package dsl provides a fluent Go builder for triage catalogs.

It is an alternative to YAML or Markdown catalogs when the questions are
generated in code or assembled inside tests.

Example usage:

	b := dsl.New()

	b.Add("q1_when").
		Title("When did it start?").
		Prompt("Pick the closest option.").
		Choice("today", "Today").
		Choice("week", "This week").
		Other("Other / describe")

	b.Add("q2_where").
		Title("Where does it hurt?").
		Multi().
		Choice("back", "Back").
		Choice("neck", "Neck").
		Exclusive("none", "Nowhere in particular").
		Other("Other / describe")

	c, err := b.Build()
	// ... pass c to triage.New(triage.WithCatalog(c))
*/
package dsl
