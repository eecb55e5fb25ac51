/*
Package dsl provides a fluent Go builder for weft workflow graphs.

It is an alternative to the editor's JSON export for tests, examples and
graphs generated in code. Nodes keep the order in which they are added,
which is the declared order used for tie breaking by the orderer.

Example usage:

	b := dsl.New()

	b.Add("leads").Label("Leads").CSV("email,company").Go("draft")

	b.Add("draft").
		LLM("You write short emails.", "Pitch {{leads.company}} to {{leads.email}}").
		Model("gemini-2.0-flash").
		Go("review")

	b.Add("review").LLM("", "Check {{draft.text}}")

	g, err := b.Graph()
	// ... pass g to engine.Run, or b.Build() for a ports.GraphLoader
*/
package dsl
