/*
Package dsl provides a fluent Go builder for weft flow definitions.

It produces the same flow.Definition a YAML or JSON document would, which is
handy for tests, generated flows and IDE completion.

Example usage:

	def, err := dsl.New("basic_prompting").
		Add("chat-input", "ChatInput").
		Param("input_value", "ahoy").
		Add("prompt", "Prompt").
		Param("template", "User: {user_input}").
		Wire("user_input", "chat-input.message").
		Add("chat-output", "ChatOutput").
		Wire("input_value", "prompt.prompt").
		Flow().
		Build()

	g, err := flow.Build(def, components.Catalog())
*/
package dsl
