// Package flow reads serialized flow definitions and builds them into
// executable graphs.
//
// A flow document lists component nodes by type, their literal params, and
// the edges wiring outputs to inputs:
//
//	name: basic_prompting
//	nodes:
//	  - id: chat-input
//	    type: ChatInput
//	    params:
//	      input_value: ahoy
//	  - id: prompt
//	    type: Prompt
//	    params:
//	      template: "User: {user_input}"
//	    inputs:
//	      user_input: chat-input.message
//	edges:
//	  - from: prompt.prompt
//	    to: chat-output.input_value
//
// Documents may be YAML or JSON.
package flow
