package weft_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/dsl"
	"github.com/aretw0/weft/pkg/graph"
)

// ExampleEngine_RunFlow builds a flow with the DSL from bundled components.
func ExampleEngine_RunFlow() {
	def, err := dsl.New("greeting").
		Add("in", "TextInput").
		Param("input_value", "world").
		Add("prompt", "Prompt").
		Param("template", "Hello, {name}!").
		Wire("name", "in.text").
		Add("out", "ChatOutput").
		Wire("input_value", "prompt.prompt").
		Flow().
		Build()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	engine, err := weft.New()
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close(ctx)

	res, err := engine.RunFlow(ctx, def)
	if err != nil {
		log.Fatal(err)
	}
	msg := res.Outputs["out.message"].(domain.Message)
	fmt.Println(res.Order)
	fmt.Println(msg.Text)
	// Output:
	// [in prompt out]
	// Hello, world!
}

// shout is a component written in Go: one input, one output.
type shout struct {
	component.Base
}

func (s *shout) Definition() component.Definition {
	return component.Definition{
		Name:    "Shout",
		Inputs:  []component.Input{component.MessageTextInput("text", component.Required())},
		Outputs: []component.Output{component.NewOutput("text", "Build", domain.TypeText)},
	}
}

func (s *shout) Build(ctx context.Context) (string, error) {
	return strings.ToUpper(s.Text("text")) + "!", nil
}

// ExampleEngine_Run wires instances by hand.
func ExampleEngine_Run() {
	a := component.MustNew("a", &shout{})
	b := component.MustNew("b", &shout{})
	if err := a.Set("text", "hello"); err != nil {
		log.Fatal(err)
	}
	if err := b.Set("text", a.Output("text")); err != nil {
		log.Fatal(err)
	}

	g, err := graph.New([]*component.Instance{b, a})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	engine, err := weft.New()
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close(ctx)

	res, err := engine.Run(ctx, g)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Outputs["b.text"])
	// Output: HELLO!!
}
