package components

import (
	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/registry"
)

// Register adds every component in this package to r.
func Register(r *registry.Registry) {
	r.Register("TextInput", func() component.Component { return &TextInput{} })
	r.Register("ChatInput", func() component.Component { return &ChatInput{} })
	r.Register("ChatOutput", func() component.Component { return &ChatOutput{} })
	r.Register("Pass", func() component.Component { return &Pass{} })
	r.Register("MessagetoData", func() component.Component { return &MessageToData{} })
	r.Register("CustomComponent", func() component.Component { return &Custom{} })
	r.Register("GetEnvVar", func() component.Component { return &GetEnvVar{} })
	r.Register("Prompt", func() component.Component { return &Prompt{} })
	r.Register("TextOperation", func() component.Component { return &TextOperation{} })
	r.Register("FakeEmbeddings", func() component.Component { return &FakeEmbeddings{} })
	r.Register("InMemoryVectorStore", func() component.Component { return &InMemoryVectorStore{} })
	r.Register("GetVariable", func() component.Component { return &GetVariable{} })
	r.Register("Memory", func() component.Component { return &Memory{} })
	r.Register("StoreMessage", func() component.Component { return &StoreMessage{} })
}

// Catalog returns a registry holding every component in this package.
func Catalog() *registry.Registry {
	r := registry.NewRegistry()
	Register(r)
	return r
}
