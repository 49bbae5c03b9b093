// Package schema provides the literal value type system used by component
// inputs.
//
// It defines built-in types (str, int, float, bool, dict, any), slices,
// option lists and custom validators. A component input may carry a Type;
// literal values assigned to that input are checked against it before a run
// starts, so a bad literal fails the build instead of the run.
//
// Basic usage:
//
//	s := schema.Schema{
//	    "api_key": schema.String(),
//	    "retries": schema.Int(),
//	    "tags":    schema.Slice(schema.String()),
//	}
//
//	if err := s.Validate(params); err != nil {
//	    for _, verr := range schema.ValidationErrors(err) {
//	        // verr.Key names the offending input
//	    }
//	}
//
// Schemas can be created programmatically, taken from a component definition
// (Definition.Schema) or parsed from the type names they serialize to:
//
//	s, err := schema.ParseTypeMap(map[string]string{
//	    "api_key": "str",
//	    "tags":    "[str]",
//	})
package schema
