package trace

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// SupportedSchema is the semver constraint a trace line's optional
// "schema" field must satisfy. Traces predating the field are always
// accepted; the field exists so producers can evolve the wire format
// without silently feeding a simulator a stream it misinterprets.
const SupportedSchema = "^1.0.0"

func init() {
	// Fail at package init if the constant itself is malformed, rather
	// than on the first trace line that happens to carry a schema field.
	if _, err := semver.NewConstraint(SupportedSchema); err != nil {
		panic(fmt.Sprintf("trace: invalid SupportedSchema constraint %q: %v", SupportedSchema, err))
	}
}

// checkSchema validates an event's optional schema field against
// SupportedSchema. An empty schema field is always accepted (pre-schema
// traces). A malformed or out-of-range version is a trace parse error.
func checkSchema(line int, schema string) error {
	if schema == "" {
		return nil
	}
	v, err := semver.NewVersion(schema)
	if err != nil {
		return &ParseError{Line: line, Err: fmt.Errorf("invalid schema version %q: %w", schema, err)}
	}
	c, err := semver.NewConstraint(SupportedSchema)
	if err != nil {
		return &ParseError{Line: line, Err: fmt.Errorf("internal schema constraint error: %w", err)}
	}
	if !c.Check(v) {
		return &ParseError{Line: line, Err: fmt.Errorf("unsupported trace schema %q (want %s)", schema, SupportedSchema)}
	}
	return nil
}
