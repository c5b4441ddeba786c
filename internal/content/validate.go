package content

import (
	"fmt"

	_ "embed"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// validateTables unifies the YAML document with the embedded CUE
// schema and requires the result to be fully concrete. Schema errors
// carry enough position information to point at the offending field.
func validateTables(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("content tables are not valid YAML: %w", err)
	}

	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("content schema is broken: %s", cueerrors.Details(err, nil))
	}

	val := ctx.Encode(doc)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode content tables: %s", cueerrors.Details(err, nil))
	}

	unified := schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("content tables do not satisfy schema: %s", cueerrors.Details(err, nil))
	}
	return nil
}
