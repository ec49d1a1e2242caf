package spec

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// validateSchema checks a normalized spec against the embedded CUE schema.
// The schema carries the constraints that are awkward to express in Go:
// environment variable name patterns, non-empty module lists for extra
// machines, and machine name patterns.
func validateSchema(ts *TestSpec) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("failed to compile spec schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#TestSpec"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("failed to resolve #TestSpec: %w", err)
	}

	val := def.Unify(ctx.Encode(ts))
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return &ConfigError{Message: firstSchemaError(err)}
	}
	return nil
}

// firstSchemaError flattens a CUE error list into the first message with
// its field path, which is the most actionable line for spec authors.
func firstSchemaError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	first := errs[0]
	if path := first.Path(); len(path) > 0 {
		return fmt.Sprintf("%s: %s", cuePathString(path), firstMessage(first))
	}
	return firstMessage(first)
}

func firstMessage(err cueerrors.Error) string {
	format, args := err.Msg()
	return fmt.Sprintf(format, args...)
}

func cuePathString(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}
