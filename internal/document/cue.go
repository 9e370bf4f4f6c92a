package document

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// schema closes the document shape, so CUE rejects unknown fields and
// unknown categories before decoding.
const schema = `
#Binding: {
	category: "nowiki" | "general"
	id:       string & !=""
	value:    string
	lazy?:    bool
}

#Document: {
	name?:     string
	text:      string
	bindings?: [...#Binding]
}
`

// ParseCUE evaluates a CUE document against the document schema and
// decodes it. filename is used in error positions.
func ParseCUE(data []byte, filename string) (*Document, error) {
	ctx := cuecontext.New()

	def := ctx.CompileString(schema, cue.Filename("document-schema.cue")).
		LookupPath(cue.ParsePath("#Document"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("document schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE: %s", errors.Details(err, nil))
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("document does not match schema: %s", errors.Details(err, nil))
	}

	var doc Document
	if err := unified.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode CUE: %w", err)
	}
	return &doc, nil
}
