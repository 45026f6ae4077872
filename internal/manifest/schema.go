package manifest

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// schemaSource constrains the fields used to build a tag ref. Names must
// be usable as a single ref path component.
const schemaSource = `
#Manifest: {
	apiVersion?: "v1" | "v2"
	name:        string & =~"^[A-Za-z0-9][A-Za-z0-9._-]*$"
	version:     string & != ""
}
`

func validateSchema(m Manifest) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Manifest"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("schema: %v", err)
	}
	doc := map[string]any{"name": m.Name, "version": m.Version}
	if m.APIVersion != "" {
		doc["apiVersion"] = m.APIVersion
	}
	v := schema.Unify(ctx.Encode(doc))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
