package config

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// CurrentConfigVersion is the only run-config file format understood.
const CurrentConfigVersion = "1"

// fileSchema closes the run-config file over the known keys.
const fileSchema = `
#Config: {
	configVersion?: string
	mode?: "push" | "check"
	repository?: {
		kind?:       "chartmuseum" | "oci"
		url?:        string
		name?:       string
		username?:   string
		password?:   string
		plain_http?: bool
	}
	vcs?: {
		kind?:       "github" | "local"
		username?:   string
		token?:      string
		api_url?:    string
		repository?: string
		path?:       string
		remote?:     string
	}
	event?: {
		name?:   string
		path?:   string
		before?: string
		after?:  string
	}
	manifest_file?: string
	ignore?: [...string]
	helm?: {
		binary?:            string
		capture_max_bytes?: int & >=0
	}
	concurrency?:   int & >=0
	stage_timeout?: string
	log?: {
		level?:  "debug" | "info" | "warn" | "error"
		format?: "text" | "json"
	}
	report?: {
		path?: string
	}
}
`

// File is a decoded run-config file, keyed like the viper settings.
type File map[string]any

// LoadFile compiles the CUE file at path, checks it against the schema and
// returns its settings.
func LoadFile(path string) (File, error) {
	ctx := cuecontext.New()
	v, err := compileCUE(ctx, path)
	if err != nil {
		return nil, err
	}
	version, ok, err := optionalStringField(v, "configVersion")
	if err != nil {
		return nil, err
	}
	if ok && version != CurrentConfigVersion {
		return nil, fmt.Errorf("unsupported configVersion: %q (supported: %s)", version, CurrentConfigVersion)
	}

	schema := ctx.CompileString(fileSchema).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %v", err)
	}
	u := schema.Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}
	var out File
	if err := u.Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}
	delete(out, "configVersion")
	return out, nil
}
