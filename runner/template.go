package runner

import (
	_ "embed"
	"fmt"
	"strings"
)

// ScriptMarker is replaced by the user's script. The script becomes the body
// of a function receiving r *dsl.Registry.
const ScriptMarker = "/*WASSUP_SCRIPT*/"

//go:embed script.go.tmpl
var scriptTemplate string

func init() {
	if n := strings.Count(scriptTemplate, ScriptMarker); n != 1 {
		panic(fmt.Sprintf("runner: script template has %d markers, want 1", n))
	}
}

// Compose returns the complete program for script. The script is inserted
// verbatim.
func Compose(script string) string {
	return strings.Replace(scriptTemplate, ScriptMarker, script, 1)
}
