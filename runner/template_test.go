package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeInsertsScriptVerbatim(t *testing.T) {
	script := "r.Dashboard(\"Demo\", nil) // /* kept */"
	program := Compose(script)

	assert.Equal(t, 1, strings.Count(program, script))
	assert.NotContains(t, program, ScriptMarker)
	assert.Contains(t, program, "func script(r *dsl.Registry) {\n//line script:1\n"+script+"\n}")
}

func TestComposeEmptyScript(t *testing.T) {
	program := Compose("")
	assert.NotContains(t, program, ScriptMarker)
	assert.Contains(t, program, "dsl.Main(ctx, script)")
}
