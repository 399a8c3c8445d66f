package runner

import (
	"context"
	"os"
	"os/exec"
)

// Compiler turns the program in dir into an executable at output. The
// returned bytes are diagnostics and are shown to the user on failure.
type Compiler interface {
	Compile(ctx context.Context, dir, output string) ([]byte, error)
}

// GoCompiler builds with the go command.
type GoCompiler struct {
	GoBinary string
}

func (g GoCompiler) Compile(ctx context.Context, dir, output string) ([]byte, error) {
	bin := g.GoBinary
	if bin == "" {
		bin = "go"
	}
	cmd := exec.CommandContext(ctx, bin, "build", "-mod=mod", "-o", output, ".")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0", "GOWORK=off")
	return cmd.CombinedOutput()
}
