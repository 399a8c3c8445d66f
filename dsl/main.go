package dsl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/samber/oops"
)

// Environment the pipeline sets for compiled scripts.
const (
	EnvConcurrency = "WASSUP_CONCURRENCY"
	EnvLogLevel    = "WASSUP_LOG_LEVEL"
)

// Main is the entry point of a compiled script. It writes exactly one Output
// document to stdout and returns the process exit code.
func Main(ctx context.Context, script func(r *Registry)) int {
	if lvl, err := log.ParseLevel(os.Getenv(EnvLogLevel)); err == nil {
		logger.SetLevel(lvl)
	}
	var opts []Option
	if n, err := strconv.Atoi(os.Getenv(EnvConcurrency)); err == nil {
		opts = append(opts, WithConcurrency(n))
	}
	return Run(ctx, os.Stdout, script, opts...)
}

// Run builds, renders and encodes the script's dashboards to w.
func Run(ctx context.Context, w io.Writer, script func(r *Registry), opts ...Option) int {
	logger := logger.WithPrefix("script")

	r := NewRegistry(opts...)
	if err := declare(r, script); err != nil {
		logger.Error("Script failed while declaring dashboards.", "error", err)
		return 1
	}

	out, err := r.Render(ctx)
	if err != nil {
		logger.Error("Render failed.", "error", err)
		return 1
	}
	if err := out.Encode(w); err != nil {
		logger.Error("Could not write output.", "error", err)
		return 1
	}
	logger.Debug("Output written.", "dashboards", len(out.Dashboards))
	return 0
}

func declare(r *Registry, script func(r *Registry)) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = oops.In("declare").Errorf("script panicked: %s", fmt.Sprint(rec))
		}
	}()
	if script != nil {
		script(r)
	}
	return nil
}
