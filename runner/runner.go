package runner

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/oops"
	"golang.org/x/sync/singleflight"

	"github.com/senpro-it/wassup/dsl"
	"github.com/senpro-it/wassup/models"
)

var logger = log.Default()

const (
	DefaultCompileTimeout = 2 * time.Minute
	DefaultRunTimeout     = time.Minute
)

// Config controls one Runner. ModuleRoot must point at a checkout of this
// module; compiled scripts import it from there.
type Config struct {
	ModuleRoot     string
	GoBinary       string
	TempDir        string
	CompileTimeout time.Duration
	RunTimeout     time.Duration
	KeepArtifacts  bool
	Concurrency    int
	LogLevel       string
}

type Runner struct {
	cfg      Config
	compiler Compiler
	group    singleflight.Group
}

type Option func(*Runner)

func WithCompiler(c Compiler) Option {
	return func(r *Runner) {
		r.compiler = c
	}
}

// Result is shared between callers collapsed onto the same invocation and
// must be treated as read-only.
type Result struct {
	Output models.Output
	Report models.RunReport
	Stderr string
}

func New(cfg Config, opts ...Option) (*Runner, error) {
	oopsBuilder := oops.In("runner.New").With("moduleRoot", cfg.ModuleRoot)

	if cfg.ModuleRoot == "" {
		return nil, oopsBuilder.Hint("set module_root to a checkout of " + ModulePath).Errorf("module root is not configured")
	}
	root, err := filepath.Abs(cfg.ModuleRoot)
	if err != nil {
		return nil, oopsBuilder.Wrap(err)
	}
	if _, err := os.Stat(filepath.Join(root, "go.mod")); err != nil {
		return nil, oopsBuilder.Hint("module root must contain go.mod").Wrap(err)
	}
	cfg.ModuleRoot = root

	if cfg.CompileTimeout <= 0 {
		cfg.CompileTimeout = DefaultCompileTimeout
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}

	r := &Runner{cfg: cfg, compiler: GoCompiler{GoBinary: cfg.GoBinary}}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// FindModuleRoot walks up from dir to the directory whose go.mod declares
// this module.
func FindModuleRoot(dir string) (string, error) {
	oopsBuilder := oops.In("FindModuleRoot").With("start", dir)
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", oopsBuilder.Wrap(err)
	}
	for {
		if declaresModule(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", oopsBuilder.Hint("run inside a checkout or set module_root").Errorf("no go.mod declaring %s found", ModulePath)
		}
		dir = parent
	}
}

func declaresModule(goMod string) bool {
	f, err := os.Open(goMod)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 2 && fields[0] == "module" {
			return strings.Trim(fields[1], `"`) == ModulePath
		}
	}
	return false
}

// Identity is the key concurrent invocations are collapsed on.
func Identity(script, secrets string) string {
	sum := sha256.Sum256([]byte(script + "\x00" + secrets))
	return hex.EncodeToString(sum[:])
}

// Run composes, compiles and executes script, returning the decoded output.
// Failures are *Error values carrying the reason and a diagnostic.
func (r *Runner) Run(ctx context.Context, script, secrets string) (*Result, error) {
	key := Identity(script, secrets)
	v, err, shared := r.group.Do(key, func() (interface{}, error) {
		return r.run(ctx, key, script, secrets)
	})
	if shared {
		logger.Debug("Joined an identical invocation.", "script", key[:12])
	}
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (r *Runner) run(ctx context.Context, key, script, secrets string) (*Result, error) {
	logger := logger.WithPrefix("runner").With("script", key[:12])
	t := newTracker(key, logger)

	env, err := ParseSecrets(secrets)
	if err != nil {
		return nil, t.fail(models.ReasonExec, "could not parse secrets: "+err.Error(), err)
	}

	t.enter(models.StateWriting)
	ws, err := newWorkspace(r.cfg.TempDir)
	if err != nil {
		return nil, t.fail(models.ReasonWrite, err.Error(), err)
	}
	if r.cfg.KeepArtifacts {
		t.report.ArtifactDir = ws.dir
		logger.Info("Keeping artifacts.", "dir", ws.dir)
	} else {
		defer func() {
			if err := ws.remove(); err != nil {
				logger.Warn("Could not remove artifacts.", "dir", ws.dir, "error", err)
			}
		}()
	}
	if err := ws.populate(Compose(script), r.cfg.ModuleRoot); err != nil {
		return nil, t.fail(models.ReasonWrite, err.Error(), err)
	}

	t.enter(models.StateCompiling)
	if diag, err := r.compile(ctx, ws); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, t.fail(models.ReasonExec, "run aborted during compilation: "+ctxErr.Error(), oops.In("Runner.run").Wrap(ctxErr))
		}
		return nil, t.fail(models.ReasonCompile, diag, err)
	}

	t.enter(models.StateRunning)
	stdout, stderr, err := r.execute(ctx, ws, env)
	if err != nil {
		diag := stderr
		if strings.TrimSpace(diag) == "" {
			diag = err.Error()
		}
		return nil, t.fail(models.ReasonExec, diag, err)
	}

	t.enter(models.StateParsing)
	out, err := models.DecodeOutput(stdout)
	if err != nil {
		return nil, t.fail(models.ReasonDecode, string(stdout), err)
	}

	report := t.close(models.StateSucceeded, models.ReasonNone)
	logger.Info("Script succeeded.", "dashboards", len(out.Dashboards), "seconds", report.ExecutionTime)
	return &Result{Output: out, Report: report, Stderr: stderr}, nil
}

func (r *Runner) compile(ctx context.Context, ws *workspace) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.CompileTimeout)
	defer cancel()

	output, err := r.compiler.Compile(ctx, ws.dir, ws.binary)
	if err == nil {
		return "", nil
	}
	oopsBuilder := oops.In("Runner.compile").With("dir", ws.dir)
	diag := string(output)
	if ctxErr := ctx.Err(); ctxErr != nil {
		diag = strings.TrimSpace(diag + "\ncompilation aborted: " + ctxErr.Error())
	}
	if strings.TrimSpace(diag) == "" {
		diag = err.Error()
	}
	return diag, oopsBuilder.Wrap(err)
}

func (r *Runner) execute(ctx context.Context, ws *workspace, secrets map[string]string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RunTimeout)
	defer cancel()

	extra := map[string]string{}
	if r.cfg.Concurrency > 0 {
		extra[dsl.EnvConcurrency] = strconv.Itoa(r.cfg.Concurrency)
	}
	if r.cfg.LogLevel != "" {
		extra[dsl.EnvLogLevel] = r.cfg.LogLevel
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ws.binary)
	cmd.Dir = ws.dir
	cmd.Env = childEnv(os.Environ(), extra, secrets)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.String(), nil
	}

	oopsBuilder := oops.In("Runner.execute").With("binary", ws.binary)
	if ctxErr := ctx.Err(); ctxErr != nil {
		msg := "script killed: " + ctxErr.Error()
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			msg = "script timed out after " + r.cfg.RunTimeout.String()
		}
		return nil, strings.TrimSpace(stderr.String() + "\n" + msg), oopsBuilder.Wrap(ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		oopsBuilder = oopsBuilder.With("exitCode", exitErr.ExitCode())
	}
	return nil, stderr.String(), oopsBuilder.Wrap(err)
}

// tracker records state transitions and phase durations for one invocation.
type tracker struct {
	logger     *log.Logger
	report     models.RunReport
	start      time.Time
	phaseStart time.Time
}

func newTracker(key string, logger *log.Logger) *tracker {
	now := time.Now()
	return &tracker{
		logger:     logger,
		report:     models.RunReport{ScriptHash: key, State: models.StatePending, Phases: []models.PhaseTiming{}},
		start:      now,
		phaseStart: now,
	}
}

func (t *tracker) enter(next models.RunState) {
	t.closePhase()
	t.logger.Debug("State change.", "from", t.report.State, "to", next)
	t.report.State = next
}

func (t *tracker) closePhase() {
	now := time.Now()
	if t.report.State != models.StatePending {
		t.report.Phases = append(t.report.Phases, models.PhaseTiming{
			State:   t.report.State,
			Seconds: now.Sub(t.phaseStart).Seconds(),
		})
	}
	t.phaseStart = now
}

func (t *tracker) close(final models.RunState, reason models.FailureReason) models.RunReport {
	t.closePhase()
	t.report.State = final
	t.report.Reason = reason
	t.report.Done = true
	t.report.ExecutionTime = time.Since(t.start).Seconds()
	return t.report
}

func (t *tracker) fail(reason models.FailureReason, diagnostic string, err error) *Error {
	failedIn := t.report.State
	report := t.close(models.StateFailed, reason)
	t.logger.Warn("Script failed.", "state", failedIn, "reason", reason, "error", err)
	return &Error{Reason: reason, Diagnostic: diagnostic, Report: report, Err: err}
}
