package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/davecgh/go-spew/spew"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/senpro-it/wassup/models"
	"github.com/senpro-it/wassup/runner"
)

// Exit codes of the run command.
const (
	exitOK      = 0
	exitOther   = 1
	exitCompile = 2
	exitExec    = 3
	exitDecode  = 4
	exitWrite   = 5
)

// logger writes to stderr; stdout carries the output document only.
var logger = log.Default()

func main() {
	// configure oops
	oops.SourceFragmentsHidden = false
	logger.SetReportTimestamp(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error(err.Error(), "error", err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	switch runner.ReasonOf(err) {
	case models.ReasonCompile:
		return exitCompile
	case models.ReasonExec:
		return exitExec
	case models.ReasonDecode:
		return exitDecode
	case models.ReasonWrite:
		return exitWrite
	}
	return exitOther
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "wassup",
		Short:         "Compile dashboard scripts and print their dashboards as JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addConfigFlags(root.PersistentFlags())

	root.AddCommand(newRunCmd(stdout), newWatchCmd(stdout), newTemplateCmd(stdout))
	return root
}

// setup reads configuration for a command and applies the log level.
func setup(cmd *cobra.Command) (*viper.Viper, Config, error) {
	v, err := newViper(cmd.Flags())
	if err != nil {
		return nil, Config{}, err
	}
	if v.GetBool("verbose") {
		logger.SetLevel(log.DebugLevel)
	}
	config, err := loadConfig(v)
	if err != nil {
		return nil, Config{}, err
	}
	return v, config, nil
}

func newRunCmd(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a script once and print its output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, config, err := setup(cmd)
			if err != nil {
				return err
			}
			r, err := runner.New(config.Runner)
			if err != nil {
				return err
			}

			secretsPath, _ := cmd.Flags().GetString("secrets")
			script, secrets, err := readInputs(args[0], secretsPath)
			if err != nil {
				return err
			}

			res, err := r.Run(cmd.Context(), script, secrets)
			if err != nil {
				reportFailure(err)
				return err
			}
			forwardStderr(res)
			return writeOutput(stdout, res.Output, v.GetString("format"))
		},
	}
	cmd.Flags().String("secrets", "", "File with KEY=value secrets passed to the script")
	cmd.Flags().String("format", "json", "Output format: json or yaml")
	return cmd
}

func newTemplateCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "template <script>",
		Short: "Print the Go program generated for a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := os.ReadFile(args[0])
			if err != nil {
				return oops.In("template").With("path", args[0]).Wrap(err)
			}
			_, err = io.WriteString(stdout, runner.Compose(string(script)))
			return err
		},
	}
}

func readInputs(scriptPath, secretsPath string) (script, secrets string, err error) {
	oopsBuilder := oops.In("readInputs")
	raw, err := os.ReadFile(scriptPath)
	if err != nil {
		return "", "", oopsBuilder.With("path", scriptPath).Wrap(err)
	}
	if secretsPath == "" {
		return string(raw), "", nil
	}
	blob, err := os.ReadFile(secretsPath)
	if err != nil {
		return "", "", oopsBuilder.With("path", secretsPath).Wrap(err)
	}
	return string(raw), string(blob), nil
}

func writeOutput(w io.Writer, out models.Output, format string) error {
	if logger.GetLevel() <= log.DebugLevel {
		logger.Debug("Decoded output.", "dump", spew.Sdump(out))
	}

	switch strings.ToLower(format) {
	case "", "json":
		return out.Encode(w)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return oops.In("writeOutput").Wrap(err)
		}
		return enc.Close()
	}
	return oops.In("writeOutput").With("format", format).Hint("use json or yaml").Errorf("unknown output format")
}

// reportFailure prints the diagnostic of a failed pipeline run to stderr.
func reportFailure(err error) {
	var runErr *runner.Error
	if !errors.As(err, &runErr) {
		return
	}
	logger.Error("Script failed.", "reason", runErr.Reason, "state", lastPhase(runErr.Report))
	if diag := strings.TrimSpace(runErr.Diagnostic); diag != "" {
		fmt.Fprintln(os.Stderr, diag)
	}
}

func lastPhase(report models.RunReport) models.RunState {
	if len(report.Phases) == 0 {
		return models.StatePending
	}
	return report.Phases[len(report.Phases)-1].State
}

func forwardStderr(res *runner.Result) {
	if logger.GetLevel() <= log.DebugLevel && res.Stderr != "" {
		fmt.Fprint(os.Stderr, res.Stderr)
	}
}
