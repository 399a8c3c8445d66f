package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/senpro-it/wassup/mailer"
	"github.com/senpro-it/wassup/models"
	"github.com/senpro-it/wassup/runner"
)

const debounceDelay = 500 * time.Millisecond

// refresher runs the script and keeps the last good output.
type refresher struct {
	read      func() (script, secrets string, err error)
	run       func(ctx context.Context, script, secrets string) (*runner.Result, error)
	write     func(models.Output) error
	notify    func(ctx context.Context, digest string, out models.Output) error
	threshold models.Alert

	last       *models.Output
	lastDigest string
}

func (f *refresher) refresh(ctx context.Context) error {
	logger := logger.WithPrefix("watch")

	script, secrets, err := f.read()
	if err != nil {
		return err
	}
	res, err := f.run(ctx, script, secrets)
	if err != nil {
		if f.last != nil {
			logger.Warn("Refresh failed; keeping last good output.", "reason", runner.ReasonOf(err))
		}
		reportFailure(err)
		return err
	}
	forwardStderr(res)

	f.last = &res.Output
	if err := f.write(res.Output); err != nil {
		return err
	}

	if f.notify == nil {
		return nil
	}
	digest, ok := mailer.Digest(res.Output, f.threshold)
	if !ok || digest == f.lastDigest {
		logger.Debug("Digest unchanged; not sending.")
		f.lastDigest = digest
		return nil
	}
	if err := f.notify(ctx, digest, res.Output); err != nil {
		return err
	}
	f.lastDigest = digest
	return nil
}

func newWatchCmd(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <script>",
		Short: "Re-run a script on an interval and whenever it changes",
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

			scriptPath := args[0]
			secretsPath, _ := cmd.Flags().GetString("secrets")
			format := v.GetString("format")

			f := &refresher{
				read: func() (string, string, error) { return readInputs(scriptPath, secretsPath) },
				run:  r.Run,
				write: func(out models.Output) error {
					return writeOutput(stdout, out, format)
				},
				threshold: config.Mail.Threshold,
			}
			if len(config.Mail.To) > 0 {
				f.notify = mailNotifier(config.Mail, scriptPath)
			}

			return watch(cmd.Context(), f, config.Interval, scriptPath, secretsPath)
		},
	}
	cmd.Flags().String("secrets", "", "File with KEY=value secrets passed to the script")
	cmd.Flags().String("format", "json", "Output format: json or yaml")
	cmd.Flags().Duration("interval", 5*time.Minute, "Time between refreshes")
	return cmd
}

func mailNotifier(config MailConfig, scriptPath string) func(context.Context, string, models.Output) error {
	m := &mailer.Mailer{
		Host:     config.Host,
		Port:     config.Port,
		Username: config.User,
		Password: config.Pass,
		From:     config.From,
	}
	subject := "wassup: " + filepath.Base(scriptPath)
	return func(ctx context.Context, digest string, out models.Output) error {
		var buf bytes.Buffer
		if err := out.Encode(&buf); err != nil {
			return err
		}
		logger.Info("Sending digest.", "to", config.To)
		return m.Send(ctx, config.To, subject, digest, "output.json", bytes.NewReader(buf.Bytes()))
	}
}

// watch refreshes on every tick and shortly after the script or secrets
// file changes, until ctx is done.
func watch(ctx context.Context, f *refresher, interval time.Duration, paths ...string) error {
	oopsBuilder := oops.In("watch").With("interval", interval)
	logger := logger.WithPrefix("watch")

	if interval <= 0 {
		return oopsBuilder.Hint("interval must be positive").Errorf("invalid interval")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return oopsBuilder.Wrap(err)
	}
	defer watcher.Close()

	// Editors often replace files, so watch the directories and filter.
	watched := map[string]bool{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return oopsBuilder.With("path", p).Wrap(err)
		}
		watched[abs] = true
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return oopsBuilder.With("path", p).Wrap(err)
		}
	}

	refresh := func() {
		if err := f.refresh(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Refresh failed.", "error", err)
		}
	}
	refresh()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var debounce <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			refresh()
		case <-debounce:
			debounce = nil
			logger.Info("Inputs changed; refreshing.")
			refresh()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(ev.Name)
			if watched[name] && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce = time.After(debounceDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error.", "error", err)
		}
	}
}
