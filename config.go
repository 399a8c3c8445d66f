package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/senpro-it/wassup/models"
	"github.com/senpro-it/wassup/runner"
)

type MailConfig struct {
	Host      string
	Port      int
	User      string
	Pass      string
	From      string
	To        []string
	Threshold models.Alert
}

type Config struct {
	Runner   runner.Config
	Interval time.Duration
	Verbose  bool
	Mail     MailConfig
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"module-root":     "module_root",
	"go":              "go",
	"timeout":         "timeout",
	"compile-timeout": "compile_timeout",
	"keep-artifacts":  "keep_artifacts",
	"concurrency":     "concurrency",
	"verbose":         "verbose",
}

func addConfigFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Config file (default ./wassup.yaml or $HOME/.config/wassup/wassup.yaml)")
	flags.String("module-root", "", "Checkout of the wassup module scripts are compiled against (default: search upwards from the working directory)")
	flags.String("go", "go", "Go toolchain binary")
	flags.Duration("timeout", runner.DefaultRunTimeout, "Maximum run time of a compiled script")
	flags.Duration("compile-timeout", runner.DefaultCompileTimeout, "Maximum compile time of a script")
	flags.Bool("keep-artifacts", false, "Keep the generated program and executable")
	flags.Int("concurrency", 0, "Panes evaluated in parallel by the script (0 uses the script default)")
	flags.BoolP("verbose", "v", false, "Enable debug logs")
}

func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	oopsBuilder := oops.In("newViper")
	v := viper.NewWithOptions(viper.WithLogger(slog.New(logger)))

	for flag, key := range flagKeys {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, oopsBuilder.With("flag", flag).Wrap(err)
			}
		}
	}
	for _, flag := range []string{"interval", "format"} {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(flag, f); err != nil {
				return nil, oopsBuilder.With("flag", flag).Wrap(err)
			}
		}
	}

	v.SetDefault("mail.port", 465)
	v.SetDefault("mail.threshold", string(models.AlertLow))
	v.SetDefault("interval", 5*time.Minute)

	if path, _ := flags.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("wassup")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "wassup"))
		}
	}

	v.SetEnvPrefix("wassup")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Debug("No config file found; using flags and ENV.")
		} else {
			return nil, oopsBuilder.Wrap(err)
		}
	}
	return v, nil
}

func loadConfig(v *viper.Viper) (Config, error) {
	oopsBuilder := oops.In("loadConfig")

	threshold, err := models.ParseAlert(v.GetString("mail.threshold"))
	if err != nil {
		return Config{}, oopsBuilder.Wrap(err)
	}

	config := Config{
		Runner: runner.Config{
			ModuleRoot:     v.GetString("module_root"),
			GoBinary:       v.GetString("go"),
			CompileTimeout: v.GetDuration("compile_timeout"),
			RunTimeout:     v.GetDuration("timeout"),
			KeepArtifacts:  v.GetBool("keep_artifacts"),
			Concurrency:    v.GetInt("concurrency"),
		},
		Interval: v.GetDuration("interval"),
		Verbose:  v.GetBool("verbose"),
		Mail: MailConfig{
			Host:      v.GetString("mail.host"),
			Port:      v.GetInt("mail.port"),
			User:      v.GetString("mail.user"),
			Pass:      v.GetString("mail.pass"),
			From:      v.GetString("mail.from"),
			To:        splitList(v.GetStringSlice("mail.to")),
			Threshold: threshold,
		},
	}
	if config.Verbose {
		config.Runner.LogLevel = "debug"
	}

	if config.Runner.ModuleRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, oopsBuilder.Wrap(err)
		}
		root, err := runner.FindModuleRoot(wd)
		if err != nil {
			return Config{}, oopsBuilder.Wrap(err)
		}
		config.Runner.ModuleRoot = root
	}
	return config, nil
}

// splitList accepts both yaml lists and comma separated env values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
