package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit codes for granular error handling
const (
	ExitSuccess          = 0
	ExitExtractionFailed = 1
	ExitToolUnavailable  = 2
	ExitInvalidInput     = 3
	ExitConfigError      = 4
	ExitTimeout          = 5
	ExitCancelled        = 130
)

const version = "1.0.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "vidinfoctl",
	Short: "Run the vidinfo extraction engine from the command line",
	Long: `vidinfoctl runs the same fallback extraction engine as the vidinfo server,
in-process, without HTTP. Settings come from flags, then VIDINFO_* environment
variables, then an optional config file.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// exitErr carries a process exit code through cobra.
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }
func (e *exitErr) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitErr{code: code, err: err}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var ee *exitErr
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(ExitInvalidInput)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	pf.String("ytdlp-bin", "", "extraction tool executable (default yt-dlp)")
	pf.String("cookies-file", "", "cookies.txt passed to the tool when it exists")
	pf.String("strategies", "", "strategy list, e.g. web:webpage,web,ios")
	pf.Duration("attempt-timeout", 0, "per-attempt timeout (default 60s)")
	pf.Duration("request-timeout", 0, "whole-extraction budget (0 = none)")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	for _, name := range []string{"ytdlp-bin", "cookies-file", "strategies", "attempt-timeout", "request-timeout", "log-level"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}

	rootCmd.AddCommand(extractCmd, probeCmd, strategiesCmd)
}

func initConfig() {
	viper.SetEnvPrefix("VIDINFO")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		os.Exit(ExitConfigError)
	}
}
