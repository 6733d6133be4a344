package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/use-agent/vidinfo/engine"
)

var (
	dryRun bool
	pretty bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract metadata for a video URL and print the JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that the extraction tool runs and print its version",
	Args:  cobra.NoArgs,
	RunE:  runProbe,
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the strategies tried, in order",
	Args:  cobra.NoArgs,
	RunE:  runStrategies,
}

func init() {
	extractCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the commands that would run instead of running them")
	extractCmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runExtract(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if dryRun {
		for i, inv := range eng.Plan(args[0]) {
			fmt.Fprintf(out, "# %d\n%s\n", i+1, shellLine(inv))
		}
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := eng.Extract(ctx, args[0])
	if err != nil {
		var exhausted *engine.ExhaustedError
		switch {
		case errors.As(err, &exhausted):
			return withCode(ExitExtractionFailed, err)
		case errors.Is(err, engine.ErrRequestTimeout):
			return withCode(ExitTimeout, err)
		case errors.Is(err, context.Canceled):
			return withCode(ExitCancelled, err)
		default:
			return withCode(ExitExtractionFailed, err)
		}
	}

	payload := []byte(result.Payload)
	if pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, payload, "", "  "); err == nil {
			payload = buf.Bytes()
		}
	}
	fmt.Fprintln(out, string(payload))
	return nil
}

func runProbe(cmd *cobra.Command, _ []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	probe := eng.Probe(ctx)
	if !probe.Available {
		return withCode(ExitToolUnavailable, errors.New("extraction tool not available"))
	}
	fmt.Fprintln(cmd.OutOrStdout(), probe.Version)
	return nil
}

func runStrategies(cmd *cobra.Command, _ []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	for i, s := range eng.Catalog() {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, s.Label())
	}
	return nil
}

// shellLine renders an invocation as a copy-pasteable command.
func shellLine(inv engine.Invocation) string {
	parts := make([]string, 0, len(inv.Args)+1)
	parts = append(parts, shellQuote(inv.Binary))
	for _, a := range inv.Args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`;&|<>()*?[]#~!{}") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
