package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"raspguard/internal/detection"
)

type verdict struct {
	Input string `json:"input"`
	detection.Result
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		mode      string
		context   string
		failFound bool
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "rasp-scan [payload...]",
		Short: "Classify payloads as safe or as an attack",
		Long: "rasp-scan runs the payload inspection engine over each argument, or over each\n" +
			"line of standard input when no arguments are given, and prints one JSON verdict\n" +
			"per payload.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := detection.ParseMode(mode)
			if err != nil {
				return err
			}
			level := slog.LevelError
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			engine, err := detection.New(m, logger)
			if err != nil {
				return err
			}

			threats, err := scan(engine, args, cmd.InOrStdin(), cmd.OutOrStdout(), context)
			if err != nil {
				return err
			}
			if failFound && threats > 0 {
				return fmt.Errorf("%d threat(s) found", threats)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(detection.ModeComposite), "engine mode: off, sql, xss or composite")
	cmd.Flags().StringVarP(&context, "context", "c", "cli", "context label attached to each inspection")
	cmd.Flags().BoolVar(&failFound, "fail", false, "exit non-zero when any threat is found")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log detections to stderr")
	return cmd
}

// scan inspects args, or every line of in when args is empty, and writes a
// JSON verdict per payload to out. It returns the number of threats.
func scan(engine detection.Engine, args []string, in io.Reader, out io.Writer, context string) (int, error) {
	enc := json.NewEncoder(out)
	threats := 0
	emit := func(payload string) error {
		res := engine.Inspect(payload, context)
		if res.IsThreat {
			threats++
		}
		return enc.Encode(verdict{Input: payload, Result: res})
	}

	if len(args) > 0 {
		for _, a := range args {
			if err := emit(a); err != nil {
				return threats, err
			}
		}
		return threats, nil
	}

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if err := emit(sc.Text()); err != nil {
			return threats, err
		}
	}
	if err := sc.Err(); err != nil {
		return threats, fmt.Errorf("read input: %w", err)
	}
	return threats, nil
}
