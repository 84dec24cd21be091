package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/blinkd/internal/nats"
)

type clientFlags struct {
	url     string
	timeout time.Duration
	asJSON  bool
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "nats-url", "nats://127.0.0.1:4222", "NATS server of the daemon")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 5*time.Second, "Request timeout")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print the raw JSON reply")
}

func (f *clientFlags) call(cmd *cobra.Command, fn func(context.Context, *nats.ControlClient) (any, error)) error {
	conn, err := nats.Connect(nats.ConnectOptions{URL: f.url, Name: "blinkd-cli", ConnectTimeout: f.timeout})
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	defer cancel()

	reply, err := fn(ctx, nats.NewControlClient(conn))
	if err != nil {
		return err
	}
	return printReply(cmd.OutOrStdout(), reply, f.asJSON)
}

func printReply(w io.Writer, reply any, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reply)
	}
	_, err := fmt.Fprintf(w, "%+v\n", reply)
	return err
}

// parseDelay parses a non-negative 32-bit millisecond count.
func parseDelay(s string) (int32, error) {
	ms, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("delay must be an integer between 0 and %d: %w", math.MaxInt32, err)
	}
	if ms < 0 {
		return 0, fmt.Errorf("delay must not be negative, got %d", ms)
	}
	return int32(ms), nil
}

// CreateSetDelayCmd creates the set-delay command.
func CreateSetDelayCmd() *cobra.Command {
	var flags clientFlags

	cmd := &cobra.Command{
		Use:          "set-delay <ms>",
		Short:        "Change the blink interval of a running daemon",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			delay, err := parseDelay(args[0])
			if err != nil {
				return err
			}
			return flags.call(cmd, func(ctx context.Context, c *nats.ControlClient) (any, error) {
				return c.SetDelay(ctx, delay)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

// CreateStatusCmd creates the status command.
func CreateStatusCmd() *cobra.Command {
	var flags clientFlags

	cmd := &cobra.Command{
		Use:          "status",
		Short:        "Show the state of a running daemon",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.call(cmd, func(ctx context.Context, c *nats.ControlClient) (any, error) {
				return c.Status(ctx)
			})
		},
	}
	flags.register(cmd)
	return cmd
}
