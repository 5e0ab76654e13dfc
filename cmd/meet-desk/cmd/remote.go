package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/meet-desk/internal/domain/meet"
	"github.com/oshokin/meet-desk/internal/domain/risingbar"
	"github.com/oshokin/meet-desk/internal/logger"
	"github.com/oshokin/meet-desk/internal/service/common"
)

var (
	// deskAddress overrides grpc_addr for commands that call the desk.
	deskAddress string
	// queueLimit caps the printed queue.
	queueLimit int

	queueCmd = &cobra.Command{
		Use:   "queue <contest-id>",
		Short: "Print who lifts next.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client *common.Client) error {
				result, err := client.Queue(ctx, args[0], queueLimit)
				if err != nil {
					return err
				}

				return printQueue(cmd.OutOrStdout(), &result)
			})
		},
	}

	currentCmd = &cobra.Command{
		Use:   "current <contest-id>",
		Short: "Print the attempt on the platform.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client *common.Client) error {
				current, err := client.CurrentAttempt(ctx, args[0])
				if err != nil {
					return err
				}

				printCurrent(cmd.OutOrStdout(), current)

				return nil
			})
		},
	}

	declareCmd = &cobra.Command{
		Use:   "declare <attempt-id> <weight>",
		Short: "Declare the weight of a pending attempt.",
		Long: `Declares the requested weight of a pending attempt. Weights that cannot be
loaded with the platform plates are refused with the nearest loadable weight.`,
		Args: cobra.ExactArgs(2), //nolint:mnd // Attempt and weight.
		RunE: func(cmd *cobra.Command, args []string) error {
			weight, err := parseWeight(args[1])
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client *common.Client) error {
				attempt, callErr := client.SubmitAttemptWeight(ctx, args[0], weight)
				if callErr != nil {
					return callErr
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s #%d declared at %.2f kg\n",
					attempt.ID, attempt.LiftType, attempt.AttemptNumber, attempt.Weight)

				return nil
			})
		},
	}

	judgeCmd = &cobra.Command{
		Use:   "judge <attempt-id> <good|no|pending>",
		Short: "Record the judges' decision.",
		Args:  cobra.ExactArgs(2), //nolint:mnd // Attempt and decision.
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := parseDecision(args[1])
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client *common.Client) error {
				attempt, callErr := client.RecordAttemptResult(ctx, args[0], status)
				if callErr != nil {
					return callErr
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", attempt.ID, attempt.Status)

				return nil
			})
		},
	}

	callCmd = &cobra.Command{
		Use:   "call <contest-id> <attempt-id>",
		Short: "Call an attempt to the platform.",
		Args:  cobra.ExactArgs(2), //nolint:mnd // Contest and attempt.
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client *common.Client) error {
				current, err := client.SetCurrentAttempt(ctx, args[0], args[1])
				if err != nil {
					return err
				}

				printCurrent(cmd.OutOrStdout(), current)

				return nil
			})
		},
	}

	clearCmd = &cobra.Command{
		Use:   "clear <contest-id>",
		Short: "Clear the platform.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client *common.Client) error {
				return client.ClearCurrentAttempt(ctx, args[0])
			})
		},
	}
)

// withClient loads settings, connects to the desk and runs fn.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, client *common.Client) error) error {
	ctx := logger.WithName(cmd.Context(), "meet-desk-client")
	if logLevel == "" {
		// Keep dial chatter out of the tables printed on stdout.
		ctx = logger.WithMinLevel(ctx, zapcore.WarnLevel)
	}

	settings, err := loadSettings(ctx)
	if err != nil {
		return err
	}

	address := settings.GRPCAddress
	if deskAddress != "" {
		address = deskAddress
	}

	operator, err := common.DetectOperator()
	if err != nil {
		logger.WarnKV(ctx, "Operator unknown", "error", err)
	}

	client, err := common.Dial(ctx, address,
		common.WithCallTimeout(settings.Timeout),
		common.WithOperator(operator),
	)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	return fn(ctx, client)
}

func printQueue(w io.Writer, result *risingbar.Result) error {
	_, _ = fmt.Fprintf(w, "%s, attempt %d\n", result.Phase.LiftType, result.Phase.AttemptNumber)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0) //nolint:mnd // Column padding.
	_, _ = fmt.Fprintln(tw, "#\tWEIGHT\tLOT\tATTEMPT")

	for i, attempt := range result.Attempts {
		lot := "-"
		if attempt.CompetitionOrder != nil {
			lot = strconv.Itoa(*attempt.CompetitionOrder)
		}

		_, _ = fmt.Fprintf(tw, "%d\t%.2f\t%s\t%s\n", i+1, attempt.Weight, lot, attempt.ID)
	}

	return tw.Flush()
}

func printCurrent(w io.Writer, current *meet.CurrentAttempt) {
	if current == nil {
		_, _ = fmt.Fprintln(w, "platform is clear")

		return
	}

	_, _ = fmt.Fprintf(w, "%s: %s #%d, %.2f kg (%s)\n",
		current.CompetitorName, current.LiftType, current.AttemptNumber, current.Weight, current.Status)
}

func parseDecision(value string) (meet.AttemptStatus, error) {
	switch value {
	case "good", "white":
		return meet.StatusSuccessful, nil
	case "no", "red":
		return meet.StatusFailed, nil
	}

	status, ok := meet.ParseAttemptStatus(value)
	if !ok {
		return "", fmt.Errorf("unknown decision %q", value) //nolint:err113 // User input.
	}

	return status, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&deskAddress, "address", "a", "", "desk address, overrides grpc_addr")
	queueCmd.Flags().IntVarP(&queueLimit, "limit", "n", 0, "number of attempts to show, 0 uses queue_limit")

	rootCmd.AddCommand(queueCmd, currentCmd, declareCmd, judgeCmd, callCmd, clearCmd)
}
