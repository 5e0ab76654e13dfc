package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oshokin/meet-desk/internal/domain/meet"
	"github.com/oshokin/meet-desk/internal/domain/plates"
	"github.com/oshokin/meet-desk/internal/service/common"
)

var (
	// gender selects the bar for weight commands.
	gender string
	// remote asks the running desk instead of the local settings.
	remote bool

	errInvalidWeight = errors.New("weight must be a number")

	checkWeightCmd = &cobra.Command{
		Use:   "check-weight <weight>",
		Short: "Check whether a weight can be loaded.",
		Long: `Checks a weight against the plates and bars from the settings file, or against
the running desk with --remote, and prints the nearest loadable weight.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weight, err := parseWeight(args[0])
			if err != nil {
				return err
			}

			g, _ := meet.ParseGender(gender)

			var check plates.LoadCheck

			if remote {
				err = withClient(cmd, func(ctx context.Context, client *common.Client) error {
					var callErr error

					check, callErr = client.EvaluateWeight(ctx, weight, g)

					return callErr
				})
			} else {
				check, err = localCheck(cmd.Context(), weight, g)
			}

			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if check.Loadable {
				_, _ = fmt.Fprintf(out, "%.2f kg is loadable on the %.2f kg bar\n", check.Normalized, check.BarWeight)

				return nil
			}

			_, _ = fmt.Fprintf(out, "%.2f kg is not loadable (%s); nearest is %.2f kg, step %.2f kg\n",
				weight, check.Reason, check.Normalized, check.Increment)

			return nil
		},
	}

	planCmd = &cobra.Command{
		Use:   "plan <weight>",
		Short: "Print the loading sheet for a weight.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weight, err := parseWeight(args[0])
			if err != nil {
				return err
			}

			settings, err := loadSettings(cmd.Context())
			if err != nil {
				return err
			}

			g, _ := meet.ParseGender(gender)
			plan := plates.NewValidator(settings.PlateConfig()).Plan(weight, g, settings.ClampWeight)

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "bar %.2f kg, clamps 2 x %.2f kg\n", plan.BarWeight, plan.ClampWeightPerClamp)

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0) //nolint:mnd // Column padding.
			_, _ = fmt.Fprintln(tw, "PLATE\tPER SIDE\tCOLOR")

			for _, entry := range plan.Plates {
				_, _ = fmt.Fprintf(tw, "%.2f\t%d\t%s\n", entry.PlateWeight, entry.Count, entry.Color)
			}

			if err = tw.Flush(); err != nil {
				return err
			}

			if !plan.Exact {
				_, _ = fmt.Fprintf(out, "cannot reach %.2f kg exactly, loads %.2f kg\n", plan.TargetWeight, plan.Total)

				return nil
			}

			_, _ = fmt.Fprintf(out, "total %.2f kg\n", plan.Total)

			return nil
		},
	}
)

func localCheck(ctx context.Context, weight float64, g meet.Gender) (plates.LoadCheck, error) {
	settings, err := loadSettings(ctx)
	if err != nil {
		return plates.LoadCheck{}, err
	}

	return plates.NewValidator(settings.PlateConfig()).Evaluate(weight, g), nil
}

func parseWeight(value string) (float64, error) {
	weight, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(value, ",", ".")), 64)
	if err != nil || !meet.IsFinite(weight) {
		return 0, fmt.Errorf("%w: %q", errInvalidWeight, value)
	}

	return weight, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	for _, c := range []*cobra.Command{checkWeightCmd, planCmd} {
		c.Flags().StringVarP(&gender, "gender", "g", string(meet.PrimaryGender), "lifter gender: male or female")
	}

	checkWeightCmd.Flags().BoolVarP(&remote, "remote", "r", false, "ask the running desk")

	rootCmd.AddCommand(checkWeightCmd, planCmd)
}
