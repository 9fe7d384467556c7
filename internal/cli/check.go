package cli

import (
	"encoding/json"
	"fmt"
	"swissgrid-converter/internal/domain"
	"swissgrid-converter/internal/services"

	"github.com/spf13/cobra"
)

func newCheckCmd(deps Deps) *cobra.Command {
	var (
		n      int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare local and remote conversions on random points",
		Long: `Draws random points inside Switzerland for both directions, converts
them with the local transform and the remote service and prints the
distance between the two results per point.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, deps, n, asJSON)
		},
	}

	cmd.Flags().IntVarP(&n, "n", "n", 10, "number of random points per direction")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the report as JSON")
	return cmd
}

func runCheck(cmd *cobra.Command, deps Deps, n int, asJSON bool) error {
	if n < 1 || n > services.MaxCheckPoints {
		return fmt.Errorf("--n must be between 1 and %d", services.MaxCheckPoints)
	}

	ctx := cmd.Context()
	svc, closeFn, err := openService(ctx, deps)
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := svc.CheckConversion(ctx, n)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if asJSON {
		return outputCheckJSON(cmd, report)
	}
	outputCheckText(cmd, report)
	return nil
}

type checkJSON struct {
	Direction string      `json:"direction"`
	Points    [][]float64 `json:"points"`
	Distances []float64   `json:"distances"`
	Mean      float64     `json:"mean"`
	StdDev    float64     `json:"stddev"`
	Min       float64     `json:"min"`
	Max       float64     `json:"max"`
}

func outputCheckJSON(cmd *cobra.Command, report *services.CheckReport) error {
	out := make([]checkJSON, 0, len(domain.Directions))
	for _, d := range domain.Directions {
		s := report.Summary[d]
		points := make([][]float64, 0, len(report.Points[d]))
		for _, p := range report.Points[d] {
			points = append(points, p.ToList())
		}
		out = append(out, checkJSON{
			Direction: d.String(),
			Points:    points,
			Distances: report.Distances[d],
			Mean:      s.Mean,
			StdDev:    s.StdDev,
			Min:       s.Min,
			Max:       s.Max,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputCheckText(cmd *cobra.Command, report *services.CheckReport) {
	cmd.Println(checkIntro)
	for _, d := range domain.Directions {
		s := report.Summary[d]
		cmd.Println()
		cmd.Printf("%s (%d points)\n", d, s.Count)
		for i, dist := range report.Distances[d] {
			p := report.Points[d][i]
			cmd.Printf("  [%d] %.6f, %.6f  %.9g\n", i+1, p.E, p.N, dist)
		}
		cmd.Printf("  mean=%.9g stddev=%.9g min=%.9g max=%.9g\n", s.Mean, s.StdDev, s.Min, s.Max)
	}
}
