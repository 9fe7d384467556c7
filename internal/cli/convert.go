package cli

import (
	"fmt"
	"strconv"
	"strings"
	"swissgrid-converter/internal/domain"
	"swissgrid-converter/internal/services"

	"github.com/spf13/cobra"
)

func newConvertCmd(deps Deps) *cobra.Command {
	var (
		method    string
		direction string
		strict    bool
	)

	cmd := &cobra.Command{
		Use:   "convert E,N [E,N...]",
		Short: "Convert points between LV03 and WGS84",
		Long: `Converts the given points. Each point is written as easting,northing
(or lon,lat). Without --direction the direction is inferred from the
magnitude of the values: any coordinate beyond 360/90 means LV03 input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := domain.ParseMethod(method)
			if err != nil {
				return err
			}
			d, err := domain.ParseDirection(direction)
			if err != nil {
				return err
			}
			points, err := parsePoints(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, closeFn, err := openService(ctx, deps)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := svc.Convert(ctx, services.ConvertRequest{
				Points:    points,
				Method:    m,
				Direction: d,
				Strict:    strict,
			})
			if err != nil {
				return fmt.Errorf("convert failed: %w", err)
			}

			cmd.Printf("# %s via %s\n", res.Direction, res.Method)
			for _, p := range res.Points {
				cmd.Printf("%s,%s\n", formatFloat(p.E), formatFloat(p.N))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "local", "conversion method: local or remote")
	cmd.Flags().StringVarP(&direction, "direction", "d", "auto", "auto, lv03towgs84 or wgs84tolv03")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject points whose magnitude contradicts the direction")
	return cmd
}

func parsePoints(args []string) ([]domain.Point, error) {
	points := make([]domain.Point, 0, len(args))
	for _, arg := range args {
		e, n, ok := strings.Cut(arg, ",")
		if !ok {
			return nil, fmt.Errorf("invalid point %q: want E,N", arg)
		}
		ef, err := strconv.ParseFloat(strings.TrimSpace(e), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid point %q: %w", arg, err)
		}
		nf, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid point %q: %w", arg, err)
		}
		points = append(points, domain.Point{E: ef, N: nf})
	}
	return points, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
