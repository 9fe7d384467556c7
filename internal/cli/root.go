// Package cli implements the swissgrid command line.
package cli

import (
	"context"
	"errors"
	"swissgrid-converter/internal/ports"
	"swissgrid-converter/internal/services"

	"github.com/spf13/cobra"
)

// Service is the part of services.Converter the commands use.
type Service interface {
	Convert(ctx context.Context, req services.ConvertRequest) (services.ConvertResult, error)
	CheckConversion(ctx context.Context, n int) (*services.CheckReport, error)
}

// Deps builds the runtime lazily so that --help and flag errors never touch
// the network or the grid file.
type Deps struct {
	// Open returns a ready service and a function releasing it.
	Open func(ctx context.Context) (Service, func() error, error)
	// EnsureGrid runs only the correction grid bootstrap.
	EnsureGrid func(ctx context.Context) (ports.GridInfo, error)
}

const checkIntro = `The distances between the points converted with the remote service
and the local transform, respectively. Distances are Euclidean in the
target system. For lon/lat results this is only indicative, but gives
an impression of the agreement nonetheless.`

// NewRootCmd returns the swissgrid command tree.
// Without a subcommand it runs the 10 point self-check.
func NewRootCmd(deps Deps) *cobra.Command {
	root := &cobra.Command{
		Use:   "swissgrid",
		Short: "Convert coordinates between Swiss LV03 and WGS84",
		Long: `Converts coordinates between the Swiss LV03 grid (CH1903) and WGS84
using either the local PROJ transform with the CHENyx06 grid shift or
swisstopo's REFRAME web service.

Run without a subcommand to compare both methods on 10 random points.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, deps, 10, false)
		},
	}

	root.AddCommand(newCheckCmd(deps), newConvertCmd(deps), newGridCmd(deps))
	return root
}

func openService(ctx context.Context, deps Deps) (Service, func() error, error) {
	if deps.Open == nil {
		return nil, nil, errors.New("converter not configured")
	}
	svc, closeFn, err := deps.Open(ctx)
	if err != nil {
		return nil, nil, err
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return svc, closeFn, nil
}
