package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newGridCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "grid",
		Short: "Locate or download the CHENyx06 correction grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deps.EnsureGrid == nil {
				return errors.New("grid bootstrap not configured")
			}
			info, err := deps.EnsureGrid(cmd.Context())
			if err != nil {
				return fmt.Errorf("grid bootstrap failed: %w", err)
			}
			if info.Downloaded {
				cmd.Println("Download successful!")
			}
			cmd.Printf("Using shiftfile %s\n", info.Path)
			cmd.Printf("Search path: %s\n", info.SearchPath)
			return nil
		},
	}
}
