package ports

import "context"

// Location of the correction grid and the search path it was resolved against.
type GridInfo struct {
	Path       string
	SearchPath string
	Downloaded bool
}

// Contract for making the correction grid available on local disk.
type GridLocator interface {
	Ensure(ctx context.Context) (GridInfo, error)
}
