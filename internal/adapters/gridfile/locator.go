package gridfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"swissgrid-converter/internal/domain"
	"swissgrid-converter/internal/platform/obs"
	"swissgrid-converter/internal/ports"
)

const chunkSize = 1 << 20

// Options configure where the correction grid is looked for and fetched from.
type Options struct {
	Name       string
	URL        string
	Dir        string // download target, usually the working directory
	SearchPath string // colon (or OS list separator) delimited directories
	Download   bool
}

// Locator makes the correction grid available on disk.
//
// It never modifies the process environment: the effective search path is
// returned to the caller, who passes the grid path to the projection engine.
type Locator struct {
	opts   Options
	client *http.Client
}

var _ ports.GridLocator = (*Locator)(nil)

func NewLocator(opts Options, client *http.Client) (*Locator, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return nil, errors.New("grid locator: grid name is empty")
	}
	if opts.Name != filepath.Base(opts.Name) {
		return nil, fmt.Errorf("grid locator: grid name %q must not contain a directory", opts.Name)
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if client == nil {
		// The grid is a few megabytes; no overall timeout, the context bounds it.
		client = &http.Client{}
	}
	return &Locator{opts: opts, client: client}, nil
}

// Ensure returns the absolute path of the correction grid, downloading it
// into the target directory when it is neither on the search path nor there.
// Subsequent calls find the file and issue no request.
func (l *Locator) Ensure(ctx context.Context) (_ ports.GridInfo, err error) {
	defer obs.Time(ctx, "grid.Ensure")(&err)

	if path, ok := l.find(); ok {
		log.Printf("Found shiftfile: %s", path)
		return ports.GridInfo{Path: path, SearchPath: l.opts.SearchPath}, nil
	}

	dir, err := filepath.Abs(l.opts.Dir)
	if err != nil {
		return ports.GridInfo{}, fmt.Errorf("ensure grid: resolve %q: %w", l.opts.Dir, err)
	}
	target := filepath.Join(dir, l.opts.Name)
	searchPath := AppendSearchPath(l.opts.SearchPath, dir)

	if isFile(target) {
		log.Printf("Using shiftfile %s search_path=%s", target, searchPath)
		return ports.GridInfo{Path: target, SearchPath: searchPath}, nil
	}

	if !l.opts.Download {
		return ports.GridInfo{}, fmt.Errorf("ensure grid: %w: %q not in %q", domain.ErrGridNotFound, l.opts.Name, searchPath)
	}

	log.Printf("No shiftfile found. Trying to download url=%s", l.opts.URL)
	if err := l.download(ctx, target); err != nil {
		return ports.GridInfo{}, fmt.Errorf("ensure grid: %w", err)
	}
	log.Printf("Download successful path=%s search_path=%s", target, searchPath)

	return ports.GridInfo{Path: target, SearchPath: searchPath, Downloaded: true}, nil
}

// find looks for the grid in the search path directories, first hit wins.
func (l *Locator) find() (string, bool) {
	for _, dir := range filepath.SplitList(l.opts.SearchPath) {
		if dir == "" {
			continue
		}
		p := filepath.Join(dir, l.opts.Name)
		if !isFile(p) {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		return p, true
	}
	return "", false
}

// download streams the grid into a temporary file next to target and renames
// it once the body is complete, so a failed transfer leaves nothing behind.
func (l *Locator) download(ctx context.Context, target string) (err error) {
	if l.opts.URL == "" {
		return fmt.Errorf("download grid: %w: no download URL configured", domain.ErrGridNotFound)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.opts.URL, nil)
	if err != nil {
		return fmt.Errorf("download grid: create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("download grid: execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.TransportError{
			Op:         "download grid",
			URL:        l.opts.URL,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), l.opts.Name+".*.part")
	if err != nil {
		return fmt.Errorf("download grid: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = io.CopyBuffer(tmp, resp.Body, make([]byte, chunkSize)); err != nil {
		tmp.Close()
		return fmt.Errorf("download grid: write %q: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("download grid: close %q: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("download grid: rename to %q: %w", target, err)
	}

	return nil
}

// AppendSearchPath adds dir to a list-separated search path unless present.
func AppendSearchPath(searchPath, dir string) string {
	if searchPath == "" {
		return dir
	}
	for _, d := range filepath.SplitList(searchPath) {
		if d == dir {
			return searchPath
		}
	}
	return searchPath + string(os.PathListSeparator) + dir
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
