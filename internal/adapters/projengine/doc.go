// Package projengine converts between LV03 and WGS84 in process with the PROJ
// library (https://proj.org) through github.com/pebbe/proj/v5.
//
// Building it requires cgo and libproj. Binaries built with CGO_ENABLED=0
// get a stub whose conversions fail with domain.ErrEngineUnavailable.
package projengine
