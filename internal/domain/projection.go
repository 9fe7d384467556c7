package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// One PROJ parameter. An empty Value renders as a bare flag (+no_defs).
type ProjParam struct {
	Key   string
	Value string
}

// ProjectionDefinition is an ordered, named set of PROJ parameters.
// Values are copied on construction and every modifier returns a new
// definition, so instances can be shared freely.
type ProjectionDefinition struct {
	name   string
	params []ProjParam
}

func NewProjectionDefinition(name string, params ...ProjParam) ProjectionDefinition {
	cp := make([]ProjParam, len(params))
	copy(cp, params)
	return ProjectionDefinition{name: name, params: cp}
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Default name of the CHENyx06 NTv2 correction grid.
const DefaultGridName = "chenyx06etrs.gsb"

// CH1903 -> WGS84 three parameter shift, used when no correction grid is given.
const ch1903ToWGS84 = "674.374,15.056,405.346"

var (
	// Swiss grid CH1903 / LV03.
	LV03Definition = NewProjectionDefinition("lv03",
		ProjParam{"proj", "somerc"},
		ProjParam{"lat_0", num(46.95240555555556)},
		ProjParam{"lon_0", num(7.439583333333333)},
		ProjParam{"k_0", "1"},
		ProjParam{"x_0", num(600000.0)},
		ProjParam{"y_0", num(200000.0)},
		ProjParam{"ellps", "bessel"},
		ProjParam{"units", "m"},
		ProjParam{"nadgrids", DefaultGridName},
		ProjParam{"no_defs", ""},
	)

	// Geographic WGS84 longitude/latitude.
	WGS84Definition = NewProjectionDefinition("wgs84",
		ProjParam{"proj", "latlon"},
		ProjParam{"ellps", "WGS84"},
		ProjParam{"datum", "WGS84"},
		ProjParam{"no_defs", ""},
	)
)

func (d ProjectionDefinition) Name() string { return d.name }

// Params returns a copy of the parameters in definition order.
func (d ProjectionDefinition) Params() []ProjParam {
	cp := make([]ProjParam, len(d.params))
	copy(cp, d.params)
	return cp
}

// Get returns the value of key and whether it is present.
func (d ProjectionDefinition) Get(key string) (string, bool) {
	for _, p := range d.params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// With returns a copy with key set to value, replacing an existing entry in place.
func (d ProjectionDefinition) With(key, value string) ProjectionDefinition {
	out := d.Params()
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return ProjectionDefinition{name: d.name, params: out}
		}
	}
	out = append(out, ProjParam{Key: key, Value: value})
	return ProjectionDefinition{name: d.name, params: out}
}

// Without returns a copy with the given keys removed.
func (d ProjectionDefinition) Without(keys ...string) ProjectionDefinition {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	out := make([]ProjParam, 0, len(d.params))
	for _, p := range d.params {
		if _, ok := drop[p.Key]; ok {
			continue
		}
		out = append(out, p)
	}
	return ProjectionDefinition{name: d.name, params: out}
}

// WithGrid points the nadgrids parameter at an explicit file path.
func (d ProjectionDefinition) WithGrid(path string) ProjectionDefinition {
	return d.With("nadgrids", path)
}

// IsGeographic reports whether the definition is a plain longitude/latitude system.
func (d ProjectionDefinition) IsGeographic() bool {
	v, _ := d.Get("proj")
	switch v {
	case "latlon", "latlong", "lonlat", "longlat":
		return true
	}
	return false
}

// String renders the definition as a proj-string.
func (d ProjectionDefinition) String() string {
	parts := make([]string, 0, len(d.params))
	for _, p := range d.params {
		if p.Value == "" {
			parts = append(parts, "+"+p.Key)
			continue
		}
		parts = append(parts, "+"+p.Key+"="+p.Value)
	}
	return strings.Join(parts, " ")
}

// TransformPipeline builds a PROJ pipeline whose forward direction converts
// grid coordinates (meters) to geodetic coordinates (degrees).
//
// With a gridPath the datum shift uses the NTv2 correction grid; without one
// it falls back to a three parameter Helmert shift, which is accurate to a
// few meters only.
func TransformPipeline(grid, geodetic ProjectionDefinition, gridPath string) (string, error) {
	if grid.IsGeographic() {
		return "", fmt.Errorf("transform pipeline: %q is not a projected definition", grid.Name())
	}
	if !geodetic.IsGeographic() {
		return "", fmt.Errorf("transform pipeline: %q is not a geographic definition", geodetic.Name())
	}

	ellps, ok := grid.Get("ellps")
	if !ok {
		return "", fmt.Errorf("transform pipeline: %q has no ellipsoid", grid.Name())
	}
	target, ok := geodetic.Get("ellps")
	if !ok {
		target = "WGS84"
	}

	projection := grid.Without("nadgrids", "units", "no_defs", "towgs84")

	steps := []string{
		"+proj=pipeline",
		"+step +inv " + projection.String(),
	}
	if gridPath != "" {
		steps = append(steps, "+step +proj=hgridshift +grids="+gridPath)
	} else {
		shift := ch1903ToWGS84
		if v, ok := grid.Get("towgs84"); ok {
			shift = v
		}
		xyz := strings.Split(shift, ",")
		if len(xyz) < 3 {
			return "", fmt.Errorf("transform pipeline: invalid towgs84 %q", shift)
		}
		steps = append(steps,
			"+step +proj=cart +ellps="+ellps,
			"+step +proj=helmert +x="+xyz[0]+" +y="+xyz[1]+" +z="+xyz[2],
			"+step +inv +proj=cart +ellps="+target,
		)
	}
	steps = append(steps, "+step +proj=unitconvert +xy_in=rad +xy_out=deg")

	return strings.Join(steps, " "), nil
}
