package domain

import (
	"fmt"
	"strings"
)

// Conversion strategy selected by the caller.
type Method string

const (
	// PROJ pipeline evaluated in process.
	MethodLocal Method = "local"
	// swisstopo REFRAME web service.
	MethodRemote Method = "remote"
)

// Both methods in reporting order.
var Methods = []Method{MethodRemote, MethodLocal}

// ParseMethod accepts the method names and the historic "proj4"/"rest" aliases.
// The empty string selects the local transform.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "local", "proj", "proj4":
		return MethodLocal, nil
	case "remote", "rest", "reframe":
		return MethodRemote, nil
	}
	return "", fmt.Errorf("parse method: unknown method %q", s)
}

func (m Method) String() string { return string(m) }
