package models

import (
	"fmt"
	"strings"
)

// Route is an unordered airport pair. A and B are stored in alphabetical
// order so that A→B and B→A share one cache entry.
type Route struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewRoute normalises an origin/destination pair into a Route.
func NewRoute(origin, dest string) Route {
	o := strings.ToUpper(strings.TrimSpace(origin))
	d := strings.ToUpper(strings.TrimSpace(dest))
	if d < o {
		o, d = d, o
	}
	return Route{A: o, B: d}
}

// Key returns the route's storage key, e.g. "JFK-LAX".
func (r Route) Key() string {
	return r.A + "-" + r.B
}

func (r Route) String() string {
	return r.Key()
}

// ParseRouteKey is the inverse of Route.Key.
func ParseRouteKey(key string) (Route, error) {
	a, b, ok := strings.Cut(key, "-")
	if !ok || a == "" || b == "" {
		return Route{}, fmt.Errorf("invalid route key %q", key)
	}
	return NewRoute(a, b), nil
}
