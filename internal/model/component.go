package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Component is one of the behavioural indicators that make up the impulse score.
type Component int

const (
	Spike Component = iota
	Burst
	EOM
	Timing
	Category
	// NumComponents is the size of a feature vector.
	NumComponents int = iota
)

// Components lists all components in their fixed order.
// This order is used to break every tie.
var Components = []Component{Spike, Burst, EOM, Timing, Category}

var componentNames = [...]string{"spike", "burst", "eom", "timing", "category"}

var componentLabels = [...]string{
	"Spending spikes",
	"Burst buying",
	"End-of-month surge",
	"Timing triggers",
	"Category concentration",
}

// String returns the machine name of the component.
func (c Component) String() string {
	if c < 0 || int(c) >= NumComponents {
		return fmt.Sprintf("component(%d)", int(c))
	}
	return componentNames[c]
}

// Label returns the human readable name of the component.
func (c Component) Label() string {
	if c < 0 || int(c) >= NumComponents {
		return c.String()
	}
	return componentLabels[c]
}

// ParseComponent parses the machine name of a component.
func ParseComponent(s string) (Component, bool) {
	for i, n := range componentNames {
		if n == s {
			return Component(i), true
		}
	}
	return 0, false
}

// MarshalText encodes the component by its machine name.
func (c Component) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes the component from its machine name.
func (c *Component) UnmarshalText(b []byte) error {
	p, ok := ParseComponent(string(b))
	if !ok {
		return fmt.Errorf("unknown component: %s", b)
	}
	*c = p
	return nil
}

// ParseLabel parses either the human readable label or the machine name of a component.
func ParseLabel(s string) (Component, bool) {
	for i, l := range componentLabels {
		if strings.EqualFold(l, s) {
			return Component(i), true
		}
	}
	return ParseComponent(strings.ToLower(s))
}

// Vector holds one value per component.
type Vector [NumComponents]float64

// Get returns the value for the given component.
func (v Vector) Get(c Component) float64 {
	return v[c]
}

// Slice returns a copy of the vector as a slice.
func (v Vector) Slice() []float64 {
	s := make([]float64, NumComponents)
	copy(s, v[:])
	return s
}

// Map returns the vector keyed by component name.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, NumComponents)
	for _, c := range Components {
		m[c.String()] = v[c]
	}
	return m
}

// MarshalJSON encodes the vector as an object keyed by component name.
func (v Vector) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Map())
}

// UnmarshalJSON decodes a vector from an object keyed by component name.
func (v *Vector) UnmarshalJSON(b []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	for k, f := range m {
		c, ok := ParseComponent(k)
		if !ok {
			return fmt.Errorf("unknown component '%s'", k)
		}
		v[c] = f
	}
	return nil
}

// VectorOf creates a vector from a slice, ignoring extra values.
func VectorOf(ff []float64) Vector {
	var v Vector
	copy(v[:], ff)
	return v
}
