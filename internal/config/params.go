package config

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/counterfall/internal/counter"
)

// ErrNotInteger is returned when a fractional value is set on an integer
// tunable.
var ErrNotInteger = errors.New("value is not an integer")

// ParamNames lists the YAML keys of the numeric physics tunables.
func ParamNames() []string {
	m, err := paramMap(counter.DefaultParams())
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetParam sets one physics tunable by its YAML key. Integer tunables only
// accept integral values.
func SetParam(p *counter.Params, name string, value float64) error {
	m, err := paramMap(*p)
	if err != nil {
		return err
	}
	cur, ok := m[name]
	if !ok {
		return fmt.Errorf("unknown physics parameter %q", name)
	}
	if _, isInt := cur.(int); isInt {
		if value != math.Trunc(value) || math.IsInf(value, 0) {
			return fmt.Errorf("set %s to %v: %w", name, value, ErrNotInteger)
		}
		m[name] = int(value)
	} else {
		m[name] = value
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	var out counter.Params
	if err := yaml.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	*p = out
	return nil
}

// GetParam reads one physics tunable by its YAML key.
func GetParam(p counter.Params, name string) (float64, error) {
	m, err := paramMap(p)
	if err != nil {
		return 0, err
	}
	switch v := m[name].(type) {
	case int:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("unknown physics parameter %q", name)
	}
}

// SnapParam rounds value to the nearest integer when name is an integer
// tunable and returns it unchanged otherwise. Searches over continuous
// ranges use it before SetParam.
func SnapParam(name string, value float64) float64 {
	m, err := paramMap(counter.DefaultParams())
	if err != nil {
		return value
	}
	if _, isInt := m[name].(int); isInt {
		return math.Round(value)
	}
	return value
}

func paramMap(p counter.Params) (map[string]any, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, err
	}
	m := make(map[string]any)
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
