package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts either a Go duration string ("45s", "5m") or a bare
// number. Bare numbers are taken as minutes, the unit of the legacy
// schedule_interval field.
type Duration time.Duration

// Std returns the value as a standard time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return d.decode(v)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	return d.decode(v)
}

func (d *Duration) decode(v any) error {
	switch x := v.(type) {
	case float64:
		*d = Duration(time.Duration(x * float64(time.Minute)))
	case int:
		*d = Duration(time.Duration(x) * time.Minute)
	case string:
		s := strings.TrimSpace(x)
		if dur, err := time.ParseDuration(s); err == nil {
			*d = Duration(dur)
			return nil
		}
		if n, err := strconv.Atoi(s); err == nil {
			*d = Duration(time.Duration(n) * time.Minute)
			return nil
		}
		return fmt.Errorf("invalid duration %q", x)
	default:
		return fmt.Errorf("invalid duration value %v", v)
	}
	return nil
}
