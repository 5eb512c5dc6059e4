package executor

import (
	errs "github.com/gridbase/gridgate/internal/errors"
)

// Args is the untyped argument map of one protocol call.
type Args map[string]any

// String returns a required string argument.
func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", errs.Wrapf(errs.ErrInvalidArgument, "missing argument %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", errs.Wrapf(errs.ErrInvalidArgument, "argument %q must be a non-empty string", key)
	}
	return s, nil
}

// OptionalString returns a string argument or "" when absent.
func (a Args) OptionalString(key string) string {
	s, _ := a[key].(string)
	return s
}

// Bool returns a boolean argument, false when absent or mistyped.
func (a Args) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Int returns an integer argument, falling back to def when absent.
// JSON decoding delivers numbers as float64.
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// Map returns a required object argument.
func (a Args) Map(key string) (map[string]any, error) {
	v, ok := a[key]
	if !ok {
		return nil, errs.Wrapf(errs.ErrInvalidArgument, "missing argument %q", key)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errs.Wrapf(errs.ErrInvalidArgument, "argument %q must be an object", key)
	}
	return m, nil
}

// StringSlice returns a required array-of-strings argument.
func (a Args) StringSlice(key string) ([]string, error) {
	v, ok := a[key]
	if !ok {
		return nil, errs.Wrapf(errs.ErrInvalidArgument, "missing argument %q", key)
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, errs.Wrapf(errs.ErrInvalidArgument, "argument %q must be an array of strings", key)
	}
	out := make([]string, 0, len(raw))
	for i, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, errs.Wrapf(errs.ErrInvalidArgument, "argument %q[%d] must be a string", key, i)
		}
		out = append(out, s)
	}
	return out, nil
}
