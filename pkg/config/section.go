package config

import (
	"strconv"
	"strings"
)

// Section provides access to a config section with access tracking.
type Section struct {
	name     string
	options  map[string]string
	accessed map[string]struct{}
}

func newSection(name string, options map[string]string) *Section {
	opts := make(map[string]string, len(options))
	for k, v := range options {
		opts[strings.ToLower(k)] = v
	}
	return &Section{
		name:     name,
		options:  opts,
		accessed: make(map[string]struct{}),
	}
}

// GetName returns the section name.
func (s *Section) GetName() string {
	return s.name
}

func (s *Section) markAccessed(option string) {
	s.accessed[strings.ToLower(option)] = struct{}{}
}

// GetUnusedOptions returns the sorted options that were never read.
func (s *Section) GetUnusedOptions() []string {
	var result []string
	for _, opt := range sortedKeys(s.options) {
		if _, ok := s.accessed[opt]; !ok {
			result = append(result, opt)
		}
	}
	return result
}

// HasOption checks if an option exists in this section.
func (s *Section) HasOption(option string) bool {
	_, ok := s.options[strings.ToLower(option)]
	return ok
}

// Get returns a string option value.
// If a fallback is given and the option doesn't exist, returns the fallback.
func (s *Section) Get(option string, fallback ...string) (string, error) {
	s.markAccessed(option)
	if v, ok := s.options[strings.ToLower(option)]; ok {
		return v, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return "", ErrMissingOption(s.name, option)
}

// GetFloat returns a float64 option value.
func (s *Section) GetFloat(option string, fallback ...float64) (float64, error) {
	s.markAccessed(option)
	if v, ok := s.options[strings.ToLower(option)]; ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, ErrInvalidValue(s.name, option, v, "float")
		}
		return f, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return 0, ErrMissingOption(s.name, option)
}

// FloatBounds specifies bounds for GetFloatWithBounds.
type FloatBounds struct {
	MinVal *float64 // minimum value (>=)
	MaxVal *float64 // maximum value (<=)
	Above  *float64 // must be above this value (>)
}

// Float returns a pointer to v, for building FloatBounds.
func Float(v float64) *float64 {
	return &v
}

// GetFloatWithBounds returns a float64 option value with bounds checking.
func (s *Section) GetFloatWithBounds(option string, bounds FloatBounds, fallback ...float64) (float64, error) {
	v, err := s.GetFloat(option, fallback...)
	if err != nil {
		return 0, err
	}
	if bounds.MinVal != nil && v < *bounds.MinVal {
		return 0, ErrOutOfRange(s.name, option, v, "must have minimum of "+strconv.FormatFloat(*bounds.MinVal, 'f', -1, 64))
	}
	if bounds.MaxVal != nil && v > *bounds.MaxVal {
		return 0, ErrOutOfRange(s.name, option, v, "must have maximum of "+strconv.FormatFloat(*bounds.MaxVal, 'f', -1, 64))
	}
	if bounds.Above != nil && v <= *bounds.Above {
		return 0, ErrOutOfRange(s.name, option, v, "must be above "+strconv.FormatFloat(*bounds.Above, 'f', -1, 64))
	}
	return v, nil
}
