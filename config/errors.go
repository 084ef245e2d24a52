package config

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var (
	ErrOutOfRange    = errors.New("config value out of range")
	ErrInvalidOption = errors.New("invalid config option")
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Record string
	Field  string
	Value  any
	Min    any
	Max    any
	// Options lists the accepted values of an enumerated field.
	Options []string
}

func (e *ValidationError) Error() string {
	if e.Options != nil {
		return fmt.Sprintf("%s.%s = %v: must be one of %v", e.Record, e.Field, e.Value, e.Options)
	}
	return fmt.Sprintf("%s.%s = %v: must be within [%v, %v]", e.Record, e.Field, e.Value, e.Min, e.Max)
}

func (e *ValidationError) Unwrap() error {
	if e.Options != nil {
		return ErrInvalidOption
	}
	return ErrOutOfRange
}

// validator collects field errors for one record.
type validator struct {
	record string
	errs   []error
}

func (v *validator) err() error {
	return errors.Join(v.errs...)
}

func checkRange[T cmp.Ordered](v *validator, field string, val, lo, hi T) {
	if val < lo || val > hi {
		v.errs = append(v.errs, &ValidationError{Record: v.record, Field: field, Value: val, Min: lo, Max: hi})
	}
}

func checkOption[T ~string](v *validator, field string, val T, options []T) {
	if slices.Contains(options, val) {
		return
	}
	names := make([]string, len(options))
	for i, o := range options {
		names[i] = string(o)
	}
	v.errs = append(v.errs, &ValidationError{Record: v.record, Field: field, Value: val, Options: names})
}

// optionOr returns val if it is one of options and def otherwise.
func optionOr[T ~string](val T, options []T, def T) T {
	if slices.Contains(options, val) {
		return val
	}
	return def
}
