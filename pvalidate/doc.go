// Package pvalidate provides construction-time validation for operator
// configuration (window sizes, batch sizes, top-k counts, and similar).
//
// It supports both struct tag validation (via go-playground/validator) and
// programmatic validation with error collection, producing
// perrors.InvalidArgument on failure either way.
//
// # Struct Tag Validation
//
//	type WindowFixedConfig struct {
//	    SizeNanos int64 `json:"size_nanos" validate:"required,gt=0"`
//	}
//	err := pvalidate.Validate(cfg)
//
// # Programmatic Validation
//
//	v := pvalidate.New()
//	v.Custom(k > 0, "k", "must be greater than 0")
//	err := v.Validate()
package pvalidate
