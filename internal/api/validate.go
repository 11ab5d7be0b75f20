package api

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// validatePayload checks decoded responses against their validate tags.
// Slices and maps are checked element by element; nil pointers pass.
func validatePayload(v *validator.Validate, payload any) error {
	return validateValue(v, reflect.ValueOf(payload), "")
}

func validateValue(v *validator.Validate, rv reflect.Value, where string) error {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		if err := v.Struct(rv.Interface()); err != nil {
			if where != "" {
				return fmt.Errorf("%s: %w", where, err)
			}
			return err
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := validateValue(v, rv.Index(i), fmt.Sprintf("[%d]", i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if err := validateValue(v, iter.Value(), fmt.Sprintf("[%v]", iter.Key())); err != nil {
				return err
			}
		}
	}
	return nil
}
