// Package validate provides struct-tag validation for request models.
//
// The only rule is presence:
//
//	required    pointers, maps, slices and interfaces must be non-nil;
//	            other kinds must be non-zero
//
// Pointer fields are how a request model says "must be sent, may be empty":
// a *string tagged required accepts "" but rejects a missing or null field.
//
//	type Input struct {
//	    Name *string `json:"name" validate:"required"`
//	}
package validate

import (
	"fmt"
	"reflect"
	"strings"
)

// Struct validates all exported fields of v that carry a `validate` tag.
// Returns a map of json field name → error message; empty map means valid.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		name := jsonFieldName(field)
		for _, rule := range strings.Split(tag, ",") {
			if msg := applyRule(strings.TrimSpace(rule), name, rv.Field(i)); msg != "" {
				errs[name] = msg
				break
			}
		}
	}

	return errs
}

// HasErrors returns true when the errs map is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func applyRule(rule, field string, v reflect.Value) string {
	switch rule {
	case "required":
		if isMissing(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}
	case "":
	default:
		panic(fmt.Sprintf("validate: unknown rule %q on field %s", rule, field))
	}
	return ""
}

func isMissing(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}
