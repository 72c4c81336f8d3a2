package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decode fills out from a 2xx body. A *string receives the raw text (the
// login endpoint answers with a bare token). Anything else is JSON, and
// structs (or slices of structs) are validated against their validate tags.
func decode(data []byte, out any) error {
	if sp, ok := out.(*string); ok {
		*sp = string(data)
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("empty body")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return validateValue(out)
}

func validateValue(out any) error {
	rv := reflect.Indirect(reflect.ValueOf(out))
	switch rv.Kind() {
	case reflect.Struct:
		return describe(validate.Struct(rv.Interface()), -1)
	case reflect.Slice:
		elem := rv.Type().Elem()
		if elem.Kind() != reflect.Struct {
			return nil
		}
		for i := 0; i < rv.Len(); i++ {
			if err := describe(validate.Struct(rv.Index(i).Interface()), i); err != nil {
				return err
			}
		}
	}
	return nil
}

// describe flattens validator errors into one line naming the failed fields.
func describe(err error, index int) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	msg := strings.Join(parts, ", ")
	if index >= 0 {
		return fmt.Errorf("element %d: %s", index, msg)
	}
	return errors.New(msg)
}
