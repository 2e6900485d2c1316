package utils

import (
	"fmt"
	"reflect"
)

var ColumnTag = "db"

// StructTagValues returns the column names of a db-tagged struct, in field
// order. Untagged anonymous struct fields are flattened into the result the
// same way pgxscan flattens them when scanning.
func StructTagValues(input any) []string {

	targetValue := reflect.ValueOf(input)
	if targetValue.Kind() == reflect.Ptr {
		targetValue = targetValue.Elem()
	}

	if targetValue.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	result := make([]string, 0, targetValue.NumField())
	walkColumns(targetValue, func(column string, _ reflect.Value) {
		result = append(result, column)
	})

	return result

}

// StructToMap maps column name to field value for a db-tagged struct.
func StructToMap(input any) map[string]any {

	itemValue := reflect.ValueOf(input)
	if itemValue.Kind() == reflect.Ptr {
		itemValue = itemValue.Elem()
	}

	if itemValue.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	result := make(map[string]any)
	walkColumns(itemValue, func(column string, value reflect.Value) {
		result[column] = value.Interface()
	})

	return result

}

func walkColumns(v reflect.Value, fn func(column string, value reflect.Value)) {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)

		tagValue := field.Tag.Get(ColumnTag)
		if tagValue == "-" {
			continue
		}

		if field.Anonymous && tagValue == "" && field.Type.Kind() == reflect.Struct {
			walkColumns(v.Field(i), fn)
			continue
		}

		if field.PkgPath != "" || tagValue == "" {
			continue
		}

		fn(tagValue, v.Field(i))
	}
}

func ErrorWrapOrNil(err error, msg string) error {
	if err == nil {
		return nil
	}

	if msg == "" {
		return err
	}

	return fmt.Errorf("%s: %w", msg, err)

}
