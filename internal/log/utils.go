package log

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
)

const separator = "--------------------------------------"

// PrintArray writes arr as JSON, or as field listings separated by rules.
func PrintArray[K any](ctx context.Context, arr []K, printJson bool, fieldNameReplacements map[string]string) {
	if printJson {
		data, _ := json.Marshal(arr)
		From(ctx).Println(string(data))
	} else {
		PrettyPrintArray(ctx, arr, fieldNameReplacements)
	}
}

func PrettyPrintArray[K any](ctx context.Context, arr []K, fieldNameReplacements map[string]string) {
	l := From(ctx)

	if len(arr) == 0 {
		l.Println("NO RESULTS")
		return
	}

	l.Println(separator)
	for _, item := range arr {
		PrettyPrint(ctx, item, fieldNameReplacements)
		l.Println(separator)
	}
}

func PrettyPrint(ctx context.Context, value interface{}, fieldNameReplacements map[string]string) {
	l := From(ctx)

	refVal := reflect.ValueOf(value)

	if refVal.Kind() == reflect.Ptr {
		refVal = refVal.Elem()
	}

	if refVal.Kind() != reflect.Struct {
		l.PrintlnUnstyled(value)
		return
	}

	for i := 0; i < refVal.NumField(); i++ {
		field := refVal.Type().Field(i)
		if !field.IsExported() {
			continue
		}
		fieldName := field.Name
		val := refVal.Field(i)

		if field.Type.Kind() == reflect.Ptr && !val.IsNil() {
			val = val.Elem()
		}

		var value any = val.Interface()

		switch val.Kind() {
		case reflect.Slice, reflect.Array:
			if strs, ok := value.([]string); ok {
				value = strings.Join(strs, ", ")
				break
			}
			data, _ := json.Marshal(value)
			value = string(data)
		case reflect.Struct, reflect.Map:
			data, _ := json.Marshal(value)
			value = string(data)
		}

		if replacement, ok := fieldNameReplacements[fieldName]; ok {
			fieldName = replacement
		}

		l.Printf("%s: %v", fieldName, value)
	}
}
