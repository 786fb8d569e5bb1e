package console

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Format renders args the way they are displayed in captured output:
// strings verbatim, structured values as 2-space indented JSON, anything
// else with fmt.Sprint. Arguments are separated by a single space.
func Format(args ...any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = formatArg(a)
	}
	return strings.Join(parts, " ")
}

func formatArg(a any) string {
	switch v := a.(type) {
	case nil:
		return "null"
	case string:
		return v
	case json.Marshaler:
		return indentJSON(v)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	}

	switch reflect.ValueOf(a).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		return indentJSON(a)
	}
	return fmt.Sprint(a)
}

func indentJSON(a any) string {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Sprint(a)
	}
	return string(data)
}
