package sandbox

import (
	"github.com/dop251/goja"

	"github.com/michaelbrown/polyrun/internal/console"
)

// consoleMethods maps the JavaScript console API onto channels.
var consoleMethods = map[string]console.Channel{
	"log":   console.Info,
	"info":  console.Info,
	"warn":  console.Warn,
	"error": console.Error,
	"debug": console.Trace,
	"trace": console.Trace,
}

// bindConsole installs a global console object whose methods emit on c.
// Each call resolves the channel at call time, so a capture installed on c
// sees every emission.
func bindConsole(vm *goja.Runtime, c *console.Console) error {
	obj := vm.NewObject()
	for name, ch := range consoleMethods {
		err := obj.Set(name, func(call goja.FunctionCall) goja.Value {
			args := make([]any, len(call.Arguments))
			for i, a := range call.Arguments {
				args[i] = export(a)
			}
			c.Emit(ch, args...)
			return goja.Undefined()
		})
		if err != nil {
			return err
		}
	}
	return vm.Set("console", obj)
}

// export converts a JavaScript value for console.Format. Objects keep their
// *goja.Object form, which marshals to JSON in property order; functions
// and primitives use their JavaScript string conversion.
func export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return nil
	}
	if _, isFunc := goja.AssertFunction(v); isFunc {
		return v.String()
	}
	if obj, ok := v.(*goja.Object); ok {
		return obj
	}
	return v.String()
}
