package compositor

import "fmt"

// debugAssert reports a broken canvas contract. The violation is always
// logged at error level; when strict is set the call panics as well.
func debugAssert(strict, cond bool, msg string, args ...any) {
	if cond {
		return
	}
	Logger().Error("compositor: assertion failed: "+msg, args...)
	if strict {
		panic(fmt.Sprintf("compositor: assertion failed: %s %v", msg, args))
	}
}
