package alias

import (
	"strings"
)

// Reachable reports whether the object expression text expr denotes a value
// reachable through one of the set's names. Checks, in order:
//
//	api            exact name
//	api?           trailing optional-chaining mark
//	api() getApi()? zero-argument call of a name, optionally followed by ?
//	getApi()       zero-argument call of an indirection function
//	this.api       this-qualified name, or any path below it
//	this?.api?     optional this-qualified name
//
// The indirection check is a naming convention, not proof: with the default
// heuristic `rootApi()` and `mapiKey()` are both accepted for root "api".
// Reachable never panics.
func (s *Set) Reachable(expr string) bool {
	if s == nil || expr == "" {
		return false
	}
	if s.Has(expr) {
		return true
	}

	base := strings.TrimSuffix(expr, "?")
	if s.Has(base) {
		return true
	}

	if fn, ok := strings.CutSuffix(base, "()"); ok && fn != "" {
		if s.Has(fn) || s.indirect(fn) {
			return true
		}
	}

	for _, a := range s.order {
		if expr == "this."+a || strings.HasPrefix(expr, "this."+a+".") {
			return true
		}
		if expr == "this?."+a || expr == "this?."+a+"?" {
			return true
		}
	}
	return false
}

func (s *Set) indirect(fn string) bool {
	if len(s.Indirection) == 0 {
		return s.Root != "" && strings.Contains(strings.ToLower(fn), strings.ToLower(s.Root))
	}
	last := fn
	if i := strings.LastIndexByte(fn, '.'); i >= 0 {
		last = fn[i+1:]
	}
	for _, name := range s.Indirection {
		if fn == name || last == name {
			return true
		}
	}
	return false
}
