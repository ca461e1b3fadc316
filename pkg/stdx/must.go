// Package stdx carries tiny generic helpers used across the module.
package stdx

// Must0 panics if err is not nil. Use it where an error genuinely cannot
// happen and would indicate a programming mistake.
func Must0(err error) {
	if err != nil {
		panic(err)
	}
}

// Must1 returns v, panicking if err is not nil.
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
