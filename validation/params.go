package validation

import "strconv"

// ID parses a path parameter as a resource id. Anything that is not a
// positive base-10 integer reports false, and callers treat it as an id
// that matches nothing.
func ID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
