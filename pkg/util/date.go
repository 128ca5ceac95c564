package util

import "time"

// InLocation loads the named IANA zone, falling back to def (or UTC) when
// the name is empty or unknown.
func InLocation(name string, def *time.Location) *time.Location {
	if def == nil {
		def = time.UTC
	}
	if name == "" {
		return def
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return def
	}
	return loc
}

// UnixIn converts unix seconds to a time in loc.
func UnixIn(sec int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(sec, 0).In(loc)
}
