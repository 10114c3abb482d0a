package util

import "strings"

var truthyValues = map[string]bool{
	"true": true,
	"1":    true,
	"yes":  true,
	"y":    true,
	"on":   true,
}

// Truthy reports whether s, typically an env var, enables a setting.
func Truthy(s string) bool {
	return truthyValues[strings.ToLower(strings.TrimSpace(s))]
}
