package domain

import (
	"fmt"
	"strings"
)

// UnconfiguredPolicy decides how users without a bedtime are treated.
type UnconfiguredPolicy string

const (
	// PolicyNever never reminds users without a bedtime.
	PolicyNever UnconfiguredPolicy = "never"
	// PolicyAlways treats users without a bedtime as permanently past it.
	PolicyAlways UnconfiguredPolicy = "always"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (UnconfiguredPolicy, error) {
	switch p := UnconfiguredPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyNever, PolicyAlways:
		return p, nil
	case "":
		return PolicyNever, nil
	default:
		return "", fmt.Errorf("unknown unconfigured-bedtime policy %q (want never|always)", s)
	}
}
