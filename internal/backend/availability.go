// internal/backend/availability.go
package backend

import "strings"

// Has reports whether the variant was compiled into this binary.
func Has(kind Kind) bool {
	switch kind {
	case Graph:
		return graphEnabled
	case Script:
		return scriptEnabled
	default:
		return false
	}
}

// Available returns a comma-separated list of compiled-in backends.
func Available() string {
	var entries []string
	for _, k := range []Kind{Graph, Script} {
		if Has(k) {
			entries = append(entries, k.String())
		}
	}
	if len(entries) == 0 {
		return "none"
	}
	return strings.Join(entries, ",")
}
