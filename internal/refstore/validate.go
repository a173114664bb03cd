package refstore

import (
	"strings"
	"unicode"
)

const maxBranchNameBytes = 255

// ValidateBranchName enforces spec.md §3's branch-name rules: non-empty
// after trim, no control characters, no `/` or `..`, length <= 255 bytes.
func ValidateBranchName(name string) (reason string, ok bool) {
	if strings.TrimSpace(name) == "" {
		return "empty", false
	}
	if len(name) > maxBranchNameBytes {
		return "exceeds 255 bytes", false
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "contains control characters", false
		}
	}
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return "contains '/'", false
		}
	}
	for i := 0; i+1 < len(name); i++ {
		if name[i] == '.' && name[i+1] == '.' {
			return "contains '..'", false
		}
	}
	return "", true
}
