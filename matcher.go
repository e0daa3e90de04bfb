package palisade

import "strings"

// matchLayer checks whether a grant's layer pattern covers a concrete layer
// id. Patterns are exact dot-paths with optional trailing '*':
// "board.school.42" matches only itself, "board.school.*" matches every
// layer under board.school, "*" matches everything.
func matchLayer(pattern, layerID string) bool {
	if pattern == "*" {
		return true
	}
	if pattern == layerID {
		return true
	}
	if strings.HasSuffix(pattern, ".*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(layerID, prefix)
	}
	return false
}
