package processing

import (
	"strings"
)

// ElementName composes the name of a synchronization element
// from its type and optional name parts.
func ElementName(typ string, names ...string) string {
	name := strings.Join(names, ":")
	if len(name) > 0 {
		return typ + ":" + name
	}
	return typ
}
