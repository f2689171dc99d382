package hoststr

import (
	"os"
	"path/filepath"
)

// Args returns the process arguments as host strings.
func Args() []OSString {
	out := make([]OSString, len(os.Args))
	for i, a := range os.Args {
		out[i] = FromString(a)
	}
	return out
}

// FromPath returns the cleaned path p as a host string.
func FromPath(p string) OSString {
	return FromString(filepath.Clean(p))
}
