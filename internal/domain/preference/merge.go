package preference

import (
	"maps"
	"strings"
)

// Merge deep-merges src into dst and returns the result. Nested objects
// merge recursively; every other value, arrays included, overwrites
// wholesale. Neither input map is mutated.
func Merge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	maps.Copy(out, dst)

	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]any)
		dstMap, dstIsMap := out[key].(map[string]any)
		if srcIsMap && dstIsMap {
			out[key] = Merge(dstMap, srcMap)
			continue
		}
		out[key] = value
	}

	return out
}

// DeletePath removes the value at a dot-delimited path, mutating doc.
// A missing key or a non-object intermediate makes the whole delete a
// no-op rather than an error.
func DeletePath(doc map[string]any, path string) {
	parts := strings.Split(path, ".")

	node := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			return
		}
		node = next
	}

	delete(node, parts[len(parts)-1])
}
