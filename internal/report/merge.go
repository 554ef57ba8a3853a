package report

import "fmt"

// reservedKeys are document fields the enrichment pass may never supply.
// A supplemental document naming one of them is malformed and the merge is
// rejected wholesale, leaving the document untouched.
var reservedKeys = map[string]bool{
	"checks":        true,
	"summary":       true,
	"run_metadata":  true,
	"configuration": true,
}

// MergeSupplemental folds a supplemental analysis document into the
// document's analysis namespace using a shallow-additive deep merge:
// keys absent in the namespace are added, mapping values present on both
// sides are merged recursively, and scalar or list values from the
// supplemental side win. Keys that exist only in the namespace are never
// deleted.
//
// On any error the document is left completely unchanged. Invoking the merge
// twice with different supplemental inputs is last-write-wins per the rule
// above; that is accepted behavior, not guarded against.
func (d *Document) MergeSupplemental(sup map[string]any) error {
	if sup == nil {
		return fmt.Errorf("supplemental document is nil")
	}
	for key := range sup {
		if reservedKeys[key] {
			return fmt.Errorf("supplemental document must not supply reserved key %q", key)
		}
	}
	d.Analysis = mergeMaps(d.Analysis, sup)
	return nil
}

// mergeMaps returns a fresh map; neither input is mutated.
func mergeMaps(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		prev, ok := out[k]
		if !ok {
			out[k] = v
			continue
		}
		prevMap, prevIsMap := prev.(map[string]any)
		vMap, vIsMap := v.(map[string]any)
		if prevIsMap && vIsMap {
			out[k] = mergeMaps(prevMap, vMap)
			continue
		}
		out[k] = v
	}
	return out
}
