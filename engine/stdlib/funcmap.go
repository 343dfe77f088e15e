package stdlib

import "github.com/Masterminds/sprig/v3"

// ExtraStringBuiltins exposes sprig's string-manipulation functions
// (trim, quote, substring replacement, and friends) as a plain function
// map, for reference evaluators that want to register additional
// builtins beyond WDL's own. No evaluator in this repository registers it.
// These are not part of the WDL standard library itself; they extend it.
func ExtraStringBuiltins() map[string]any {
	return sprig.TxtFuncMap()
}
