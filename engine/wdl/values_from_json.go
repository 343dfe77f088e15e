package wdl

import (
	"encoding/json"
	"fmt"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/core"
	"github.com/wdlrun/wdlrun/engine/value"
)

// ValuesFromJSON implements the WDL parser contract's
// `values_from_json(json, available, required, name)`: it decodes the
// inputs-JSON object (keys of the form "<workflow_name>.<input_name>"),
// keeps only entries under name's namespace, and fails with a name
// resolution error before any unit is submitted if a required input is
// missing. available maps each bare input name to its declared Type.
func ValuesFromJSON(
	raw []byte,
	available map[string]Type,
	required map[string]bool,
	name string,
) (bindings.Bindings, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return bindings.Bindings{}, core.NewError(
			fmt.Errorf("parsing inputs JSON: %w", err),
			core.ErrEvaluation,
			nil,
		)
	}

	prefix := name + "."
	result := bindings.New()
	for inputName, typ := range available {
		raw, ok := doc[prefix+inputName]
		if !ok {
			if required[inputName] {
				return bindings.Bindings{}, core.NewError(
					fmt.Errorf("missing required input %q", prefix+inputName),
					core.ErrNameResolution,
					map[string]any{"name": prefix + inputName},
				)
			}
			continue
		}
		v, err := decodeJSONValue(raw, typ)
		if err != nil {
			return bindings.Bindings{}, core.NewError(
				fmt.Errorf("decoding input %q: %w", prefix+inputName, err),
				core.ErrTypeMismatch,
				map[string]any{"name": prefix + inputName},
			)
		}
		result = result.Bind(inputName, v)
	}
	return result, nil
}

func decodeJSONValue(raw json.RawMessage, typ Type) (value.Value, error) {
	if string(raw) == "null" {
		if !typ.Optional {
			return value.Value{}, fmt.Errorf("null supplied for non-optional type %s", typ.Kind)
		}
		return value.Null(), nil
	}
	switch typ.Kind {
	case value.KindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return value.Value{}, err
		}
		return value.NewBool(b), nil
	case value.KindInt:
		var i int64
		if err := json.Unmarshal(raw, &i); err != nil {
			return value.Value{}, err
		}
		return value.NewInt(i), nil
	case value.KindFloat:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return value.Value{}, err
		}
		return value.NewFloat(f), nil
	case value.KindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return value.Value{}, err
		}
		return value.NewString(s), nil
	case value.KindFile:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return value.Value{}, err
		}
		return value.NewFile(value.File{RemoteURI: s, LocalPath: s}), nil
	case value.KindArray:
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return value.Value{}, err
		}
		out := make([]value.Value, len(elems))
		for i, e := range elems {
			// Array element type is not separately tracked in Type; decode
			// generically via JSON shape sniffing for the common scalar cases.
			v, err := decodeJSONValue(e, sniffType(e))
			if err != nil {
				return value.Value{}, err
			}
			out[i] = v
		}
		return value.NewArray(out...), nil
	default:
		var m map[string]json.RawMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return value.Value{}, err
		}
		fields := make(map[string]value.Value, len(m))
		for k, v := range m {
			fv, err := decodeJSONValue(v, sniffType(v))
			if err != nil {
				return value.Value{}, err
			}
			fields[k] = fv
		}
		return value.NewObject(fields), nil
	}
}

// sniffType infers a Type from raw JSON shape, used for nested
// array/object elements whose declared type isn't separately threaded
// through available.
func sniffType(raw json.RawMessage) Type {
	s := string(raw)
	switch {
	case len(s) == 0:
		return Type{Kind: value.KindString}
	case s == "true" || s == "false":
		return Type{Kind: value.KindBool}
	case s[0] == '"':
		return Type{Kind: value.KindString}
	case s[0] == '[':
		return Type{Kind: value.KindArray}
	case s[0] == '{':
		return Type{Kind: value.KindObject}
	default:
		for _, c := range s {
			if c == '.' || c == 'e' || c == 'E' {
				return Type{Kind: value.KindFloat}
			}
		}
		return Type{Kind: value.KindInt}
	}
}
