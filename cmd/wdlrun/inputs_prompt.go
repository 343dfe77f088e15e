package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/wdlrun/wdlrun/engine/value"
	"github.com/wdlrun/wdlrun/engine/wdl"
)

// promptMissingScalarInputs fills in any required scalar inputs absent
// from doc by asking for them interactively, via a huh.NewForm over one
// huh.NewGroup of fields bound by pointer. Only Bool/Int/Float/String/File
// inputs are prompted for — structured types (Array/Map/Pair/Object/Struct)
// are left to fail the ordinary missing-required-input error, since there
// is no sensible single-line prompt for them.
func promptMissingScalarInputs(
	wf *wdl.Workflow,
	doc map[string]json.RawMessage,
	available map[string]wdl.Type,
	required map[string]bool,
) error {
	prefix := wf.Name + "."
	values := make(map[string]*string)
	var fields []huh.Field
	for _, d := range wf.Inputs {
		if !required[d.Name] {
			continue
		}
		if _, present := doc[prefix+d.Name]; present {
			continue
		}
		typ := available[d.Name]
		if !promptable(typ.Kind) {
			continue
		}
		s := new(string)
		values[d.Name] = s
		fields = append(fields, huh.NewInput().
			Title(prefix+d.Name).
			Description(string(typ.Kind)).
			Value(s).
			Validate(validatorFor(typ.Kind)))
	}
	if len(fields) == 0 {
		return nil
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return fmt.Errorf("collecting missing inputs: %w", err)
	}
	for name, s := range values {
		raw, err := encodeScalarJSON(available[name].Kind, *s)
		if err != nil {
			return err
		}
		doc[prefix+name] = raw
	}
	return nil
}

func promptable(kind value.Kind) bool {
	switch kind {
	case value.KindBool, value.KindInt, value.KindFloat, value.KindString, value.KindFile:
		return true
	default:
		return false
	}
}

func validatorFor(kind value.Kind) func(string) error {
	return func(s string) error {
		switch kind {
		case value.KindBool:
			_, err := strconv.ParseBool(s)
			return err
		case value.KindInt:
			_, err := strconv.ParseInt(s, 10, 64)
			return err
		case value.KindFloat:
			_, err := strconv.ParseFloat(s, 64)
			return err
		default:
			if s == "" {
				return fmt.Errorf("value is required")
			}
			return nil
		}
	}
}

func encodeScalarJSON(kind value.Kind, s string) (json.RawMessage, error) {
	switch kind {
	case value.KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, err
		}
		return json.Marshal(b)
	case value.KindInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return json.Marshal(i)
	case value.KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return json.Marshal(f)
	default:
		return json.Marshal(s)
	}
}
