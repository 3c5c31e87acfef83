// module_descriptor.go - module.json parsing (spec §4.1, §6.4)
//
// The source parses JSON by hand with substring search and balanced-brace
// scans (Design Note in spec.md §9: "Replacing the JSON parser"). The
// underlying requirement is lenient, partial parsing of known fields with
// tolerance for unknown fields and nested opaque blobs, which is exactly
// what tidwall/gjson gives for free — grounded on magda-agents-go's use of
// gjson/sjson for the same kind of partial-document parsing.

package main

import (
	"fmt"

	"github.com/tidwall/gjson"
)

type ParamType int

const (
	ParamFloat ParamType = iota
	ParamInt
	ParamEnum
)

func parseParamType(s string) ParamType {
	switch s {
	case "int":
		return ParamInt
	case "enum":
		return ParamEnum
	default:
		return ParamFloat
	}
}

// ParameterDescriptor describes one parameter of a loaded module, parsed
// from its module.json (spec §3, §6.4).
type ParameterDescriptor struct {
	Key           string
	Name          string
	Type          ParamType
	Min, Max      float64
	HasMax        bool
	Default       float64
	Step          float64
	Unit          string
	DisplayFormat string
	MaxParam      string
	Options       []string
}

// ResolvedMax returns d.Max unless MaxParam names another descriptor,
// in which case the caller must supply that parameter's current value
// (spec §3: "when max_param is present, the resolved max is the current
// value of the referenced param").
func (d ParameterDescriptor) ResolvedMax(liveMaxParamValue float64, haveLive bool) float64 {
	if d.MaxParam != "" && haveLive {
		return liveMaxParamValue
	}
	return d.Max
}

// defaultStep returns the descriptor's step, falling back to the
// type-specific default used by the knob macro engine (spec §4.5).
func (d ParameterDescriptor) defaultStep() float64 {
	if d.Step != 0 {
		return d.Step
	}
	if d.Type == ParamFloat {
		return 0.0015
	}
	return 1
}

// ModuleDescriptor is the full parsed module.json: capabilities plus the
// parameter table, built at load time from either the legacy flat
// chain_params array or the preferred ui_hierarchy object.
type ModuleDescriptor struct {
	DefaultForwardChannel int // 0 means "not set"
	RawMIDI               bool
	Params                map[string]ParameterDescriptor
	ParamOrder             []string
}

// ParseModuleDescriptor parses a module.json document. A key that appears
// twice among the params read is a load error. chain_params is read only
// when ui_hierarchy yields no params, so keys in both are not compared.
func ParseModuleDescriptor(doc []byte) (*ModuleDescriptor, error) {
	root := gjson.ParseBytes(doc)
	md := &ModuleDescriptor{Params: make(map[string]ParameterDescriptor)}

	if dfc := root.Get("capabilities.default_forward_channel"); dfc.Exists() {
		md.DefaultForwardChannel = int(dfc.Int())
	}
	md.RawMIDI = root.Get("raw_midi").Bool()

	addParam := func(p gjson.Result) error {
		key := p.Get("key").String()
		if key == "" {
			return nil
		}
		if _, dup := md.Params[key]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateParamKey, key)
		}
		d := ParameterDescriptor{
			Key:           key,
			Name:          p.Get("label").String(),
			Type:          parseParamType(p.Get("type").String()),
			Min:           p.Get("min").Float(),
			Default:       p.Get("default").Float(),
			Step:          p.Get("step").Float(),
			Unit:          p.Get("unit").String(),
			DisplayFormat: p.Get("display_format").String(),
			MaxParam:      p.Get("max_param").String(),
		}
		if mx := p.Get("max"); mx.Exists() {
			d.Max = mx.Float()
			d.HasMax = true
		}
		if opts := p.Get("options"); opts.Exists() {
			opts.ForEach(func(_, v gjson.Result) bool {
				d.Options = append(d.Options, v.String())
				return true
			})
		}
		md.Params[key] = d
		md.ParamOrder = append(md.ParamOrder, key)
		return nil
	}

	// Preferred: ui_hierarchy.shared_params + ui_hierarchy.levels[*].params.
	hierarchy := root.Get("ui_hierarchy")
	foundHierarchy := false
	var firstErr error
	if hierarchy.Exists() {
		hierarchy.Get("shared_params").ForEach(func(_, p gjson.Result) bool {
			foundHierarchy = true
			if err := addParam(p); err != nil {
				firstErr = err
				return false
			}
			return true
		})
		if firstErr == nil {
			hierarchy.Get("levels").ForEach(func(_, level gjson.Result) bool {
				level.Get("params").ForEach(func(_, p gjson.Result) bool {
					foundHierarchy = true
					if err := addParam(p); err != nil {
						firstErr = err
						return false
					}
					return true
				})
				return firstErr == nil
			})
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	// Legacy fallback when ui_hierarchy yields no inline params.
	if !foundHierarchy {
		root.Get("chain_params").ForEach(func(_, p gjson.Result) bool {
			if err := addParam(p); err != nil && firstErr == nil {
				firstErr = err
				return false
			}
			return true
		})
		if firstErr != nil {
			return nil, firstErr
		}
	}

	return md, nil
}
