// Package manufacturing implements the manufacturing domain: OKH-style
// build documents on the requirement side, OKW-style facility listings on
// the capability side.
package manufacturing

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"

	"github.com/supplygraph/matching-engine/internal/model"
)

// DomainName identifies this domain in the registry.
const DomainName = "manufacturing"

// InputTypes lists the document types this domain claims.
var InputTypes = []string{"okh", "okw", "manufacturing"}

// Extractor normalizes OKH/OKW documents.
type Extractor struct{}

// NewExtractor creates a manufacturing extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractRequirements reads process requirements from an OKH-style
// document. Recognized shapes, in order: a process_requirements list of
// maps, a processes list of maps, or a flat manufacturing_processes string
// list combined with document-level materials and tools.
func (e *Extractor) ExtractRequirements(_ context.Context, doc map[string]any) ([]model.Requirement, error) {
	if len(doc) == 0 {
		return nil, eris.New("manufacturing: empty requirement document")
	}

	if list, ok := listOfMaps(doc, "process_requirements", "processes"); ok {
		reqs := make([]model.Requirement, 0, len(list))
		for i, m := range list {
			req, err := requirementFromMap(m)
			if err != nil {
				return nil, eris.Wrapf(err, "manufacturing: process requirement %d", i)
			}
			reqs = append(reqs, req)
		}
		return reqs, nil
	}

	if names, err := cast.ToStringSliceE(doc["manufacturing_processes"]); err == nil && len(names) > 0 {
		mats, _ := cast.ToStringSliceE(doc["materials"])
		tools, _ := cast.ToStringSliceE(doc["tool_list"])
		reqs := make([]model.Requirement, 0, len(names))
		for _, n := range names {
			reqs = append(reqs, model.Requirement{
				Name:          n,
				ProcessName:   n,
				Materials:     mats,
				RequiredTools: tools,
				Domain:        DomainName,
			})
		}
		return reqs, nil
	}

	return nil, eris.New("manufacturing: document declares no process requirements")
}

// ExtractCapabilities reads capabilities from an OKW-style facility
// document. Recognized shapes: a capabilities list of maps, an equipment
// list of maps (equipment_type becomes the capability name), or a flat
// processes string list.
func (e *Extractor) ExtractCapabilities(_ context.Context, doc map[string]any) ([]model.Capability, error) {
	if len(doc) == 0 {
		return nil, eris.New("manufacturing: empty capability document")
	}

	if list, ok := listOfMaps(doc, "capabilities", "equipment"); ok {
		caps := make([]model.Capability, 0, len(list))
		for i, m := range list {
			c, err := capabilityFromMap(m)
			if err != nil {
				return nil, eris.Wrapf(err, "manufacturing: capability %d", i)
			}
			caps = append(caps, c)
		}
		return caps, nil
	}

	if names, err := cast.ToStringSliceE(doc["processes"]); err == nil && len(names) > 0 {
		caps := make([]model.Capability, 0, len(names))
		for _, n := range names {
			caps = append(caps, model.Capability{
				Name:   n,
				Type:   "process",
				Domain: DomainName,
			})
		}
		return caps, nil
	}

	return nil, eris.New("manufacturing: document declares no capabilities")
}

func requirementFromMap(m map[string]any) (model.Requirement, error) {
	req := model.Requirement{
		Name:        cast.ToString(m["name"]),
		ProcessName: cast.ToString(m["process_name"]),
		Domain:      DomainName,
	}
	if req.Name == "" {
		req.Name = req.ProcessName
	}
	if req.ProcessName == "" {
		req.ProcessName = req.Name
	}
	if req.Name == "" {
		return req, eris.New("missing name")
	}

	req.Materials, _ = cast.ToStringSliceE(m["materials"])
	if tools, err := cast.ToStringSliceE(m["required_tools"]); err == nil {
		req.RequiredTools = tools
	} else if tools, err := cast.ToStringSliceE(m["tools"]); err == nil {
		req.RequiredTools = tools
	}
	if params, ok := m["parameters"].(map[string]any); ok {
		req.Parameters = params
	}
	return req, nil
}

func capabilityFromMap(m map[string]any) (model.Capability, error) {
	c := model.Capability{
		Name:   cast.ToString(m["name"]),
		Type:   cast.ToString(m["type"]),
		Domain: DomainName,
	}
	if c.Name == "" {
		c.Name = cast.ToString(m["equipment_type"])
	}
	if c.Name == "" {
		return c, eris.New("missing name")
	}
	if c.Type == "" {
		c.Type = "process"
	}

	if params, ok := m["parameters"].(map[string]any); ok {
		c.Parameters = params
	} else {
		c.Parameters = make(map[string]any)
	}
	// Promote well-known top-level keys into parameters.
	for _, key := range []string{"materials", "tools", "equipment", "capacity", "scale", "substitutes_for"} {
		if v, ok := m[key]; ok {
			if _, exists := c.Parameters[key]; !exists {
				c.Parameters[key] = v
			}
		}
	}
	if lim, ok := m["limitations"].(map[string]any); ok {
		c.Limitations = lim
	}
	return c, nil
}

// listOfMaps extracts the first present key as a list of string-keyed maps.
func listOfMaps(doc map[string]any, keys ...string) ([]map[string]any, bool) {
	for _, key := range keys {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		if len(out) > 0 {
			return out, true
		}
	}
	return nil, false
}
