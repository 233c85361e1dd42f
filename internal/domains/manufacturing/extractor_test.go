package manufacturing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRequirementsFromProcessList(t *testing.T) {
	doc := map[string]any{
		"process_requirements": []any{
			map[string]any{
				"name":      "CNC Milling",
				"materials": []any{"aluminum 6061"},
				"tools":     []any{"end mill"},
				"parameters": map[string]any{
					"tolerance": 0.01,
				},
			},
			map[string]any{
				"process_name": "Anodizing",
			},
		},
	}

	reqs, err := NewExtractor().ExtractRequirements(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	assert.Equal(t, "CNC Milling", reqs[0].Name)
	assert.Equal(t, "CNC Milling", reqs[0].ProcessName)
	assert.Equal(t, []string{"aluminum 6061"}, reqs[0].Materials)
	assert.Equal(t, []string{"end mill"}, reqs[0].RequiredTools)
	assert.Equal(t, 0.01, reqs[0].Parameters["tolerance"])
	assert.Equal(t, DomainName, reqs[0].Domain)

	// process_name fills in a missing name and vice versa.
	assert.Equal(t, "Anodizing", reqs[1].Name)
	assert.Equal(t, "Anodizing", reqs[1].ProcessName)
}

func TestExtractRequirementsFlatProcessNames(t *testing.T) {
	doc := map[string]any{
		"manufacturing_processes": []any{"Welding", "Bending"},
		"materials":               []any{"mild steel"},
		"tool_list":               []any{"mig welder"},
	}

	reqs, err := NewExtractor().ExtractRequirements(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "Welding", reqs[0].Name)
	assert.Equal(t, []string{"mild steel"}, reqs[0].Materials)
	assert.Equal(t, []string{"mig welder"}, reqs[0].RequiredTools)
	assert.Equal(t, []string{"mild steel"}, reqs[1].Materials)
}

func TestExtractRequirementsErrors(t *testing.T) {
	ex := NewExtractor()
	ctx := context.Background()

	_, err := ex.ExtractRequirements(ctx, map[string]any{})
	assert.ErrorContains(t, err, "empty requirement document")

	_, err = ex.ExtractRequirements(ctx, map[string]any{"title": "a widget"})
	assert.ErrorContains(t, err, "declares no process requirements")

	_, err = ex.ExtractRequirements(ctx, map[string]any{
		"processes": []any{map[string]any{"materials": []any{"steel"}}},
	})
	assert.ErrorContains(t, err, "missing name")
}

func TestExtractCapabilitiesFromList(t *testing.T) {
	doc := map[string]any{
		"capabilities": []any{
			map[string]any{
				"name":      "CNC Milling",
				"materials": []any{"aluminum", "steel"},
				"tools":     []any{"haas vf-2"},
				"capacity":  100,
				"limitations": map[string]any{
					"max_size_mm": 760,
				},
			},
		},
	}

	caps, err := NewExtractor().ExtractCapabilities(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, caps, 1)

	c := caps[0]
	assert.Equal(t, "CNC Milling", c.Name)
	assert.Equal(t, "process", c.Type)
	assert.Equal(t, DomainName, c.Domain)
	// Top-level keys are promoted into parameters.
	assert.Equal(t, []any{"aluminum", "steel"}, c.Parameters["materials"])
	assert.Equal(t, 100, c.Parameters["capacity"])
	assert.Equal(t, 760, c.Limitations["max_size_mm"])
}

func TestExtractCapabilitiesEquipmentShape(t *testing.T) {
	doc := map[string]any{
		"equipment": []any{
			map[string]any{"equipment_type": "3D Printer", "type": "machine"},
		},
	}

	caps, err := NewExtractor().ExtractCapabilities(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, "3D Printer", caps[0].Name)
	assert.Equal(t, "machine", caps[0].Type)
}

func TestExtractCapabilitiesFlatProcesses(t *testing.T) {
	doc := map[string]any{"processes": []any{"Welding", "Painting"}}

	caps, err := NewExtractor().ExtractCapabilities(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, caps, 2)
	assert.Equal(t, "Welding", caps[0].Name)
	assert.Equal(t, "process", caps[0].Type)
}

func TestExtractCapabilitiesErrors(t *testing.T) {
	ex := NewExtractor()
	ctx := context.Background()

	_, err := ex.ExtractCapabilities(ctx, map[string]any{})
	assert.ErrorContains(t, err, "empty capability document")

	_, err = ex.ExtractCapabilities(ctx, map[string]any{"name": "Acme"})
	assert.ErrorContains(t, err, "declares no capabilities")
}
