// Package hcl loads volume order definitions from HCL files.
package hcl

import (
	"fmt"
	"math"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"staas-order/core/order"
	"staas-order/internal/errors"
)

// Volume is one named order read from a volume file
type Volume struct {
	Name   string
	Params order.Parameters
}

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "volume", LabelNames: []string{"name"}},
	},
}

var volumeSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "size", Required: true},
		{Name: "storage_type", Required: true},
		{Name: "performance_type", Required: true},
		{Name: "performance_value", Required: true},
		{Name: "region", Required: true},
	},
}

// Loader parses volume files
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a loader
func NewLoader() *Loader {
	return &Loader{
		parser: hclparse.NewParser(),
	}
}

// LoadFile reads and parses a volume file, returning the volumes in
// declaration order
func (l *Loader) LoadFile(path string) ([]Volume, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, fmt.Sprintf("reading volume file %s", path), err).
			WithContext("file", path)
	}
	return l.Load(src, path)
}

// Load parses volume definitions from source. The schema is strict:
// unknown blocks, unknown attributes and missing required attributes are
// all errors.
func (l *Loader) Load(src []byte, filename string) ([]Volume, error) {
	file, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Parsing(fmt.Sprintf("parsing %s", filename), diags).
			WithContext("file", filename)
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, errors.Parsing(fmt.Sprintf("reading volume blocks in %s", filename), diags).
			WithContext("file", filename)
	}

	volumes := make([]Volume, 0, len(content.Blocks))
	seen := make(map[string]bool)

	for _, block := range content.Blocks {
		name := block.Labels[0]
		if seen[name] {
			return nil, errors.Input(fmt.Sprintf("duplicate volume %q", name)).
				WithContext("file", filename)
		}
		seen[name] = true

		params, err := volumeParams(block)
		if err != nil {
			return nil, err
		}
		volumes = append(volumes, Volume{Name: name, Params: params})
	}

	return volumes, nil
}

func volumeParams(block *hcl.Block) (order.Parameters, error) {
	var params order.Parameters

	content, diags := block.Body.Content(volumeSchema)
	if diags.HasErrors() {
		return params, errors.Parsing(fmt.Sprintf("volume %q", block.Labels[0]), diags).
			WithContext("volume", block.Labels[0])
	}

	var err error
	if params.Size, err = intAttr(content.Attributes, "size"); err != nil {
		return params, err
	}
	if params.StorageType, err = stringAttr(content.Attributes, "storage_type"); err != nil {
		return params, err
	}
	if params.PerformanceType, err = stringAttr(content.Attributes, "performance_type"); err != nil {
		return params, err
	}
	if params.PerformanceValue, err = intAttr(content.Attributes, "performance_value"); err != nil {
		return params, err
	}
	if params.RegionName, err = stringAttr(content.Attributes, "region"); err != nil {
		return params, err
	}

	return params, nil
}

// attrValue evaluates an attribute with no variables or functions in
// scope, so only literal values are accepted
func attrValue(attrs hcl.Attributes, name string) (cty.Value, error) {
	val, diags := attrs[name].Expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, errors.Parsing(fmt.Sprintf("evaluating attribute %s", name), diags).
			WithContext("attribute", name)
	}
	if val.IsNull() || !val.IsKnown() {
		return cty.NilVal, errors.Input(fmt.Sprintf("attribute %s must have a concrete value", name)).
			WithContext("attribute", name)
	}
	return val, nil
}

func stringAttr(attrs hcl.Attributes, name string) (string, error) {
	val, err := attrValue(attrs, name)
	if err != nil {
		return "", err
	}
	if val.Type() != cty.String {
		return "", errors.Input(fmt.Sprintf("attribute %s must be a string, got %s",
			name, val.Type().FriendlyName())).
			WithContext("attribute", name)
	}
	return val.AsString(), nil
}

func intAttr(attrs hcl.Attributes, name string) (int, error) {
	val, err := attrValue(attrs, name)
	if err != nil {
		return 0, err
	}
	if val.Type() != cty.Number {
		return 0, errors.Input(fmt.Sprintf("attribute %s must be a number, got %s",
			name, val.Type().FriendlyName())).
			WithContext("attribute", name)
	}

	f, _ := val.AsBigFloat().Float64()
	if f != math.Trunc(f) {
		return 0, errors.Input(fmt.Sprintf("attribute %s must be a whole number", name)).
			WithContext("attribute", name)
	}
	return int(f), nil
}
