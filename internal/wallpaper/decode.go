package wallpaper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseVector reads up to three whitespace separated numbers. A single
// number fills every component.
func ParseVector(s string) (Vec3, error) {
	fields := strings.Fields(s)
	var out [3]float32
	for i, f := range fields {
		if i == 3 {
			break
		}
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return Vec3{}, fmt.Errorf("vector %q: %w", s, err)
		}
		out[i] = float32(v)
	}
	switch len(fields) {
	case 0:
		return Vec3{}, nil
	case 1:
		return Vec3{X: out[0], Y: out[0], Z: out[0], scalar: true}, nil
	}
	return Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

func vectorFromSlice(s []float32) Vec3 {
	var v Vec3
	switch len(s) {
	case 0:
	case 1:
		v = Vec3{X: s[0], Y: s[0], Z: s[0], scalar: true}
	case 2:
		v = Vec3{X: s[0], Y: s[1]}
	default:
		v = Vec3{X: s[0], Y: s[1], Z: s[2]}
	}
	return v
}

func (vec3 *Vec3) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		v, err := ParseVector(str)
		if err != nil {
			return err
		}
		*vec3 = v
		return nil
	case '[':
		var s []float32
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*vec3 = vectorFromSlice(s)
		return nil
	case '{':
		var result struct {
			X float32 `json:"x"`
			Y float32 `json:"y"`
			Z float32 `json:"z"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return err
		}
		*vec3 = Vec3{X: result.X, Y: result.Y, Z: result.Z}
		return nil
	}
	var floatVal float32
	if err := json.Unmarshal(data, &floatVal); err != nil {
		return fmt.Errorf("vector: %w", err)
	}
	*vec3 = Vec3{X: floatVal, Y: floatVal, Z: floatVal, scalar: true}
	return nil
}

func (vec3 *Vec3) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := ParseVector(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*vec3 = v
	case yaml.SequenceNode:
		var s []float32
		if err := node.Decode(&s); err != nil {
			return err
		}
		*vec3 = vectorFromSlice(s)
	case yaml.MappingNode:
		var result struct {
			X float32 `yaml:"x"`
			Y float32 `yaml:"y"`
			Z float32 `yaml:"z"`
		}
		if err := node.Decode(&result); err != nil {
			return err
		}
		*vec3 = Vec3{X: result.X, Y: result.Y, Z: result.Z}
	default:
		return fmt.Errorf("line %d: cannot decode vector", node.Line)
	}
	return nil
}

func parseFloatField(s string) (float32, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty number")
	}
	v, err := strconv.ParseFloat(fields[0], 32)
	return float32(v), err
}

func (binding *Float) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var floatVal float32
	if err := json.Unmarshal(data, &floatVal); err == nil {
		*binding = Float{Value: floatVal, Set: true}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		v, err := parseFloatField(str)
		if err != nil {
			return fmt.Errorf("number %q: %w", str, err)
		}
		*binding = Float{Value: v, Set: true}
		return nil
	}
	var temp struct {
		Value *Float `json:"value"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	if temp.Value != nil {
		*binding = *temp.Value
	}
	return nil
}

func (binding *Float) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := parseFloatField(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*binding = Float{Value: v, Set: true}
	case yaml.MappingNode:
		var temp struct {
			Value *Float `yaml:"value"`
		}
		if err := node.Decode(&temp); err != nil {
			return err
		}
		if temp.Value != nil {
			*binding = *temp.Value
		}
	default:
		return fmt.Errorf("line %d: cannot decode number", node.Line)
	}
	return nil
}

// Decode picks the codec from the file name: .yaml and .yml use YAML,
// everything else JSON.
func Decode(name string, data []byte, v any) error {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}
