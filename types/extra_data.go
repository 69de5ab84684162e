package types

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"
	"gopkg.in/yaml.v3"
)

// ExtraDataKind tells which representation of ExtraData is active.
type ExtraDataKind int

const (
	ExtraDataNone ExtraDataKind = iota
	ExtraDataFields
	ExtraDataBlob
)

// ScalarKind is the type of an extra field value.
type ScalarKind int

const (
	ScalarNumber ScalarKind = iota + 1
	ScalarBool
)

// ExtraValue is a number or a boolean.
type ExtraValue struct {
	kind ScalarKind
	num  float64
	flag bool
}

func NumberValue(n float64) ExtraValue { return ExtraValue{kind: ScalarNumber, num: n} }

func BoolValue(b bool) ExtraValue { return ExtraValue{kind: ScalarBool, flag: b} }

func (v ExtraValue) Kind() ScalarKind { return v.kind }
func (v ExtraValue) Number() float64  { return v.num }
func (v ExtraValue) Bool() bool       { return v.flag }

// ExtraField is one entry of the mapping form, kept in insertion order.
type ExtraField struct {
	Name  string
	Value ExtraValue
}

// ExtraData is either an ordered mapping of scalars or an opaque string, never both.
// The zero value means absent.
type ExtraData struct {
	kind   ExtraDataKind
	fields []ExtraField
	blob   string
}

// FieldsData builds the mapping form. Order of fields is preserved.
func FieldsData(fields ...ExtraField) ExtraData {
	copied := make([]ExtraField, len(fields))
	copy(copied, fields)
	return ExtraData{kind: ExtraDataFields, fields: copied}
}

// BlobData builds the opaque string form.
func BlobData(s string) ExtraData {
	return ExtraData{kind: ExtraDataBlob, blob: s}
}

func (d ExtraData) Kind() ExtraDataKind { return d.kind }

// IsZero reports absent extraData, for omitzero and yaml omitempty.
func (d ExtraData) IsZero() bool { return d.kind == ExtraDataNone }

// Fields returns a copy of the mapping entries.
func (d ExtraData) Fields() []ExtraField {
	if d.kind != ExtraDataFields {
		return nil
	}
	out := make([]ExtraField, len(d.fields))
	copy(out, d.fields)
	return out
}

func (d ExtraData) Blob() string { return d.blob }

// UnmarshalJSON keeps the key order of an object, which encoding/json maps would lose.
// Entries whose values are not numbers or booleans are dropped.
func (d *ExtraData) UnmarshalJSON(data []byte) error {
	root, err := sonic.Get(data)
	if err != nil {
		return fmt.Errorf("failed to parse extraData: %w", err)
	}
	switch root.TypeSafe() {
	case ast.V_NONE, ast.V_NULL:
		*d = ExtraData{}
	case ast.V_STRING:
		s, err := root.String()
		if err != nil {
			return fmt.Errorf("failed to read extraData string: %w", err)
		}
		*d = BlobData(s)
	case ast.V_OBJECT:
		fields := make([]ExtraField, 0)
		err := root.ForEach(func(path ast.Sequence, node *ast.Node) bool {
			if path.Key == nil {
				return true
			}
			switch node.TypeSafe() {
			case ast.V_TRUE, ast.V_FALSE:
				if b, err := node.Bool(); err == nil {
					fields = append(fields, ExtraField{Name: *path.Key, Value: BoolValue(b)})
				}
			case ast.V_NUMBER:
				if n, err := node.Float64(); err == nil {
					fields = append(fields, ExtraField{Name: *path.Key, Value: NumberValue(n)})
				}
			}
			return true
		})
		if err != nil {
			return fmt.Errorf("failed to walk extraData object: %w", err)
		}
		*d = ExtraData{kind: ExtraDataFields, fields: fields}
	default:
		*d = ExtraData{}
	}
	return nil
}

func (d ExtraData) MarshalJSON() ([]byte, error) {
	switch d.kind {
	case ExtraDataBlob:
		return sonic.Marshal(d.blob)
	case ExtraDataFields:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, f := range d.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := sonic.Marshal(f.Name)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if f.Value.kind == ScalarBool {
				buf.WriteString(strconv.FormatBool(f.Value.flag))
			} else {
				buf.WriteString(strconv.FormatFloat(f.Value.num, 'g', -1, 64))
			}
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalYAML walks the mapping node directly so manifest key order survives.
func (d *ExtraData) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.ShortTag() != "!!str" {
			*d = ExtraData{}
			return nil
		}
		*d = BlobData(value.Value)
	case yaml.MappingNode:
		fields := make([]ExtraField, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			key, val := value.Content[i], value.Content[i+1]
			if val.Kind != yaml.ScalarNode {
				continue
			}
			switch val.ShortTag() {
			case "!!bool":
				var b bool
				if err := val.Decode(&b); err == nil {
					fields = append(fields, ExtraField{Name: key.Value, Value: BoolValue(b)})
				}
			case "!!int", "!!float":
				var n float64
				if err := val.Decode(&n); err == nil {
					fields = append(fields, ExtraField{Name: key.Value, Value: NumberValue(n)})
				}
			}
		}
		*d = ExtraData{kind: ExtraDataFields, fields: fields}
	default:
		*d = ExtraData{}
	}
	return nil
}

func (d ExtraData) MarshalYAML() (any, error) {
	switch d.kind {
	case ExtraDataBlob:
		return d.blob, nil
	case ExtraDataFields:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, f := range d.fields {
			val := &yaml.Node{Kind: yaml.ScalarNode}
			if f.Value.kind == ScalarBool {
				val.Tag = "!!bool"
				val.Value = strconv.FormatBool(f.Value.flag)
			} else {
				val.Tag = "!!float"
				val.Value = strconv.FormatFloat(f.Value.num, 'g', -1, 64)
			}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name}, val)
		}
		return node, nil
	default:
		return nil, nil
	}
}
