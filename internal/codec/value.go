package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/twinsync/internal/backend"
	"github.com/roach88/twinsync/internal/model"
)

var _ backend.ValueSerializer = (*Codec)(nil)

// rangeValue is the value-only form of a Range.
type rangeValue struct {
	Min string `json:"min,omitempty" yaml:"min,omitempty"`
	Max string `json:"max,omitempty" yaml:"max,omitempty"`
}

// EncodeValue renders only the value of a value element: a string for a
// Property, {min, max} for a Range and a list of single-entry
// {language: text} maps for a MultiLanguageProperty.
func (c *Codec) EncodeValue(r model.Referable) ([]byte, error) {
	var v any
	switch e := r.(type) {
	case *model.Property:
		v = e.Value()
	case *model.Range:
		v = rangeValue{Min: e.Min(), Max: e.Max()}
	case *model.MultiLanguageProperty:
		texts := make([]map[string]string, 0, len(e.Value()))
		for _, ls := range e.Value() {
			texts = append(texts, map[string]string{ls.Language: ls.Text})
		}
		v = texts
	default:
		return nil, &model.TypeMismatchError{Expected: model.KeyDataElement, Actual: r.KeyType(), Key: r.IDShort()}
	}

	var buf bytes.Buffer
	switch c.format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("encode yaml value: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml value: %w", err)
		}
	default:
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("encode json value: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// DecodeValue reads a value written by EncodeValue for an element shaped
// like r. It returns a detached element of r's kind and value type holding
// the decoded value; r itself is not touched.
func (c *Codec) DecodeValue(r model.Referable, data []byte) (model.Referable, error) {
	switch e := r.(type) {
	case *model.Property:
		var s string
		if err := c.unmarshalValue(data, &s); err != nil {
			return nil, err
		}
		return model.NewProperty("", e.ValueType(), s)
	case *model.Range:
		var rv rangeValue
		if err := c.unmarshalValue(data, &rv); err != nil {
			return nil, err
		}
		return model.NewRange("", e.ValueType(), rv.Min, rv.Max)
	case *model.MultiLanguageProperty:
		var texts []map[string]string
		if err := c.unmarshalValue(data, &texts); err != nil {
			return nil, err
		}
		set := make(model.LangStringSet, 0, len(texts))
		for i, m := range texts {
			if len(m) != 1 {
				return nil, fmt.Errorf("decode value: entry %d must hold exactly one language", i)
			}
			for lang, text := range m {
				set = append(set, model.LangString{Language: lang, Text: text})
			}
		}
		return model.NewMultiLanguageProperty("", set)
	}
	return nil, &model.TypeMismatchError{Expected: model.KeyDataElement, Actual: r.KeyType(), Key: r.IDShort()}
}

func (c *Codec) unmarshalValue(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("decode value: empty document")
	}
	switch c.format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("decode yaml value: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("decode json value: %w", err)
		}
		if dec.More() {
			return errors.New("decode json value: trailing data")
		}
	}
	return nil
}
