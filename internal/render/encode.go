package render

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/fuelstat/internal/model"
	"github.com/verte-zerg/fuelstat/internal/report"
)

// Format selects the output encoding.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat resolves a format name. An empty name means text.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (available: text, json, yaml)", name)
	}
}

var jsonAPI = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

func init() {
	// Undefined statistics (quartiles of an empty series) encode as null.
	jsoniter.RegisterTypeEncoderFunc("float64", func(ptr unsafe.Pointer, stream *jsoniter.Stream) {
		v := *(*float64)(ptr)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			stream.WriteNil()
			return
		}
		stream.WriteFloat64(v)
	}, func(ptr unsafe.Pointer) bool {
		return *(*float64)(ptr) == 0
	})
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	data, err := jsonAPI.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// YAML writes v as YAML.
func YAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

// Document is the machine-readable envelope for one view.
type Document struct {
	View   report.View      `json:"view" yaml:"view"`
	Filter model.FilterSpec `json:"filter" yaml:"filter"`
	Result any              `json:"result" yaml:"result"`
}

// Write renders a view result in the requested format.
func Write(w io.Writer, format Format, doc Document, opts Options) error {
	switch format {
	case FormatJSON:
		return JSON(w, doc)
	case FormatYAML:
		return YAML(w, doc)
	default:
		return Text(w, doc.View, doc.Result, opts)
	}
}
