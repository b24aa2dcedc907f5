// Package codec converts stories and save states to portable documents and back.
//
// Two encodings are supported, JSON and YAML. Story documents written by older
// tools use different field names; those layouts are recognised by their shape
// and converted by per-layout adapters, so the in-memory model has a single
// field per concept.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"gamebook/shared/models"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown document format %q: %w", s, models.ErrInvalidInput)
	}
}

// FormatFromPath picks the format from a file extension; anything but .yaml/.yml is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Ext returns the file extension for the format, with the dot.
func (f Format) Ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

var errMissingField = errors.New("required field is missing")

// validate проверяет обязательные поля документов. Имена полей берутся из json-тегов,
// чтобы ParseError указывал на поле документа, а не на поле Go-структуры.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func marshal(v any, format Format) ([]byte, error) {
	if format == FormatYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshal(data []byte, format Format, v any) error {
	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(data, v)
	} else {
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return &models.ParseError{Err: err}
	}
	return nil
}

// checkRequired runs struct validation and converts the first failure into a ParseError.
// prefix locates the struct inside the document, e.g. "sections.S1".
func checkRequired(v any, prefix string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &models.ParseError{Field: prefix, Err: err}
	}
	fe := fieldErrs[0]
	// Namespace выглядит как "sectionDocument.choices[0].target_id"; тип структуры отбрасываем
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	if prefix != "" {
		field = prefix + "." + field
	}
	if fe.Tag() == "required" {
		return &models.ParseError{Field: field, Err: errMissingField}
	}
	return &models.ParseError{Field: field, Err: fmt.Errorf("failed %q check", fe.Tag())}
}
