package compiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/formwork/internal/dto"
	"github.com/aretw0/formwork/pkg/domain"
)

// Format is the encoding of a template definition.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Parser converts raw bytes into a draft template.
type Parser struct {
	// Lenient accepts unknown fields.
	Lenient bool
}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Detect guesses the format from the first non-blank byte.
func Detect(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

// Parse decodes a definition, auto-detecting JSON or YAML.
func (p *Parser) Parse(data []byte) (*domain.FormTemplate, error) {
	return p.ParseAs(Detect(data), data)
}

// ParseAs decodes a definition in the given format.
func (p *Parser) ParseAs(format Format, data []byte) (*domain.FormTemplate, error) {
	def, err := p.decode(format, data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse template: %v", domain.ErrInvalidTemplate, err)
	}
	if strings.TrimSpace(def.Name) == "" {
		return nil, fmt.Errorf("%w: template missing name", domain.ErrInvalidTemplate)
	}
	return def.ToTemplate()
}

// ParseFile reads and parses a definition file. The extension picks the format
// when it is .json, .yaml or .yml.
func (p *Parser) ParseFile(path string) (*domain.FormTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return p.ParseAs(FormatJSON, data)
	case ".yaml", ".yml":
		return p.ParseAs(FormatYAML, data)
	}
	return p.Parse(data)
}

func (p *Parser) decode(format Format, data []byte) (dto.TemplateDefinition, error) {
	var def dto.TemplateDefinition
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if !p.Lenient {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(&def); err != nil {
			return def, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(!p.Lenient)
		if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
			return def, err
		}
	default:
		return def, fmt.Errorf("unknown format %q", format)
	}
	return def, nil
}
