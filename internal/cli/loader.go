package cli

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var documentSchema string

// Error code constants, unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // generic/unknown error
	ErrCodeNotFound    = "E002" // document path not found
	ErrCodeUnsupported = "E003" // unsupported document extension
	ErrCodeParse       = "E004" // document is not valid JSON/YAML
	ErrCodeSchema      = "E005" // document violates the envelope schema
	ErrCodeDecode      = "E006" // document failed graph decoding
)

// LoadError is an error raised while loading a document file.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDocument reads a graph document from a .json, .yaml, or .yml file,
// converts YAML to JSON, and validates the envelope against the embedded
// CUE schema. Returns the document as JSON bytes ready for graph decoding.
func LoadDocument(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("document not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	var data []byte
	switch filepath.Ext(path) {
	case ".json":
		data = raw
	case ".yaml", ".yml":
		data, err = yamlToJSON(raw)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("parsing %s: %v", path, err)}
		}
	default:
		return nil, &LoadError{
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("unsupported document extension %q (want .json, .yaml, or .yml)", filepath.Ext(path)),
		}
	}

	if !json.Valid(data) {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%s is not valid JSON", path)}
	}

	if err := validateSchema(data); err != nil {
		return nil, &LoadError{Code: ErrCodeSchema, Message: fmt.Sprintf("%s: %v", path, err)}
	}
	return data, nil
}

// validateSchema unifies the document with the embedded envelope schema.
func validateSchema(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(documentSchema)
	if err := schema.Err(); err != nil {
		// The schema is embedded at build time; failing to compile it is
		// a packaging bug.
		panic(fmt.Sprintf("cli: compiling embedded document schema: %v", err))
	}

	// JSON is a subset of CUE.
	doc := ctx.CompileBytes(data)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("compiling document: %w", err)
	}

	unified := schema.Unify(doc)
	if err := unified.Err(); err != nil {
		return fmt.Errorf("schema violation: %w", err)
	}
	// Concrete validation catches missing required fields such as a node
	// without a kind.
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema violation: %w", err)
	}
	return nil
}

// yamlToJSON converts a YAML document to JSON bytes.
func yamlToJSON(raw []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	normalized, err := normalizeYAML(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

// normalizeYAML rejects non-string mapping keys, which YAML allows and
// JSON does not.
func normalizeYAML(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			norm, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out[k] = norm
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string mapping key %v", k)
			}
			norm, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out[key] = norm
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			norm, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out[i] = norm
		}
		return out, nil
	default:
		return v, nil
	}
}
