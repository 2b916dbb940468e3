package prompt

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/killallgit/promptforge/pkg/errors"
)

// DocumentFormat is the on-disk encoding of a serialized prompt.
type DocumentFormat int

const (
	DocumentText DocumentFormat = iota
	DocumentJSON
	DocumentTOML
	DocumentYAML
)

func (f DocumentFormat) String() string {
	switch f {
	case DocumentJSON:
		return "json"
	case DocumentTOML:
		return "toml"
	case DocumentYAML:
		return "yaml"
	default:
		return "text"
	}
}

// DetectDocumentFormat picks a format from the file extension. Unknown
// extensions are plain template text.
func DetectDocumentFormat(path string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DocumentJSON
	case ".toml":
		return DocumentTOML
	case ".yaml", ".yml":
		return DocumentYAML
	default:
		return DocumentText
	}
}

// ParseDocumentFormat accepts json, toml, yaml/yml or text.
func ParseDocumentFormat(s string) (DocumentFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return DocumentJSON, nil
	case "toml":
		return DocumentTOML, nil
	case "yaml", "yml":
		return DocumentYAML, nil
	case "text", "txt", "":
		return DocumentText, nil
	default:
		return 0, errors.Unsupported("unknown document format %q", s)
	}
}

// decodeJSON unmarshals data into v. Errors already carrying a domain mark
// pass through; anything else (syntax, type mismatch) is malformed input.
func decodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		if isDomainError(err) {
			return err
		}
		return errors.Malformed("failed to parse JSON: %v", err)
	}
	return nil
}

func isDomainError(err error) bool {
	return errors.IsAny(err,
		errors.ErrMalformedTemplate,
		errors.ErrUnsupportedFormat,
		errors.ErrMissingVariable,
		errors.ErrInvalidRole,
		errors.ErrRender,
	)
}

// toJSON re-encodes a TOML or YAML document as JSON so the JSON decoders
// carry the validation for every format.
func toJSON(data []byte, format DocumentFormat) ([]byte, error) {
	switch format {
	case DocumentJSON:
		return data, nil

	case DocumentTOML:
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Malformed("failed to parse TOML: %v", err)
		}
		return json.Marshal(doc)

	case DocumentYAML:
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Malformed("failed to parse YAML: %v", err)
		}
		if doc == nil {
			return nil, errors.Malformed("empty YAML document")
		}
		return json.Marshal(doc)

	default:
		return nil, errors.Unsupported("%s documents have no structured form", format)
	}
}

// MarshalDocument encodes v (anything with a JSON form, such as a
// ChatTemplate) as format.
func MarshalDocument(v any, format DocumentFormat) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode JSON")
	}

	switch format {
	case DocumentJSON:
		return data, nil
	case DocumentTOML, DocumentYAML:
	default:
		return nil, errors.Unsupported("cannot marshal to %s", format)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Unsupported("%s documents need a top-level object: %v", format, err)
	}

	if format == DocumentTOML {
		out, err := toml.Marshal(doc)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode TOML")
		}
		return out, nil
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode YAML")
	}
	return out, nil
}

// ParseChatDocument decodes a chat template from JSON, TOML or YAML.
func ParseChatDocument(data []byte, format DocumentFormat, opts ...Option) (*ChatTemplate, error) {
	jsonData, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}
	return ParseChatTemplate(string(jsonData), opts...)
}
