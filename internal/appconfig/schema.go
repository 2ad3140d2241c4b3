// internal/appconfig/schema.go
package appconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema describes the accepted shape of config/config.json.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "hosts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "url"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "url": {"type": "string", "minLength": 1},
          "type": {"type": "string", "enum": ["", "hf", "huggingface", "ollama", "llama.cpp", "llamacpp"]},
          "apiKey": {"type": "string"}
        }
      }
    },
    "backends": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "host": {"type": "string"},
          "model": {"type": "string"}
        }
      }
    },
    "generation": {
      "type": "object",
      "properties": {
        "parameterTemplate": {"type": "string"},
        "parameters": {
          "type": "object",
          "properties": {
            "max_length": {"type": "integer", "minimum": 1},
            "temperature": {"type": "number", "exclusiveMinimum": 0, "maximum": 1},
            "top_k": {"type": "integer", "minimum": 1},
            "top_p": {"type": "number", "exclusiveMinimum": 0, "maximum": 1},
            "seed": {"type": "integer"}
          }
        }
      }
    },
    "qa": {
      "type": "object",
      "properties": {
        "docsDir": {"type": "string"},
        "answerModel": {"type": "string"},
        "answerMaxLength": {"type": "integer", "minimum": 1},
        "languages": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["code"],
            "properties": {
              "code": {"type": "string", "enum": ["en", "hi", "fr", "ml"]},
              "strategy": {"type": "string", "enum": ["", "rule", "model"]},
              "document": {"type": "string"}
            }
          }
        }
      }
    },
    "speech": {
      "type": "object",
      "properties": {
        "sttURL": {"type": "string"},
        "sttModel": {"type": "string"},
        "sttAPIKey": {"type": "string"},
        "ttsURL": {"type": "string"},
        "ttsCacheMinutes": {"type": "integer", "minimum": 0}
      }
    },
    "debug": {"type": "boolean"},
    "metrics": {"type": "boolean"},
    "metricsPath": {"type": "string"},
    "timeout": {"type": "integer", "minimum": 0},
    "logFile": {"type": "string"}
  }
}`

// ValidateDocument checks raw config JSON against the config schema.
func ValidateDocument(data []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(configSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("config failed validation: %s", strings.Join(details, "; "))
}

// ValidateFile reads and validates the config file at path.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return ValidateDocument(data)
}
