// Package config assembles the tool's configuration from, in increasing
// priority: built-in defaults, environment variables (optionally from a
// .env file), an optional blendscan.yaml, and CLI flags (applied by cmd).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration of one pipeline run.
type Config struct {
	BlenderExec string  `yaml:"blender_exec" json:"blender_exec"`
	WorkDir     string  `yaml:"workdir" json:"workdir"`
	Listen      string  `yaml:"listen" json:"listen"` // websocket progress address, "" = disabled
	AutoOpen    bool    `yaml:"auto_open" json:"auto_open"`
	Backend     Backend `yaml:"backend" json:"backend"`
}

// Backend selects and parameterizes the model backend. A non-empty
// LMStudioAPI selects the remote OpenAI-compatible backend; otherwise the
// local Ollama backend is used.
type Backend struct {
	LMStudioAPI   string `yaml:"lmstudio_api" json:"lmstudio_api"`
	LMStudioModel string `yaml:"lmstudio_model" json:"lmstudio_model"`
	OllamaAPI     string `yaml:"ollama_api" json:"ollama_api"`
	OllamaModel   string `yaml:"ollama_model" json:"ollama_model"`
}

// UseLMStudio reports whether the remote backend is selected.
func (b Backend) UseLMStudio() bool {
	return b.LMStudioAPI != ""
}

// configSchema validates the yaml file's shape before it is applied, so a
// typoed key fails loudly instead of being silently ignored.
const configSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "blender_exec": {"type": "string"},
    "workdir": {"type": "string"},
    "listen": {"type": "string"},
    "auto_open": {"type": "boolean"},
    "backend": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "lmstudio_api": {"type": "string"},
        "lmstudio_model": {"type": "string"},
        "ollama_api": {"type": "string"},
        "ollama_model": {"type": "string"}
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("blendscan.schema.json", configSchema)

// Load builds a Config from defaults, a .env file when present, and
// environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		BlenderExec: "blender",
		WorkDir:     ".",
		AutoOpen:    true,
	}

	applyEnv(&cfg.BlenderExec, "BLENDSCAN_BLENDER_EXEC")
	applyEnv(&cfg.WorkDir, "BLENDSCAN_WORKDIR")
	applyEnv(&cfg.Listen, "BLENDSCAN_LISTEN")
	applyEnv(&cfg.Backend.LMStudioAPI, "BLENDSCAN_LMSTUDIO_API")
	applyEnv(&cfg.Backend.LMStudioModel, "BLENDSCAN_LMSTUDIO_MODEL")
	applyEnv(&cfg.Backend.OllamaAPI, "BLENDSCAN_OLLAMA_API")
	applyEnv(&cfg.Backend.OllamaModel, "BLENDSCAN_OLLAMA_MODEL")

	return cfg, nil
}

// fileConfig mirrors Config for decoding blendscan.yaml. AutoOpen is a
// pointer so an absent key stays distinguishable from an explicit false.
type fileConfig struct {
	BlenderExec string  `yaml:"blender_exec"`
	WorkDir     string  `yaml:"workdir"`
	Listen      string  `yaml:"listen"`
	AutoOpen    *bool   `yaml:"auto_open"`
	Backend     Backend `yaml:"backend"`
}

// MergeFile validates path against the config schema and overlays its
// values onto cfg. Keys absent from the file leave cfg untouched.
func (c *Config) MergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("invalid yaml in %s: %w", path, err)
	}
	if err := compiledSchema.Validate(toJSONValue(generic)); err != nil {
		return fmt.Errorf("config file %s failed validation: %w", path, err)
	}

	var file fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	overlay(&c.BlenderExec, file.BlenderExec)
	overlay(&c.WorkDir, file.WorkDir)
	overlay(&c.Listen, file.Listen)
	if file.AutoOpen != nil {
		c.AutoOpen = *file.AutoOpen
	}
	overlay(&c.Backend.LMStudioAPI, file.Backend.LMStudioAPI)
	overlay(&c.Backend.LMStudioModel, file.Backend.LMStudioModel)
	overlay(&c.Backend.OllamaAPI, file.Backend.OllamaAPI)
	overlay(&c.Backend.OllamaModel, file.Backend.OllamaModel)
	return nil
}

func applyEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// toJSONValue converts yaml.v3's generic decoding output into the shape
// the jsonschema validator expects (map[string]interface{} keys).
func toJSONValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = toJSONValue(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = toJSONValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = toJSONValue(val)
		}
		return out
	default:
		return v
	}
}
