// Package config loads the options that shape rendered transcripts.
//
// A config file is JSON, TOML or YAML, chosen by extension; keys missing from
// the file keep their defaults. Environment variables prefixed with
// CHATEXPORT_ override file values, and a .env file next to the config is
// read first when present. The loaded Config is a plain value: it is passed to
// each component and never changes during a run.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"chatexport/internal/model"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TitlePlaceholder is substituted with the conversation title in
// FileNameFormat.
const TitlePlaceholder = "{title}"

// ErrConfig marks every failure to load or validate a configuration.
var ErrConfig = errors.New("configuration error")

// Config holds every recognised option.
type Config struct {
	FileNameFormat    string `json:"file_name_format" toml:"file_name_format" yaml:"file_name_format" validate:"required,contains={title}"`
	IncludeDate       bool   `json:"include_date" toml:"include_date" yaml:"include_date"`
	DateFormat        string `json:"date_format" toml:"date_format" yaml:"date_format" validate:"required_if=IncludeDate true"`
	MessageSeparator  string `json:"message_separator" toml:"message_separator" yaml:"message_separator"`
	UserName          string `json:"user_name" toml:"user_name" yaml:"user_name"`
	AssistantName     string `json:"assistant_name" toml:"assistant_name" yaml:"assistant_name"`
	ToolName          string `json:"tool_name" toml:"tool_name" yaml:"tool_name"`
	SystemName        string `json:"system_name" toml:"system_name" yaml:"system_name"`
	SkipEmptyMessages bool   `json:"skip_empty_messages" toml:"skip_empty_messages" yaml:"skip_empty_messages"`
	HTMLCopy          bool   `json:"html_copy" toml:"html_copy" yaml:"html_copy"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		FileNameFormat:    TitlePlaceholder,
		IncludeDate:       true,
		DateFormat:        "%Y-%m-%d",
		MessageSeparator:  "\n\n",
		UserName:          "User",
		AssistantName:     "ChatGPT",
		SkipEmptyMessages: true,
	}
}

// Load reads the configuration at path, applies environment overrides and
// validates the result. Every error wraps ErrConfig.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: read %s: %w", ErrConfig, path, err)
	}
	if err := decode(&cfg, path, data); err != nil {
		return Config{}, fmt.Errorf("%w: decode %s: %w", ErrConfig, path, err)
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("%w: load %s: %w", ErrConfig, envFile, err)
		}
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return cfg, nil
}

func decode(cfg *Config, path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

// ApplyEnvOverrides replaces options with CHATEXPORT_* environment values.
func (c *Config) ApplyEnvOverrides() error {
	strs := map[string]*string{
		"CHATEXPORT_FILE_NAME_FORMAT":  &c.FileNameFormat,
		"CHATEXPORT_DATE_FORMAT":       &c.DateFormat,
		"CHATEXPORT_MESSAGE_SEPARATOR": &c.MessageSeparator,
		"CHATEXPORT_USER_NAME":         &c.UserName,
		"CHATEXPORT_ASSISTANT_NAME":    &c.AssistantName,
		"CHATEXPORT_TOOL_NAME":         &c.ToolName,
		"CHATEXPORT_SYSTEM_NAME":       &c.SystemName,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"CHATEXPORT_INCLUDE_DATE":        &c.IncludeDate,
		"CHATEXPORT_SKIP_EMPTY_MESSAGES": &c.SkipEmptyMessages,
		"CHATEXPORT_HTML_COPY":           &c.HTMLCopy,
	}
	for key, dst := range bools {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		*dst = b
	}
	return nil
}

// Validate checks the struct rules: a file name format containing the title
// placeholder, and a date format whenever the date line is enabled.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q rule", fe.Field(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// RoleName returns the display name for role. Roles without a dedicated
// name fall back to the assistant name.
func (c Config) RoleName(role model.Role) string {
	switch role {
	case model.RoleUser:
		return c.UserName
	case model.RoleTool:
		if c.ToolName != "" {
			return c.ToolName
		}
	case model.RoleSystem:
		if c.SystemName != "" {
			return c.SystemName
		}
	}
	return c.AssistantName
}
