package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"acss/transform"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	CompileConfig struct {
		OptimizeCSS         bool   `yaml:"optimize_css"`
		IncreaseSpecificity bool   `yaml:"increase_specificity"`
		SortAtRules         bool   `yaml:"sort_at_rules"`
		SortShorthand       bool   `yaml:"sort_shorthand"`
		ClassHashPrefix     string `yaml:"class_hash_prefix" validate:"omitempty,alphanum"`
		CompressionMapPath  string `yaml:"compression_map_path,omitempty" validate:"omitempty,filepath"`
		OutputNameTemplate  string `yaml:"output_name_template"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Compile   CompileConfig  `yaml:"compile"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// Options builds compiler options from configured defaults. The compression
// map is loaded separately - it may be large and not every command needs it.
func (conf *CompileConfig) Options() transform.Options {
	return transform.Options{
		OptimizeCSS:         conf.OptimizeCSS,
		IncreaseSpecificity: conf.IncreaseSpecificity,
		SortAtRules:         conf.SortAtRules,
		SortShorthand:       conf.SortShorthand,
		ClassHashPrefix:     conf.ClassHashPrefix,
	}
}

// LoadCompressionMap reads the configured class name compression map (a flat
// YAML mapping of generated names to production tokens). An empty path means
// no compression.
func (conf *CompileConfig) LoadCompressionMap() (map[string]string, error) {
	if len(conf.CompressionMapPath) == 0 {
		return nil, nil
	}
	data, err := os.ReadFile(conf.CompressionMapPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read compression map: %w", err)
	}
	m := make(map[string]string)
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode compression map: %w", err)
	}
	return m, nil
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
