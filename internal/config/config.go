// Package config loads the service configuration: built-in defaults, an
// optional YAML or CUE file, then environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roach88/yggdrasil/internal/distribution"
	"github.com/roach88/yggdrasil/internal/pathspec"
)

//go:embed defaults.yaml
var defaultsYAML []byte

//go:embed schema.cue
var schemaCUE string

// Config is the complete service configuration.
type Config struct {
	Store     StoreConfig           `yaml:"store"`
	SPARQL    SPARQLConfig          `yaml:"sparql"`
	Engine    EngineConfig          `yaml:"engine"`
	Delta     DeltaConfig           `yaml:"delta"`
	Server    ServerConfig          `yaml:"server"`
	Telemetry TelemetryConfig       `yaml:"telemetry"`
	Log       LogConfig             `yaml:"log"`
	Profiles  []ProfileConfig       `yaml:"profiles" validate:"required,dive"`
	Denylist  []distribution.Denied `yaml:"denylist" validate:"dive"`

	Prefixes map[string]string          `yaml:"prefixes"`
	Types    map[string]string          `yaml:"types"`
	Paths    map[string][]pathspec.Spec `yaml:"paths"`
}

// Store backends.
const (
	BackendSPARQL = "sparql"
	BackendSQLite = "sqlite"
)

type StoreConfig struct {
	Backend    string `yaml:"backend" validate:"oneof=sparql sqlite"`
	SQLitePath string `yaml:"sqlite_path" validate:"required_if=Backend sqlite"`
}

type SPARQLConfig struct {
	// Endpoint goes through the authorization layer.
	Endpoint string `yaml:"endpoint" validate:"required,url"`

	// DirectEndpoint is the triple store itself, used for collection when
	// UseDirectQueries is set.
	DirectEndpoint   string        `yaml:"direct_endpoint" validate:"omitempty,url"`
	UseDirectQueries bool          `yaml:"use_direct_queries"`
	Timeout          time.Duration `yaml:"timeout" validate:"gt=0"`
}

type EngineConfig struct {
	ResourcePageSize int    `yaml:"resource_page_size" validate:"gt=0"`
	CopyPageSize     int    `yaml:"copy_page_size" validate:"gt=0"`
	KeepScratchGraph bool   `yaml:"keep_scratch_graph"`
	ScratchPrefix    string `yaml:"scratch_prefix" validate:"required,url"`
}

type DeltaConfig struct {
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
	NATS     NATSConfig    `yaml:"nats"`
}

type NATSConfig struct {
	// URL enables delta intake over NATS when set.
	URL     string `yaml:"url" validate:"omitempty,url"`
	Subject string `yaml:"subject" validate:"required"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

type TelemetryConfig struct {
	Exporter     string `yaml:"exporter" validate:"omitempty,oneof=none otlp stdout"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
	ServiceName  string `yaml:"service_name"`
}

type LogConfig struct {
	Debug  bool   `yaml:"debug"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// ProfileConfig enables and tunes one built-in profile.
type ProfileConfig struct {
	Name                     string `yaml:"name" validate:"required"`
	Enabled                  bool   `yaml:"enabled"`
	Target                   string `yaml:"target" validate:"omitempty,url"`
	CopyStrategy             string `yaml:"copy_strategy" validate:"omitempty,oneof=bulk delta"`
	ValidateDecisionsRelease bool   `yaml:"validate_decisions_release"`
	ValidateDocumentsRelease bool   `yaml:"validate_documents_release"`
	PruneHiddenReferences    bool   `yaml:"prune_hidden_references"`
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, &Error{Code: ErrCodeParse, Field: "defaults.yaml", Message: "bad built-in defaults", Err: err}
	}
	return cfg, nil
}

// Load builds the configuration from the defaults, the file at path (if
// not empty) and the process environment, and validates it.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Error{Code: ErrCodeRead, Field: path, Message: "cannot read configuration", Err: err}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return &Error{Code: ErrCodeParse, Field: path, Message: "invalid YAML", Err: err}
		}
		return nil
	case ".cue":
		doc, err := compileCUE(path, data)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(doc, c); err != nil {
			return &Error{Code: ErrCodeParse, Field: path, Message: "cannot decode CUE export", Err: err}
		}
		return nil
	default:
		return &Error{Code: ErrCodeFormat, Field: path, Message: "configuration must be .yaml, .yml or .cue"}
	}
}

// compileCUE unifies a CUE file with the schema and exports it as JSON,
// which the YAML decoder reads as is.
func compileCUE(path string, data []byte) ([]byte, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &Error{Code: ErrCodeSchema, Message: "bad built-in schema", Err: err}
	}
	user := ctx.CompileBytes(data, cue.Filename(path))
	if err := user.Err(); err != nil {
		return nil, &Error{Code: ErrCodeParse, Field: path, Message: "invalid CUE", Err: err}
	}
	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, &Error{Code: ErrCodeSchema, Field: path, Message: "configuration does not match schema", Err: err}
	}
	doc, err := v.MarshalJSON()
	if err != nil {
		return nil, &Error{Code: ErrCodeSchema, Field: path, Message: "cannot export CUE", Err: err}
	}
	return doc, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that the path table compiles.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			errs := make([]error, len(verrs))
			for i, fe := range verrs {
				errs[i] = &Error{
					Code:    ErrCodeInvalid,
					Field:   fe.Namespace(),
					Message: fmt.Sprintf("failed %q (value %v)", fe.Tag(), fe.Value()),
				}
			}
			return errors.Join(errs...)
		}
		return &Error{Code: ErrCodeInvalid, Message: "validation failed", Err: err}
	}
	if c.SPARQL.UseDirectQueries && c.SPARQL.DirectEndpoint == "" {
		return &Error{Code: ErrCodeInvalid, Field: "Config.SPARQL.DirectEndpoint", Message: "required when use_direct_queries is set"}
	}
	seen := map[string]bool{}
	for _, p := range c.Profiles {
		if seen[p.Name] {
			return &Error{Code: ErrCodeInvalid, Field: "profiles", Message: fmt.Sprintf("profile %q listed twice", p.Name)}
		}
		seen[p.Name] = true
	}
	if _, err := pathspec.Compile(c.PathTable()); err != nil {
		return err
	}
	return nil
}

// PathTable returns the configured path table.
func (c *Config) PathTable() pathspec.Table {
	return pathspec.Table{Prefixes: c.Prefixes, Types: c.Types, Paths: c.Paths}
}
