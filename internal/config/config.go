package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"

	"github.com/roach88/pgstar/internal/rdf"
	"github.com/roach88/pgstar/internal/schema"
)

//go:embed schema.cue
var schemaCUE string

// DefaultFile is the configuration file looked up in the working directory
// when none is given.
const DefaultFile = "pgstar.cue"

// Environment variables overriding the configuration file.
const (
	EnvTrace      = "PGSTAR_TRACE"
	EnvBlankNodes = "PGSTAR_BLANK_NODES"
	EnvOutput     = "PGSTAR_OUTPUT"
)

// Config holds the converter settings.
type Config struct {
	Prefixes   map[string]string `json:"prefixes"`
	BlankNodes string            `json:"blankNodes"`
	Output     string            `json:"output"`
	Trace      string            `json:"trace"`
	Strict     bool              `json:"strict"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg, err := Parse(nil, "default")
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return cfg
}

// Parse unifies a CUE document with the configuration schema and decodes
// the result. Omitted fields take their defaults.
func Parse(src []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()
	def, err := definition(ctx)
	if err != nil {
		return nil, err
	}

	value := def
	if len(src) > 0 {
		user := ctx.CompileBytes(src, cue.Filename(filename))
		if err := user.Err(); err != nil {
			return nil, cueError(filename, err)
		}
		value = def.Unify(user)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(filename, err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", filename, err)
	}
	if cfg.Prefixes == nil {
		cfg.Prefixes = map[string]string{}
	}
	return &cfg, nil
}

func definition(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, err
	}
	def := v.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return cue.Value{}, err
	}
	return def, nil
}

// Load reads the configuration file at path, then applies the environment.
// An empty path means DefaultFile, which may be absent. Variables from a
// .env file in the working directory are loaded first without overriding
// the process environment.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	cfg := Default()
	src, err := os.ReadFile(path)
	switch {
	case err == nil:
		if cfg, err = Parse(src, path); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults
	default:
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: .env: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables read with lookup
// and checks the result against the schema again.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvTrace); ok {
		c.Trace = v
	}
	if v, ok := lookup(EnvBlankNodes); ok {
		c.BlankNodes = v
	}
	if v, ok := lookup(EnvOutput); ok {
		c.Output = v
	}
	return c.Validate()
}

// Validate checks c against the configuration schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	def, err := definition(ctx)
	if err != nil {
		return err
	}
	v := def.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return cueError("environment", err)
	}
	return nil
}

// AllPrefixes returns the built-in prefixes overlaid with the configured
// ones.
func (c *Config) AllPrefixes() map[string]string {
	out := rdf.DefaultPrefixes()
	for k, v := range c.Prefixes {
		out[k] = v
	}
	return out
}

// NewBlankNodeFactory returns the blank node factory the configuration
// selects.
func (c *Config) NewBlankNodeFactory() schema.BlankNodeFactory {
	if c.BlankNodes == "uuid" {
		return schema.UUIDBlankNodes{}
	}
	return schema.NewCounterBlankNodes("b")
}
