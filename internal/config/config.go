// Package config loads assetsync settings.
//
// Sources, lowest precedence first: struct defaults, an assetsync.yaml
// found in the working directory or any parent, a .env file, ASSETSYNC_*
// environment variables and finally command line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/acksell/assetsync/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config file searched for by Load.
const FileName = "assetsync.yaml"

// EnvPrefix prefixes environment overrides, e.g. ASSETSYNC_STORE_BACKEND.
const EnvPrefix = "ASSETSYNC"

const (
	BackendBadger   = "badger"
	BackendDynamoDB = "dynamodb"
)

type Config struct {
	Store StoreConfig   `mapstructure:"store"`
	AWS   AWSConfig     `mapstructure:"aws"`
	Log   logger.Config `mapstructure:"log"`
}

type StoreConfig struct {
	// Backend is badger for the local store or dynamodb.
	Backend string `mapstructure:"backend" default:"badger"`
	// Path is the badger data directory.
	Path     string `mapstructure:"path" default:".assetsync/data"`
	InMemory bool   `mapstructure:"in_memory" default:"false"`
	Table    string `mapstructure:"table" default:"assets"`
	// CreateTable creates the table on startup when it is missing.
	CreateTable bool `mapstructure:"create_table" default:"true"`
}

type AWSConfig struct {
	Region   string `mapstructure:"region"`
	Profile  string `mapstructure:"profile"`
	Endpoint string `mapstructure:"endpoint"`
}

// Options control where Load looks.
type Options struct {
	// Dir is where the config file search starts and where .env is read.
	// Empty means the working directory.
	Dir string
	// Flags are bound by their annotation, see FlagKey.
	Flags *pflag.FlagSet
}

// flagKeyAnnotation links a flag to the config key it overrides.
const flagKeyAnnotation = "assetsync_config_key"

// FlagKey marks flag name in fs as an override for key.
func FlagKey(fs *pflag.FlagSet, name, key string) {
	if err := fs.SetAnnotation(name, flagKeyAnnotation, []string{key}); err != nil {
		panic(err)
	}
}

func Load(opts Options) (*Config, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		dir = wd
	}

	// a missing .env is fine
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	bindValues(v, Config{}, "")

	if path := findConfigFile(dir); path != "" {
		values, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(values); err != nil {
			return nil, fmt.Errorf("merge %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		var bindErr error
		opts.Flags.VisitAll(func(f *pflag.Flag) {
			keys := f.Annotations[flagKeyAnnotation]
			if len(keys) == 1 && bindErr == nil {
				bindErr = v.BindPFlag(keys[0], f)
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendBadger:
		if c.Store.Path == "" && !c.Store.InMemory {
			return fmt.Errorf("store.path is required unless store.in_memory is set")
		}
	case BackendDynamoDB:
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", BackendBadger, BackendDynamoDB, c.Store.Backend)
	}
	if c.Store.Table == "" {
		return fmt.Errorf("store.table is required")
	}
	return nil
}

func readConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	values := map[string]any{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return values, nil
}

// findConfigFile searches for assetsync.yaml walking up from dir.
func findConfigFile(dir string) string {
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
