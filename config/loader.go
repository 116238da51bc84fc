package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/halclient/logger"
)

// Defaulter is implemented by configs that fill in defaults after loading.
type Defaulter interface {
	ApplyDefaults()
}

// Validator is implemented by configs that check themselves after loading.
type Validator interface {
	Validate() error
}

// FileSystem abstracts the file operations of the loader for tests.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem implements FileSystem on the real file system.
type OSFileSystem struct{}

// Exists reports whether path exists.
func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a .env file into the process environment without
// overriding variables that are already set.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// ResolvedFiles are the config and env files a load will read.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// LoaderConfig holds loader dependencies and overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	// EnvPrefix restricts environment binding to PREFIX_* variables.
	EnvPrefix string
}

// LoaderOption configures Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets the file system used to find files.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix only binds environment variables starting with prefix_.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = strings.TrimSuffix(strings.ToUpper(prefix), "_") }
}

// Resolve finds the config and env files for name. Explicit paths win over
// the search.
func Resolve(name string, lc LoaderConfig) ResolvedFiles {
	fs := lc.FileSystem
	if fs == nil {
		fs = OSFileSystem{}
	}
	files := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = firstExisting(fs, configCandidates(name))
	}
	if files.EnvFile == "" {
		files.EnvFile = firstExisting(fs, envCandidates(name))
	}
	return files
}

func configCandidates(name string) []string {
	var paths []string
	for _, dir := range []string{".", "./config", ".."} {
		for _, ext := range []string{"yml", "yaml"} {
			if name != "" {
				paths = append(paths, fmt.Sprintf("%s/%s.%s", dir, name, ext))
			}
			paths = append(paths, fmt.Sprintf("%s/config.%s", dir, ext))
		}
	}
	return paths
}

func envCandidates(name string) []string {
	var paths []string
	for _, dir := range []string{".", "./config", ".."} {
		if name != "" {
			paths = append(paths, fmt.Sprintf("%s/.env.%s", dir, name))
		}
		paths = append(paths, dir+"/.env")
	}
	return paths
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// Load reads configuration for name into cfg, which must be a pointer to a
// struct with mapstructure tags. Defaults are applied and the result is
// validated when cfg implements Defaulter and Validator.
func Load(name string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = OSFileSystem{}
	}

	files := Resolve(name, lc)
	if err := load(cfg, files, lc); err != nil {
		return fmt.Errorf("config %s: %w", name, err)
	}

	if d, ok := cfg.(Defaulter); ok {
		d.ApplyDefaults()
	}
	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func load(cfg any, files ResolvedFiles, lc LoaderConfig) error {
	log := logger.Get("config")
	v := viper.New()

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", files.ConfigFile, err)
		}
		log.Debug("loaded config file", logger.Fields("file", files.ConfigFile))
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			log.Warn("failed to load .env file", logger.Fields("file", files.EnvFile, logger.FieldError, err.Error()))
		}
	}

	bindEnv(v, os.Environ(), lc.EnvPrefix)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

// bindEnv sets every KEY=value pair under each nested key it could mean.
func bindEnv(v *viper.Viper, environ []string, prefix string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if prefix != "" {
			rest, found := strings.CutPrefix(key, prefix+"_")
			if !found {
				continue
			}
			key = rest
		}
		for _, variant := range envKeyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// envKeyVariants maps an environment key to the config keys it may address,
// since an underscore is either a nesting separator or part of a key:
//
//	RETRY_MAX_ATTEMPTS -> retry_max_attempts, retry.max.attempts,
//	                      retry.max_attempts, retry_max.attempts
func envKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) <= 1 {
		return []string{lower}
	}

	variants := []string{lower, strings.Join(parts, ".")}
	for i := 1; i < len(parts); i++ {
		head := strings.Join(parts[:i], ".")
		tail := strings.Join(parts[i:], "_")
		variants = append(variants, head+"."+tail)

		head = strings.Join(parts[:i], "_")
		tail = strings.Join(parts[i:], ".")
		variants = append(variants, head+"."+tail)
	}
	return dedupe(variants)
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}
