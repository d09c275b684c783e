// Package config resolves the installer's settings.
//
// With no configuration at all the installer provisions exactly the
// research environment it was written for: the Switchboard Dialog Act
// corpus tools and a pinned transformers release under ./deps. Every value
// can be overridden, in increasing precedence, by a configuration file, by
// DASEG_BOOTSTRAP_* environment variables, and by command-line flags.
//
// Configuration files may be JSON with comments (.jsonc/.json), cleaned with
// github.com/tidwall/jsonc before parsing, or YAML (.yaml/.yml). Layering is
// handled by github.com/spf13/viper.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"

	"github.com/shinji-kodama/daseg-bootstrap/internal/model"
)

// EnvPrefix is the prefix for environment variable overrides. Nested keys
// use underscores, e.g. DASEG_BOOTSTRAP_TOOLKIT_TAG.
const EnvPrefix = "DASEG_BOOTSTRAP"

// Viper keys. They double as the YAML/JSON field names in config files.
const (
	KeyDepsDir        = "deps_dir"
	KeyPython         = "python"
	KeySpacyModel     = "spacy_model"
	KeyCorpusName     = "corpus.name"
	KeyCorpusURL      = "corpus.url"
	KeyCorpusArchive  = "corpus.archive"
	KeyToolkitName    = "toolkit.name"
	KeyToolkitURL     = "toolkit.url"
	KeyToolkitTag     = "toolkit.tag"
	KeyToolkitExports = "toolkit.exports"
)

// Corpus describes the corpus-processing repository. It ships no packaging
// manifest, so one is generated using Name as the package name.
type Corpus struct {
	// Name is both the clone directory and the generated package name.
	Name string `mapstructure:"name" json:"name" yaml:"name"`

	// URL is the clone source.
	URL string `mapstructure:"url" json:"url" yaml:"url"`

	// Archive is the bundled zip, relative to the clone root, that is
	// extracted in place.
	Archive string `mapstructure:"archive" json:"archive" yaml:"archive"`
}

// Toolkit describes the natural-language-processing toolkit repository.
type Toolkit struct {
	// Name is the clone directory.
	Name string `mapstructure:"name" json:"name" yaml:"name"`

	// URL is the clone source.
	URL string `mapstructure:"url" json:"url" yaml:"url"`

	// Tag is the release tag the working tree is pinned to.
	Tag string `mapstructure:"tag" json:"tag" yaml:"tag"`

	// Exports lists the names the research code imports from the toolkit
	// package. verify checks that the pinned release provides each one.
	// An empty list disables that check.
	Exports []string `mapstructure:"exports" json:"exports" yaml:"exports"`
}

// Config holds every setting the installer uses.
type Config struct {
	// DepsDir is the dependency directory, relative to the working
	// directory unless absolute.
	DepsDir string `mapstructure:"deps_dir" json:"deps_dir" yaml:"deps_dir"`

	// Python is the interpreter used for pip and spaCy.
	Python string `mapstructure:"python" json:"python" yaml:"python"`

	// SpacyModel is the pretrained spaCy model package to download.
	SpacyModel string `mapstructure:"spacy_model" json:"spacy_model" yaml:"spacy_model"`

	Corpus  Corpus  `mapstructure:"corpus" json:"corpus" yaml:"corpus"`
	Toolkit Toolkit `mapstructure:"toolkit" json:"toolkit" yaml:"toolkit"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DepsDir:    "deps",
		Python:     "python",
		SpacyModel: "en_core_web_sm",
		Corpus: Corpus{
			Name:    "swda",
			URL:     "https://github.com/cgpotts/swda.git",
			Archive: "swda.zip",
		},
		Toolkit: Toolkit{
			Name: "transformers",
			URL:  "https://github.com/huggingface/transformers.git",
			Tag:  "v2.11.0",
			Exports: []string{
				"AutoTokenizer",
				"AutoModelForTokenClassification",
				"LongformerTokenizer",
				"ReformerTokenizer",
			},
		},
	}
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// ConfigFile is an optional configuration file. Empty means none.
	ConfigFile string

	// Overrides are applied last, above env and file values. The CLI puts
	// only flags the user actually set here.
	Overrides map[string]any
}

// Load resolves the configuration from defaults, the optional file, the
// environment, and overrides, then validates it.
//
// Returns a CLIError with ExitConfigError on any failure.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault(KeyDepsDir, defaults.DepsDir)
	v.SetDefault(KeyPython, defaults.Python)
	v.SetDefault(KeySpacyModel, defaults.SpacyModel)
	v.SetDefault(KeyCorpusName, defaults.Corpus.Name)
	v.SetDefault(KeyCorpusURL, defaults.Corpus.URL)
	v.SetDefault(KeyCorpusArchive, defaults.Corpus.Archive)
	v.SetDefault(KeyToolkitName, defaults.Toolkit.Name)
	v.SetDefault(KeyToolkitURL, defaults.Toolkit.URL)
	v.SetDefault(KeyToolkitTag, defaults.Toolkit.Tag)
	v.SetDefault(KeyToolkitExports, defaults.Toolkit.Exports)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		if err := readConfigFile(v, opts.ConfigFile); err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError, "failed to load configuration", err)
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "failed to decode configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid configuration", err)
	}
	return cfg, nil
}

// readConfigFile loads path into v, choosing the parser from the extension.
func readConfigFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".jsonc", ".json":
		// Strip JSONC comments (// and /* */) and trailing commas, then
		// let viper parse the result as plain JSON.
		data = jsonc.ToJSON(data)
		v.SetConfigType("json")
	case ".yaml", ".yml":
		v.SetConfigType("yaml")
	default:
		return fmt.Errorf("unsupported config file type %q (valid: .jsonc, .json, .yaml, .yml)", ext)
	}

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Validate checks that every field is usable. All problems are reported
// together.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.DepsDir) == "" {
		errs = append(errs, errors.New("deps_dir must not be empty"))
	}
	if strings.TrimSpace(c.Python) == "" {
		errs = append(errs, errors.New("python must not be empty"))
	}
	if strings.TrimSpace(c.SpacyModel) == "" {
		errs = append(errs, errors.New("spacy_model must not be empty"))
	}

	if err := model.ValidateName(c.Corpus.Name); err != nil {
		errs = append(errs, fmt.Errorf("corpus.name: %w", err))
	}
	if strings.TrimSpace(c.Corpus.URL) == "" {
		errs = append(errs, errors.New("corpus.url must not be empty"))
	}
	if c.Corpus.Archive == "" || !filepath.IsLocal(c.Corpus.Archive) {
		errs = append(errs, fmt.Errorf("corpus.archive %q must be a relative path inside the corpus tree", c.Corpus.Archive))
	}

	if err := model.ValidateName(c.Toolkit.Name); err != nil {
		errs = append(errs, fmt.Errorf("toolkit.name: %w", err))
	}
	if strings.TrimSpace(c.Toolkit.URL) == "" {
		errs = append(errs, errors.New("toolkit.url must not be empty"))
	}
	if strings.TrimSpace(c.Toolkit.Tag) == "" {
		errs = append(errs, errors.New("toolkit.tag must not be empty"))
	}

	if c.Corpus.Name != "" && c.Corpus.Name == c.Toolkit.Name {
		errs = append(errs, fmt.Errorf("corpus and toolkit must clone into different directories (both %q)", c.Corpus.Name))
	}

	return errors.Join(errs...)
}

// AbsDepsDir returns DepsDir as an absolute path.
func (c *Config) AbsDepsDir() (string, error) {
	abs, err := filepath.Abs(c.DepsDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve dependency directory %s: %w", c.DepsDir, err)
	}
	return abs, nil
}
