package config

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "pivotcli/internal/errors"
)

// EnvPrefix namespaces every environment override, e.g. PIVOT_FETCH_MODE.
const EnvPrefix = "PIVOT"

// Config represents the complete application configuration
type Config struct {
	Fetch     FetchConfig     `yaml:"fetch" envconfig:"FETCH"`
	Pivot     PivotConfig     `yaml:"pivot" envconfig:"PIVOT"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
}

// FetchConfig controls how the export link is located and downloaded
type FetchConfig struct {
	Mode          string        `yaml:"mode" split_words:"true" validate:"oneof=browser http"`
	PageURL       string        `yaml:"page_url" split_words:"true" validate:"required,url"`
	Selector      string        `yaml:"selector" split_words:"true" validate:"required"`
	LinkAttribute string        `yaml:"link_attribute" split_words:"true" validate:"required"`
	Headless      bool          `yaml:"headless" split_words:"true"`
	HTTPTimeout   time.Duration `yaml:"http_timeout" split_words:"true" validate:"gt=0"`
	UserAgent     string        `yaml:"user_agent" split_words:"true"`
}

// PivotConfig describes the aggregation and display formatting
type PivotConfig struct {
	SourceSheet        string   `yaml:"source_sheet" split_words:"true" validate:"required"`
	IndexColumn        string   `yaml:"index_column" split_words:"true" validate:"required"`
	ValueColumns       []string `yaml:"value_columns" split_words:"true" validate:"required,min=1,dive,required"`
	SortColumn         string   `yaml:"sort_column" split_words:"true" validate:"required"`
	ColumnPrefix       string   `yaml:"column_prefix" split_words:"true"`
	CurrencyColumns    []string `yaml:"currency_columns" split_words:"true" validate:"dive,required"`
	CurrencySymbol     string   `yaml:"currency_symbol" split_words:"true"`
	DecimalPlaces      int      `yaml:"decimal_places" split_words:"true" validate:"min=0,max=10"`
	ThousandsSeparator bool     `yaml:"thousands_separator" split_words:"true"`
}

// OutputConfig names the spreadsheet artifacts of a run
type OutputConfig struct {
	RawExportFile string `yaml:"raw_export_file" split_words:"true" validate:"required"`
	PivotFile     string `yaml:"pivot_file" split_words:"true" validate:"required"`
	PivotSheet    string `yaml:"pivot_sheet" split_words:"true" validate:"required"`
	PrintSummary  bool   `yaml:"print_summary" split_words:"true"`
}

// StorageConfig locates the embedded database
type StorageConfig struct {
	DatabaseFile string `yaml:"database_file" split_words:"true" validate:"required"`
	TableName    string `yaml:"table_name" split_words:"true" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" split_words:"true" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" split_words:"true"`
	Output      string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" split_words:"true"`
	Development bool   `yaml:"development" split_words:"true"`
}

// TelemetryConfig controls tracing and the metrics textfile
type TelemetryConfig struct {
	TraceExporter string `yaml:"trace_exporter" split_words:"true" validate:"oneof=none stdout"`
	MetricsFile   string `yaml:"metrics_file" split_words:"true"`
	Environment   string `yaml:"environment" split_words:"true"`
}

// PipelineConfig bounds a whole run
type PipelineConfig struct {
	Timeout time.Duration `yaml:"timeout" split_words:"true" validate:"gt=0"`
}

// Load loads configuration from defaults, the first config file found and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file path. An empty path skips the
// file layer.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).WithContext("file", configFile)
		}
	}

	// Fields without a matching variable are left untouched
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.Struct(c); err != nil {
		return err
	}

	if !slices.Contains(c.Pivot.ValueColumns, c.Pivot.SortColumn) {
		return fmt.Errorf("sort column %q is not one of the value columns", c.Pivot.SortColumn)
	}
	for _, col := range c.Pivot.CurrencyColumns {
		if !slices.Contains(c.Pivot.ValueColumns, col) {
			return fmt.Errorf("currency column %q is not one of the value columns", col)
		}
	}
	if c.Pivot.IndexColumn != "" && slices.Contains(c.Pivot.ValueColumns, c.Pivot.IndexColumn) {
		return fmt.Errorf("index column %q cannot also be a value column", c.Pivot.IndexColumn)
	}

	// JSON is the only supported log format
	if c.Logging.Format != DefaultLogFormat {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"pivot.yaml",
		"configs/pivot.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Fetch: FetchConfig{
			Mode:          ModeBrowser,
			PageURL:       DefaultPageURL,
			Selector:      DefaultSelector,
			LinkAttribute: DefaultLinkAttr,
			Headless:      true,
			HTTPTimeout:   DefaultHTTPTimeout,
		},
		Pivot: PivotConfig{
			SourceSheet:     DefaultSourceSheet,
			IndexColumn:     DefaultIndexColumn,
			ValueColumns:    slices.Clone(DefaultValueColumns),
			SortColumn:      DefaultSortColumn,
			ColumnPrefix:    DefaultColumnPrefix,
			CurrencyColumns: slices.Clone(DefaultCurrencyColumns),
			CurrencySymbol:  DefaultCurrencySymbol,
			DecimalPlaces:   DefaultDecimalPlaces,
		},
		Output: OutputConfig{
			RawExportFile: DefaultRawExportFile,
			PivotFile:     DefaultPivotFile,
			PivotSheet:    DefaultPivotSheet,
			PrintSummary:  true,
		},
		Storage: StorageConfig{
			DatabaseFile: DefaultDatabaseFile,
			TableName:    DefaultTableName,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			Output: DefaultLogOutput,
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
			Environment:   "production",
		},
		Pipeline: PipelineConfig{
			Timeout: DefaultPipelineTimeout,
		},
	}
}
