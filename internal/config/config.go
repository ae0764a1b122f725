// Package config loads and validates harvester configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. HARVESTER_CRAWLER_PAGES.
const EnvPrefix = "HARVESTER"

// Config captures all harvester configuration knobs loaded via Viper.
type Config struct {
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Output   OutputConfig   `mapstructure:"output"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Progress ProgressConfig `mapstructure:"progress"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CrawlerConfig governs discovery and the worker pool.
type CrawlerConfig struct {
	BaseURL      string `mapstructure:"base_url" validate:"required,url"`
	PageParam    string `mapstructure:"page_param" validate:"required"`
	LinkSelector string `mapstructure:"link_selector"`
	StartPage    int    `mapstructure:"start_page" validate:"gte=1"`
	Pages        int    `mapstructure:"pages" validate:"gte=0"`
	Concurrency  int    `mapstructure:"concurrency" validate:"gte=1,lte=256"`
	QueueDepth   int    `mapstructure:"queue_depth" validate:"gte=1"`
	UserAgent    string `mapstructure:"user_agent"`
}

// HTTPConfig configures the listing fetcher.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// OutputConfig selects where records go.
type OutputConfig struct {
	CSVPath string `mapstructure:"csv_path" validate:"required"`
	// ArchiveDir keeps a per-run copy of each table when set.
	ArchiveDir string         `mapstructure:"archive_dir"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
	GCS        GCSConfig      `mapstructure:"gcs"`
	PubSub     PubSubConfig   `mapstructure:"pubsub"`
}

// PostgresConfig enables the relational mirror when DSN is set.
type PostgresConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table" validate:"omitempty,max=63"`
}

// GCSConfig enables CSV upload when Bucket is set.
type GCSConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// PubSubConfig enables run announcements when Topic is set.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id" validate:"required_with=Topic"`
	Topic     string `mapstructure:"topic"`
}

// MetricsConfig starts the metrics server when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// ProgressConfig toggles the terminal spinner.
type ProgressConfig struct {
	Spinner bool `mapstructure:"spinner"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"pages":       "crawler.pages",
	"start-page":  "crawler.start_page",
	"concurrency": "crawler.concurrency",
	"output":      "output.csv_path",
	"metrics":     "metrics.addr",
	"no-spinner":  "progress.no_spinner",
	"log-level":   "logging.level",
}

// Load builds a Config from defaults, an optional file, the environment and
// any changed flags in fs, in increasing precedence.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if v.GetBool("progress.no_spinner") {
		cfg.Progress.Spinner = false
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.base_url", "https://www.tecnoempleo.com/ofertas-trabajo/")
	v.SetDefault("crawler.page_param", "pagina")
	v.SetDefault("crawler.link_selector", "a.font-weight-bold.text-cyan-700")
	v.SetDefault("crawler.start_page", 1)
	v.SetDefault("crawler.pages", 1)
	v.SetDefault("crawler.concurrency", 10)
	v.SetDefault("crawler.queue_depth", 64)
	v.SetDefault("crawler.user_agent", "jobboard-harvester/0.1")
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("output.csv_path", "tecnoempleo_ofertas.csv")
	v.SetDefault("output.postgres.table", "listings")
	v.SetDefault("output.gcs.prefix", "harvests")
	v.SetDefault("progress.spinner", true)
	v.SetDefault("progress.no_spinner", false)
	v.SetDefault("logging.development", true)

	// Optional keys default to empty. Unmarshal only reads keys viper knows,
	// so without these AutomaticEnv would never see their overrides.
	for _, key := range []string{
		"output.archive_dir",
		"output.postgres.dsn",
		"output.gcs.bucket",
		"output.pubsub.project_id",
		"output.pubsub.topic",
		"metrics.addr",
		"logging.level",
	} {
		v.SetDefault(key, "")
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate enforces required values and reasonable limits. Errors name the
// offending config key.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		_, key, _ := strings.Cut(fe.Namespace(), ".")
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", key, rule))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
