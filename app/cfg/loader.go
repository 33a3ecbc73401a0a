package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath    string `long:"db-path" env:"DB_PATH" default:"./geobrief.db" description:"Path to the SQLite database file"`
	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the edge cache (optional, in-memory cache is used when unset)"`

	// Application configuration
	SourcesFile       string `long:"sources-file" env:"SOURCES_FILE" default:"./sources/sources.yml" description:"Path to the feed source registry file"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://brief.example.com)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for task processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler tick interval in seconds"`
	RefreshInterval   int    `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"600" description:"Briefing refresh interval in seconds"`
	EdgeWarmInterval  int    `long:"edge-warm-interval" env:"EDGE_WARM_INTERVAL" default:"900" description:"Edge cache pre-generation interval in seconds"`
	HistoryDays       int    `long:"history-days" env:"HISTORY_DAYS" default:"7" description:"Number of prior days of briefing snapshots to retain"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for admin endpoints (optional)"`

	// Summarization
	AnthropicAPIKey string `long:"anthropic-api-key" env:"ANTHROPIC_API_KEY" description:"Anthropic API key for cluster summaries (optional)"`
	SummaryModel    string `long:"summary-model" env:"SUMMARY_MODEL" default:"claude-3-5-haiku-latest" description:"Model used for cluster summaries"`
	SummaryTopN     int    `long:"summary-top-n" env:"SUMMARY_TOP_N" default:"5" description:"Number of top clusters summarized by the edge warm job"`

	// Backup news providers
	GNewsAPIKey    string `long:"gnews-api-key" env:"GNEWS_API_KEY" description:"GNews API key (backup provider)"`
	NewsDataAPIKey string `long:"newsdata-api-key" env:"NEWSDATA_API_KEY" description:"NewsData API key (backup provider)"`
	CurrentsAPIKey string `long:"currents-api-key" env:"CURRENTS_API_KEY" description:"Currents API key (backup provider)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"GeoBrief/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		RedisAddr:         raw.RedisAddr,
		SourcesFile:       raw.SourcesFile,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		RefreshInterval:   raw.RefreshInterval,
		EdgeWarmInterval:  raw.EdgeWarmInterval,
		HistoryDays:       raw.HistoryDays,
		APIAccessKey:      raw.APIAccessKey,
		AnthropicAPIKey:   raw.AnthropicAPIKey,
		SummaryModel:      raw.SummaryModel,
		SummaryTopN:       raw.SummaryTopN,
		GNewsAPIKey:       raw.GNewsAPIKey,
		NewsDataAPIKey:    raw.NewsDataAPIKey,
		CurrentsAPIKey:    raw.CurrentsAPIKey,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
