package cfg

type Cfg struct {
	// Storage configuration
	DBPath    string
	RedisAddr string

	// Application configuration
	SourcesFile       string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	RefreshInterval   int
	EdgeWarmInterval  int
	HistoryDays       int
	APIAccessKey      string

	// Summarization
	AnthropicAPIKey string
	SummaryModel    string
	SummaryTopN     int

	// Backup news providers
	GNewsAPIKey    string
	NewsDataAPIKey string
	CurrentsAPIKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
