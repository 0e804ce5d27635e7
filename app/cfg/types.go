package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Supplier file source
	FTPHost     string
	FTPPort     string
	FTPUser     string
	FTPPassword string

	// Enrichment service
	APIKey     string
	APIBaseURL string

	// Application configuration
	ProfilesDir  string
	StagingDir   string
	OutputDir    string
	CatalogTable string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
