package config

// Supplier profile types

type Profile struct {
	Name     string          // Derived from filename (without .yml extension)
	Source   ProfileSource   `yaml:"source"`
	Settings ProfileSettings `yaml:"settings"`
}

type ProfileSource struct {
	RemoteDir string `yaml:"remote_dir"`
	Extension string `yaml:"extension"` // case-insensitive match, defaults to .txt
	Encoding  string `yaml:"encoding"`  // utf-8 (default) or latin-1
}

type ProfileSettings struct {
	Enabled         bool `yaml:"enabled"`
	StockThreshold  int  `yaml:"stock_threshold"`   // rows with stock <= threshold are dropped
	UpsertBatchSize int  `yaml:"upsert_batch_size"` // rows per catalog upsert statement
}
