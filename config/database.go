package config

// HistoryDBConfig contains the optional PostgreSQL configuration for the
// processed-message history. History is disabled when Host is empty; the
// pipeline itself never depends on it.
type HistoryDBConfig struct {
	Host     string `env:"HOST"     envDefault:""`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"voicerelay"`
	Password string `env:"PASSWORD" envDefault:"voicerelay"`
	Name     string `env:"NAME"     envDefault:"voicerelay"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production

	// RunMigrationsOnStart controls whether the schema is applied during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// Enabled reports whether a history database is configured.
func (h HistoryDBConfig) Enabled() bool {
	return h.Host != ""
}
