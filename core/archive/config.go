package archive

// Config holds configuration for the reconciliation archive.
type Config struct {
	// Enabled turns archiving of applied reconciliations on.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Prefix is the object key prefix every report is stored under.
	Prefix string `mapstructure:"prefix" default:"reconciliations"`
	// Keep is the number of reports retained per parent. Zero keeps everything.
	Keep int `mapstructure:"keep" default:"20"`
}
