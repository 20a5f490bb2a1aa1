package reconcile

// Config holds configuration for reconciliation requests.
type Config struct {
	// IdentifierKey is the attribute carrying record identifiers in incoming payloads.
	IdentifierKey string `mapstructure:"identifier_key" default:"identifier"`
	// RequireConfirmation makes HTTP callers pass confirm=1 before anything is applied.
	RequireConfirmation bool `mapstructure:"require_confirmation" default:"false"`
}
