package domain

// Module names the four dataset categories served by the pipeline.
const (
	ModuleLegalizaciones = "legalizaciones"
	ModuleRIPS           = "rips"
	ModuleFacturacion    = "facturacion"
	ModuleProcesos       = "procesos"
)

// ModuleNames lists the known modules in presentation order.
var ModuleNames = []string{
	ModuleLegalizaciones,
	ModuleRIPS,
	ModuleFacturacion,
	ModuleProcesos,
}

// KnownModule reports whether name is one of the fixed modules.
func KnownModule(name string) bool {
	for _, m := range ModuleNames {
		if m == name {
			return true
		}
	}
	return false
}

// ModuleSchema declares the expected shape of one module's uploads.
type ModuleSchema struct {
	Module string `yaml:"module"`

	// HeaderMarker identifies the real header row in uploads that carry
	// banner rows above the column headers.
	HeaderMarker string `yaml:"header_marker"`

	// Required columns beyond the resolved user and date columns.
	Required []string `yaml:"required"`

	// UserVariants and DateVariants are accepted header spellings for the
	// user-identifier and record-date columns, tried in order.
	UserVariants []string `yaml:"user_variants"`
	DateVariants []string `yaml:"date_variants"`

	// Aliases maps known header misspellings to their canonical name,
	// applied after normalization (e.g. NRO_LEGALIACION → NRO_LEGALIZACION).
	Aliases map[string]string `yaml:"aliases"`

	// ValidStates whitelists ESTADO values kept at ingestion. Empty means
	// no status filtering for the module.
	ValidStates []string `yaml:"valid_states"`

	// HasAgreement marks modules carrying a CONVENIO dimension.
	HasAgreement bool `yaml:"has_agreement"`

	// ValueColumn names the monetary column, if the module has one.
	ValueColumn string `yaml:"value_column"`
}

// LoadState is the explicit per-module lifecycle of the dataset loader.
// GetModuleTable is the only transition trigger, which keeps freshness
// rules auditable.
type LoadState string

// StateCacheHit and StateReady are both serving states: the former marks
// a snapshot restored from the cache store, the latter one produced by an
// ingestion in this session.
const (
	StateUnloaded  LoadState = "unloaded"
	StateCacheHit  LoadState = "cache_hit"
	StateCacheMiss LoadState = "cache_miss"
	StateIngesting LoadState = "ingesting"
	StateReady     LoadState = "ready"
	StateFailed    LoadState = "failed"
)
