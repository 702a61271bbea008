package output

// ListOutput is the JSON result of the list command.
type ListOutput struct {
	Models  []ModelInfo `json:"models"`
	Summary ListSummary `json:"summary"`
}

// ModelInfo describes one resolved model.
type ModelInfo struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Code            string       `json:"code,omitempty"`
	IsDocumentModel bool         `json:"is_document_model"`
	Entities        []EntityInfo `json:"entities"`
	Relationships   int          `json:"relationships"`
}

// EntityInfo describes one entity of a model.
type EntityInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Code       string `json:"code,omitempty"`
	Attributes int    `json:"attributes"`
	PrimaryKey string `json:"primary_key,omitempty"`
	IsShortcut bool   `json:"is_shortcut"`
}

// ListSummary counts what list found.
type ListSummary struct {
	Models   int `json:"models"`
	Entities int `json:"entities"`
	Mappings int `json:"mappings"`
	Warnings int `json:"warnings"`
}

// LineageOutput is the JSON result of the lineage command. LoadOrder
// groups entity names by load level and is empty when mappings form a cycle.
type LineageOutput struct {
	Mappings  []MappingInfo  `json:"mappings"`
	LoadOrder [][]string     `json:"load_order,omitempty"`
	Entity    *EntityLineage `json:"entity,omitempty"`
}

// EntityLineage lists the entities one entity reads from and feeds.
type EntityLineage struct {
	Name       string   `json:"name"`
	Upstream   []string `json:"upstream"`
	Downstream []string `json:"downstream"`
}

// MappingInfo describes the lineage of one target entity.
type MappingInfo struct {
	Name         string            `json:"name"`
	Target       string            `json:"target"`
	Sources      []string          `json:"sources"`
	Compositions []CompositionInfo `json:"compositions"`
	Attributes   []AttributeEdge   `json:"attributes"`
}

// CompositionInfo describes one FROM or JOIN step of a mapping.
type CompositionInfo struct {
	Order      int      `json:"order"`
	Type       string   `json:"type"`
	Entity     string   `json:"entity"`
	Alias      string   `json:"alias,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
}

// AttributeEdge maps a source attribute onto a target attribute.
type AttributeEdge struct {
	Target string `json:"target"`
	Source string `json:"source,omitempty"`
}

// ExtractOutput is the JSON result of the extract command.
type ExtractOutput struct {
	RunID    string   `json:"run_id,omitempty"`
	Source   string   `json:"source"`
	Output   string   `json:"output"`
	Summary  Summary  `json:"summary"`
	Warnings []string `json:"warnings"`
}

// Summary counts the objects of an extracted document.
type Summary struct {
	Models   int `json:"models"`
	Entities int `json:"entities"`
	Mappings int `json:"mappings"`
	Warnings int `json:"warnings"`
}

// GenerateOutput is the JSON result of the generate command.
type GenerateOutput struct {
	Dir     string   `json:"dir"`
	Scripts []string `json:"scripts"`
}

// DeployOutput is the JSON result of the deploy command.
type DeployOutput struct {
	Target     string   `json:"target"`
	Applied    []string `json:"applied"`
	DurationMS int64    `json:"duration_ms"`
	Error      *string  `json:"error,omitempty"`
}

// HistoryOutput is the JSON result of the history command.
type HistoryOutput struct {
	Runs []RunInfo `json:"runs"`
}

// RunInfo describes one recorded extraction run.
type RunInfo struct {
	ID          string   `json:"id"`
	Source      string   `json:"source"`
	Status      string   `json:"status"`
	StartedAt   string   `json:"started_at"`
	CompletedAt string   `json:"completed_at,omitempty"`
	Error       *string  `json:"error,omitempty"`
	Summary     Summary  `json:"summary"`
	Warnings    []string `json:"warnings,omitempty"`
}
