package sdmx

import (
	"context"
	"time"
)

// StructureRepository persists ISTAT structural metadata
type StructureRepository interface {
	// UpsertDataflows inserts dataflows, updating every column on conflict
	UpsertDataflows(ctx context.Context, flows []Dataflow) error
	// UpsertDataStructures inserts structures, updating every column on conflict
	UpsertDataStructures(ctx context.Context, structures []DataStructure) error
	// ReplaceDetails deletes the details of the given structures and inserts the new ones
	ReplaceDetails(ctx context.Context, structureIDs []string, details []StructureDetail) error
	// ReplaceGroups deletes the groups of the given structures and inserts the new ones
	ReplaceGroups(ctx context.Context, structureIDs []string, groups []StructureGroup) error
	// ListDataflows returns every dataflow ordered by ID
	ListDataflows(ctx context.Context) ([]Dataflow, error)
	// FindDataflow returns a dataflow by ID, or shared.ErrNotFound
	FindDataflow(ctx context.Context, id string) (*Dataflow, error)
	// DimensionCodelists returns the codelists used by the dimensions of a dataflow
	DimensionCodelists(ctx context.Context, dataflowID string) ([]DimensionCodelist, error)
	// DataStructureFor returns the structure referenced by a dataflow
	DataStructureFor(ctx context.Context, dataflowID string) (*DataStructure, error)
}

// CategoryRepository persists category schemes and the dataflow mapping
type CategoryRepository interface {
	// UpsertCategories inserts categories, leaving existing rows untouched
	UpsertCategories(ctx context.Context, cats []Category) error
	// ReplaceMapping replaces the whole dataflow to category mapping
	ReplaceMapping(ctx context.Context, links []DataflowCategory) error
	// ListCategories returns every category ordered by ID
	ListCategories(ctx context.Context) ([]Category, error)
	// DataflowsForCategory returns the dataflows of a category ordered by ID
	DataflowsForCategory(ctx context.Context, categoryID string) ([]Dataflow, error)
	// TablesForCategory returns id_refid names of the category's dataflows
	TablesForCategory(ctx context.Context, categoryID string) ([]string, error)
}

// Load statuses
const (
	LoadRunning   = "running"
	LoadCompleted = "completed"
	LoadEmpty     = "empty"
	LoadFailed    = "failed"
)

// LoadLog is one attempt at loading a dataflow's data
type LoadLog struct {
	ID         uint       `json:"id"`
	DataflowID string     `json:"dataflow_id"`
	TableName  string     `json:"table_name"`
	Rows       int64      `json:"rows"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// LoadLogRepository records data loads
type LoadLogRepository interface {
	Start(ctx context.Context, dataflowID, table string) (*LoadLog, error)
	Finish(ctx context.Context, log *LoadLog) error
	Recent(ctx context.Context, limit int) ([]LoadLog, error)
}
