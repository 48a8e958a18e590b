package eurostat

import "time"

// ViewEntry is a row of the view catalogue
type ViewEntry struct {
	ViewName     string    `json:"view_name"`
	DatasetCode  string    `json:"dataset_code"`
	DatasetTitle string    `json:"dataset_title"`
	CreatedAt    time.Time `json:"created_at"`
}

// Dataset is a downloaded dataset tracked for refresh
type Dataset struct {
	Code        string    `json:"dataset_code"`
	ViewName    string    `json:"view_name"`
	Title       string    `json:"dataset_title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// DatasetSummary is a dataset as listed from the view catalogue
type DatasetSummary struct {
	DatasetCode  string    `json:"dataset_code"`
	DatasetTitle string    `json:"dataset_title"`
	CreatedAt    time.Time `json:"created_at"`
}
