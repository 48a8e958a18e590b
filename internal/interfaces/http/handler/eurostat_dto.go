package handler

import (
	"time"

	"github.com/statload/backend/internal/domain/eurostat"
	"github.com/statload/backend/internal/infrastructure/scheduler"
)

// DatasetURI binds the dataset code path parameter
type DatasetURI struct {
	Code string `uri:"code" binding:"required,datasetcode"`
}

// DownloadRequest is the optional body of download and refresh requests
type DownloadRequest struct {
	Title string `json:"title" binding:"max=500"`
}

// NodeResponse is one entry of the Eurostat catalogue
type NodeResponse struct {
	Code  string   `json:"code"`
	Title string   `json:"title"`
	Type  string   `json:"type"`
	Path  []string `json:"path"`
}

// ViewsResponse lists the views and the catalogue roots
type ViewsResponse struct {
	Views      []eurostat.ViewEntry `json:"views"`
	Categories []NodeResponse       `json:"categories"`
}

// BrowseResponse is a position in the catalogue
type BrowseResponse struct {
	Node       NodeResponse   `json:"node"`
	Children   []NodeResponse `json:"children"`
	Breadcrumb []NodeResponse `json:"breadcrumb"`
}

// UpToDateResponse answers a download of a dataset already loaded today
type UpToDateResponse struct {
	DatasetCode  string    `json:"dataset_code"`
	Message      string    `json:"message"`
	UpToDate     bool      `json:"up_to_date"`
	LastDownload time.Time `json:"last_download"`
}

// JobResponse describes a queued or finished job
type JobResponse struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	DatasetCode  string     `json:"dataset_code"`
	DatasetTitle string     `json:"dataset_title,omitempty"`
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
	RetryCount   int        `json:"retry_count"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func toNodeResponse(n *eurostat.Node) NodeResponse {
	path := n.Path
	if path == nil {
		path = []string{}
	}
	return NodeResponse{Code: n.Code, Title: n.Name, Type: string(n.Kind), Path: path}
}

func toNodeResponses(nodes []*eurostat.Node) []NodeResponse {
	out := make([]NodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, toNodeResponse(n))
	}
	return out
}

func toJobResponse(j scheduler.Job) JobResponse {
	return JobResponse{
		ID:           j.ID.String(),
		Kind:         string(j.Kind),
		DatasetCode:  j.DatasetCode,
		DatasetTitle: j.DatasetTitle,
		Status:       string(j.Status),
		Error:        j.Error,
		RetryCount:   j.RetryCount,
		CreatedAt:    j.CreatedAt,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
	}
}
