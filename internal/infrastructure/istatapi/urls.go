// Package istatapi builds the ISTAT SDMX 2.1 REST requests.
package istatapi

import (
	"net/url"
	"strings"

	"github.com/statload/backend/internal/infrastructure/config"
)

// Endpoints builds ISTAT request URLs. Structure queries go to BaseURL,
// codelists and data to DataBaseURL.
type Endpoints struct {
	cfg config.IstatConfig
}

// NewEndpoints creates the URL builder
func NewEndpoints(cfg config.IstatConfig) Endpoints {
	return Endpoints{cfg: cfg}
}

// Dataflows lists every dataflow of the agency
func (e Endpoints) Dataflows() string {
	return e.structure("dataflow")
}

// DataStructures lists every data structure of the agency
func (e Endpoints) DataStructures() string {
	return e.structure("datastructure")
}

// CategorySchemes lists every category scheme of the agency
func (e Endpoints) CategorySchemes() string {
	return e.structure("categoryscheme")
}

// Codelist is the SDMX structure message of one codelist
func (e Endpoints) Codelist(enumID string) string {
	return joinURL(e.cfg.DataBaseURL, "codelist", e.cfg.Agency, enumID)
}

// Data is the CSV export of a whole dataflow
func (e Endpoints) Data(dataflowID string) string {
	return joinURL(e.cfg.DataBaseURL, "data", dataflowID, "ALL") + "?format=csv"
}

func (e Endpoints) structure(resource string) string {
	return joinURL(e.cfg.BaseURL, resource, e.cfg.Agency, "ALL", "latest")
}

func joinURL(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		out += "/" + url.PathEscape(p)
	}
	return out
}
