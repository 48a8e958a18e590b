package eurostatapi

import (
	"net/url"
	"strings"

	"github.com/statload/backend/internal/infrastructure/config"
)

// Endpoints builds Eurostat request URLs
type Endpoints struct {
	cfg config.EurostatConfig
}

// NewEndpoints creates the URL builder
func NewEndpoints(cfg config.EurostatConfig) Endpoints {
	return Endpoints{cfg: cfg}
}

// TOC is the table of contents XML
func (e Endpoints) TOC() string {
	return e.cfg.TOCURL
}

// Data is the uncompressed TSV of a dataset
func (e Endpoints) Data(code string) string {
	return joinURL(e.cfg.DataURL, strings.ToUpper(code)) + "?format=TSV&compressed=false"
}

// Codelist is the SDMX structure message of one dimension codelist
func (e Endpoints) Codelist(par string) string {
	return joinURL(e.cfg.CodelistURL, strings.ToUpper(par), "latest") + "?format=sdmx_2.1_structure"
}

// DatasetLink is the public page of a dataset
func (e Endpoints) DatasetLink(code string) string {
	return joinURL(e.cfg.DatasetLinkBase, strings.ToLower(code))
}

func joinURL(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		out += "/" + url.PathEscape(p)
	}
	return out
}
