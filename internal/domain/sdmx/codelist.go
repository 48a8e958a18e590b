package sdmx

// Code is one entry of a codelist
type Code struct {
	ID     string `json:"code_id"`
	NameIT string `json:"name_it,omitempty"`
	NameEN string `json:"name_en,omitempty"`
}

// Description returns the English name, falling back to Italian
func (c Code) Description() string {
	return firstNonEmpty(c.NameEN, c.NameIT)
}

// Codelist is a named set of codes
type Codelist struct {
	ID       string `json:"id"`
	AgencyID string `json:"agency_id,omitempty"`
	Version  string `json:"version,omitempty"`
	NameIT   string `json:"nome_it,omitempty"`
	NameEN   string `json:"nome_en,omitempty"`
	Codes    []Code `json:"codes"`
}
