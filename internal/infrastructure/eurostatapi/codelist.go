package eurostatapi

import (
	"io"

	"github.com/statload/backend/internal/domain/sdmx"
	"github.com/statload/backend/internal/infrastructure/sdmxml"
)

// ParseCodelist reads the codes of a dimension codelist message
func ParseCodelist(r io.Reader) ([]sdmx.Code, error) {
	lists, err := sdmxml.ParseCodelists(r)
	if err != nil {
		return nil, err
	}
	return sdmxml.Codes(lists), nil
}
