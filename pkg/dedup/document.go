package dedup

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Sumatoshi-tech/adlens/pkg/dataset"
)

// ErrDuplicateID is returned when two documents share an ID.
var ErrDuplicateID = errors.New("dedup: duplicate document id")

// Document is one listing submitted through the HTTP or MCP surfaces.
// Missing date parts sort after present ones.
type Document struct {
	ID    int    `json:"id"`
	Text  string `json:"text"`
	Year  *int   `json:"scraped_year,omitempty"`
	Month *int   `json:"scraped_month,omitempty"`
	Day   *int   `json:"scraped_day,omitempty"`
}

// DatasetFromDocuments builds a listing dataset from docs. Date columns are
// present only when at least one document carries that part.
func DatasetFromDocuments(docs []Document) (*dataset.Dataset, error) {
	hasYear, hasMonth, hasDay := false, false, false
	ids := make(map[int]struct{}, len(docs))

	for _, d := range docs {
		if _, dup := ids[d.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, d.ID)
		}

		ids[d.ID] = struct{}{}

		hasYear = hasYear || d.Year != nil
		hasMonth = hasMonth || d.Month != nil
		hasDay = hasDay || d.Day != nil
	}

	columns := []string{DefaultTextColumn}

	if hasYear {
		columns = append(columns, ColumnYear)
	}

	if hasMonth {
		columns = append(columns, ColumnMonth)
	}

	if hasDay {
		columns = append(columns, ColumnDay)
	}

	ds, err := dataset.New(columns...)
	if err != nil {
		return nil, err
	}

	for _, d := range docs {
		cells := []string{d.Text}

		if hasYear {
			cells = append(cells, optionalInt(d.Year))
		}

		if hasMonth {
			cells = append(cells, optionalInt(d.Month))
		}

		if hasDay {
			cells = append(cells, optionalInt(d.Day))
		}

		if err = ds.AppendWithID(d.ID, cells...); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}

	return strconv.Itoa(*v)
}
