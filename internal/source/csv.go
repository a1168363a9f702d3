package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/pagescan/internal/document"
)

// csvRowsPerPage is how many data rows make up one page.
const csvRowsPerPage = 20

// CSVReader handles CSV exports, e.g. tabulated limitation sheets. The
// header row is repeated at the top of every page so matches keep their
// column names in context.
type CSVReader struct{}

func (p *CSVReader) Read(r io.Reader, label string) (document.Source, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	pages := document.FromTexts(label)
	if len(records) == 0 {
		return pages, nil
	}

	headers := records[0]
	dataRows := records[1:]

	for i := 0; i < len(dataRows); i += csvRowsPerPage {
		end := min(i+csvRowsPerPage, len(dataRows))

		var text strings.Builder
		text.WriteString(strings.Join(headers, ", "))
		text.WriteString("\n")
		for _, row := range dataRows[i:end] {
			for j, cell := range row {
				if j < len(headers) {
					text.WriteString(headers[j] + ": " + cell)
				} else {
					text.WriteString(cell)
				}
				if j < len(row)-1 {
					text.WriteString(", ")
				}
			}
			text.WriteString("\n")
		}
		pages.Append(Normalize(strings.TrimSpace(text.String())))
	}

	return pages, nil
}
