package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/sadopc/nexus/internal/store"
)

func TodosToCSV(w io.Writer, todos []store.Todo) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"ID", "Text", "Category", "Completed", "Created"}); err != nil {
		return err
	}
	for _, t := range todos {
		row := []string{
			t.ID,
			t.Text,
			t.Category,
			strconv.FormatBool(t.Completed),
			time.UnixMilli(t.CreatedAt).Local().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func LinksToCSV(w io.Writer, links []store.QuickLink) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Order", "Title", "URL"}); err != nil {
		return err
	}
	for _, l := range links {
		if err := cw.Write([]string{strconv.Itoa(l.Order), l.Title, l.URL}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
