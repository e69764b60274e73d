package runner

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"HMDARiskPump/internal/models"
)

// renderResult печатает превью результата таблицей.
// Если строк больше, чем показано, добавляется строка "... N more rows".
func renderResult(w io.Writer, rs *models.ResultSet, limit int) {
	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(rs.Columns)
	for i, row := range rs.Rows {
		if i >= limit {
			break
		}
		data := make([]string, 0, len(row))
		for _, col := range row {
			data = append(data, formatValue(col))
		}
		table.Append(data)
	}
	table.Render()

	if shown := min(len(rs.Rows), limit); rs.Total > shown {
		fmt.Fprintf(w, "... %d more rows\n", rs.Total-shown)
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(time.DateOnly)
		}
		return val.Format("2006-01-02 15:04:05.999999")
	default:
		return fmt.Sprintf("%v", val)
	}
}
