package export

import (
	"bytes"
	"encoding/csv"

	log "github.com/sirupsen/logrus"

	"github.com/almanak/almanak/pkg/event"
)

var csvHeader = []string{
	"Subject", "Start Date", "Start Time", "End Date", "End Time",
	"All Day Event", "Description", "Location", "Private",
}

// CSV renders the events as a spreadsheet-importable CSV document with a
// header row and one row per event. Quoting and escaping follow the
// encoding/csv writer (RFC 4180).
func CSV(events []event.Event) (string, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	rows := make([][]string, 0, len(events)+1)
	rows = append(rows, csvHeader)
	for _, e := range events {
		rows = append(rows, []string{
			e.Subject,
			e.Start.Format("01/02/2006"),
			e.Start.Format("03:04 PM"),
			e.End.Format("01/02/2006"),
			e.End.Format("03:04 PM"),
			boolString(e.IsAllDay()),
			e.Description,
			e.Location,
			boolString(e.Status == event.StatusPrivate),
		})
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}
	return b.String(), nil
}

func boolString(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
