package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"rx-logistics/internal/domain/triplog"
)

const notApplicable = "N/A"

var fixedColumns = []string{
	"ID",
	"Date",
	"Time",
	"Driver",
	"Trip Type",
	"Route",
	"Odometer",
}

var trailingColumns = []string{
	"Notes",
	"Front Image",
	"Back Image",
	"Trunk Image",
	"Edit Count",
}

// CSVHeader returns the export header. The column set does not depend on the
// records being exported.
func (r *Renderer) CSVHeader() []string {
	master := triplog.MasterQuestions()
	header := make([]string, 0, len(fixedColumns)+4+len(trailingColumns)+len(master))

	header = append(header, fixedColumns...)
	for _, p := range triplog.TirePositions() {
		header = append(header, TireLabel(p))
	}
	header = append(header, trailingColumns...)
	for _, q := range master {
		header = append(header, q.Label)
	}
	return header
}

func (r *Renderer) CSVRow(l *triplog.TripLog) []string {
	created := l.CreatedAt.In(r.loc)
	row := make([]string, 0, len(r.CSVHeader()))

	row = append(row,
		strconv.FormatInt(l.ID, 10),
		created.Format("2006-01-02"),
		created.Format("15:04"),
		l.DriverName,
		string(l.TripType),
		l.RouteID,
		l.Odometer.String(),
	)

	for _, p := range triplog.TirePositions() {
		if l.TripType != triplog.PreTrip {
			row = append(row, notApplicable)
			continue
		}
		row = append(row, l.Checklist.TirePressures.Reading(p, notApplicable))
	}

	row = append(row,
		l.Notes,
		l.Images.Front,
		l.Images.Back,
		l.Images.Trunk,
		strconv.Itoa(l.EditCount),
	)

	for _, q := range triplog.MasterQuestions() {
		row = append(row, answerCell(l.Checklist, q.ID))
	}
	return row
}

func answerCell(c triplog.Checklist, id triplog.QuestionID) string {
	a := c.Answer(id)
	if a == "" {
		return notApplicable
	}
	if comment := c.Comment(id); comment != "" {
		return fmt.Sprintf("%s: %s", a, comment)
	}
	return string(a)
}

// WriteCSV writes the header followed by one row per log.
func (r *Renderer) WriteCSV(w io.Writer, logs []*triplog.TripLog) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(r.CSVHeader()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, l := range logs {
		if err := cw.Write(r.CSVRow(l)); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", l.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
