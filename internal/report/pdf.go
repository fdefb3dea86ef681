package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/gracechurch/retreat-api/internal/models"
)

const (
	pageWidth  = 190.0
	lineHeight = 6.0
)

// WritePDF renders the report as an A4 document.
func WritePDF(w io.Writer, r *Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	title := fmt.Sprintf("%d %s Retreat Report", r.Retreat.Year, titleCase(string(r.Retreat.Type)))
	pdf.SetTitle(title, true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	subtitle := fmt.Sprintf("%s to %s", r.Retreat.StartDate.Format("2006-01-02"), r.Retreat.EndDate.Format("2006-01-02"))
	if r.Retreat.Venue != "" {
		subtitle += " at " + r.Retreat.Venue
	}
	if r.Retreat.Theme != "" {
		subtitle += " - " + r.Retreat.Theme
	}
	pdf.CellFormat(0, lineHeight, tr(subtitle), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, fmt.Sprintf("Total registrations: %d", r.TotalRegistrations), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, section := range []struct {
		title  string
		slices []Slice
	}{
		{"Category", r.Categories},
		{"Gender", r.Genders},
		{"Invitation type", r.InvitationTypes},
		{"Nationality", r.Nationalities},
		{"Location", r.Locations},
	} {
		writeBreakdown(pdf, tr, section.title, section.slices)
	}

	dayHeader := []string{"Day", "Date"}
	for _, c := range models.Categories {
		dayHeader = append(dayHeader, string(c))
	}
	dayHeader = append(dayHeader, "Total")

	var regRows [][]string
	for _, d := range r.DailyRegistrations {
		row := []string{fmt.Sprint(d.Day), d.Date.Format("01-02")}
		for _, c := range models.Categories {
			row = append(row, fmt.Sprint(d.Categories[c]))
		}
		regRows = append(regRows, append(row, fmt.Sprint(d.Total)))
	}
	writeTable(pdf, tr, "Daily registrations", dayHeader, regRows)

	var attRows [][]string
	for _, d := range r.DailyAttendance {
		row := []string{fmt.Sprint(d.Day), d.Date.Format("01-02")}
		for _, c := range models.Categories {
			row = append(row, fmt.Sprint(d.Categories[c]))
		}
		attRows = append(attRows, append(row, fmt.Sprint(d.Total)))
	}
	avgRow := []string{"Avg", fmt.Sprintf("%d d", r.AverageAttendance.DaysCounted)}
	for _, c := range models.Categories {
		avgRow = append(avgRow, fmt.Sprintf("%.1f", r.AverageAttendance.Categories[c]))
	}
	attRows = append(attRows, append(avgRow, fmt.Sprintf("%.1f", r.AverageAttendance.Total)))
	writeTable(pdf, tr, "Daily attendance", dayHeader, attRows)

	var sessionRows [][]string
	for _, s := range r.Sessions {
		name := s.Name
		if s.IsGSMessage {
			name += " (GS)"
		}
		sessionRows = append(sessionRows, []string{
			fmt.Sprint(s.Day),
			string(s.Category),
			fmt.Sprint(s.SessionNumber),
			name,
			s.TimeRange,
			fmt.Sprint(s.Male),
			fmt.Sprint(s.Female),
			fmt.Sprint(s.Total),
		})
	}
	writeTable(pdf, tr, "Sessions", []string{"Day", "Category", "#", "Name", "Time", "M", "F", "Total"}, sessionRows)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render report pdf: %w", err)
	}
	return pdf.Output(w)
}

func writeBreakdown(pdf *fpdf.Fpdf, tr func(string) string, title string, slices []Slice) {
	rows := make([][]string, 0, len(slices))
	for _, s := range slices {
		rows = append(rows, []string{s.Label, fmt.Sprint(s.Count), fmt.Sprintf("%d%%", s.Percentage)})
	}
	writeTable(pdf, tr, title, []string{title, "Count", "Percent"}, rows)
}

func writeTable(pdf *fpdf.Fpdf, tr func(string) string, title string, header []string, rows [][]string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")

	width := pageWidth / float64(len(header))
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, h := range header {
		pdf.CellFormat(width, lineHeight, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	if len(rows) == 0 {
		pdf.CellFormat(pageWidth, lineHeight, "No data", "1", 1, "C", false, 0, "")
	}
	for _, row := range rows {
		for i, cell := range row {
			align := "R"
			if i == 0 || !isNumeric(cell) {
				align = "L"
			}
			pdf.CellFormat(width, lineHeight, tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func isNumeric(s string) bool {
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
