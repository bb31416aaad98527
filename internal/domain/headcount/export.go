package headcount

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

func ContentType(format string) string {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/pdf"
	}
}

// WritePDF renders the summary table followed by one section per meal.
func WritePDF(w io.Writer, report Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Meal headcount %s", report.Summary.Date))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employees: %d  Office: %d  WFH: %d", report.Summary.TotalEmployees, report.Summary.Office, report.Summary.WFH))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	for _, h := range []struct {
		title string
		width float64
	}{{"Meal", 50}, {"Opted in", 30}, {"Opted out", 30}, {"In %", 30}, {"Out %", 30}} {
		pdf.CellFormat(h.width, 8, h.title, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 11)
	for _, m := range report.Summary.Meals {
		pdf.CellFormat(50, 7, string(m.MealType), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%d", m.OptedIn), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%d", m.OptedOut), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f", m.OptedInPct), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f", m.OptedOutPct), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	for _, meal := range report.Meals {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, fmt.Sprintf("%s (%d)", meal.MealType, meal.OptedInCount))
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		for _, u := range meal.Users {
			pdf.Cell(0, 6, fmt.Sprintf("%s  %s  %s", u.Name, u.Email, teamLabel(u)))
			pdf.Ln(6)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// WriteXLSX writes a Summary sheet and one sheet per meal.
func WriteXLSX(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	rows := [][]any{
		{"Date", report.Summary.Date},
		{"Employees", report.Summary.TotalEmployees},
		{"Office", report.Summary.Office},
		{"WFH", report.Summary.WFH},
		{},
		{"Meal", "Opted in", "Opted out", "In %", "Out %"},
	}
	for _, m := range report.Summary.Meals {
		rows = append(rows, []any{string(m.MealType), m.OptedIn, m.OptedOut, m.OptedInPct, m.OptedOutPct})
	}
	if err := writeRows(f, summarySheet, rows); err != nil {
		return err
	}

	for _, meal := range report.Meals {
		sheet := string(meal.MealType)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("add sheet %s: %w", sheet, err)
		}
		rows := [][]any{{"User ID", "Username", "Name", "Email", "Team"}}
		for _, u := range meal.Users {
			rows = append(rows, []any{u.UserID, u.Username, u.Name, u.Email, teamLabel(u)})
		}
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("render xlsx: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func teamLabel(u MealUser) string {
	if u.TeamName != nil {
		return *u.TeamName
	}
	return "-"
}
