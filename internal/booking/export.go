package booking

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// ExportHeader is the column layout shared by every export format
var ExportHeader = []string{
	"Reference",
	"Patient",
	"Services",
	"Date",
	"Time",
	"Status",
	"Discount Policy",
	"Total",
	"Discount",
	"Final",
	"Notes",
}

const exportSheet = "Appointments"

// Exporter writes appointments in one file format
type Exporter interface {
	Write(w io.Writer, appointments []*types.Appointment) error
}

// ExportContentType returns the MIME type and file extension of format
func ExportContentType(format string) (string, string) {
	if strings.ToLower(format) == "xlsx" {
		return xlsxContentType, "xlsx"
	}
	return "text/csv", "csv"
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// NewExporter returns the exporter for format ("csv" or "xlsx")
func NewExporter(format string, loc *time.Location) (Exporter, error) {
	switch strings.ToLower(format) {
	case "csv", "":
		return &csvExporter{loc: loc}, nil
	case "xlsx":
		return &xlsxExporter{loc: loc}, nil
	default:
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "unsupported export format",
			map[string]interface{}{"format": format, "supported": []string{"csv", "xlsx"}})
	}
}

func exportRow(apt *types.Appointment, loc *time.Location) []string {
	names := make([]string, 0, len(apt.Services))
	for _, s := range apt.Services {
		names = append(names, s.ServiceName)
	}
	local := apt.ScheduledAt.In(loc)
	return []string{
		apt.Reference,
		safeCell(apt.PatientID),
		safeCell(strings.Join(names, "; ")),
		local.Format("2006-01-02"),
		local.Format("15:04"),
		string(apt.Status),
		string(apt.DiscountPolicy),
		apt.TotalAmount.StringFixed(2),
		apt.DiscountAmount.StringFixed(2),
		apt.FinalAmount.StringFixed(2),
		safeCell(apt.Notes),
	}
}

// safeCell prefixes free text that a spreadsheet would read as a formula
func safeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

type csvExporter struct {
	loc *time.Location
}

func (e *csvExporter) Write(w io.Writer, appointments []*types.Appointment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, apt := range appointments {
		if err := cw.Write(exportRow(apt, e.loc)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type xlsxExporter struct {
	loc *time.Location
}

func (e *xlsxExporter) Write(w io.Writer, appointments []*types.Appointment) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range ExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for i, apt := range appointments {
		row := exportRow(apt, e.loc)
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(exportSheet, cell, value); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	widths := []float64{20, 38, 40, 12, 8, 12, 16, 12, 12, 12, 40}
	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(exportSheet, name, name, width); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}
