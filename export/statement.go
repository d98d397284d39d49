/*
Package export renders payroll results as downloadable spreadsheets.

PURPOSE:
  Factory offices hand workers a printed pay statement. This package
  turns a computed payroll result into an .xlsx workbook: organization
  letterhead, worker identity, the per-entry pay breakdown, and the
  bonus line when one applied.

  The package is a pure renderer - it never computes pay. Amounts arrive
  as exact decimals from the engine and are written as their canonical
  string form, so the spreadsheet shows exactly what payroll computed.
*/
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/tenant"
)

// Statement bundles everything the rendered document needs. StyleNames
// resolves the style ids in the breakdown to display names; unknown ids
// fall back to the raw id.
type Statement struct {
	Organization tenant.Organization
	Worker       payroll.Worker
	SectionName  string
	Result       *payroll.PayrollResult
	StyleNames   map[payroll.StyleID]string
}

const sheet = "Pay Statement"

// BuildWorkbook renders the statement and returns the .xlsx bytes.
func BuildWorkbook(st Statement) ([]byte, error) {
	if st.Result == nil {
		return nil, fmt.Errorf("statement has no payroll result")
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})

	// Letterhead
	f.SetCellValue(sheet, "A1", st.Organization.Name)
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	row := 2
	if addr := formatAddress(st.Organization); addr != "" {
		f.SetCellValue(sheet, cellName(1, row), addr)
		row++
	}
	row++

	// Worker identity and period
	identity := [][2]string{
		{"Worker", st.Worker.Name},
		{"Worker ID", st.Worker.ManualID},
		{"Section", st.SectionName},
		{"Period", st.Result.Period.Start.String() + " to " + st.Result.Period.End.String()},
	}
	for _, pair := range identity {
		if pair[1] == "" {
			continue
		}
		f.SetCellValue(sheet, cellName(1, row), pair[0])
		f.SetCellStyle(sheet, cellName(1, row), cellName(1, row), boldStyle)
		f.SetCellValue(sheet, cellName(2, row), pair[1])
		row++
	}
	row++

	// Breakdown table
	headers := []string{"Date", "Style", "Quantity", "Rate", "Pay"}
	headerRow := row
	for i, name := range headers {
		f.SetCellValue(sheet, cellName(i+1, headerRow), name)
	}
	f.SetCellStyle(sheet, cellName(1, headerRow), cellName(len(headers), headerRow), headerStyle)
	row++

	for _, line := range st.Result.Details {
		f.SetCellValue(sheet, cellName(1, row), line.Entry.Date.String())
		f.SetCellValue(sheet, cellName(2, row), styleName(st.StyleNames, line.Entry.StyleID))
		f.SetCellValue(sheet, cellName(3, row), line.Entry.Quantity)
		f.SetCellValue(sheet, cellName(4, row), line.Rate.String())
		f.SetCellValue(sheet, cellName(5, row), line.Pay.String())
		row++
	}
	row++

	// Totals
	writeTotal := func(label, value string) {
		f.SetCellValue(sheet, cellName(4, row), label)
		f.SetCellStyle(sheet, cellName(4, row), cellName(4, row), boldStyle)
		f.SetCellValue(sheet, cellName(5, row), value)
		row++
	}

	writeTotal("Total Pay", st.Result.TotalPay.String())
	if b := st.Result.Bonus; b != nil && b.Applied {
		writeTotal("Bonus ("+b.Name+")", b.BonusAmount.String())
	}
	writeTotal("Total With Bonus", st.Result.TotalWithBonus.String())

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: cellName(1, headerRow+1),
	})
	f.SetColWidth(sheet, "A", "E", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func styleName(names map[payroll.StyleID]string, id payroll.StyleID) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return string(id)
}

func formatAddress(org tenant.Organization) string {
	parts := []string{org.AddressLine1, org.AddressLine2, org.City, org.State, org.PostalCode, org.Country}
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
