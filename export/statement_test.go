package export_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/payroll-engine/export"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/tenant"
)

func sampleStatement() export.Statement {
	period := payroll.Period{Start: "2024-01-01", End: "2024-01-31"}
	entry := payroll.ProductionEntry{
		ID: "e1", WorkerID: "w1", StyleID: "s1", OrganizationID: "org-1",
		Quantity: 100, Date: "2024-01-05",
	}
	rate := payroll.MustMoney("2.00")

	return export.Statement{
		Organization: tenant.Organization{Name: "Acme Garments", City: "Dhaka", Country: "Bangladesh"},
		Worker:       payroll.Worker{ID: "w1", Name: "Rina", ManualID: "W-001", SectionID: "sec-1"},
		SectionName:  "Sewing",
		Result: &payroll.PayrollResult{
			WorkerID: "w1",
			Period:   period,
			TotalPay: payroll.MustMoney("200"),
			Details: []payroll.PayLine{
				{Entry: entry, Rate: rate, Pay: payroll.MustMoney("200")},
			},
			Bonus: &payroll.BonusOutcome{
				Applied:     true,
				Name:        "January push",
				BonusAmount: payroll.MustMoney("20"),
			},
			TotalWithBonus: payroll.MustMoney("220"),
		},
		StyleNames: map[payroll.StyleID]string{"s1": "Polo Shirt"},
	}
}

func TestBuildWorkbook_ReadBack(t *testing.T) {
	data, err := export.BuildWorkbook(sampleStatement())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Pay Statement")
	require.NoError(t, err)

	flat := flatten(rows)
	assert.Contains(t, flat, "Acme Garments")
	assert.Contains(t, flat, "Rina")
	assert.Contains(t, flat, "Polo Shirt")
	assert.Contains(t, flat, "2024-01-05")
	assert.Contains(t, flat, "200") // total pay
	assert.Contains(t, flat, "220") // total with bonus
	assert.Contains(t, flat, "Bonus (January push)")
}

func TestBuildWorkbook_UnknownStyleFallsBackToID(t *testing.T) {
	st := sampleStatement()
	st.StyleNames = nil

	data, err := export.BuildWorkbook(st)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Pay Statement")
	require.NoError(t, err)
	assert.Contains(t, flatten(rows), "s1")
}

func TestBuildWorkbook_NoResult(t *testing.T) {
	_, err := export.BuildWorkbook(export.Statement{})
	assert.Error(t, err)
}

func flatten(rows [][]string) []string {
	var out []string
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}
