// Package report exports studies as spreadsheets.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/energeticacoop/photovoltaic-studies/pkg/calendar"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

const (
	SummarySheet = "summary"
	MonthlySheet = "monthly"
	HourlySheet  = "hourly"
	FluxSheet    = "flux"
)

var monthNames = [types.MonthsPerYear]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// WriteXLSX writes a workbook with the study summary, the monthly bills, the hourly flows and
// the credit simulation.
func WriteXLSX(w io.Writer, s types.Study) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	for _, name := range []string{MonthlySheet, HourlySheet, FluxSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	writers := []func(*excelize.File, types.Study) error{
		writeSummary,
		writeMonthly,
		writeHourly,
		writeFlux,
	}
	for _, write := range writers {
		if err := write(f, s); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, s types.Study) error {
	r := s.Result
	sum := s.Summary()
	rows := [][2]interface{}{
		{"Study", s.Name},
		{"ID", s.ID},
		{"Created", s.CreatedAt.Format("2006-01-02 15:04")},
		{"Year", s.Input.Year},
		{"Tariff", string(s.Input.Tariff)},
		{"Params version", s.Version},
		{"Consumption (kWh)", r.Flows.Total.Sum()},
		{"Production (kWh)", r.Flows.Production.Sum()},
		{"Self-consumption (kWh)", r.Flows.SelfConsumption.Sum()},
		{"Surplus (kWh)", r.Flows.Surplus.Sum()},
		{"Grid demand (kWh)", r.Flows.GridDemand.Sum()},
		{"Missing hours", r.MissingHours},
		{"Inverter consumption (kWh)", r.Production.InverterConsumption},
		{"Annual bill without PV", sum.AnnualNoPV},
		{"Annual bill with PV", sum.AnnualWithPV},
		{"First year savings", sum.AnnualSavings},
	}
	if r.EV != nil {
		rows = append(rows,
			[2]interface{}{"EV charge (kWh)", r.EV.Charge.Sum()},
			[2]interface{}{"EV unmet demand (kWh)", r.EV.UnmetKWh},
			[2]interface{}{"EV depletions", r.EV.DepletionCount},
		)
	}
	for i, row := range rows {
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("A%d", i+1), row[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", i+1), row[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeMonthly(f *excelize.File, s types.Study) error {
	b := s.Result.Bills
	columns := []struct {
		name   string
		values types.Monthly
	}{
		{"Surplus (kWh)", b.Surplus},
		{"Without PV", b.NoPV},
		{"With PV", b.WithPV},
		{"Compensation", b.Compensation},
		{"Compensable surplus (kWh)", b.CompensableSurplus},
		{"Capped", b.Capped},
		{"Uncapped", b.Uncapped},
		{"Fixed", b.Fixed},
		{"Before credits", b.BeforeCredits},
		{"Credits", s.Result.Flux.Credits},
		{"After credits", s.Result.Flux.FinalYear},
	}
	header := []interface{}{"Month"}
	for _, c := range columns {
		header = append(header, c.name)
	}
	if err := f.SetSheetRow(MonthlySheet, "A1", &header); err != nil {
		return err
	}
	for m, name := range monthNames {
		row := []interface{}{name}
		for _, c := range columns {
			row = append(row, c.values[m])
		}
		if err := f.SetSheetRow(MonthlySheet, fmt.Sprintf("A%d", m+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func writeHourly(f *excelize.File, s types.Study) error {
	r := s.Result
	header := []interface{}{"Hour", "Conventional", "Recurring", "Heat pump", "EV charge", "Total", "Production", "Self-consumption", "Surplus", "Grid demand"}
	if err := f.SetSheetRow(HourlySheet, "A1", &header); err != nil {
		return err
	}
	dates := calendar.Dates(s.Input.Year)
	for i, t := range dates {
		row := []interface{}{
			t.Format("2006-01-02 15:04"),
			r.Conventional[i],
			r.Recurring[i],
			r.HeatPump[i],
			r.EVCharge[i],
			r.Flows.Total[i],
			r.Flows.Production[i],
			r.Flows.SelfConsumption[i],
			r.Flows.Surplus[i],
			r.Flows.GridDemand[i],
		}
		if err := f.SetSheetRow(HourlySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func writeFlux(f *excelize.File, s types.Study) error {
	fx := s.Result.Flux
	rows := [][2]interface{}{
		{"Baseline", fx.Baseline},
		{"Credits generated", fx.Generated},
		{"Credits consumed", fx.Consumed},
		{"Credits expired", fx.Expired},
		{"Credits remaining", fx.Remaining},
	}
	for i, row := range rows {
		if err := f.SetCellValue(FluxSheet, fmt.Sprintf("A%d", i+1), row[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(FluxSheet, fmt.Sprintf("B%d", i+1), row[1]); err != nil {
			return err
		}
	}
	start := len(rows) + 2
	if err := f.SetCellValue(FluxSheet, fmt.Sprintf("A%d", start), "Year"); err != nil {
		return err
	}
	if err := f.SetCellValue(FluxSheet, fmt.Sprintf("B%d", start), "Savings"); err != nil {
		return err
	}
	for y, v := range fx.AnnualSavings {
		row := start + 1 + y
		if err := f.SetCellValue(FluxSheet, fmt.Sprintf("A%d", row), y+1); err != nil {
			return err
		}
		if err := f.SetCellValue(FluxSheet, fmt.Sprintf("B%d", row), v); err != nil {
			return err
		}
	}
	return nil
}
