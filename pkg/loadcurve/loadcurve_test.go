package loadcurve

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/energeticacoop/photovoltaic-studies/pkg/calendar"
	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// cnmcCSV writes one year of hour-ending rows following the DST clock: 23 labels on the spring
// day and 25 on the autumn day.
func cnmcCSV(year int, value func(t time.Time, label int) float64) string {
	var b strings.Builder
	b.WriteString("CUPS;Fecha;Hora;Consumo;Metodo\n")
	for d := day(year, time.January, 1); d.Year() == year; d = d.AddDate(0, 0, 1) {
		labels := 24
		switch {
		case calendar.IsDSTStartDate(d):
			labels = 23
		case calendar.IsDSTEndDate(d):
			labels = 25
		}
		for label := 1; label <= labels; label++ {
			v := strings.Replace(fmt.Sprintf("%.3f", value(d, label)), ".", ",", 1)
			fmt.Fprintf(&b, "ES0031000000000000XX0F;%02d/%02d/%d;%d;%s;R\n", d.Day(), d.Month(), d.Year(), label, v)
		}
	}
	return b.String()
}

// infoenergiaCSV writes hour-ending rows 1..24 for every day in [from, to).
func infoenergiaCSV(from, to time.Time, value func(t time.Time) float64) string {
	var b strings.Builder
	b.WriteString("cups,fecha,hora,consumo\n")
	for t := from; t.Before(to); t = t.Add(time.Hour) {
		fmt.Fprintf(&b, "ES0031000000000000XX0F,%d/%d/%d,%d,%g\n", t.Day(), t.Month(), t.Year(), t.Hour()+1, value(t))
	}
	return b.String()
}

func assertCanonical(t *testing.T, lc types.LoadCurve, year int) {
	t.Helper()
	dates := calendar.Dates(year)
	for i, r := range lc {
		require.Equal(t, dates[i], r.Time, "hour %d", i)
	}
}

func TestParseCSV(t *testing.T) {
	t.Run("infoenergia", func(t *testing.T) {
		readings, cups, err := ParseCSV(strings.NewReader("cups,fecha,hora,consumo\nES1,02/01/2023,1,0.5\nES1,02/01/2023,24,1.25\n"), Infoenergia)
		require.NoError(t, err)
		assert.Equal(t, "ES1", cups)
		require.Len(t, readings, 2)
		assert.Equal(t, day(2023, time.January, 2), readings[0].Time)
		assert.Equal(t, 0.5, readings[0].Value)
		assert.Equal(t, day(2023, time.January, 2).Add(23*time.Hour), readings[1].Time)
	})

	t.Run("cnmc comma decimals", func(t *testing.T) {
		readings, _, err := ParseCSV(strings.NewReader("CUPS;Fecha;Hora;AE_kWh\nES1;15/06/2023;3;0,275\n"), CNMC)
		require.NoError(t, err)
		require.Len(t, readings, 1)
		assert.Equal(t, day(2023, time.June, 15).Add(2*time.Hour), readings[0].Time)
		assert.InDelta(t, 0.275, readings[0].Value, 1e-9)
	})

	t.Run("datadis", func(t *testing.T) {
		readings, _, err := ParseCSV(strings.NewReader("cups;date;time;consumptionKWh;obtainMethod\nES1;2023/06/15;01:00;0,1;Real\nES1;2023/06/15;24:00;0,2;Real\n"), DatadisCSV)
		require.NoError(t, err)
		require.Len(t, readings, 2)
		assert.Equal(t, day(2023, time.June, 15), readings[0].Time)
		assert.Equal(t, day(2023, time.June, 15).Add(23*time.Hour), readings[1].Time)
	})

	t.Run("sips", func(t *testing.T) {
		readings, cups, err := ParseCSV(strings.NewReader("fecha;valor\n2023-06-15 01:00;2,5\n"), SIPS)
		require.NoError(t, err)
		assert.Empty(t, cups)
		require.Len(t, readings, 1)
		assert.Equal(t, day(2023, time.June, 15), readings[0].Time)
		assert.Equal(t, 2.5, readings[0].Value)
	})

	t.Run("malformed", func(t *testing.T) {
		bad := []string{
			"h\nES1,32/01/2023,1,0.5\n",
			"h\nES1,01/01/2023,x,0.5\n",
			"h\nES1,01/01/2023,1,abc\n",
			"h\nES1,01/01/2023,25,1\n",
			"h\nES1,01/01/2023\n",
		}
		for _, csv := range bad {
			_, _, err := ParseCSV(strings.NewReader(csv), Infoenergia)
			assert.ErrorIs(t, err, types.ErrMalformedInput, csv)
		}
	})

	t.Run("not a csv dialect", func(t *testing.T) {
		_, _, err := ParseCSV(strings.NewReader(""), DatadisAPI)
		assert.ErrorIs(t, err, types.ErrMalformedInput)
	})
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("cnmc")
	require.NoError(t, err)
	assert.True(t, d.FullDST())

	_, err = ParseDialect("excel")
	assert.ErrorIs(t, err, types.ErrMalformedInput)
}

func TestNormalizeCNMCDST(t *testing.T) {
	csv := cnmcCSV(2023, func(time.Time, int) float64 { return 1 })
	readings, _, err := ParseCSV(strings.NewReader(csv), CNMC)
	require.NoError(t, err)

	lc, err := Normalize(context.Background(), readings, CNMC, Options{Year: 2023})
	require.NoError(t, err)
	assertCanonical(t, lc, 2023)

	start := calendar.DSTStart(2023).Add(2 * time.Hour)
	end := calendar.DSTEnd(2023).Add(2 * time.Hour)
	for _, r := range lc {
		switch {
		case r.Time.Equal(start):
			assert.Equal(t, types.CommentMissing, r.Comment)
			assert.Equal(t, 0.0, r.Value)
		case r.Time.Equal(end):
			assert.Equal(t, 2.0, r.Value, "repeated hour is folded")
		default:
			require.Equal(t, 1.0, r.Value, r.Time.String())
		}
	}
	assert.Equal(t, 1, lc.Missing())
	assert.InDelta(t, float64(types.HoursPerYear), lc.Values().Sum(), 1e-9)
}

func TestParseCSVSpringDayLabels(t *testing.T) {
	// Mar 26 2023 is the DST start day and only has 23 hours
	t.Run("CNMC label 24", func(t *testing.T) {
		csv := "CUPS;Fecha;Hora;Consumo;Metodo\n" +
			"ES0031000000000000XX0F;26/03/2023;23;1,0;R\n" +
			"ES0031000000000000XX0F;26/03/2023;24;1,0;R\n"
		_, _, err := ParseCSV(strings.NewReader(csv), CNMC)
		assert.ErrorIs(t, err, types.ErrMalformedInput)
	})

	t.Run("CNMC label 23", func(t *testing.T) {
		csv := "CUPS;Fecha;Hora;Consumo;Metodo\n" +
			"ES0031000000000000XX0F;26/03/2023;23;1,0;R\n"
		readings, _, err := ParseCSV(strings.NewReader(csv), CNMC)
		require.NoError(t, err)
		require.Len(t, readings, 1)
		assert.Equal(t, time.Date(2023, time.March, 26, 23, 0, 0, 0, time.UTC), readings[0].Time)
	})

	t.Run("Infoenergia label 24", func(t *testing.T) {
		csv := "cups,fecha,hora,consumo\nES0031000000000000XX0F,26/3/2023,24,1\n"
		readings, _, err := ParseCSV(strings.NewReader(csv), Infoenergia)
		require.NoError(t, err)
		require.Len(t, readings, 1)
		assert.Equal(t, time.Date(2023, time.March, 26, 23, 0, 0, 0, time.UTC), readings[0].Time)
	})
}

func TestNormalizeAlignsToYear(t *testing.T) {
	// July 2022 to June 2023, value = month number
	csv := infoenergiaCSV(day(2022, time.July, 1), day(2023, time.July, 1), func(t time.Time) float64 {
		return float64(t.Month())
	})
	readings, _, err := ParseCSV(strings.NewReader(csv), Infoenergia)
	require.NoError(t, err)

	lc, err := Normalize(context.Background(), readings, Infoenergia, Options{Year: 2023})
	require.NoError(t, err)
	assertCanonical(t, lc, 2023)
	assert.Equal(t, 0, lc.Missing())
	for _, r := range lc {
		require.Equal(t, float64(r.Time.Month()), r.Value, r.Time.String())
	}
}

func TestNormalizeTrimsAndFills(t *testing.T) {
	// two years of data with a one day gap in the second year
	gapStart := day(2023, time.May, 10)
	csv := infoenergiaCSV(day(2022, time.January, 1), day(2024, time.January, 1), func(t time.Time) float64 {
		if t.Year() == 2022 {
			return 100
		}
		return 1
	})
	readings, _, err := ParseCSV(strings.NewReader(csv), Infoenergia)
	require.NoError(t, err)
	var kept []types.Reading
	for _, r := range readings {
		if !r.Time.Before(gapStart) && r.Time.Before(gapStart.AddDate(0, 0, 1)) {
			continue
		}
		kept = append(kept, r)
	}

	lc, err := Normalize(context.Background(), kept, Infoenergia, Options{Year: 2023})
	require.NoError(t, err)
	assertCanonical(t, lc, 2023)
	assert.Equal(t, 24, lc.Missing())
	assert.InDelta(t, float64(types.HoursPerYear-24), lc.Values().Sum(), 1e-9)
}

func TestNormalizeOrderIndependent(t *testing.T) {
	csv := infoenergiaCSV(day(2023, time.January, 1), day(2024, time.January, 1), func(t time.Time) float64 {
		return float64(t.Hour())
	})
	readings, _, err := ParseCSV(strings.NewReader(csv), Infoenergia)
	require.NoError(t, err)

	want, err := Normalize(context.Background(), readings, Infoenergia, Options{Year: 2023})
	require.NoError(t, err)

	shuffled := append([]types.Reading(nil), readings...)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	got, err := Normalize(context.Background(), shuffled, Infoenergia, Options{Year: 2023})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNormalizeLeapYearInput(t *testing.T) {
	csv := infoenergiaCSV(day(2024, time.January, 1), day(2025, time.January, 1), func(time.Time) float64 { return 1 })
	readings, _, err := ParseCSV(strings.NewReader(csv), Infoenergia)
	require.NoError(t, err)

	lc, err := Normalize(context.Background(), readings, Infoenergia, Options{Year: 2023})
	require.NoError(t, err)
	assertCanonical(t, lc, 2023)
	assert.Equal(t, 0, lc.Missing())
	for _, r := range lc {
		require.False(t, calendar.IsFebruary29(r.Time))
	}
}

func TestNormalizeErrors(t *testing.T) {
	_, err := Normalize(context.Background(), nil, Infoenergia, Options{Year: 2023})
	assert.ErrorIs(t, err, types.ErrMalformedInput)

	_, err = Normalize(context.Background(), []types.Reading{{Time: day(2023, time.January, 1)}}, Dialect("x"), Options{Year: 2023})
	assert.ErrorIs(t, err, types.ErrMalformedInput)
}

func TestFillMissingIdempotent(t *testing.T) {
	dates := calendar.Dates(2023)
	readings := make([]types.Reading, len(dates))
	for i, d := range dates {
		readings[i] = types.Reading{Time: d, Value: float64(i % 17)}
	}
	lc := FillMissing(readings, dates[0])
	assert.Equal(t, 0, lc.Missing())
	for i, r := range lc {
		require.Equal(t, readings[i], r)
	}
	assert.Equal(t, lc, FillMissing(lc[:], dates[0]))
}

func TestTrimToLastNaturalYear(t *testing.T) {
	readings := []types.Reading{
		{Time: day(2022, time.March, 1)},
		{Time: day(2022, time.June, 30).Add(23 * time.Hour)},
		{Time: day(2022, time.July, 1)},
		{Time: day(2023, time.June, 30).Add(23 * time.Hour)},
	}
	trimmed, start := TrimToLastNaturalYear(readings)
	assert.Equal(t, day(2022, time.July, 1), start)
	assert.Len(t, trimmed, 2)

	trimmed, _ = TrimToLastNaturalYear(nil)
	assert.Empty(t, trimmed)
}

func TestFoldDuplicateHours(t *testing.T) {
	end := calendar.DSTEnd(2023).Add(2 * time.Hour)
	other := day(2023, time.June, 1)
	readings := []types.Reading{
		{Time: other, Value: 1},
		{Time: other, Value: 5},
		{Time: end, Value: 1},
		{Time: end, Value: 2},
	}

	narrow := FoldDuplicateHours(readings, false)
	require.Len(t, narrow, 2)
	assert.Equal(t, 1.0, narrow[0].Value)
	assert.Equal(t, 3.0, narrow[1].Value)

	full := FoldDuplicateHours(readings, true)
	require.Len(t, full, 2)
	assert.Equal(t, 6.0, full[0].Value)
	// input is untouched
	assert.Equal(t, 1.0, readings[2].Value)
}

func TestAverageProfile(t *testing.T) {
	// 2022 values are the weekday number, Jan 1 2022 is a Saturday
	var readings []types.Reading
	for d := day(2022, time.January, 1); d.Year() == 2022; d = d.Add(time.Hour) {
		readings = append(readings, types.Reading{Time: d, Value: float64(d.Weekday())})
	}

	c := AverageProfile(readings, 2023)
	// Jan 1 2023 is a Sunday: the curve is rotated to start on the readings' first weekday
	assert.Equal(t, float64(time.Saturday), c[0])
	assert.Equal(t, float64(time.Sunday), c[24])

	lc, err := Normalize(context.Background(), readings, Infoenergia, Options{Year: 2023, Averaged: true})
	require.NoError(t, err)
	assertCanonical(t, lc, 2023)
	assert.Equal(t, c, lc.Values())
}

func TestScaleProfile(t *testing.T) {
	var coefficients types.Curve
	for i := range coefficients {
		coefficients[i] = 1.0 / types.HoursPerYear
	}
	c := ScaleProfile(coefficients, 3500)
	assert.InDelta(t, 3500, c.Sum(), 1e-6)
}

func TestDatadis(t *testing.T) {
	supplies := []types.DatadisSupply{
		{CUPS: "ES0021000000000001AB"},
		{CUPS: "ES0031000000000000XX0F"},
	}

	t.Run("select by prefix", func(t *testing.T) {
		s, err := SelectSupply(supplies, "es0031000000000000xx1P")
		require.NoError(t, err)
		assert.Equal(t, "ES0031000000000000XX0F", s.CUPS)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := SelectSupply(supplies, "ES0099000000000000ZZ0F")
		assert.ErrorIs(t, err, types.ErrSupplyNotFound)
		_, err = SelectSupply(supplies, "")
		assert.ErrorIs(t, err, types.ErrSupplyNotFound)
	})

	t.Run("readings", func(t *testing.T) {
		readings, err := DatadisReadings([]types.DatadisConsumption{
			{CUPS: "ES0031000000000000XX0F", Date: "2023/01/01", Time: "01:00", ConsumptionKWh: 0.3},
			{CUPS: "ES0021000000000001AB", Date: "2023/01/01", Time: "01:00", ConsumptionKWh: 9},
			{Date: "2023/01/01", Time: "02:00", ConsumptionKWh: 0.4},
		}, supplies[1])
		require.NoError(t, err)
		require.Len(t, readings, 2)
		assert.Equal(t, day(2023, time.January, 1), readings[0].Time)
		assert.Equal(t, 0.4, readings[1].Value)

		_, err = DatadisReadings([]types.DatadisConsumption{{Date: "01-2023", Time: "01:00"}}, supplies[1])
		assert.ErrorIs(t, err, types.ErrMalformedInput)
	})
}
