package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

type tariffPeriodsResponse struct {
	Year     int                              `json:"year"`
	Tariff   types.TariffClass                `json:"tariff"`
	Holidays []civil.Date                     `json:"holidays"`
	Periods  [types.HoursPerYear]int          `json:"periods"`
	Seasons  [types.HoursPerYear]types.Season `json:"seasons"`
}

// handleTariffPeriods returns the tariff period of every hour of a canonical year.
// Holidays are an optional comma separated list of YYYY-MM-DD dates.
func (s *Server) handleTariffPeriods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year <= 0 {
		writeJSONError(w, "invalid year", http.StatusBadRequest)
		return
	}
	class := types.TariffClass(q.Get("class"))
	if err := class.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	holidays := []civil.Date{}
	if v := q.Get("holidays"); v != "" {
		for _, part := range strings.Split(v, ",") {
			d, err := civil.ParseDate(strings.TrimSpace(part))
			if err != nil {
				writeJSONError(w, "invalid holiday: "+part, http.StatusBadRequest)
				return
			}
			holidays = append(holidays, d)
		}
	}

	y, err := s.studies.Year(year, class, holidays)
	if err != nil {
		code := errorStatus(err)
		if code == http.StatusInternalServerError {
			log.Ctx(ctx).ErrorContext(ctx, "failed to classify year", slog.Any("error", err))
		}
		writeJSONError(w, err.Error(), code)
		return
	}
	writeJSON(w, http.StatusOK, tariffPeriodsResponse{
		Year:     y.Year,
		Tariff:   y.Tariff,
		Holidays: holidays,
		Periods:  y.Periods,
		Seasons:  y.Seasons,
	})
}
