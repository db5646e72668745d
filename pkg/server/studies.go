package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
	"github.com/energeticacoop/photovoltaic-studies/pkg/metrics"
	"github.com/energeticacoop/photovoltaic-studies/pkg/report"
	"github.com/energeticacoop/photovoltaic-studies/pkg/storage"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (s *Server) handleCreateStudy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	}

	var in types.StudyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode study input", slog.Any("error", err))
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(w, "request too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeJSONError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	res, err := s.studies.Run(ctx, in)
	if err != nil {
		code := errorStatus(err)
		if code == http.StatusBadRequest {
			metrics.ObserveStudyRun(string(in.Tariff), metrics.ResultInvalid, time.Since(start))
			log.Ctx(ctx).InfoContext(ctx, "rejected study input", slog.Any("error", err))
			writeJSONError(w, err.Error(), code)
			return
		}
		metrics.ObserveStudyRun(string(in.Tariff), metrics.ResultError, time.Since(start))
		log.Ctx(ctx).ErrorContext(ctx, "failed to run study", slog.Any("error", err))
		writeJSONError(w, "failed to run study", http.StatusInternalServerError)
		return
	}
	metrics.ObserveStudyRun(string(in.Tariff), metrics.ResultSuccess, time.Since(start))
	metrics.ObserveMissingHours(res.MissingHours)

	study := types.Study{
		ID:        uuid.NewString(),
		Name:      in.Name,
		CreatedAt: time.Now().UTC(),
		CreatedBy: getIdentity(r).Email,
		Version:   types.CurrentParamsVersion,
		Input:     in.WithoutRawData(),
		Result:    res,
	}
	if err := s.storage.PutStudy(ctx, study); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save study", slog.Any("error", err))
		writeJSONError(w, "failed to save study", http.StatusInternalServerError)
		return
	}
	s.cache.Set(study.ID, study)
	log.Ctx(ctx).InfoContext(
		ctx,
		"created study",
		slog.String("studyID", study.ID),
		slog.Duration("took", time.Since(start)),
	)

	writeJSON(w, http.StatusCreated, study)
}

func (s *Server) getStudy(r *http.Request) (types.Study, error) {
	ctx := r.Context()
	id := r.PathValue("id")
	return s.cache.GetOrLoad(id, func() (types.Study, error) {
		return s.storage.GetStudy(ctx, id)
	})
}

func (s *Server) writeStudyError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if errors.Is(err, storage.ErrStudyNotFound) {
		writeJSONError(w, "study not found", http.StatusNotFound)
		return
	}
	log.Ctx(ctx).ErrorContext(ctx, "failed to get study", slog.Any("error", err))
	writeJSONError(w, "failed to get study", http.StatusInternalServerError)
}

func (s *Server) handleGetStudy(w http.ResponseWriter, r *http.Request) {
	study, err := s.getStudy(r)
	if err != nil {
		s.writeStudyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, study)
}

func (s *Server) handleExportStudy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	study, err := s.getStudy(r)
	if err != nil {
		s.writeStudyError(w, r, err)
		return
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, study); err != nil {
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(start))
		log.Ctx(ctx).ErrorContext(ctx, "failed to export study", slog.Any("error", err))
		writeJSONError(w, "failed to export study", http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport("xlsx", metrics.ResultSuccess, time.Since(start))

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "study-"+study.ID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleListStudies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	list, err := s.storage.ListStudies(ctx, limit)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list studies", slog.Any("error", err))
		writeJSONError(w, "failed to list studies", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []types.StudySummary{}
	}
	writeJSON(w, http.StatusOK, list)
}
