package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/voclabs/vocero/internal/common"
	"github.com/voclabs/vocero/internal/interfaces"
	"github.com/voclabs/vocero/internal/models"
)

// Request bodies for job submission. Validation is structural; semantic
// failures surface later through the job status record.

type scrapeRequest struct {
	Brands []brandRequest `json:"brands" validate:"required,min=1,dive"`
}

type brandRequest struct {
	Name      string            `json:"company_name" validate:"required"`
	Website   string            `json:"website"`
	IsMain    bool              `json:"is_main"`
	Locations []locationRequest `json:"locations" validate:"required,min=1,dive"`
}

type locationRequest struct {
	PlaceID string `json:"place_id" validate:"required"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

type analyzeRequest struct {
	ArtifactKey string             `json:"artifact_key" validate:"required"`
	Dimensions  []models.Dimension `json:"dimensions"`
}

type discoverRequest struct {
	CompanyName string `json:"company_name" validate:"required"`
	Website     string `json:"website"`
}

type websiteRequest struct {
	Website string `json:"website" validate:"required,url"`
}

func (s *Server) submitScrapeHandler(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	brands := make([]models.Brand, 0, len(req.Brands))
	for _, b := range req.Brands {
		brand := models.Brand{
			Name:    b.Name,
			Website: b.Website,
			IsMain:  b.IsMain,
		}
		for _, loc := range b.Locations {
			brand.Locations = append(brand.Locations, models.Location{
				PlaceID: loc.PlaceID,
				Name:    loc.Name,
				Country: loc.Country,
			})
		}
		brands = append(brands, brand)
	}

	s.submitJob(w, r, models.JobKindScrape, &models.ScrapePayload{Brands: brands})
}

func (s *Server) submitAnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	s.submitJob(w, r, models.JobKindAnalyze, &models.AnalyzePayload{
		ArtifactKey: req.ArtifactKey,
		Dimensions:  req.Dimensions,
	})
}

func (s *Server) submitDiscoverHandler(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	s.submitJob(w, r, models.JobKindDiscover, &models.DiscoverPayload{
		CompanyName: req.CompanyName,
		Website:     req.Website,
	})
}

func (s *Server) submitWebsiteHandler(w http.ResponseWriter, r *http.Request) {
	var req websiteRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	s.submitJob(w, r, models.JobKindWebsiteAnalysis, &models.WebsitePayload{Website: req.Website})
}

// submitJob persists a pending job record, enqueues its work descriptor,
// and answers 202 with the job id. The caller polls for the outcome.
func (s *Server) submitJob(w http.ResponseWriter, r *http.Request, kind models.JobKind, payload interface{}) {
	job := models.NewJob(kind)

	if err := s.app.Storage.JobStorage().SaveJob(r.Context(), job); err != nil {
		s.app.Logger.Error().Err(err).Str("kind", string(kind)).Msg("Failed to save job")
		http.Error(w, "Failed to create job", http.StatusInternalServerError)
		return
	}

	msg, err := models.NewQueueMessage(job.ID, kind, payload)
	if err != nil {
		http.Error(w, "Failed to encode job payload", http.StatusInternalServerError)
		return
	}

	if err := s.app.Queue.Enqueue(r.Context(), msg); err != nil {
		s.app.Logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to enqueue job")
		job.SetStatus(models.JobStatusError, "failed to enqueue")
		_ = s.app.Storage.JobStorage().SaveJob(r.Context(), job)
		http.Error(w, "Failed to enqueue job", http.StatusInternalServerError)
		return
	}

	s.app.Logger.Info().
		Str("job_id", job.ID).
		Str("kind", string(kind)).
		Msg("Job submitted")

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

// getJobHandler serves GET /api/jobs/{id}
func (s *Server) getJobHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if jobID == "" || strings.Contains(jobID, "/") {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	job, err := s.app.Storage.JobStorage().GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		s.app.Logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to load job")
		http.Error(w, "Failed to load job", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, job)
}

// getArtifactHandler serves GET /api/artifacts/{key}
func (s *Server) getArtifactHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/api/artifacts/")
	if key == "" {
		http.Error(w, "Artifact key required", http.StatusBadRequest)
		return
	}

	data, err := s.app.Storage.ArtifactStorage().Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, interfaces.ErrArtifactNotFound) {
			http.Error(w, "Artifact not found", http.StatusNotFound)
			return
		}
		s.app.Logger.Error().Err(err).Str("key", key).Msg("Failed to load artifact")
		http.Error(w, "Failed to load artifact", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": s.app.Config.Environment,
		"version":     common.GetVersion(),
	})
}

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"version": common.GetFullVersion(),
	})
}

func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		http.Error(w, fmt.Sprintf("Validation failed: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.app.Logger.Warn().Err(err).Msg("Failed to encode response")
	}
}
