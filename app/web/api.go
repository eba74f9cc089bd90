package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/invopop/jsonschema"

	"github.com/umputun/jtrack/app/persistence"
	"github.com/umputun/jtrack/app/records"
	"github.com/umputun/jtrack/app/web/enums"
)

// APIJobsResponse is the JSON response for GET /api/v1/jobs
type APIJobsResponse struct {
	Jobs  []APIJob `json:"jobs"`
	Total int      `json:"total"` // all jobs of the user, before filtering
}

// APIJob represents a job application in JSON API response
type APIJob struct {
	ID              string    `json:"id"`
	CompanyName     string    `json:"company_name"`
	Role            string    `json:"role"`
	ApplicationDate string    `json:"application_date"` // YYYY-MM-DD
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

// APIStats is the JSON response for GET /api/v1/stats
type APIStats struct {
	Total     int `json:"total"`
	Applied   int `json:"applied"`
	Interview int `json:"interview"`
	Rejected  int `json:"rejected"`
	Offer     int `json:"offer"`
}

// APIError is the JSON error response, Fields is set for validation errors
type APIError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func toAPIJob(j persistence.Job) APIJob {
	return APIJob{
		ID:              j.ID,
		CompanyName:     j.CompanyName,
		Role:            j.Role,
		ApplicationDate: j.ApplicationDate.Format(persistence.DateLayout),
		Status:          j.Status.String(),
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

// handleAPIListJobs returns the caller's jobs, optionally filtered by ?status=
func (s *Server) handleAPIListJobs(w http.ResponseWriter, r *http.Request) {
	filter := enums.FilterAll
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := enums.ParseStatus(v)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter = enums.FilterFor(st)
	}

	jobs, err := s.tracker.List(r.Context())
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	shown := FilterJobs(jobs, filter)
	resp := APIJobsResponse{Jobs: make([]APIJob, 0, len(shown)), Total: len(jobs)}
	for _, j := range shown {
		resp.Jobs = append(resp.Jobs, toAPIJob(j))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleAPICreateJob adds a job from JSON body with all fields
func (s *Server) handleAPICreateJob(w http.ResponseWriter, r *http.Request) {
	var form records.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := records.Validate(form, s.now())
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	job, err := s.tracker.Create(r.Context(), in)
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toAPIJob(job))
}

// handleAPIUpdateJob changes the fields present in JSON body
func (s *Server) handleAPIUpdateJob(w http.ResponseWriter, r *http.Request) {
	var patch records.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ch, err := patch.Changes(s.now())
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	job, err := s.tracker.Update(r.Context(), r.PathValue("id"), ch)
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toAPIJob(job))
}

// handleAPIDeleteJob deletes the job
func (s *Server) handleAPIDeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeAPIError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAPIStats returns the number of jobs in each status
func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.tracker.List(r.Context())
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	counts := CountByStatus(jobs)
	s.writeJSON(w, http.StatusOK, APIStats{
		Total:     len(jobs),
		Applied:   counts[enums.StatusApplied],
		Interview: counts[enums.StatusInterview],
		Rejected:  counts[enums.StatusRejected],
		Offer:     counts[enums.StatusOffer],
	})
}

// handleAPISchema returns JSON schema of the job input
func (s *Server) handleAPISchema(w http.ResponseWriter, _ *http.Request) {
	schema := jsonschema.Reflect(&records.Form{})
	schema.Title = "jtrack job application"
	s.writeJSON(w, http.StatusOK, schema)
}

// writeAPIError maps records errors to status codes, store failures don't leak driver messages
func (s *Server) writeAPIError(w http.ResponseWriter, err error) {
	var verr *records.ValidationError
	var serr *records.StoreError
	switch {
	case errors.Is(err, records.ErrAuth):
		s.writeJSONError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusUnprocessableEntity, APIError{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, records.ErrNotFound):
		s.writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &serr):
		log.Printf("[WARN] api request failed, %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, serr.Op+" failed")
	default:
		log.Printf("[WARN] api request failed, %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, APIError{Error: message})
}
