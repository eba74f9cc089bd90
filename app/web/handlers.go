package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/jtrack/app/notify"
	"github.com/umputun/jtrack/app/persistence"
	"github.com/umputun/jtrack/app/records"
	"github.com/umputun/jtrack/app/tracker"
	"github.com/umputun/jtrack/app/web/enums"
)

// handleDashboard renders the main page. The list is rendered in place if the cached one is fresh,
// otherwise the page shows the loading indicator and fetches the list right after load.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := s.newTemplateData(r)
	user, _ := records.UserFrom(r.Context())
	snap := s.tracker.Snapshot(user.ID)
	if snap.State == tracker.StateSuccess && !snap.Stale {
		s.fillList(&data, user.ID, snap.Jobs)
		data.ListVer = snap.Version
	} else {
		data.Loading = true
		data.Stats = statCards(snap.Jobs, data.Filter)
		data.Total = len(snap.Jobs)
	}
	s.render(w, "base.html", "base", data)
}

// handleJobsPartial renders the jobs list for HTMX requests.
// Polling requests pass the version they have, unchanged list gets 204 and htmx keeps the page as is.
func (s *Server) handleJobsPartial(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("v"); v != "" {
		user, _ := records.UserFrom(r.Context())
		snap := s.tracker.Snapshot(user.ID)
		if snap.State == tracker.StateSuccess && !snap.Stale && strconv.FormatUint(snap.Version, 10) == v {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	s.writeList(w, r, s.newTemplateData(r), false)
}

// handleFilterToggle switches the status filter. Clicking the active status returns to all.
func (s *Server) handleFilterToggle(w http.ResponseWriter, r *http.Request) {
	next := enums.FilterAll
	if v := r.PathValue("status"); !strings.EqualFold(v, enums.FilterAll.String()) {
		st, err := enums.ParseStatus(v)
		if err != nil {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		next = s.getFilter(r).Toggle(st)
	}
	s.setFilterCookie(w, next)

	data := s.newTemplateData(r)
	data.Filter = next
	s.writeList(w, r, data, false)
}

// handleThemeToggle toggles the theme
func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	nextTheme := enums.ThemeLight
	if s.getTheme(r) == enums.ThemeLight {
		nextTheme = enums.ThemeDark
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "theme",
		Value:    nextTheme.String(),
		Path:     s.cookiePath(),
		MaxAge:   365 * 24 * 60 * 60, // 1 year
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	// trigger full page refresh for theme change
	w.Header().Set("HX-Refresh", "true")
	w.WriteHeader(http.StatusOK)
}

// handleNewJobForm renders the form in create mode with defaults
func (s *Server) handleNewJobForm(w http.ResponseWriter, r *http.Request) {
	data := s.newTemplateData(r)
	data.Form = s.formView("", records.DefaultForm(s.now()), nil)
	s.render(w, "partials", "job-form", data)
}

// handleEditJobForm renders the form pre-populated from the job
func (s *Server) handleEditJobForm(w http.ResponseWriter, r *http.Request) {
	job, err := s.findJob(r, r.PathValue("id"))
	if err != nil {
		s.jobLookupFailed(w, r, "update", err)
		return
	}
	data := s.newTemplateData(r)
	data.Form = s.formView(job.ID, records.FormFor(job), nil)
	s.render(w, "partials", "job-form", data)
}

// handleCreateJob validates the form and adds the job. Invalid fields are shown in the form,
// on success the dialog is closed and the list refreshed.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	form, ok := s.parseJobForm(w, r)
	if !ok {
		return
	}
	in, err := records.Validate(form, s.now())
	if err != nil {
		s.renderFormError(w, r, "", form, err)
		return
	}
	if _, err := s.tracker.Create(r.Context(), in); err != nil {
		s.renderFormError(w, r, "", form, err)
		return
	}
	s.writeList(w, r, s.newTemplateData(r), true)
}

// handleUpdateJob validates the form and replaces all fields of the job
func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	form, ok := s.parseJobForm(w, r)
	if !ok {
		return
	}
	in, err := records.Validate(form, s.now())
	if err != nil {
		s.renderFormError(w, r, id, form, err)
		return
	}
	if _, err := s.tracker.Update(r.Context(), id, in.Changes()); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			s.writeList(w, r, s.newTemplateData(r), true) // the job is gone, nothing left to edit
			return
		}
		s.renderFormError(w, r, id, form, err)
		return
	}
	s.writeList(w, r, s.newTemplateData(r), true)
}

// handleStatusChange changes the status of the job from the inline control.
// A change requested while another one of the same job is in progress gets 409.
func (s *Server) handleStatusChange(w http.ResponseWriter, r *http.Request) {
	st, err := enums.ParseStatus(r.FormValue("status"))
	if err != nil {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	if _, err := s.tracker.UpdateStatus(r.Context(), r.PathValue("id"), st); err != nil {
		if errors.Is(err, tracker.ErrInFlight) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		log.Printf("[DEBUG] status change of %s failed: %v", r.PathValue("id"), err)
	}
	// the list is rendered on failure too, the control returns to the stored status
	s.writeList(w, r, s.newTemplateData(r), false)
}

// handleDeleteConfirm renders the delete confirmation dialog naming the company
func (s *Server) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	job, err := s.findJob(r, r.PathValue("id"))
	if err != nil {
		s.jobLookupFailed(w, r, "delete", err)
		return
	}
	data := s.newTemplateData(r)
	data.Job = job
	s.render(w, "partials", "confirm-delete", data)
}

// handleDeleteJob deletes the job after confirmation, the dialog is closed either way
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.Delete(r.Context(), r.PathValue("id")); err != nil {
		log.Printf("[DEBUG] delete of %s failed: %v", r.PathValue("id"), err)
	}
	s.writeList(w, r, s.newTemplateData(r), true)
}

// parseJobForm reads the create/edit form fields
func (s *Server) parseJobForm(w http.ResponseWriter, r *http.Request) (records.Form, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return records.Form{}, false
	}
	return records.Form{
		CompanyName:     r.FormValue(records.FieldCompanyName),
		Role:            r.FormValue(records.FieldRole),
		ApplicationDate: r.FormValue(records.FieldApplicationDate),
		Status:          r.FormValue(records.FieldStatus),
	}, true
}

// renderFormError renders the form again keeping the entered values.
// Validation errors go next to the fields, other errors were already reported by the tracker.
func (s *Server) renderFormError(w http.ResponseWriter, r *http.Request, id string, form records.Form, err error) {
	var fields map[string]string
	var verr *records.ValidationError
	if errors.As(err, &verr) {
		fields = verr.Fields
	}
	data := s.newTemplateData(r)
	data.Form = s.formView(id, form, fields)
	s.render(w, "partials", "job-form", data)
}

// jobLookupFailed reports a job which can't be opened for edit or delete
func (s *Server) jobLookupFailed(w http.ResponseWriter, r *http.Request, op string, err error) {
	prefix := map[string]string{"update": "Failed to update job", "delete": "Failed to delete job"}[op]
	toast(r.Context(), notify.LevelError, op, prefix+": "+errMessage(err))
	status := http.StatusInternalServerError
	if errors.Is(err, records.ErrNotFound) {
		status = http.StatusNotFound
	}
	http.Error(w, errMessage(err), status)
}

func (s *Server) formView(id string, values records.Form, errs map[string]string) FormView {
	return FormView{ID: id, Values: values, Errors: errs, Today: s.now().Format(persistence.DateLayout)}
}
