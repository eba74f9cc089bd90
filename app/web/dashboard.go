package web

import (
	"bytes"
	"fmt"
	"net/http"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/jtrack/app/persistence"
	"github.com/umputun/jtrack/app/records"
	"github.com/umputun/jtrack/app/web/enums"
)

// FilterJobs returns jobs passing the filter, order is kept
func FilterJobs(jobs []persistence.Job, f enums.Filter) []persistence.Job {
	res := make([]persistence.Job, 0, len(jobs))
	for _, j := range jobs {
		if f.Match(j.Status) {
			res = append(res, j)
		}
	}
	return res
}

// CountByStatus returns the number of jobs in each status, every status is present
func CountByStatus(jobs []persistence.Job) map[enums.Status]int {
	res := make(map[enums.Status]int, len(enums.StatusValues()))
	for _, st := range enums.StatusValues() {
		res[st] = 0
	}
	for _, j := range jobs {
		if _, ok := res[j.Status]; ok {
			res[j.Status]++
		}
	}
	return res
}

// statCards makes status cards in the enum order, the card of the filtered status is active
func statCards(jobs []persistence.Job, f enums.Filter) []StatCard {
	counts := CountByStatus(jobs)
	res := make([]StatCard, 0, len(counts))
	for _, st := range enums.StatusValues() {
		res = append(res, StatCard{Status: st, Count: counts[st], Active: f == enums.FilterFor(st)})
	}
	return res
}

// fillList sets the list part of the template data from all jobs of the owner
func (s *Server) fillList(data *TemplateData, owner string, jobs []persistence.Job) {
	shown := FilterJobs(jobs, data.Filter)
	data.Jobs = make([]JobView, 0, len(shown))
	for _, j := range shown {
		data.Jobs = append(data.Jobs, JobView{Job: j, InFlight: s.tracker.InFlight(owner, j.ID)})
	}
	data.Stats = statCards(jobs, data.Filter)
	data.Total = len(jobs)
	data.Shown = len(shown)
}

// loadList fetches the caller's list through the tracker and fills the template data.
// A fetch failure is kept in ListErr, the counts stay from the last good list.
func (s *Server) loadList(r *http.Request, data *TemplateData) {
	user, _ := records.UserFrom(r.Context())
	jobs, err := s.tracker.List(r.Context())
	snap := s.tracker.Snapshot(user.ID)
	if err != nil {
		data.ListErr = "Failed to load job applications: " + errMessage(err)
		data.Stats = statCards(snap.Jobs, data.Filter)
		data.Total = len(snap.Jobs)
		return
	}
	s.fillList(data, user.ID, jobs)
	data.ListVer = snap.Version
}

// writeList renders the jobs container with out-of-band updates of the stat cards and list header.
// With closeModal the primary response is the empty modal and the container goes out-of-band too.
func (s *Server) writeList(w http.ResponseWriter, r *http.Request, data TemplateData, closeModal bool) {
	s.loadList(r, &data)

	tmpl, ok := s.templates["partials"]
	if !ok {
		log.Printf("[WARN] partials template not found")
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	render := func(name string, d TemplateData) error {
		if err := tmpl.ExecuteTemplate(&buf, name, d); err != nil {
			return fmt.Errorf("failed to render %s: %w", name, err)
		}
		return nil
	}

	oob := data
	oob.IsOOB = true
	var err error
	if closeModal {
		err = render("modal-empty", data)
		if err == nil {
			err = render("jobs-container", oob)
		}
	} else {
		err = render("jobs-container", data)
	}
	if err == nil {
		err = render("stats", oob)
	}
	if err == nil {
		err = render("list-header", oob)
	}
	if err != nil {
		log.Printf("[WARN] %v", err)
		http.Error(w, "Failed to render jobs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write jobs response: %v", err)
	}
}

// findJob looks up the caller's job in the cached list
func (s *Server) findJob(r *http.Request, id string) (persistence.Job, error) {
	jobs, err := s.tracker.List(r.Context())
	if err != nil {
		return persistence.Job{}, err
	}
	for _, j := range jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return persistence.Job{}, records.ErrNotFound
}
