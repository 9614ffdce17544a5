package devapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/iudanet/scholardesk/internal/client/catalog"
	"github.com/iudanet/scholardesk/pkg/api"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	day = 24 * time.Hour
)

// pathID разбирает {id}; при ошибке отвечает 404
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.sendDetail(w, http.StatusNotFound, "Not found")
		return 0, false
	}
	return id, true
}

// positive читает положительное целое из query; def при отсутствии
func positive(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// handleListScholarships обрабатывает GET /scholarships/ и /admin/scholarships/.
// Фильтры: search, country, degree_level, application_ongoing; пагинация page, page_size
func (s *Server) handleListScholarships(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.ScholarshipFilter{
		Now:         s.now(),
		Search:      q.Get("search"),
		Country:     q.Get("country"),
		DegreeLevel: q.Get("degree_level"),
	}
	switch q.Get("application_ongoing") {
	case "true", "1":
		filter.Status = catalog.StatusActive
	case "false", "0":
		filter.Status = catalog.StatusExpired
	}

	page, ok := positive(r, "page", 1)
	if !ok {
		s.sendDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	size, ok := positive(r, "page_size", defaultPageSize)
	if !ok {
		s.sendError(w, http.StatusBadRequest, "page_size must be a positive integer")
		return
	}
	size = min(size, maxPageSize)

	list := catalog.SortByNewest(catalog.FilterScholarships(s.store.Scholarships(), filter))
	p := catalog.Paginate(list, page, size)
	// DRF отвечает 404 на страницу за пределами списка
	if p.Page != page {
		s.sendDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}

	s.sendJSON(w, http.StatusOK, api.ScholarshipPage{
		Results:    p.Items,
		Count:      p.Total,
		Page:       p.Page,
		TotalPages: p.TotalPages,
		HasNext:    p.Page < p.TotalPages,
	})
}

// handleGetScholarship обрабатывает GET /scholarships/{id}/
func (s *Server) handleGetScholarship(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	sc, err := s.store.Scholarship(id)
	if err != nil {
		s.sendDetail(w, http.StatusNotFound, "Not found")
		return
	}
	s.sendJSON(w, http.StatusOK, sc)
}

// handleCreateScholarship обрабатывает POST /scholarships/
func (s *Server) handleCreateScholarship(w http.ResponseWriter, r *http.Request) {
	var in api.ScholarshipInput
	if !s.decode(w, r, &in) {
		return
	}
	if in.Author == "" {
		user, _ := userFrom(r.Context())
		in.Author = user.FullName()
	}
	sc := s.store.CreateScholarship(in, s.now())
	s.log.Info("scholarship created", zap.Int64("id", sc.ID))
	s.sendJSON(w, http.StatusCreated, sc)
}

// handleUpdateScholarship обрабатывает PUT /scholarships/{id}/ и /admin/scholarships/{id}/
func (s *Server) handleUpdateScholarship(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var in api.ScholarshipInput
	if !s.decode(w, r, &in) {
		return
	}
	sc, err := s.store.UpdateScholarship(id, in, s.now())
	if err != nil {
		s.sendDetail(w, http.StatusNotFound, "Not found")
		return
	}
	s.sendJSON(w, http.StatusOK, sc)
}

// handleDeleteScholarship обрабатывает DELETE /admin/scholarships/{id}/delete/
func (s *Server) handleDeleteScholarship(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteScholarship(id); err != nil {
		s.sendDetail(w, http.StatusNotFound, "Not found")
		return
	}
	s.log.Info("scholarship deleted", zap.Int64("id", id))
	s.sendJSON(w, http.StatusOK, api.MessageResponse{Message: "Scholarship deleted successfully"})
}

// handleStatistics обрабатывает GET /admin/scholarships/statistics/
func (s *Server) handleStatistics(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	list := s.store.Scholarships()
	active := len(catalog.Active(list, now))

	stats := api.Statistics{
		TotalScholarships:   len(list),
		ActiveScholarships:  active,
		ExpiredScholarships: len(list) - active,
		TotalCountries:      len(catalog.Countries(list)),
	}
	for _, u := range s.store.Users("") {
		stats.TotalUsers++
		switch {
		case u.IsAdmin():
			stats.TotalAdmins++
		case u.IsStudent():
			stats.TotalStudents++
		}
		age := now.Sub(u.joined)
		if age <= 7*day {
			stats.WeeklySignups++
		}
		if age <= 30*day {
			stats.MonthlySignups++
		}
		if age <= 365*day {
			stats.YearlySignups++
		}
	}
	s.sendJSON(w, http.StatusOK, stats)
}
