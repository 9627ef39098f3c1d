package server

import "net/http"

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Job submission - each returns 202 with the job id immediately
	mux.HandleFunc("/api/jobs/scrape", s.requirePost(s.submitScrapeHandler))
	mux.HandleFunc("/api/jobs/analyze", s.requirePost(s.submitAnalyzeHandler))
	mux.HandleFunc("/api/jobs/discover", s.requirePost(s.submitDiscoverHandler))
	mux.HandleFunc("/api/jobs/website", s.requirePost(s.submitWebsiteHandler))

	// Job status polling
	mux.HandleFunc("/api/jobs/", s.getJobHandler) // GET /api/jobs/{id}

	// Artifact retrieval
	mux.HandleFunc("/api/artifacts/", s.getArtifactHandler) // GET /api/artifacts/{key}

	// Application status
	mux.HandleFunc("/api/status", s.statusHandler)
	mux.HandleFunc("/api/version", s.versionHandler)

	return mux
}

func (s *Server) requirePost(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
