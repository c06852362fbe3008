package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/aegis-signal/backend/internal/api/handlers"
	"github.com/wonny/aegis-signal/backend/pkg/logger"
)

// Routes bundles the handlers mounted by NewRouter. Nil entries are not mounted.
type Routes struct {
	Score   *handlers.ScoreHandler
	Sector  *handlers.SectorHandler
	Scan    *handlers.ScanHandler
	Stream  *Hub
	Metrics http.Handler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(routes Routes, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithModule("api")

	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics).Methods("GET")
	}
	if routes.Stream != nil {
		r.Handle("/ws/sectors", routes.Stream).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	if routes.Score != nil {
		api.HandleFunc("/score/{code}", routes.Score.GetScore).Methods("GET")
	}

	if routes.Scan != nil {
		api.HandleFunc("/scan", routes.Scan.GetScan).Methods("GET")
		api.HandleFunc("/sectors/leaders", routes.Scan.GetLeaders).Methods("GET")
	}

	// 고정 경로를 먼저 등록
	if routes.Sector != nil {
		api.HandleFunc("/sectors/flow-leaders", routes.Sector.GetFlowLeaders).Methods("GET")
		api.HandleFunc("/sectors/latest", routes.Sector.GetLatest).Methods("GET")
		api.HandleFunc("/sectors", routes.Sector.GetRanking).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "aegis-signal-api",
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/ws/sectors" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": handlers.ErrCodeInternal,
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
