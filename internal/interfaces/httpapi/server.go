package httpapi

import (
	"net/http"

	"github.com/riskibarqy/domatch/internal/platform/logging"
)

// MetricsExporter serves the Prometheus registry and observes requests.
type MetricsExporter interface {
	HTTPObserver
	Handler() http.Handler
}

type RouterConfig struct {
	Handler            *Handler
	Sessions           SessionResolver
	Metrics            MetricsExporter
	Logger             *logging.Logger
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	InternalJobToken   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("http")

	mux := http.NewServeMux()
	registerSystemRoutes(mux, cfg.Handler, cfg.Metrics, cfg.SwaggerEnabled)
	registerSessionRoutes(mux, cfg.Handler, cfg.Sessions)
	registerPlayerRoutes(mux, cfg.Handler, cfg.Sessions)
	registerCommunityRoutes(mux, cfg.Handler, cfg.Sessions)
	registerCompetitionRoutes(mux, cfg.Handler, cfg.Sessions)
	registerGameRoutes(mux, cfg.Handler, cfg.Sessions)
	registerTournamentRoutes(mux, cfg.Handler, cfg.Sessions)
	registerInternalJobRoutes(mux, cfg.Handler, cfg.InternalJobToken)

	var observer HTTPObserver
	if cfg.Metrics != nil {
		observer = cfg.Metrics
	}
	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, RequestMetrics(observer, mux)))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(r.Context(), w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
