package api

import (
	"encoding/json"
	"net/http"

	_ "github.com/blaisecz/bioage-reset/docs"
	"github.com/blaisecz/bioage-reset/internal/api/handler"
	"github.com/blaisecz/bioage-reset/internal/api/middleware"
	"github.com/blaisecz/bioage-reset/internal/logger"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	questionHandler *handler.QuestionHandler
	reportHandler   *handler.ReportHandler
	log             *logger.Logger
}

func NewRouter(questionHandler *handler.QuestionHandler, reportHandler *handler.ReportHandler, log *logger.Logger) *Router {
	if log == nil {
		log = logger.Nop()
	}
	return &Router{
		questionHandler: questionHandler,
		reportHandler:   reportHandler,
		log:             log,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recovery(rt.log))
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger(rt.log))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/questions", rt.questionHandler.List)

		r.Route("/reports", func(r chi.Router) {
			r.Post("/", rt.reportHandler.Create)
			r.Get("/", rt.reportHandler.List)

			// Stateless generation and rendering
			r.Post("/preview", rt.reportHandler.Preview)
			r.Post("/render", rt.reportHandler.Render)

			r.Route("/{reportId}", func(r chi.Router) {
				r.Get("/", rt.reportHandler.GetByID)
				r.Get("/pdf", rt.reportHandler.DownloadPDF)
				r.Post("/feedback", rt.reportHandler.PostFeedback)
			})
		})
	})

	return r
}
