package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mind-engage/prepost/internal/aggregate"
	"github.com/mind-engage/prepost/internal/assessment"
	auth "github.com/mind-engage/prepost/internal/auth/middleware"
	"github.com/mind-engage/prepost/internal/rbac"
	"github.com/mind-engage/prepost/internal/storage"
)

// Deps is everything the router mounts. Events and Ready may be nil.
type Deps struct {
	Auth      *auth.AuthService
	Store     assessment.Store
	Engine    *assessment.Engine
	Accounts  *assessment.Accounts
	Content   *assessment.Content
	Aggregate *aggregate.Engine
	Blobs     storage.BlobStore
	Events    EventLister
	Ready     func(ctx context.Context) error

	CORSOrigins    []string
	RequestTimeout time.Duration
	ExportLocale   string
}

func NewRouter(d Deps) chi.Router {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/auth/register", auth.RegisterHandler(d.Auth, d.Accounts))
	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Accounts))

	if d.Blobs != nil {
		r.Get("/assets/*", ServeAssetHandler(d.Blobs))
	}

	// Protected API (JWT → caller from store → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth), auth.AttachCaller(d.Store))

		pr.With(rbac.Require("result:view-own")).Get("/me/dashboard", DashboardHandler(d.Engine))
		pr.With(rbac.RequireAny("material:view", "content:manage")).Get("/materials", MaterialsHandler(d.Engine))

		pr.Route("/tests/{phase}", func(tr chi.Router) {
			tr.With(rbac.Require("test:view")).Get("/eligibility", EligibilityHandler(d.Engine))
			tr.With(rbac.Require("test:view")).Get("/", TestQuestionsHandler(d.Engine))
			tr.With(rbac.Require("test:take")).Post("/submit", SubmitHandler(d.Engine))
			tr.With(rbac.Require("result:view-own")).Get("/result", ResultHandler(d.Engine))
		})

		pr.Route("/admin", func(ar chi.Router) {
			ar.With(rbac.Require("results:view-all")).Get("/summary", SummaryHandler(d.Aggregate))
			ar.With(rbac.Require("results:view-all")).Get("/results", ResultsHandler(d.Aggregate, d.ExportLocale))
			ar.With(rbac.Require("results:export")).Get("/export", ExportHandler(d.Aggregate, d.ExportLocale))

			ar.Group(func(cr chi.Router) {
				cr.Use(rbac.Require("content:manage"))
				cr.Get("/questions", ListQuestionsHandler(d.Content))
				cr.Post("/questions", CreateQuestionHandler(d.Content))
				cr.Delete("/questions/{id}", DeleteQuestionHandler(d.Content))
				cr.Get("/materials", ListMaterialsHandler(d.Content))
				cr.Post("/materials", CreateMaterialHandler(d.Content))
				cr.Delete("/materials/{id}", DeleteMaterialHandler(d.Content))
			})

			ar.Group(func(lr chi.Router) {
				lr.Use(rbac.Require("learners:manage"))
				lr.Get("/learners", ListLearnersHandler(d.Accounts))
				lr.Post("/learners/{id}/reset", ResetLearnerHandler(d.Accounts))
				lr.Delete("/learners/{id}", DeleteLearnerHandler(d.Accounts))
			})

			if d.Events != nil {
				ar.With(rbac.Require("events:view")).Get("/events", EventsHandler(d.Events))
			}
		})

		if d.Blobs != nil {
			pr.With(rbac.RequireAll("content:manage", "assets:write")).Post("/assets/materials", UploadMaterialHandler(d.Blobs, d.Content))
		}
	})

	return r
}
