// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/okian/skillup/internal/adapters/identity"
	service "github.com/okian/skillup/internal/app"
	"github.com/okian/skillup/internal/domain/biometric"
	"github.com/okian/skillup/internal/domain/matcher"
	"github.com/okian/skillup/internal/domain/model"
	"github.com/okian/skillup/internal/domain/prefs"
	"github.com/okian/skillup/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Signup(ctx context.Context, in identity.Signup) (service.Session, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	Authenticate(token string) (string, error)
	AuthMessage(err error) string

	Profile(ctx context.Context, uid string) (model.Profile, error)
	UpdateProfile(ctx context.Context, uid string, p model.DetailsPatch) (model.Profile, error)
	SubmitPersonalDetails(ctx context.Context, uid string, d model.PersonalDetails) error
	Dashboard(ctx context.Context, uid string) (service.Dashboard, error)

	Skills(ctx context.Context, uid string) ([]model.Skill, error)
	AddSkill(ctx context.Context, uid string, s model.Skill) (bool, []model.Skill, error)
	ParseSkills(ctx context.Context, uid, text string, level int) ([]string, []model.Skill, error)
	SetSkillLevel(ctx context.Context, uid, name string, level int) ([]model.Skill, error)
	RemoveSkill(ctx context.Context, uid, name string) ([]model.Skill, error)
	Categories() ([]model.SkillCategory, error)
	SuggestSkills(category, q string) ([]string, error)

	Careers(q string) ([]model.Career, error)
	Career(id string) (*model.Career, error)
	Courses() ([]model.Course, error)
	Goals(ctx context.Context, uid string) (service.Goals, error)
	AddGoal(ctx context.Context, uid, id string) (bool, error)
	RemoveGoal(ctx context.Context, uid, id string) error
	ClearHistory(ctx context.Context, uid string) error
	UpdateSettings(ctx context.Context, uid string, in service.SettingsUpdate) (prefs.Settings, error)

	Gap(ctx context.Context, uid, careerID string, f matcher.Filter) (matcher.Gap, error)
	Progress(ctx context.Context, uid string) (service.Progress, error)

	ConnectDevice(uid string) (biometric.Status, error)
	DisconnectDevice(uid string) (biometric.Status, error)
	StartSession(uid string) (biometric.Status, error)
	StopSession(uid string) (model.Session, error)
	BiometricStatus(uid string) (biometric.Status, error)
	StudySessions(uid string) ([]model.Session, error)
	Performance(uid string) (biometric.Report, error)
	SubscribeReadings(uid string) (<-chan model.Reading, func(), error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps    Dependencies
	origins []string
	logger  logger.Logger

	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	authHandler     *AuthHandler
	profileHandler  *ProfileHandler
	skillsHandler   *SkillsHandler
	careersHandler  *CareersHandler
	insightsHandler *InsightsHandler
	iotHandler      *IoTHandler
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:    deps,
		origins: []string{"*"},
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	e := &errorWriter{deps: deps, logger: s.logger}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.authHandler = &AuthHandler{deps: deps, errs: e}
	s.profileHandler = &ProfileHandler{deps: deps, errs: e}
	s.skillsHandler = &SkillsHandler{deps: deps, errs: e}
	s.careersHandler = &CareersHandler{deps: deps, errs: e}
	s.insightsHandler = &InsightsHandler{deps: deps, errs: e}
	s.iotHandler = &IoTHandler{deps: deps, errs: e, logger: s.logger.Named("iot"), upgrader: newUpgrader(s.origins)}
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", s.statsHandler.HandleStats)

	r.Post("/auth/signup", s.authHandler.HandleSignup)
	r.Post("/auth/login", s.authHandler.HandleLogin)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(s.deps))

		r.Get("/profile", s.profileHandler.HandleGet)
		r.Put("/profile", s.profileHandler.HandleUpdate)
		r.Post("/personal-details", s.profileHandler.HandleSubmitDetails)
		r.Get("/dashboard", s.insightsHandler.HandleDashboard)

		r.Route("/skills", func(r chi.Router) {
			r.Get("/", s.skillsHandler.HandleList)
			r.Post("/", s.skillsHandler.HandleAdd)
			r.Post("/parse", s.skillsHandler.HandleParse)
			r.Get("/categories", s.skillsHandler.HandleCategories)
			r.Put("/{name}", s.skillsHandler.HandleSetLevel)
			r.Delete("/{name}", s.skillsHandler.HandleRemove)
		})

		r.Get("/careers", s.careersHandler.HandleList)
		r.Get("/careers/{id}", s.careersHandler.HandleGet)
		r.Get("/courses", s.careersHandler.HandleCourses)

		r.Route("/career-goals", func(r chi.Router) {
			r.Get("/", s.careersHandler.HandleGoals)
			r.Post("/", s.careersHandler.HandleAddGoal)
			r.Delete("/history", s.careersHandler.HandleClearHistory)
			r.Put("/settings", s.careersHandler.HandleSettings)
			r.Delete("/{id}", s.careersHandler.HandleRemoveGoal)
		})

		r.Get("/gap", s.insightsHandler.HandleGap)
		r.Get("/recommendations", s.insightsHandler.HandleRecommendations)
		r.Get("/progress", s.insightsHandler.HandleProgress)

		r.Route("/iot", func(r chi.Router) {
			r.Post("/device/connect", s.iotHandler.HandleConnect)
			r.Post("/device/disconnect", s.iotHandler.HandleDisconnect)
			r.Post("/sessions/start", s.iotHandler.HandleStart)
			r.Post("/sessions/stop", s.iotHandler.HandleStop)
			r.Get("/sessions", s.iotHandler.HandleSessions)
			r.Get("/reading", s.iotHandler.HandleReading)
			r.Get("/performance", s.iotHandler.HandlePerformance)
			r.Get("/stream", s.iotHandler.HandleStream)
		})
	})
}

// Handler returns a router with every route registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

func elapsed(start time.Time) float64 {
	return float64(time.Since(start).Milliseconds())
}
