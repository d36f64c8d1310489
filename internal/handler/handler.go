package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/C4NU/hanavi-schedule/internal/config"
	"github.com/C4NU/hanavi-schedule/internal/domain"
	"github.com/C4NU/hanavi-schedule/internal/events"
	"github.com/C4NU/hanavi-schedule/internal/notifier"
	"github.com/C4NU/hanavi-schedule/internal/repository"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	translator ut.Translator
	publisher  *events.Publisher
	detector   *notifier.Detector
	dispatcher *notifier.Dispatcher

	Mux *chi.Mux
}

func NewHandler(
	cfg *config.Config,
	repo *repository.Repository,
	publisher *events.Publisher,
	detector *notifier.Detector,
	dispatcher *notifier.Dispatcher,
) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		publisher:  publisher,
		detector:   detector,
		dispatcher: dispatcher,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// Driven by the external scheduler, guarded by the cron secret.
	h.Mux.Get("/cron/check-schedule", h.CheckSchedule)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	h.Mux.Route("/schedule", func(r chi.Router) {
		r.Get("/", h.GetSchedule)
		r.With(h.auth).Post("/", h.SaveSchedule)
	})

	h.Mux.Route("/characters", func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/", h.GetAllCharacters)
		r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateCharacter)
		r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/{id}", h.DeleteCharacter)
	})

	h.Mux.Route("/push", func(r chi.Router) {
		r.Post("/subscribe", h.Subscribe)
		// Guarded by the admin secret in the body, not by a login session:
		// the caller is an operator script, not a browser.
		r.Post("/send", h.SendPush)
	})

	h.Mux.Post("/webhook/schedule-update", h.ScheduleUpdateWebhook)
}
