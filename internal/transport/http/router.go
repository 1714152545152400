package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/water-delivery-api/internal/application/address"
	"github.com/water-delivery-api/internal/application/auth"
	"github.com/water-delivery-api/internal/application/chat"
	"github.com/water-delivery-api/internal/application/customer"
	"github.com/water-delivery-api/internal/application/media"
	"github.com/water-delivery-api/internal/application/notification"
	"github.com/water-delivery-api/internal/application/order"
	"github.com/water-delivery-api/internal/application/otp"
	"github.com/water-delivery-api/internal/application/session"
	"github.com/water-delivery-api/internal/config"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/transport/http/handler"
	appmiddleware "github.com/water-delivery-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	logger := deps.Logger

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", appmiddleware.SessionTokenHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var adminAuth func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		adminAuth = appmiddleware.Auth(deps.JWTProvider)
	} else {
		adminAuth = appmiddleware.Unavailable("Admin API is not configured.")
	}

	// 5 requests/second, burst of 10, on the unauthenticated auth endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	mediaSvc := media.NewService(deps.ObjectStore, logger)
	notifSvc := notification.NewService(notification.ServiceDeps{
		AdminRepo:    deps.AdminNotificationRepo,
		CustomerRepo: deps.CustomerNotificationRepo,
		Publisher:    deps.Publisher,
		Logger:       logger,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		CustomerRepo: deps.CustomerRepo,
		Cache:        deps.Cache,
		Logger:       logger,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		CustomerRepo:            deps.CustomerRepo,
		Cache:                   deps.Cache,
		OTP:                     otp.NewIssuer(deps.CustomerRepo, deps.Mailer, logger),
		Logger:                  logger,
		ConcealAccountExistence: cfg.ConcealAccountExistence,
	})
	customerSvc := customer.NewService(customer.ServiceDeps{
		CustomerRepo: deps.CustomerRepo,
		Media:        mediaSvc,
		Notifier:     notifSvc,
	})
	addressSvc := address.NewService(address.ServiceDeps{
		AddressRepo: deps.AddressRepo,
		Notifier:    notifSvc,
	})
	orderSvc := order.NewService(order.ServiceDeps{
		OrderRepo: deps.OrderRepo,
		Media:     mediaSvc,
		Notifier:  notifSvc,
	})
	chatSvc := chat.NewService(chat.ServiceDeps{
		ChatRepo:     deps.ChatRepo,
		CustomerRepo: deps.CustomerRepo,
		Media:        mediaSvc,
	})

	healthH := handler.NewHealthHandler(deps.HealthChecks, logger)
	authH := handler.NewAuthHandler(authSvc, sessionSvc, customerSvc, logger)
	accountH := handler.NewAccountHandler(customerSvc, logger)
	changePwH := handler.NewChangePasswordHandler(authSvc, customerSvc, logger)
	addressH := handler.NewAddressHandler(addressSvc, logger)
	orderH := handler.NewOrderHandler(orderSvc, logger)
	chatH := handler.NewChatHandler(chatSvc, logger)
	notifH := handler.NewNotificationHandler(notifSvc, logger)

	r.Route("/api/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Health)
		r.Post("/logout", authH.Logout)
		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)

			r.Post("/login", authH.Login)
			r.Post("/register", authH.Register)
			r.Post("/verify-otp", authH.VerifyOTP)
			r.Post("/resend-otp", authH.ResendOTP)
			r.Post("/forgot-password", authH.ForgotPassword)
			r.Post("/forgot-password/resend-otp", authH.ForgotPasswordResendOTP)
			r.Post("/forgot-password/verify-otp", authH.ForgotPasswordVerifyOTP)
			r.Post("/forgot-password/reset-password", authH.ResetPassword)
		})

		// ── Customer session routes ──────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Session(sessionSvc, logger))

			r.Get("/me", handler.Authed(accountH.Me))
			r.Get("/profile", handler.Authed(accountH.Me))
			r.Get("/account", handler.Authed(accountH.Account))
			r.Post("/profile/update", handler.Authed(accountH.UpdateProfile))
			r.Put("/address", handler.Authed(accountH.UpdateAddress))
			r.Post("/address", handler.Authed(accountH.UpdateAddress))

			r.Post("/change-password/send-otp", handler.Authed(changePwH.SendOTP))
			r.Post("/change-password/verify-otp", handler.Authed(changePwH.VerifyOTP))
			r.Post("/change-password/resend-otp", handler.Authed(changePwH.ResendOTP))
			r.Post("/change-password/update", handler.Authed(changePwH.Update))

			r.Get("/addresses", handler.Authed(addressH.List))
			r.Post("/addresses", handler.Authed(addressH.Create))
			r.Get("/addresses/{id}", handler.Authed(addressH.Get))
			r.Put("/addresses/{id}", handler.Authed(addressH.Update))
			r.Patch("/addresses/{id}", handler.Authed(addressH.Update))
			r.Delete("/addresses/{id}", handler.Authed(addressH.Delete))
			r.Post("/addresses/{id}/default", handler.Authed(addressH.SetDefault))

			r.Get("/orders", handler.Authed(orderH.List))
			r.Post("/orders", handler.Authed(orderH.Create))
			r.Get("/orders/{id}", handler.Authed(orderH.Get))

			r.Get("/chat/messages", handler.Authed(chatH.Messages))
			r.Post("/chat/messages", handler.Authed(chatH.Send))

			r.Get("/notifications", handler.Authed(notifH.ListMine))
			r.Post("/notifications/{id}/read", handler.Authed(notifH.MarkMineRead))
		})

		// ── Admin routes (JWT) ───────────────────────────────────────────────
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuth)
			r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

			r.Get("/chat/customers", chatH.Threads)
			r.Get("/chat/customers/{id}/messages", chatH.Conversation)
			r.Post("/chat/customers/{id}/messages", chatH.Reply)
			r.Post("/chat/customers/{id}/read", chatH.MarkRead)

			r.Get("/notifications", notifH.ListAdmin)
			r.Get("/notifications/unread-count", notifH.AdminUnreadCount)
			r.Post("/notifications/read-all", notifH.MarkAllAdminRead)
			r.Post("/notifications/{id}/read", notifH.MarkAdminRead)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Not found."}`))
	})

	return r
}
