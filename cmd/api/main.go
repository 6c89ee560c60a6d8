package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"

	"github.com/jdwly/platform/pkg/account"
	accountapi "github.com/jdwly/platform/pkg/account/api"
	"github.com/jdwly/platform/pkg/auth"
	authapi "github.com/jdwly/platform/pkg/auth/api"
	"github.com/jdwly/platform/pkg/config"
	"github.com/jdwly/platform/pkg/database"
	"github.com/jdwly/platform/pkg/notification"
	"github.com/jdwly/platform/pkg/otp"
	"github.com/jdwly/platform/pkg/plan"
	planapi "github.com/jdwly/platform/pkg/plan/api"
	"github.com/jdwly/platform/pkg/team"
	teamapi "github.com/jdwly/platform/pkg/team/api"
	"github.com/jdwly/platform/pkg/tokengenerator"
	"github.com/jdwly/platform/pkg/user"
)

type Config struct {
	App      config.AppConfig
	Db       config.DatabaseConfig
	Jwt      config.JWTConfig
	Email    config.EmailConfig
	Password config.PasswordConfig
}

func main() {
	godotenv.Load()

	cfg := Config{}
	cleanenv.ReadEnv(&cfg)

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	pgxPool, err := dbutils.NewDbPool(context.Background(), cfg.Db.ToDbConfig())
	if err != nil {
		slog.Error("Failed creating dbpool", "db", cfg.Db.Database, "host", cfg.Db.Host, "port", cfg.Db.Port, "user", cfg.Db.User)
		os.Exit(-1)
	}
	pool := database.NewPool(pgxPool)

	if err := database.Migrate(context.Background(), cfg.Db.ToDatabaseURL()); err != nil {
		slog.Error("Failed running migrations", "err", err)
		os.Exit(-1)
	}

	userRepo := user.NewPostgresRepository(pool)
	otpRepo := otp.NewPostgresRepository(pool)
	teamRepo := team.NewPostgresRepository(pool)
	planRepo := plan.NewPostgresRepository(pool)

	notifier := notification.NewNotificationManager()
	emailNotifier, err := notification.NewEmailNotifier(cfg.Email.ToSMTPConfig())
	if err != nil {
		slog.Error("Failed creating email notifier", "host", cfg.Email.Host, "err", err)
		os.Exit(-1)
	}
	notifier.RegisterNotifier(notification.EmailSystem, emailNotifier)
	registerNotifications(notifier)

	tokenService := tokengenerator.NewTokenService(
		tokengenerator.NewJwtTokenGenerator(cfg.Jwt.Secret, cfg.Jwt.Issuer, cfg.Jwt.Audience),
		tokengenerator.WithAccessTokenExpiry(cfg.Jwt.AccessTokenExpiryOrDefault()),
		tokengenerator.WithRefreshTokenExpiry(cfg.Jwt.RefreshTokenExpiryOrDefault()),
		tokengenerator.WithCookieSetter(tokengenerator.NewCookieSetter(
			cfg.Jwt.CookieHttpOnly,
			cfg.Jwt.CookieSecure,
			cfg.App.ResolveCookieDomain(),
		)),
	)

	hasher := auth.NewBcryptHasher(cfg.Password.BcryptCost)
	otpService := otp.NewService(otpRepo)
	teamService := team.NewService(teamRepo)
	authService := auth.NewService(userRepo, teamService, otpService, hasher, notifier, pool)
	accountService := account.NewService(userRepo, otpService, hasher, notifier)
	planService := plan.NewService(planRepo)

	authHandle := authapi.NewHandle(authService, tokenService)
	accountHandle := accountapi.NewHandle(accountService, tokenService)
	teamHandle := teamapi.NewHandle(teamService)
	planHandle := planapi.NewHandle(planService)

	gk := auth.NewGatekeeper(cfg.Jwt.Secret, tokenService, authService)

	server.R.Route("/rpc", func(r chi.Router) {
		r.Group(authHandle.Routes)

		r.Group(func(r chi.Router) {
			r.Use(auth.Chain(gk.Authenticated()))
			accountHandle.Routes(r)
			teamHandle.Routes(r)
			planHandle.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Chain(gk.Authenticated(), gk.Admin()))
			planHandle.AdminRoutes(r)
		})
	})

	server.Run()
}

func registerNotifications(nm *notification.NotificationManager) {
	registrations := []struct {
		notifType notification.NotificationType
		subject   string
		body      string
	}{
		{
			notifType: notification.EmailVerifyNotice,
			subject:   "Verify your email",
			body:      "Hi {{.Name}},\n\nYour verification code is {{.OtpCode}}. It expires in 10 minutes.\n",
		},
		{
			notifType: notification.EmailChangeNotice,
			subject:   "Confirm your new email address",
			body:      "Hi {{.Name}},\n\nYour confirmation code is {{.OtpCode}}. It expires in 10 minutes.\n",
		},
		{
			notifType: notification.PasswordResetNotice,
			subject:   "Reset your password",
			body:      "Hi {{.Name}},\n\nUse this token to reset your password: {{.Token}}\n",
		},
	}
	for _, reg := range registrations {
		if err := nm.RegisterNotification(reg.notifType, notification.EmailSystem, reg.subject, reg.body); err != nil {
			slog.Error("Failed registering notification", "type", reg.notifType, "err", err)
			os.Exit(-1)
		}
	}
}
