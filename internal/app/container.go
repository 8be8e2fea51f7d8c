package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/auditorium-booking-backend/internal/api"
	"github.com/nekogravitycat/auditorium-booking-backend/internal/auth"
	"github.com/nekogravitycat/auditorium-booking-backend/internal/booking"
	"github.com/nekogravitycat/auditorium-booking-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  []string
	Logger       zerolog.Logger
	DBPool       *pgxpool.Pool
	// Redis is optional; without it bookings are locked in-process only.
	Redis      redis.UniversalClient
	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	BootstrapAdminEmail    string
	BookingLockTTL         time.Duration
	BlockConflictsOnCreate bool
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	JWTManager     *auth.JWTManager
	UserService    user.Service
	BookingService booking.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher, cfg.BootstrapAdminEmail, cfg.Logger)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, userService, newLocker(cfg), booking.Options{
		BlockConflictsOnCreate: cfg.BlockConflictsOnCreate,
	}, cfg.Logger)

	healthChecks := map[string]api.HealthCheck{
		"postgres": cfg.DBPool.Ping,
	}
	if cfg.Redis != nil {
		healthChecks["redis"] = func(ctx context.Context) error {
			return cfg.Redis.Ping(ctx).Err()
		}
	}

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		Logger:         cfg.Logger,
		UserService:    userService,
		BookingService: bookingService,
		JWTManager:     jwtManager,
		HealthChecks:   healthChecks,
	})

	return &Container{
		Router:         router,
		JWTManager:     jwtManager,
		UserService:    userService,
		BookingService: bookingService,
	}
}

func newLocker(cfg Config) booking.Locker {
	if cfg.Redis != nil {
		return booking.NewRedisLocker(cfg.Redis, cfg.BookingLockTTL)
	}
	return booking.NewLocalLocker()
}
