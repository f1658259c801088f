package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/aswaq/aswaq-backend/handlers"
	"github.com/aswaq/aswaq-backend/internal/catalog"
	"github.com/aswaq/aswaq-backend/internal/config"
	"github.com/aswaq/aswaq-backend/internal/database"
	"github.com/aswaq/aswaq-backend/internal/mailer"
	"github.com/aswaq/aswaq-backend/internal/oauth"
	"github.com/aswaq/aswaq-backend/internal/sessions"
	"github.com/aswaq/aswaq-backend/internal/storage"
	"github.com/aswaq/aswaq-backend/internal/users"
	"github.com/aswaq/aswaq-backend/pkg/logger"
	"github.com/aswaq/aswaq-backend/pkg/metrics"
	"github.com/aswaq/aswaq-backend/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging first (LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v google=%v github=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "",
		cfg.OAuth.Google.ClientID != "", cfg.OAuth.GitHub.ClientID != "")

	if cfg.Server.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(corsMiddleware(cfg.App.AllowedOrigin))

	// Connect to Redis early so the rate limiter and session store can use it
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	ctx := context.Background()

	client, err := database.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	db := client.Database(cfg.MongoDB.Database)
	usersCol := db.Collection("users")
	if err := users.EnsureIndexes(ctx, usersCol); err != nil {
		logger.Warnf("failed to ensure user indexes: %v", err)
	}
	userSvc := users.NewService(users.NewMongoRepository(usersCol))
	statsSvc := users.NewStatsService(usersCol)

	// Sessions live in Redis when available, MongoDB otherwise
	var sessionsSvc *sessions.Service
	if redisClient != nil {
		sessionsSvc = sessions.NewService(sessions.NewRedisRepository(redisClient, "session:"))
		logger.Infof("using Redis for session storage")
	} else {
		sessionsSvc = sessions.NewService(sessions.NewMongoRepository(db.Collection("sessions")))
		logger.Infof("using MongoDB for session storage")
	}

	// Mail goes to the log unless SMTP is configured
	var mail mailer.Sender = mailer.LogSender{}
	if cfg.SMTP.Host != "" {
		mail = mailer.NewSMTPSender(cfg.SMTP)
	}

	// OAuth providers: each is optional and registered only when configured.
	// Google needs network discovery, so a failure there downgrades the
	// provider instead of killing the process.
	providers := oauth.Registry{}
	if cfg.OAuth.GitHub.ClientID != "" && cfg.OAuth.GitHub.ClientSecret != "" {
		providers.Register(oauth.NewGitHub(
			cfg.OAuth.GitHub.ClientID,
			cfg.OAuth.GitHub.ClientSecret,
			cfg.OAuth.CallbackBase+"/auth/github/callback",
		))
	}
	if cfg.OAuth.Google.ClientID != "" && cfg.OAuth.Google.ClientSecret != "" {
		g, err := oauth.NewGoogle(ctx,
			cfg.OAuth.Google.ClientID,
			cfg.OAuth.Google.ClientSecret,
			cfg.OAuth.CallbackBase+"/auth/google/callback",
		)
		if err != nil {
			logger.Warnf("google provider unavailable: %v", err)
		} else {
			providers.Register(g)
		}
	}

	// Image storage is optional; uploads answer 503 when it is absent
	var images *storage.ImageStore
	if sc := storage.LoadConfig(); sc.Endpoint != "" {
		images, err = storage.NewImageStore(sc)
		if err != nil {
			logger.Warnf("image store unavailable: %v", err)
			images = nil
		}
	}

	catalogStore := catalog.NewStore(db)

	handlers.NewAuthHandler(cfg, userSvc, mail).Register(r)
	handlers.NewOAuthHandler(cfg, providers, userSvc, sessionsSvc).Register(r)
	handlers.NewCatalogHandler(cfg, catalogStore, images, userSvc).Register(r)
	handlers.NewStatsHandler(cfg, statsSvc).Register(r)
	handlers.RegisterSwagger(r)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when critical dependencies answer
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		pctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		deps["mongo"] = client.Ping(pctx, nil) == nil
		if !deps["mongo"] {
			ready = false
		}
		if redisClient != nil {
			deps["redis"] = redisClient.Ping(pctx).Err() == nil
			if !deps["redis"] {
				ready = false
			}
		}
		deps["storage"] = images != nil

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting aswaq backend on %s (env=%s)", addr, cfg.Server.Environment)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

// corsMiddleware answers preflights and reflects the configured origin. An
// empty origin leaves cross-origin requests blocked by the browser default.
func corsMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
