package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"meetgate/auth"
	"meetgate/config"
	"meetgate/db"
	"meetgate/handlers"
	"meetgate/invites"
	"meetgate/logger"
	"meetgate/maintenance"
	"meetgate/meeting"
	"meetgate/models"
	"meetgate/ratelimit"
	"meetgate/storage"
	"meetgate/utils"
	"meetgate/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	cleanup := flag.Bool("cleanup", false, "run the maintenance tasks once and exit")
	hashPassword := flag.String("hash-password", "", "print the bcrypt hash for ADMIN_PASSWORD_HASH and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logger.New(&cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err = db.Init(&cfg.Database, cfg.Server.DebugMode, log); err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}
	if err = models.Init(db.Instance); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}

	if err = meeting.CheckRooms(&cfg.Meeting); err != nil {
		log.Fatal("invalid meeting room", zap.Error(err))
	}
	guard := auth.NewGuard(&cfg.Session, log)
	archive, err := storage.New(&cfg.Archive)
	if err != nil {
		log.Error("archive storage unavailable, rotated logs stay local", zap.Error(err))
	}
	runner := maintenance.Setup(cfg, guard, archive, log)
	if *cleanup {
		if err = runner.RunAll(context.Background()); err != nil {
			log.Fatal("maintenance failed", zap.Error(err))
		}
		return
	}

	ctx := context.Background()
	if cfg.Server.MaintenanceInterval > 0 {
		go runner.Start(ctx, cfg.Server.MaintenanceInterval)
	}

	var limiter *ratelimit.Client
	if cfg.Redis.Addr != "" {
		if limiter, err = ratelimit.NewClient(&cfg.Redis, log); err != nil {
			log.Warn("redis unavailable, code submission is not rate limited", zap.Error(err))
		} else {
			defer limiter.Close()
		}
	}

	var accessLog meeting.AccessLogger
	if cfg.AccessLog.Enabled {
		accessLog = meeting.NewFileAccessLogger(&cfg.AccessLog, log)
	}
	manager := invites.NewManager(models.NewCodeStore(db.Instance, log), &cfg.Invite, log)
	pages := &web.Pages{
		Invites: manager,
		Guard:   guard,
		Admin:   auth.NewCredential(&cfg.Admin),
		Rooms:   &meeting.JitsiBuilder{Domain: cfg.Meeting.JitsiDomain},
		Access:  accessLog,
		Meeting: cfg.Meeting,
		BaseURL: cfg.Server.BaseURL,
		Log:     log,
	}
	adminAPI := &handlers.AdminAPI{Invites: manager, Log: log}
	presence := handlers.NewPresence(log)
	guard.OnDestroy(presence.CloseSession)
	go presence.Run(ctx)

	if !cfg.Server.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err = router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Fatal("invalid TRUSTED_PROXIES", zap.Error(err))
	}
	router.Use(gin.Recovery(), utils.RequestID(), utils.Logger(log))
	if cfg.Server.DebugMode {
		router.Use(utils.ErrorLogMiddleware(log))
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: !containsWildcard(cfg.Server.CORSOrigins),
			MaxAge:           12 * time.Hour,
		}))
	}
	router.Use(utils.SecurityHeaders(cfg.Meeting.JitsiDomain))

	// HTML templates
	tmpl, err := web.Templates()
	if err != nil {
		log.Fatal("templates", zap.Error(err))
	}
	router.SetHTMLTemplate(tmpl)

	store, kind, err := auth.NewStore(cfg, db.Instance, log)
	if err != nil {
		log.Fatal("session store", zap.Error(err))
	}
	if kind == config.SessionStoreCookie {
		log.Warn("sessions are held in the client cookie, server side destroy is best effort")
	}
	router.Use(sessions.Sessions(cfg.Session.CookieName, store))
	if !cfg.Server.DebugMode {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/meeting/ws"})))
	}
	router.Use(web.Language(guard, log))
	// Session pages must never be cached, individual end-points can override that
	router.Use((&utils.CacheRouter{CacheTime: utils.CacheNoStore}).Handler())
	authRouter := &auth.Router{Base: router, Guard: guard}

	// Participant flow
	router.GET("/", pages.Index)
	router.Any("/verify", ratelimit.Middleware(limiter, cfg.Redis.VerifyLimit, cfg.Redis.VerifyWindow, web.RateLimited), pages.Verify)
	authRouter.GET("/meeting", pages.MeetingPage)
	authRouter.GET("/meeting/ws", presence.WebSocket)
	router.GET("/logout", pages.Logout)
	// Admin console
	router.GET("/admin", pages.AdminPage)
	router.POST("/admin", pages.AdminLogin)
	router.POST("/admin/login", pages.AdminLogin)
	router.GET("/admin/logout", pages.AdminLogout)
	authRouter.AdminPOST("/admin/api", adminAPI.Action)
	// Misc
	robots := router.Group("/", (&utils.CacheRouter{CacheTime: 86400}).Handler())
	robots.GET("/robots.txt", web.DisallowRobots)

	if cfg.Server.TLSDomains != "" {
		err = autotls.Run(router, strings.Split(cfg.Server.TLSDomains, ",")...)
	} else {
		err = router.Run(cfg.Server.BindAddress)
	}
	log.Fatal("server stopped", zap.Error(err))
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
