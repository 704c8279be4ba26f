package main

import (
	"classrent/src/boot"
	"classrent/src/config"
	"classrent/src/db"
	"classrent/src/lib"
	"classrent/src/middlewares"
	"classrent/src/types"
	"classrent/src/utils"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"regexp"
	"strconv"
	"syscall"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const apiPrefix = "/api/v1"

// setupRouter registers the liveness routes. Middleware added to the engine
// afterwards (cors, maintenance mode) does not apply to them, so they keep
// answering while the API is in maintenance.
func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	router.GET("/health", func(ctx *gin.Context) {
		checks := gin.H{"database": "ok"}
		status := http.StatusOK
		if sqlDB, err := db.GetDb().DB(); err != nil || sqlDB.PingContext(ctx.Request.Context()) != nil {
			checks["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
		if config.REDIS_HOST != "" {
			checks["redis"] = "ok"
			if err := lib.PingRedis(ctx.Request.Context()); err != nil {
				checks["redis"] = "unavailable"
			}
		}
		ctx.JSON(status, checks)
	})
	return router
}

// maintenanceModeMiddleware answers 503 while MAINTENANCE_MODE is true.
func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		mm := os.Getenv("MAINTENANCE_MODE")
		if mm == "" {
			return
		}
		on, err := strconv.ParseBool(mm)
		if err != nil {
			log.Printf("Ignoring invalid MAINTENANCE_MODE %q\n", mm)
			return
		}
		if on {
			err := errors.New("server is under maintenance")
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
	})
	return g
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("hhmm", utils.HHMM)
	}
}

func corsMiddleware() gin.HandlerFunc {
	if config.API_ENV == types.Local {
		return cors.Default()
	}
	appHost := os.Getenv("APP_HOST")
	cc := cors.DefaultConfig()
	cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PUT", "DELETE", "HEAD")
	cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
	cc.AllowOriginFunc = func(origin string) bool {
		if appHost == "" {
			return false
		}
		match, _ := regexp.MatchString(appHost, origin)
		return match
	}
	cc.AllowCredentials = true
	cc.AllowAllOrigins = false
	return cors.New(cc)
}

// registerRoutes mounts the authenticated API. auth is swapped out in tests.
func registerRoutes(router *gin.Engine, svc *boot.Services, auth gin.HandlerFunc) {
	authorized := router.Group(apiPrefix)
	authorized.Use(auth)
	{
		bookingHandlers(authorized, svc)
		spaceHandlers(authorized, svc)
		calendarHandlers(authorized, svc)
		chatHandlers(authorized, svc)
	}
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	if err := os.MkdirAll(path.Join(cwd, "logs"), 0o755); err != nil {
		log.Printf("Error creating logs directory: %s\n", err.Error())
	}
	f, err := os.Create(apiLogs)
	if err != nil {
		log.Printf("Error creating %s: %s\n", apiLogs, err.Error())
	} else {
		gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	if types.Environment(os.Getenv("API_ENV")) == types.Local {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	config.Load()
	initLogger()
	if config.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB := boot.InitDb()
	publisher, closePublisher := boot.InitBroker(ctx)
	svc := boot.NewServices(gormDB, nil, boot.InitSender(ctx), publisher)
	svc.OnClose(closePublisher)
	boot.StartMirrorConsumer(ctx, svc)
	boot.InitScheduler(svc)

	registerValidators()
	router := setupRouter()
	router.Use(corsMiddleware())
	router = maintenanceModeMiddleware(router)
	registerRoutes(router, svc, middlewares.AuthMiddleware)

	srv := &http.Server{
		Addr:              ":" + config.PORT,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %s", err)
		}
	}()
	log.Printf("ClassRent API listening on :%s\n", config.PORT)

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %s\n", err.Error())
	}
	boot.StopScheduler()
	svc.Close()
}
