// @title           DocAssist API
// @version         1.0
// @description     Upload documents and ask questions answered only from them.
// @termsOfService  http://swagger.io/terms/

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/DocAssist/internal/app"
	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/data/store"
	jobmodel "github.com/akolanti/DocAssist/internal/domain/jobModel"
	"github.com/akolanti/DocAssist/internal/handlers"
	"github.com/akolanti/DocAssist/internal/job"
	"github.com/akolanti/DocAssist/internal/middleware"
	"github.com/akolanti/DocAssist/internal/server"
	"github.com/akolanti/DocAssist/internal/worker"
	"github.com/akolanti/DocAssist/pkg/logger_i"
)

var (
	configPath        string
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	flag.StringVar(&configPath, "config", "config.yaml", "path to the optional YAML config file")
	flag.StringVar(&listenAddr, "listen-addr", "", "server listen address (overrides config)")
	flag.Parse()

	settings, err := config.Load(configPath)
	if err != nil {
		logger_i.NewLogger("main").Error("Invalid configuration", "err", err)
		os.Exit(1)
	}
	logger_i.Init(settings)
	var logger = logger_i.NewLogger("main")
	if listenAddr == "" {
		listenAddr = settings.ListenAddr
	}

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	var jobStore jobmodel.JobStore
	redisJobs, err := store.GetRedisJobStore(serviceContext, settings)
	if err != nil {
		if !config.FALLBACK_REDIS_TO_INTERNALSTORE {
			logger.Error("Redis job store is offline", "err", err)
			return
		}
		logger.Warn("Redis job store is offline, using in-memory store", "err", err)
		jobStore = store.InitInMemoryJobStore()
	} else {
		jobStore = redisJobs
	}

	deps, err := app.Build(serviceContext, settings)
	if err != nil {
		logger.Error("One or more external services failed to initialize. Shutting down.", "err", err)
		return
	}
	defer deps.Close()

	logger.Info("Starting job service")
	service := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStore,
	})

	handlers.InitJobHandler(service)
	handlers.InitRagHandler(handlers.RagHandlerConfig{
		Service:     deps.Rag,
		Registry:    deps.Registry,
		Transcripts: deps.Transcripts,
		Settings:    settings,
	})
	middleware.Init(settings)

	//init worker pool
	worker.InitServices(service, deps.Rag)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
