// launching the server, storage, kafka, retention worker
package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/image-studio/config"
	"github.com/ds124wfegd/image-studio/internal/pkg/kafka"
	"github.com/ds124wfegd/image-studio/internal/transport"
	"github.com/ds124wfegd/image-studio/internal/worker"
	"github.com/gin-gonic/gin"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},           // ban on outdate TLS certificate
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags), // os.Stderr can be replaced with ElsasticSearch in the feature
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) error {
	SetupLogging(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	producer := kafka.NewProducer(kafkaConfig(cfg))
	defer producer.Close()
	if kafka.IsMock(producer) {
		logrus.Info("kafka is disabled, async pipelines run in process")
	}

	deps, err := BuildDependencies(ctx, cfg, producer)
	if err != nil {
		return err
	}
	defer deps.Close()

	imgHandler := transport.NewImageHandler(deps.Service, cfg.Server.MaxUploadBytes)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Retention.Enabled {
		go worker.NewRetentionWorker(deps.Service, cfg.Retention.MaxAge, cfg.Retention.Interval).Start(ctx)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(imgHandler, cfg.Server.Timeout)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithField("port", cfg.Server.Port).Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
	return nil
}

// RunProcessor consumes queued pipeline tasks until SIGINT or SIGTERM.
func RunProcessor(cfg *config.Config) error {
	SetupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	deps, err := BuildDependencies(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer deps.Close()

	kcfg := kafkaConfig(cfg)
	consumer := kafka.NewConsumer(kcfg)
	defer consumer.Close()

	logrus.WithFields(logrus.Fields{
		"brokers": cfg.Kafka.Brokers,
		"topic":   cfg.Kafka.Topic,
		"group":   cfg.Kafka.GroupID,
	}).Info("Image processor started")

	if err := consumer.Run(ctx, deps.Service.HandleMessage); err != nil && ctx.Err() == nil {
		return err
	}
	logrus.Info("Image processor stopped")
	return nil
}
