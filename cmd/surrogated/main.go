package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"

	"github.com/GoSim-25-26J-441/surrogate-core/internal/metrics"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/surrogated"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/logger"
)

func main() {
	var grpcAddr string
	var httpAddr string
	var logLevel string
	var logFormat string
	var submitRate float64
	var submitBurst int

	flag.StringVar(&grpcAddr, "grpc-addr", ":50051", "gRPC listen address")
	flag.StringVar(&httpAddr, "http-addr", ":8080", "HTTP listen address")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&logFormat, "log-format", "json", "log format (json, text)")
	flag.Float64Var(&submitRate, "submit-rate", 1, "study submissions per second per client (0 disables the limit)")
	flag.IntVar(&submitBurst, "submit-burst", 5, "burst of study submissions allowed per client")
	flag.Parse()

	if logFormat == "text" {
		logger.SetDefault(logger.NewText(logLevel, os.Stdout))
	} else {
		logger.SetDefault(logger.New(logLevel, os.Stdout))
	}
	log := logger.Component("surrogated")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	store := surrogated.NewStudyStore()
	executor := surrogated.NewStudyExecutor(store,
		surrogated.WithExecutorMetrics(collector),
		surrogated.WithNotifier(surrogated.NewNotifier(log)),
		surrogated.WithSubmitLimiter(surrogated.NewSubmitLimiter(submitRate, submitBurst)),
		surrogated.WithExecutorLogger(log),
	)

	// TODO: Configure gRPC server security (TLS, authentication) before
	// exposing this service outside a trusted network.
	grpcServer := grpc.NewServer()
	surrogated.RegisterStudyServiceServer(grpcServer, surrogated.NewStudyGRPCServer(store, executor, log))

	grpcLis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Error("failed to listen for gRPC", "addr", grpcAddr, "error", err)
		stop()
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           surrogated.NewHTTPServer(store, executor, reg, log).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		log.Info("gRPC server listening", "addr", grpcAddr)
		if err := grpcServer.Serve(grpcLis); err != nil {
			log.Error("gRPC server error", "error", err)
			stop()
		}
	}()

	go func() {
		log.Info("HTTP server listening", "addr", httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.GracefulStop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown error", "error", err)
	}
	if err := executor.Shutdown(shutdownCtx); err != nil {
		log.Error("studies did not stop in time", "error", err)
	}
}
