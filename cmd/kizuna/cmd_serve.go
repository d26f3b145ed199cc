package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/httpapi"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/metrics"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/pairing"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/rpc"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/session"
)

var (
	serveAddr     string
	serveHTTPAddr string
)

const shutdownGrace = 5 * time.Second

// #region serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the diagnosis gRPC API, the HTTP/JSON API and Prometheus metrics",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", envOr("KIZUNA_ADDR", "localhost:50061"), "gRPC listen address (env KIZUNA_ADDR)")
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http-addr", envOr("KIZUNA_HTTP_ADDR", "localhost:8080"), "HTTP API and /metrics listen address; empty disables (env KIZUNA_HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine()
	if err != nil {
		return err
	}
	store, err := session.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.NewCollectors(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	svc := pairing.New(store, eng, logger.Named("pairing"), m)
	gs := rpc.NewGRPCServer(rpc.NewServer(svc, logger.Named("rpc")))

	lis, err := net.Listen("tcp", serveAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", serveAddr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := gs.Serve(lis); err != nil {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})

	var httpSrv *http.Server
	if serveHTTPAddr != "" {
		api := httpapi.New(svc, logger.Named("http"), reg)
		httpSrv = &http.Server{Addr: serveHTTPAddr, Handler: api.Router(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http serve: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		gs.GracefulStop()
		if httpSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http shutdown", zap.Error(err))
			}
		}
		return nil
	})

	logger.Info("kizuna serving",
		zap.String("addr", lis.Addr().String()),
		zap.String("http_addr", serveHTTPAddr),
		zap.String("db", dbPath),
		zap.String("bank_version", eng.Bank().Version()))

	return g.Wait()
}

// #endregion serve
