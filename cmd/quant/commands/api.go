package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-signal/backend/internal/api"
	"github.com/wonny/aegis-signal/backend/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                     - Health check
  GET  /api/score/{code}           - 종목 점수
  GET  /api/sectors                - 섹터 랭킹 (?top=&per_sector=)
  GET  /api/sectors/latest         - 마지막 갱신 랭킹
  GET  /api/sectors/flow-leaders   - 수급 주도 섹터 (?min_net=)
  GET  /api/sectors/leaders        - 섹터 대장주 (?sector=)
  GET  /api/scan                   - 눌림목 스캔 (?sector=)
  GET  /metrics                    - Prometheus metrics
  GET  /ws/sectors                 - 랭킹 스트림 (websocket)

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "랭킹 갱신 스케줄러 함께 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log

	routes := api.Routes{
		Score: handlers.NewScoreHandler(a.engine, a.series, a.engine.MinBars(), log),
	}
	if a.cfg.MetricsEnabled {
		routes.Metrics = a.metrics.Handler()
	}
	if a.sectors != nil {
		hub := api.NewHub(log)
		defer hub.Close()
		a.sectors.Subscribe(hub.Publish)

		routes.Sector = handlers.NewSectorHandler(a.sectors, log)
		routes.Stream = hub
	}
	if a.scanner != nil {
		routes.Scan = handlers.NewScanHandler(a.scanner, log)
	}

	if apiWithScheduler {
		sched, err := buildScheduler(a)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	server := api.New(a.cfg, log, api.NewRouter(routes, log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
