package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpc_logging "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"

	rpgevents "github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/rpg-rules-api/internal/clients/gamedata"
	"github.com/KirkDiggler/rpg-rules-api/internal/config"
	orchestrator "github.com/KirkDiggler/rpg-rules-api/internal/orchestrators/character"
	redisclient "github.com/KirkDiggler/rpg-rules-api/internal/redis"
	catalogrepo "github.com/KirkDiggler/rpg-rules-api/internal/repositories/catalog"
	charrepo "github.com/KirkDiggler/rpg-rules-api/internal/repositories/character"
	"github.com/KirkDiggler/rpg-rules-api/internal/rules/resolver"
	charservice "github.com/KirkDiggler/rpg-rules-api/internal/services/character"
)

var grpcPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the gRPC server",
	Long:  `Start the rules API gRPC server with all configured services.`,
	RunE:  runServer,
}

func init() {
	serverCmd.Flags().IntVar(&grpcPort, "port", 0, "gRPC server port (overrides GRPC_PORT)")
}

// services holds the wired application stack
type services struct {
	character charservice.Service
	redis     redisclient.Client
}

func (s *services) close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("Error closing redis client: %v", err)
		}
	}
}

func buildServices(cfg *config.Config) (*services, error) {
	redis, err := redisclient.NewClient(cfg.Redis.Addr, &redisclient.Options{
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		ConnMaxIdleTime: cfg.Redis.ConnMaxIdleTime,
		UseTLS:          cfg.Redis.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	catalogRepo, err := catalogrepo.NewRedis(&catalogrepo.RedisConfig{Client: redis})
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog repository: %w", err)
	}

	characterRepo, err := charrepo.NewRedis(&charrepo.RedisConfig{Client: redis})
	if err != nil {
		return nil, fmt.Errorf("failed to create character repository: %w", err)
	}

	gameData, err := gamedata.New(&gamedata.Config{
		BaseURL:     cfg.GameData.BaseURL,
		HTTPTimeout: cfg.GameData.HTTPTimeout,
		CacheTTL:    cfg.GameData.CacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create game data client: %w", err)
	}

	registry, err := resolver.NewRegistry(&resolver.RegistryConfig{
		Catalog:  catalogRepo,
		GameData: gameData,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver registry: %w", err)
	}

	characterService, err := orchestrator.New(&orchestrator.OrchestratorConfig{
		CharacterRepo: characterRepo,
		CatalogRepo:   catalogRepo,
		GameData:      gameData,
		Registry:      registry,
		EventBus:      rpgevents.NewBus(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create character orchestrator: %w", err)
	}

	return &services{
		character: characterService,
		redis:     redis,
	}, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal, gracefully stopping...")
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	port := cfg.GRPCPort
	if grpcPort != 0 {
		port = grpcPort
	}

	deps, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer deps.close()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc_logging.UnaryServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			grpc_logging.StreamServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.StreamServerInterceptor(),
		),
	)

	// TODO: register the character service handler once the rules-api
	// protos are published; deps.character carries the full service.

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("dnd5e.rules.CharacterService", grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(srv)

	errChan := make(chan error, 1)
	go func() {
		log.Printf("gRPC server starting on port %d...", port)
		if err := srv.Serve(lis); err != nil {
			errChan <- fmt.Errorf("failed to serve: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down gRPC server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()

		select {
		case <-shutdownCtx.Done():
			log.Println("Graceful shutdown timeout exceeded, forcing stop")
			srv.Stop()
		case <-stopped:
			log.Println("Server stopped gracefully")
		}

		return nil
	case err := <-errChan:
		return err
	}
}

func logFunc(ctx context.Context, level grpc_logging.Level, msg string, fields ...any) {
	log.Printf("[%v] %s %v", level, msg, fields)
}
