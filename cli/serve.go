package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"recruit-assistant/analytics"
	"recruit-assistant/assistant"
	"recruit-assistant/cache"
	"recruit-assistant/chat"
	"recruit-assistant/web"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat and analytics web server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "override WEB_PORT")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Create context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open analytics store: %w", err)
	}
	defer store.Close()

	answers, err := cache.New(cache.Options{
		Capacity:  cfg.CacheCapacity,
		TTL:       cfg.CacheTTL,
		Threshold: cfg.CacheSimilarityThreshold,
	}, logger)
	if err != nil {
		return fmt.Errorf("create answer cache: %w", err)
	}

	client := assistant.New(cfg, logger)
	if !client.Configured() {
		logger.Warn("OPENAI_API_KEY is not set; chat requests will fail until it is configured")
	} else {
		// Create the assistant ahead of the first request.
		go func() {
			if _, err := client.EnsureAssistant(ctx); err != nil {
				logger.Warn("Assistant warm-up failed", zap.Error(err))
			}
		}()
	}

	recorder := analytics.NewRecorder(store, logger)
	// Let in-flight analytics writes land before the store closes.
	defer recorder.Wait()

	chatService := chat.NewService(client, answers, recorder, logger)
	webServer := web.NewServer(chatService, store, logger, cfg)

	port := cfg.WebPort
	if servePort > 0 {
		port = servePort
	}
	addr := fmt.Sprintf(":%d", port)
	logger.Info("Starting recruiting assistant",
		zap.String("port", addr),
		zap.String("analytics_backend", cfg.AnalyticsBackend),
		zap.String("assistant_version", cfg.AssistantVersion))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := webServer.Start(gctx, addr); err != nil {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})
	if cfg.CleanupEnabled {
		cleanupService := web.NewCleanupService(store, cfg.AnalyticsRetention(), logger)
		g.Go(func() error {
			cleanupService.Run(gctx, cfg.CleanupInterval)
			return nil
		})
	}
	return g.Wait()
}

// commandContext cancels short-lived admin commands on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
