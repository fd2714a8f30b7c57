package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"partflow/config"
	"partflow/internal/api"
	"partflow/internal/broker"
	"partflow/internal/cache"
	"partflow/internal/cad"
	"partflow/internal/configstore"
	"partflow/internal/download"
	"partflow/internal/inventory"
	"partflow/internal/orchestrator"
	"partflow/internal/supplier"
	"partflow/internal/util"
)

var cfg *config.Config

func main() {
	cfg = config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	root := &cobra.Command{
		Use:           "partflow",
		Short:         "Supplier part onboarding pipeline",
		Long:          "partflow pulls parts from distributor catalogs, maps them onto the internal taxonomy and reconciles them into the inventory store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newIngestCmd(), newServeCmd(), newConfigCmd(), newCacheCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newConfigStore() *configstore.Store {
	return configstore.New(cfg.Paths.UserConfigDir, cfg.Paths.TemplatesDir)
}

func newPartCache() (cache.Cache, error) {
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Cache.ValidDays)
	}
	return cache.NewFileCache(cfg.Cache.Dir)
}

func buildAdapters(store *configstore.Store) []supplier.Adapter {
	client := &http.Client{Timeout: time.Duration(cfg.Supplier.TimeoutSeconds) * time.Second}

	var adapters []supplier.Adapter
	if creds, err := store.LoadSupplierAPI(supplier.SupplierDigikey); err == nil && creds.URL != "" {
		adapters = append(adapters, supplier.NewDigikeyAdapter(creds.URL, creds.APIKey, client))
	}
	if creds, err := store.LoadSupplierAPI(supplier.SupplierMouser); err == nil && creds.URL != "" {
		adapters = append(adapters, supplier.NewMouserAdapter(creds.URL, creds.APIKey, client))
	}
	if creds, err := store.LoadSupplierAPI(supplier.SupplierLCSC); err == nil && creds.URL != "" {
		adapters = append(adapters, supplier.NewLCSCAdapter(creds.URL, client))
	}
	return adapters
}

// buildOrchestrator wires the full pipeline and verifies the inventory
// store is reachable. The returned cleanup flushes the event publisher.
func buildOrchestrator(ctx context.Context) (*orchestrator.Orchestrator, func(), error) {
	store := newConfigStore()

	partCache, err := newPartCache()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open part cache: %w", err)
	}
	gateway := supplier.NewGateway(partCache, buildAdapters(store), supplier.GatewayOptions{
		CacheValidDays: cfg.Cache.ValidDays,
		Timeout:        time.Duration(cfg.Supplier.TimeoutSeconds) * time.Second,
		TestMode:       cfg.Cache.TestMode,
	})

	invURL, invToken := cfg.Inventory.URL, cfg.Inventory.Token
	if invURL == "" {
		creds, err := store.LoadInventoryCredentials(cfg.Inventory.Env)
		if err != nil {
			return nil, nil, err
		}
		invURL, invToken = creds.Server, creds.Token
	}
	invClient := inventory.NewClient(invURL, invToken, inventory.Options{
		ConnectTimeout: time.Duration(cfg.Inventory.ConnectTimeoutSeconds) * time.Second,
	})
	if err := invClient.Connect(ctx); err != nil {
		return nil, nil, err
	}

	publisher := broker.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)

	deps := orchestrator.Deps{
		Gateway:     gateway,
		Store:       store,
		Inventory:   invClient,
		Fetcher:     download.NewFetcher(),
		Sink:        cad.NewLibraryTable(filepath.Join(cfg.Paths.UserConfigDir, "cad")),
		DownloadDir: cfg.Paths.DownloadDir,
	}
	if publisher != nil {
		deps.Publisher = publisher
	}

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			util.GetLogger().Warn("Failed to close event publisher")
		}
	}
	return orchestrator.New(deps), cleanup, nil
}

func newIngestCmd() *cobra.Command {
	var req orchestrator.Request

	cmd := &cobra.Command{
		Use:   "ingest <supplier> <key>",
		Short: "Ingest one part from a supplier catalog into the inventory store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Supplier, req.Key = args[0], args[1]

			orc, cleanup, err := buildOrchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			result := orc.Ingest(cmd.Context(), req)
			out, _ := json.MarshalIndent(result, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if result.Err != nil {
				return result.Err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Category, "category", "", "confirmed internal category (skips the resolver)")
	cmd.Flags().StringVar(&req.Subcategory, "subcategory", "", "confirmed internal subcategory")
	cmd.Flags().StringVar(&req.Symbol, "symbol", "", "library-qualified CAD symbol name")
	cmd.Flags().StringVar(&req.Footprint, "footprint", "", "library-qualified CAD footprint name")
	cmd.Flags().BoolVar(&req.EnableCAD, "cad", false, "record the part in the CAD symbol library")
	cmd.Flags().BoolVar(&req.IsCustom, "custom", false, "custom part: skip manufacturer/supplier linkage")
	cmd.Flags().BoolVar(&req.UpdateParameters, "update-parameters", false, "overwrite differing stored parameter values")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP ingestion API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tp, err := util.InitTracer("partflow", cfg.Observ.JaegerEndpoint)
			if err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(ctx); err != nil {
					log.Printf("Error shutting down tracer: %v", err)
				}
			}()

			orc, cleanup, err := buildOrchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if cfg.Server.Env == "production" {
				gin.SetMode(gin.ReleaseMode)
			}
			router := gin.New()
			api.NewHandler(orc).SetupRoutes(router)

			srv := &http.Server{
				Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
				Handler: router,
			}
			go func() {
				log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			log.Println("Shutting down server...")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the mapping-table configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Copy missing config templates into the user config directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := newConfigStore().EnsureUserConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Config initialized at", cfg.Paths.UserConfigDir)
			return nil
		},
	})
	return cmd
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the supplier part cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge <supplier> <key>",
		Short: "Drop the cached record for one supplier part",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			partCache, err := newPartCache()
			if err != nil {
				return err
			}
			if err := partCache.Purge(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %s/%s\n", args[0], args[1])
			return nil
		},
	})
	return cmd
}
