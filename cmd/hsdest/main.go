package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shohag/hsdest/internal/api"
	"github.com/shohag/hsdest/internal/config"
	"github.com/shohag/hsdest/internal/hubspot"
	"github.com/shohag/hsdest/internal/models"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:          "hsdest",
		Short:        "hsdest transforms analytics events into HubSpot API requests",
		SilenceUsage: true,
	}

	var configPath string
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(transformCmd(&configPath))
	rootCmd.AddCommand(schemaCmd(&configPath))
	rootCmd.AddCommand(keygenCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the transform HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log := setupLogger(cfg.Logging, os.Stdout)

			p, err := setupPipeline(cfg, log)
			if err != nil {
				return err
			}
			defer p.close()

			server := api.NewServer(cfg.Server, p.transformer, p.schemas, log)
			go func() {
				if err := server.Start(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server error")
				}
			}()

			log.Info().
				Str("version", version).
				Int("port", cfg.Server.Port).
				Int("workers", cfg.Batch.Workers).
				Str("schema_cache", cfg.SchemaCache.Driver).
				Msg("hsdest is running")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Info().Msg("shutting down...")

			if err := server.Shutdown(10 * time.Second); err != nil {
				log.Error().Err(err).Msg("server shutdown error")
			}

			log.Info().Msg("hsdest stopped")
			return nil
		},
	}
}

func transformCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform [file]",
		Short: "Transform a JSON batch of envelopes from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log := setupLogger(cfg.Logging, cmd.ErrOrStderr())

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open batch: %w", err)
				}
				defer f.Close()
				in = f
			}

			var envs []models.Envelope
			if err := json.NewDecoder(in).Decode(&envs); err != nil {
				return fmt.Errorf("failed to decode batch: %w", err)
			}

			p, err := setupPipeline(cfg, log)
			if err != nil {
				return err
			}
			defer p.close()

			ctx := cmd.Context()
			var out any
			if results, _ := cmd.Flags().GetBool("results"); results {
				out = p.transformer.BatchResults(ctx, envs)
			} else {
				out = p.transformer.Batch(ctx, envs)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().Bool("results", false, "print one tagged result per input item instead of successes only")
	return cmd
}

func schemaCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Fetch and print the contact property schema of a HubSpot account",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey, _ := cmd.Flags().GetString("api-key")
			if apiKey == "" {
				return fmt.Errorf("--api-key is required")
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log := setupLogger(cfg.Logging, cmd.ErrOrStderr())

			p, err := setupPipeline(cfg, log)
			if err != nil {
				return err
			}
			defer p.close()

			dest := models.Destination{Config: models.DestinationConfig{APIKey: apiKey}}
			if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
				if err := p.schemas.Invalidate(cmd.Context(), dest); err != nil {
					return fmt.Errorf("failed to invalidate schema: %w", err)
				}
			}

			schema, err := p.schemas.GetProperties(cmd.Context(), dest)
			if err != nil {
				return fmt.Errorf("failed to get schema: %w", err)
			}

			names := make([]string, 0, len(schema))
			for name := range schema {
				names = append(names, name)
			}
			sort.Strings(names)
			w := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintf(w, "  %-40s %s\n", name, schema[name])
			}
			return nil
		},
	}
	cmd.Flags().String("api-key", "", "HubSpot API key of the account")
	cmd.Flags().Bool("refresh", false, "drop the cached schema before fetching")
	return cmd
}

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a request signing secret",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), models.NewSigningSecret())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hsdest v%s\n", version)
		},
	}
}

func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out}).
			With().Timestamp().Logger()
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

type pipeline struct {
	transformer *hubspot.Transformer
	schemas     *hubspot.SchemaCache
	close       func()
}

func setupPipeline(cfg *config.Config, log zerolog.Logger) (*pipeline, error) {
	table, err := hubspot.LoadMappingTable(cfg.HubSpot.MappingFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping table: %w", err)
	}

	store, closeStore, err := setupSchemaStore(cfg.SchemaCache, log)
	if err != nil {
		return nil, fmt.Errorf("failed to setup schema cache: %w", err)
	}

	schemas := hubspot.NewSchemaCache(
		hubspot.NewPropertiesClient(cfg.HubSpot),
		store,
		cfg.SchemaCache.TTL,
		log,
	)
	transformer := hubspot.NewTransformer(
		hubspot.NewFieldMapper(schemas),
		table,
		hubspot.NewResponseBuilder(cfg.HubSpot.TrackURL, cfg.HubSpot.APIBaseURL),
		cfg.Batch.Workers,
		log,
	)

	return &pipeline{
		transformer: transformer,
		schemas:     schemas,
		close:       closeStore,
	}, nil
}

func setupSchemaStore(cfg config.SchemaCacheConfig, log zerolog.Logger) (hubspot.SchemaStore, func(), error) {
	switch cfg.Driver {
	case "memory":
		log.Debug().Msg("using in-memory schema cache")
		return hubspot.NewMemoryStore(), func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis schema cache")
		return hubspot.NewRedisStore(client, cfg.Redis.KeyPrefix), func() { client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported schema cache driver: %s", cfg.Driver)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
