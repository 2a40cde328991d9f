// Package servecmder provides the serve command that runs the memories API
// server.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/memories/api"
	"github.com/papercomputeco/memories/pkg/cliui"
	"github.com/papercomputeco/memories/pkg/config"
	"github.com/papercomputeco/memories/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/memories/pkg/embeddings/utils"
	"github.com/papercomputeco/memories/pkg/eventstream"
	"github.com/papercomputeco/memories/pkg/eventstream/kafka"
	"github.com/papercomputeco/memories/pkg/eventstream/nop"
	"github.com/papercomputeco/memories/pkg/eventstream/worker"
	"github.com/papercomputeco/memories/pkg/logger"
	"github.com/papercomputeco/memories/pkg/vector"
	vectorutils "github.com/papercomputeco/memories/pkg/vector/utils"
)

// Event publisher providers.
const (
	EventsNop   = "nop"
	EventsKafka = "kafka"
)

// Settings is the resolved configuration the server is started with.
type Settings struct {
	Listen    string
	BodyLimit int
	TopK      int

	VectorProvider   string
	VectorTarget     string
	VectorCollection string
	VectorFallback   bool

	EmbeddingProvider   string
	EmbeddingTarget     string
	EmbeddingModel      string
	EmbeddingDimensions uint

	EventsProvider string
	EventsBrokers  []string
	EventsTopic    string
}

// SettingsFromViper reads Settings out of the viper precedence chain.
func SettingsFromViper(v *viper.Viper) Settings {
	return Settings{
		Listen:    v.GetString("api.listen"),
		BodyLimit: v.GetInt("api.body_limit"),
		TopK:      v.GetInt("search.top_k"),

		VectorProvider:   v.GetString("vector_store.provider"),
		VectorTarget:     v.GetString("vector_store.target"),
		VectorCollection: v.GetString("vector_store.collection"),
		VectorFallback:   v.GetBool("vector_store.fallback"),

		EmbeddingProvider:   v.GetString("embedding.provider"),
		EmbeddingTarget:     v.GetString("embedding.target"),
		EmbeddingModel:      v.GetString("embedding.model"),
		EmbeddingDimensions: v.GetUint("embedding.dimensions"),

		EventsProvider: v.GetString("events.provider"),
		EventsBrokers:  config.StringList(v, "events.brokers"),
		EventsTopic:    v.GetString("events.topic"),
	}
}

type serveCommander struct {
	flags struct {
		listen           string
		bodyLimit        int
		topK             int
		vectorProvider   string
		vectorTarget     string
		vectorCollection string
		vectorFallback   bool
		embedProvider    string
		embedTarget      string
		embedModel       string
		embedDims        uint
		eventsProvider   string
		eventsTopic      string
	}

	debug   bool
	logFile string
	viper   *viper.Viper
	logger  *slog.Logger
}

var serveFlags = []string{
	config.FlagListen,
	config.FlagBodyLimit,
	config.FlagTopK,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagVectorStoreColl,
	config.FlagVectorFallback,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEventsProvider,
	config.FlagEventsTopic,
}

const serveLongDesc string = `Run the memories API server.

The server accepts memories over HTTP, embeds them, stores them in the
configured vector store and answers similarity searches. An MCP endpoint is
mounted at /mcp.

Settings come from flags, MEMORIES_* environment variables, config.toml and
built in defaults, in that order.

Examples:
  memories serve
  memories serve --listen :9000 --vector-store-provider qdrant --vector-store-target localhost:6334
  MEMORIES_EVENTS_PROVIDER=kafka memories serve`

const serveShortDesc string = "Run the memories API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context(), cmd.ErrOrStderr())
		},
	}

	f := &cmder.flags
	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &f.listen)
	config.AddIntFlag(cmd, config.Flags, config.FlagBodyLimit, &f.bodyLimit)
	config.AddIntFlag(cmd, config.Flags, config.FlagTopK, &f.topK)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &f.vectorProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &f.vectorTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreColl, &f.vectorCollection)
	config.AddBoolFlag(cmd, config.Flags, config.FlagVectorFallback, &f.vectorFallback)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &f.embedProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &f.embedTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &f.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &f.embedDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &f.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &f.eventsTopic)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var closeLog func() error
	c.logger, closeLog = c.newLogger()
	defer func() { _ = closeLog() }()

	s := SettingsFromViper(c.viper)

	embedder, err := NewEmbedder(s)
	if err != nil {
		return err
	}
	defer embedder.Close()

	var driver vector.Driver
	err = cliui.Step(out, fmt.Sprintf("Opening %s vector store", s.VectorProvider), func() error {
		var err error
		driver, err = NewVectorDriver(ctx, s, c.logger)
		return err
	})
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := NewPublisher(s, c.logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	server, err := api.NewServer(api.Config{
		ListenAddr:   s.Listen,
		BodyLimit:    s.BodyLimit,
		TopK:         s.TopK,
		Dimensions:   s.EmbeddingDimensions,
		VectorStore:  s.VectorProvider,
		VectorDriver: driver,
		Embedder:     embedder,
		Publisher:    publisher,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	config.WatchConfig(c.viper, c.logger)

	c.logger.Info("starting memories",
		"listen", s.Listen,
		"vector_store", s.VectorProvider,
		"embedding", s.EmbeddingProvider,
		"dimensions", s.EmbeddingDimensions,
		"events", s.EventsProvider,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		c.logger.Info("context done, shutting down")
	}

	return server.Shutdown()
}

// newLogger builds the pretty console logger, teed into a JSON log file when
// --log-file is set.
func (c *serveCommander) newLogger() (*slog.Logger, func() error) {
	console := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))
	if c.logFile == "" {
		return console, func() error { return nil }
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		console.Warn("could not open log file, logging to console only",
			"file", c.logFile,
			"error", err,
		)
		return console, func() error { return nil }
	}

	file := logger.New(logger.WithDebug(c.debug), logger.WithJSON(true), logger.WithWriter(f))
	return logger.Multi(console, file), f.Close
}

// NewEmbedder builds the configured embedder.
func NewEmbedder(s Settings) (embeddings.Embedder, error) {
	if s.EmbeddingDimensions == 0 {
		return nil, errors.New("embedding dimensions must be positive")
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: s.EmbeddingProvider,
		TargetURL:    s.EmbeddingTarget,
		Model:        s.EmbeddingModel,
		Dimensions:   s.EmbeddingDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return embedder, nil
}

// NewVectorDriver opens the configured vector store, falling back to the
// in-memory store when enabled.
func NewVectorDriver(ctx context.Context, s Settings, logger *slog.Logger) (vector.Driver, error) {
	driver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: s.VectorProvider,
		Target:       s.VectorTarget,
		Collection:   s.VectorCollection,
		Dimensions:   s.EmbeddingDimensions,
		Fallback:     s.VectorFallback,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	return driver, nil
}

// NewPublisher builds the configured event publisher. Kafka delivery runs on
// a worker pool so requests never wait on the broker.
func NewPublisher(s Settings, logger *slog.Logger) (eventstream.Publisher, error) {
	switch s.EventsProvider {
	case EventsNop, "":
		return nop.NewPublisher(), nil

	case EventsKafka:
		kp, err := kafka.NewPublisher(kafka.Config{
			Brokers: s.EventsBrokers,
			Topic:   s.EventsTopic,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}

		pool, err := worker.NewPool(&worker.Config{
			Publisher: kp,
			Logger:    logger,
		})
		if err != nil {
			_ = kp.Close()
			return nil, fmt.Errorf("creating event worker pool: %w", err)
		}
		return pool, nil

	default:
		return nil, fmt.Errorf("unsupported events provider: %s", s.EventsProvider)
	}
}
