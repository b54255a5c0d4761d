package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nijaru/yt-summary/completion"
	"github.com/nijaru/yt-summary/handlers"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	port string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay that forwards summarize and ask requests to the completion API.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveFlags.port != "" {
		cfg.ServerPort = serveFlags.port
	}

	completer := completion.NewClient(completion.Config{
		BaseURL:            cfg.Completion.BaseURL,
		SummaryModel:       cfg.Completion.SummaryModel,
		SummaryTemperature: cfg.Completion.SummaryTemperature,
		SummaryMaxTokens:   cfg.Completion.SummaryMaxTokens,
		AskModel:           cfg.Completion.AskModel,
		AskTemperature:     cfg.Completion.AskTemperature,
	}, &http.Client{}, log)

	server := handlers.NewServer(cfg, completer, handlers.WithLogger(log))

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdownChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "relay server failed")
		}
		return nil
	case sig := <-shutdownChan:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "relay shutdown")
	}
	log.Info("Relay server stopped")
	return nil
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.port, "port", "p", "", "Port to listen on (overrides SERVER_PORT)")
}
