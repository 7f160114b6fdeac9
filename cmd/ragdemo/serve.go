package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ragdemo/internal/app"
	"ragdemo/internal/contextutil"
	"ragdemo/internal/http"
)

const (
	shutdownTimeout = 10 * time.Second
	browserDelay    = 1500 * time.Millisecond
)

var (
	serveHost      string
	servePort      int
	serveNoBrowser bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI and JSON API",
	Long: `Serve the chat page on / and the JSON API on /api/query.

POST /api/query requires the api-key header to match API_ACCESS_KEY.
When API_ACCESS_KEY is not set, a key is generated and printed at startup.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "host to listen on (default HOST or 127.0.0.1)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default PORT or 8000)")
	serveCmd.Flags().BoolVar(&serveNoBrowser, "no-browser", false, "do not open a browser")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := setupLogging(cmd.OutOrStdout(), cfg.LogLevel); err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		if servePort < 1 || servePort > 65535 {
			return fmt.Errorf("--port must be between 1 and 65535")
		}
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = contextutil.WithLogger(ctx, logger)

	out := cmd.OutOrStdout()
	if cfg.APIAccessKeyGenerated {
		fmt.Fprintf(out, "Generated API key for this session: %s\n", cfg.APIAccessKey)
		fmt.Fprintln(out, "To make this permanent, set API_ACCESS_KEY in your environment or .env file")
	}

	// Missing credentials do not stop the server; the page and /api/health report them.
	application := app.New(ctx, cfg, app.Options{})
	defer func() {
		_ = application.Close()
	}()

	router := http.NewRouter(&http.Deps{
		Provider:  application,
		Health:    application,
		APIKey:    cfg.APIAccessKey,
		RateLimit: cfg.APIRateLimit,
		RateBurst: cfg.APIRateBurst,
	})

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}

	url := browserURL(cfg.Host, cfg.Port)
	fmt.Fprintf(out, "Starting RAG Web Application on %s\n", url)
	logger.Info("starting API server", "addr", ln.Addr().String(), "backend", cfg.RetrievalBackend, "ready", application.Ready())

	if !serveNoBrowser {
		timer := time.AfterFunc(browserDelay, func() {
			if err := openBrowser(url); err != nil {
				fmt.Fprintf(out, "Unable to open browser automatically: %v\n", err)
				fmt.Fprintf(out, "Please manually navigate to: %s\n", url)
			}
		})
		defer timer.Stop()
	}

	if err := runServer(ctx, ln, router); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nShutting down server...")
	return nil
}

// runServer serves handler on ln until ctx is done, then drains open requests.
func runServer(ctx context.Context, ln net.Listener, handler nethttp.Handler) error {
	srv := &nethttp.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down API server: %w", err)
		}
		contextutil.LoggerFromContext(ctx).Info("API server stopped")
		return nil
	})

	return g.Wait()
}

// browserURL turns a listen address into something a browser can open.
func browserURL(host string, port int) string {
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}
