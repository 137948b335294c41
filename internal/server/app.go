package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/poetry-prerender/internal/bot"
	"github.com/JakeFAU/poetry-prerender/internal/config"
	"github.com/JakeFAU/poetry-prerender/internal/interceptor"
	"github.com/JakeFAU/poetry-prerender/internal/metrics"
	"github.com/JakeFAU/poetry-prerender/internal/origin"
	"github.com/JakeFAU/poetry-prerender/internal/poetry"
	"github.com/JakeFAU/poetry-prerender/internal/render"
	"github.com/JakeFAU/poetry-prerender/internal/source"
)

// App contains the application's dependencies.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	server  *Server
	storage *storage.Client
}

// NewApp builds every dependency from cfg. The Cloud Storage client is only
// created when a collection is hosted on gs://.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{cfg: cfg, logger: logger}

	logger.Info("creating application",
		zap.Int("port", cfg.Server.Port),
		zap.Int("admin_port", cfg.Server.AdminPort),
		zap.String("base_url", cfg.Site.BaseURL),
		zap.Int("collections", len(cfg.Collections)),
	)

	recorder := metrics.NewRecorder()

	classifier, err := bot.NewClassifier(cfg.Bots.Extra)
	if err != nil {
		return nil, fmt.Errorf("bot classifier init failed: %w", err)
	}

	mux, err := app.setupSources(ctx)
	if err != nil {
		app.closeInfrastructure()
		return nil, err
	}

	renderer, err := render.New(cfg.RenderSite())
	if err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("renderer init failed: %w", err)
	}

	proxy, err := origin.New(cfg.Origin.URL, logger.Named("origin"))
	if err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("origin proxy init failed: %w", err)
	}

	resolver := poetry.NewResolver(cfg.Collections, mux, logger.Named("resolver"), recorder)
	order := make([]string, 0, len(cfg.Collections))
	for _, c := range resolver.Collections() {
		order = append(order, c.Key)
	}
	logger.Info("pass-through configured",
		zap.String("origin", proxy.Target().String()),
		zap.Strings("collection_order", order),
	)

	ic := interceptor.New(classifier, resolver, renderer, logger.Named("interceptor"), recorder)
	app.server = NewServer(ic.Middleware(proxy), logger.Named("http"))
	return app, nil
}

func (a *App) setupSources(ctx context.Context) (*source.Mux, error) {
	mux := source.NewMux()
	mux.Register(source.NewHTTP(a.cfg.SourceHTTP()), "http", "https")
	mux.Register(source.NewFile(), "file")

	if a.cfg.UsesScheme("gs") {
		a.logger.Info("using Cloud Storage collection source")
		client, err := storage.NewClient(ctx, a.gcsOptions()...)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		a.storage = client
		gcs, err := source.NewGCS(client)
		if err != nil {
			return nil, fmt.Errorf("gcs source init failed: %w", err)
		}
		mux.Register(gcs, "gs")
	}

	for _, c := range a.cfg.Collections {
		if c.Source == "" {
			a.logger.Info("collection disabled: no source", zap.String("collection", c.Key))
			continue
		}
		u, err := url.Parse(c.Source)
		if err != nil || !mux.Supports(u.Scheme) {
			// Fetches will fail and the collection will be skipped per request.
			a.logger.Warn("collection source not supported",
				zap.String("collection", c.Key),
				zap.String("source", c.Source),
			)
		}
	}
	return mux, nil
}

func (a *App) gcsOptions() []option.ClientOption {
	var opts []option.ClientOption
	if a.cfg.GCS.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(a.cfg.GCS.Endpoint))
	}
	if a.cfg.GCS.Anonymous {
		opts = append(opts, option.WithoutAuthentication())
	}
	return opts
}

// Handler exposes the fully wired router.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Run serves until ctx is canceled or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := listen(a.cfg.Server.Port)
	if err != nil {
		return err
	}
	adminLn, err := listen(a.cfg.Server.AdminPort)
	if err != nil {
		_ = ln.Close()
		return err
	}
	return a.Serve(ctx, ln, adminLn)
}

func listen(port int) (net.Listener, error) {
	addr := net.JoinHostPort("", strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return ln, nil
}

// Serve runs the public server on ln and the admin server on adminLn until
// ctx is done or either server fails.
func (a *App) Serve(ctx context.Context, ln, adminLn net.Listener) error {
	servers := []*http.Server{
		{Handler: a.server.Handler(), ReadHeaderTimeout: 5 * time.Second},
		{Handler: a.server.AdminHandler(), ReadHeaderTimeout: 5 * time.Second},
	}
	listeners := []net.Listener{ln, adminLn}
	names := []string{"http", "admin"}

	errCh := make(chan error, len(servers))
	for i, srv := range servers {
		go func(name string, srv *http.Server, l net.Listener) {
			a.logger.Info("server started", zap.String("server", name), zap.String("addr", l.Addr().String()))
			if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("%s server: %w", name, err)
			}
		}(names[i], srv, listeners[i])
	}
	a.server.SetReady(true)

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		a.logger.Error("server error", zap.Error(serveErr))
	}
	a.server.SetReady(false)
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
	defer cancel()
	for i, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown error", zap.String("server", names[i]), zap.Error(err))
		}
	}

	a.Close()
	return serveErr
}

// Close releases clients held by the application.
func (a *App) Close() {
	a.closeInfrastructure()
	a.logger.Info("shutdown complete")
}

func (a *App) closeInfrastructure() {
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
		a.storage = nil
	}
}
