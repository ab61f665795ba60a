package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"commtracker-backend/internal/handler"
	"commtracker-backend/internal/middleware"
	"commtracker-backend/internal/repository"
	"commtracker-backend/internal/service"
	"commtracker-backend/internal/storage"
	"commtracker-backend/internal/websocket"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

type serveOptions struct {
	*RootOptions
	Port string
}

// NewServeCommand runs the HTTP API until interrupted.
func NewServeCommand(root *RootOptions) *cobra.Command {
	opts := &serveOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and websocket hub",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Port, "port", "", "override APP_PORT")

	return cmd
}

func runServe(ctx context.Context, opts *serveOptions) error {
	d, err := setup(opts.RootOptions)
	if err != nil {
		return err
	}
	defer d.logger.Sync()
	if opts.Port != "" {
		d.cfg.AppPort = opts.Port
	}

	db, err := d.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	blobs, err := storage.NewBlobStore(d.cfg.UploadDir, d.cfg.BaseURL(), d.cfg.UploadMaxBytes)
	if err != nil {
		return err
	}

	// Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)
	commRepo := repository.NewCommunicationRepository(db)
	spendingRepo := repository.NewSpendingRepository(db)

	hub := websocket.NewHub(d.logger.Named("ws"))

	// Initialize Services
	authService := service.NewAuthService(userRepo, d.cfg, d.logger.Named("auth"))
	contactService := service.NewContactService(contactRepo, commRepo, hub, d.logger.Named("contacts"))
	dashboardService := service.NewDashboardService(commRepo, spendingRepo, d.logger.Named("dashboard"))

	router := &handler.Router{
		Auth:       handler.NewAuthHandler(authService, d.logger),
		Contacts:   handler.NewContactHandler(contactService, authService, blobs, hub, d.cfg, d.logger),
		Dashboard:  handler.NewDashboardHandler(dashboardService, d.logger),
		Middleware: middleware.NewMiddleware(d.cfg, authService, d.logger.Named("http")),
		DB:         db,
		StaticDir:  d.cfg.StaticDir,
	}

	srv := &http.Server{
		Addr:              ":" + d.cfg.AppPort,
		Handler:           router.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		d.logger.Info("Server starting", zap.String("addr", srv.Addr), zap.String("driver", d.cfg.DatabaseDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		d.logger.Info("Shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
