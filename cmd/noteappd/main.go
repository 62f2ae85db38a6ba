package main

import (
	"context"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noteapp/noteapp"
	"github.com/noteapp/noteapp/audit"
	"github.com/noteapp/noteapp/auth"
	"github.com/noteapp/noteapp/blob"
	"github.com/noteapp/noteapp/bolt"
	"github.com/noteapp/noteapp/http"
	"github.com/noteapp/noteapp/logger"
	"github.com/noteapp/noteapp/media"
	"github.com/noteapp/noteapp/notes"
	"github.com/noteapp/noteapp/tenant"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	httpBindAddress string
	boltPath        string
	blobDir         string
	devMode         bool
	logLevel        string
)

func init() {
	viper.SetEnvPrefix("NOTEAPP")

	noteappCmd.PersistentFlags().StringVar(&boltPath, "bolt-path", "noteapp.bolt", "path to boltdb database")
	viper.BindEnv("BOLT_PATH")
	if h := viper.GetString("BOLT_PATH"); h != "" {
		boltPath = h
	}

	noteappCmd.PersistentFlags().StringVar(&blobDir, "blob-dir", "noteapp-blobs", "directory for content blobs")
	viper.BindEnv("BLOB_DIR")
	if h := viper.GetString("BLOB_DIR"); h != "" {
		blobDir = h
	}

	noteappCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	viper.BindEnv("LOG_LEVEL")
	if h := viper.GetString("LOG_LEVEL"); h != "" {
		logLevel = h
	}

	noteappCmd.Flags().StringVar(&httpBindAddress, "http-bind-address", ":8080", "bind address for the rest http api")
	viper.BindEnv("HTTP_BIND_ADDRESS")
	if h := viper.GetString("HTTP_BIND_ADDRESS"); h != "" {
		httpBindAddress = h
	}

	noteappCmd.Flags().BoolVar(&devMode, "dev-mode", false, "skip token validation and use a local identity")
	viper.BindEnv("DEV_MODE")
	if viper.GetBool("DEV_MODE") {
		devMode = true
	}

	noteappCmd.AddCommand(tenantCmd)
}

var noteappCmd = &cobra.Command{
	Use:   "noteappd",
	Short: "noteapp server",
	Run:   serveF,
}

var tenantCmd = &cobra.Command{
	Use:   "tenant <id> <domain> [audience]",
	Short: "register a tenant identity provider mapping",
	Args:  cobra.RangeArgs(2, 3),
	Run:   tenantF,
}

func newLogger() (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.Set(logLevel); err != nil {
		return nil, fmt.Errorf("unknown log level; supported levels are debug, info, warn, error")
	}
	return logger.New(os.Stdout, lvl), nil
}

func openKVStore(ctx context.Context, log *zap.Logger) (*bolt.KVStore, error) {
	store := bolt.NewKVStore(boltPath)
	store.WithLogger(log.With(zap.String("service", "bolt")))
	if err := store.Open(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func serveF(cmd *cobra.Command, args []string) {
	log, err := newLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	store, err := openKVStore(ctx, log)
	if err != nil {
		log.Error("Failed opening bolt", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	blobs := blob.NewFSStore(blobDir)
	blobs.WithLogger(log.With(zap.String("service", "blob")))

	tenantSvc := tenant.NewService(store)
	tenantSvc.WithLogger(log.With(zap.String("service", "tenant")))

	authenticator := auth.NewAuthenticator(tenantSvc, auth.NewValidatorCache(),
		auth.WithDevMode(devMode),
		auth.WithLogger(log.With(zap.String("service", "auth"))),
	)
	if devMode {
		log.Warn("Dev mode enabled, token validation disabled")
	}

	auditSvc := audit.NewService(store)
	auditSvc.WithLogger(log.With(zap.String("service", "audit")))

	idGen := noteapp.NewIDGenerator()

	noteSvc := notes.NewService(notes.NewStore(store), blobs,
		notes.WithIDGenerator(idGen),
		notes.WithLogger(log.With(zap.String("service", "notes"))),
	)

	mediaSvc := media.NewService(store, blobs,
		media.WithIDGenerator(idGen),
		media.WithLogger(log.With(zap.String("service", "media"))),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler := http.NewHandler(&http.APIBackend{
		Logger:        log,
		Authenticator: authenticator,
		NoteService:   noteSvc,
		MediaService:  mediaSvc,
		AuditService:  auditSvc,
		Registry:      reg,
	})

	httpServer := &nethttp.Server{
		Addr:    httpBindAddress,
		Handler: handler,
	}

	errc := make(chan error)
	go func() {
		log.Info("Listening", zap.String("transport", "http"), zap.String("addr", httpBindAddress))
		errc <- httpServer.ListenAndServe()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-sigs:
	case err := <-errc:
		log.Fatal("Unable to serve", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)
}

func tenantF(cmd *cobra.Command, args []string) {
	log, err := newLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	store, err := openKVStore(ctx, log)
	if err != nil {
		log.Error("Failed opening bolt", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	t := &noteapp.Tenant{
		ID:     args[0],
		Domain: args[1],
	}
	if len(args) == 3 {
		t.Audience = args[2]
	}

	tenantSvc := tenant.NewService(store)
	if err := tenantSvc.PutTenant(ctx, t); err != nil {
		log.Error("Failed storing tenant", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Tenant mapping stored", zap.String("tenant", t.ID), zap.String("domain", t.Domain))
}

func main() {
	if err := noteappCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
