package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/mock-interview/internal/metrics"
	"github.com/spigell/mock-interview/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve mock interview sessions over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8080)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := bootstrap()
	defer logger.Sync()

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	recorder := metrics.NewRecorder()

	controller, err := newController(ctx, config, logger, recorder)
	if err != nil {
		logger.Fatal("building the interview controller", zap.Error(err))
	}

	srv, err := server.New(server.Options{
		Controller:     controller,
		Logger:         logger,
		Metrics:        recorder.Handler(),
		MaxUploadBytes: config.Server.MaxUploadBytes,
		SessionTTL:     config.Server.SessionTTL,
	})
	if err != nil {
		logger.Fatal("building the http server", zap.Error(err))
	}

	if err := srv.ListenAndServe(ctx, config.Server.Listen); err != nil {
		logger.Fatal("serving http", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "server stopped"))
}
