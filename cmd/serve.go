package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jd-tailor/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extraction, boolean and tailoring endpoints over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().StringSlice("cors-origins", nil, "allowed CORS origins (overrides server.cors-origins)")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.cors-origins", serveCmd.Flags().Lookup("cors-origins"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := newLogger()
	defer l.Sync()

	p := newPipeline(ctx, l)

	l.Info("starting the jd-tailor server", zap.String("version", version))

	srv := server.New(p.config.Server, p.extractor, p.rewriter, p.metrics, l)
	if err := srv.Run(ctx); err != nil {
		l.Fatal("serving http", zap.Error(err))
	}
}
