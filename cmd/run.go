package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/mock-interview/internal/console"
	"github.com/spigell/mock-interview/internal/resume"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive mock interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("resume", "r", "", "résumé to load on start (PDF or DOCX)")
	runCmd.Flags().StringP("category", "c", "", "interview category preselected in the menu")
	runCmd.Flags().StringP("transcript-dir", "o", "", "directory for saved transcripts")

	viper.BindPFlag("interview.default-category", runCmd.Flags().Lookup("category"))
	viper.BindPFlag("interview.transcript-dir", runCmd.Flags().Lookup("transcript-dir"))
}

// run is the interactive console command.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := bootstrap()
	defer logger.Sync()

	controller, err := newController(ctx, config, logger, nil)
	if err != nil {
		logger.Fatal("building the interview controller", zap.Error(err))
	}

	c, err := console.New(console.Options{
		Controller:      controller,
		Prompter:        console.TerminalPrompter{},
		Loader:          resume.Load,
		Out:             cmd.OutOrStdout(),
		Logger:          logger,
		DefaultCategory: config.Interview.DefaultCategory,
		TranscriptDir:   config.Interview.TranscriptDir,
		TranscriptType:  config.Interview.TranscriptFormat,
	})
	if err != nil {
		logger.Fatal("building the console", zap.Error(err))
	}

	if path, _ := cmd.Flags().GetString("resume"); path != "" {
		if err := c.Preload(ctx, path); err != nil {
			logger.Warn("preloading the résumé", zap.String("path", path), zap.Error(err))
		}
	}

	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "interview finished"))
}
