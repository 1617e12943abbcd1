// cmd/covidvisor/root.go
package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/o-richard/covidvisor/internal/common/config"
	"github.com/o-richard/covidvisor/internal/common/logger"
)

// app is the state shared by every subcommand once config is loaded.
type app struct {
	configPath string
	cfg        *config.Config
	zapLog     *zap.Logger
	log        logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "covidvisor",
		Short:         "Turn questions about COVID case statistics into structured queries",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.zapLog != nil {
				_ = a.zapLog.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a config file (default: configs/config.yaml)")

	root.AddCommand(
		newUnderstandCmd(a),
		newAskCmd(a),
		newSeedCmd(a),
		newWorkerCmd(a),
	)
	return root
}

func (a *app) load() error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	a.log = logger.NewZapAdapter(a.zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})
	return nil
}
