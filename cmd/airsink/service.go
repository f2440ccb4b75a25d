package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kardianos/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bluenviron/airsink/internal/config"
)

// program runs serve under the service manager.
type program struct {
	cfg    config.Config
	logger *logrus.Logger

	ctxCancel func()
	done      chan struct{}
}

func (p *program) Start(service.Service) error {
	ctx, ctxCancel := context.WithCancel(context.Background())
	p.ctxCancel = ctxCancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		err := serve(ctx, p.cfg, p.logger)
		if err != nil {
			p.logger.WithError(err).Error("receiver stopped")
			os.Exit(1)
		}
	}()

	return nil
}

func (p *program) Stop(service.Service) error {
	p.ctxCancel()
	<-p.done
	return nil
}

func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "service <install|uninstall|start|stop|restart|run>",
		Short:     "Control the receiver as an OS service",
		Args:      cobra.ExactArgs(1),
		ValidArgs: append([]string{"run"}, service.ControlAction[:]...),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			svcArgs := []string{"service", "run"}
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				svcArgs = append(svcArgs, "--config", path)
			}

			prg := &program{
				cfg:    cfg,
				logger: newLogger(os.Stderr, cfg.Verbose),
			}

			s, err := service.New(prg, &service.Config{
				Name:        "airsink",
				DisplayName: "airsink",
				Description: "AirPlay audio receiver",
				Arguments:   svcArgs,
			})
			if err != nil {
				return err
			}

			if args[0] == "run" {
				return s.Run()
			}

			err = service.Control(s, args[0])
			if err != nil {
				return fmt.Errorf("service %s: %w", args[0], err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "service %s: ok\n", args[0])
			return nil
		},
	}
	addServeFlags(cmd)
	return cmd
}
