package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/oja-gamez/oja-injection/di"
	"github.com/oja-gamez/oja-injection/internal/config"
	"github.com/oja-gamez/oja-injection/internal/diag/auditsink"
	"github.com/oja-gamez/oja-injection/internal/diag/httpserver"
	"github.com/oja-gamez/oja-injection/internal/diag/redissink"
	"github.com/oja-gamez/oja-injection/internal/hostclock/natsclock"
	"github.com/oja-gamez/oja-injection/internal/tick"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Launch the container and block, driving its tick dispatcher",
		RunE:  runServeCmd,
	}
	return cmd
}

func runServeCmd(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	manifestPath, _ := cmd.Flags().GetString("manifest")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	host, err := buildHost(cfg)
	if err != nil {
		return err
	}

	var manifest *config.Manifest
	if manifestPath != "" {
		m, err := config.LoadManifest(manifestPath)
		if err != nil {
			return err
		}
		manifest = m
	}

	container, err := buildContainer(manifest, moduleRegistry(), di.WithHost(host))
	if err != nil {
		return err
	}

	if err := container.Launch(); err != nil {
		return err
	}

	if cfg.Diagnostics.HTTP.Enabled {
		var sinkOpts []httpserver.Option

		if cfg.Diagnostics.Redis.Enabled {
			sink, err := redissink.Connect(redissink.Config{
				Addr:     cfg.Diagnostics.Redis.Addr,
				Password: cfg.Diagnostics.Redis.Password,
				DB:       cfg.Diagnostics.Redis.DB,
				Prefix:   cfg.Diagnostics.Redis.Prefix,
				TTL:      cfg.Diagnostics.Redis.TTL,
			})
			if err != nil {
				return err
			}
			defer sink.Close()
			sinkOpts = append(sinkOpts, httpserver.WithScopeSink(sink), httpserver.WithTickSink(sink))
		}

		if cfg.Diagnostics.Audit.Enabled {
			sink, err := auditsink.Connect(auditsink.Config{
				DSN:   cfg.Diagnostics.Audit.DSN,
				Table: cfg.Diagnostics.Audit.Table,
			})
			if err != nil {
				return err
			}
			defer sink.Close()
			sinkOpts = append(sinkOpts, httpserver.WithAuditSink(sink))
			if err := sink.Record(context.Background(), "container.launched", "", ""); err != nil {
				log.Printf("di: record launch audit event: %v", err)
			}
		}

		srv := httpserver.New(container.Engine(), sinkOpts...)
		go func() {
			if err := srv.Run(cfg.Diagnostics.HTTP.Addr); err != nil {
				log.Printf("di: diagnostics server stopped: %v", err)
			}
		}()
	}

	select {}
}

func buildHost(cfg *config.Config) (tick.Host, error) {
	switch cfg.HostClock.Source {
	case "nats":
		return natsclock.Connect(natsclock.Config{
			URLs:           cfg.HostClock.NATS.URLs,
			StreamName:     cfg.HostClock.NATS.StreamName,
			SubjectPrefix:  cfg.HostClock.NATS.SubjectPrefix,
			MaxReconnects:  cfg.HostClock.NATS.MaxReconnects,
			ReconnectWait:  cfg.HostClock.NATS.ReconnectWait,
			ConnectTimeout: cfg.HostClock.NATS.ConnectTimeout,
		}, cfg.HostClock.Rendering, nil)
	default:
		return tick.NewLocalHost(cfg.HostClock.LogicInterval, cfg.HostClock.RenderInterval, cfg.HostClock.Rendering), nil
	}
}
