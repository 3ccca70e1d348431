package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/hotspoter/internal/config"
	"github.com/muurk/hotspoter/internal/discovery"
	"github.com/muurk/hotspoter/internal/logging"
	"github.com/muurk/hotspoter/internal/orchestrator"
	"github.com/muurk/hotspoter/internal/portal"
	"github.com/muurk/hotspoter/internal/supervisor"
	"github.com/muurk/hotspoter/internal/system"
	"github.com/muurk/hotspoter/internal/wifi"
)

var (
	serveListen      string
	serveWebDir      string
	serveNoDiscovery bool
	serveUseSudo     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the provisioning daemon",
	Long: `Run the provisioning daemon on the device.

At start the access point is enforced: the access point unit is started and
the client units are stopped. The portal then accepts scan and join
requests. Only one runs at a time; others are rejected as busy.

The portal is advertised over mDNS as <hostname>-hotspoter unless
--no-discovery is given.`,
	Example: `  # Run with the default config file
  sudo hotspoter serve

  # Serve a portal page and log at debug level
  hotspoter serve --web-dir /usr/share/hotspoter/web --log-level debug

  # Use an alternate config and port
  hotspoter serve --config ./hotspoter.yaml --listen :8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "Path to the YAML config file")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Portal listen address (overrides portal.listen)")
	serveCmd.Flags().StringVar(&serveWebDir, "web-dir", "", "Static portal files (overrides portal.web_dir)")
	serveCmd.Flags().BoolVar(&serveNoDiscovery, "no-discovery", false, "Disable mDNS advertisement")
	serveCmd.Flags().BoolVar(&serveUseSudo, "sudo", false, "Run systemctl and nmcli through sudo")

	rootCmd.AddCommand(serveCmd)
}

// applyServeFlags lets explicitly set flags override the config file.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Portal.Listen = serveListen
	}
	if flags.Changed("web-dir") {
		cfg.Portal.WebDir = serveWebDir
	}
	if flags.Changed("no-discovery") {
		cfg.Discovery.Enabled = !serveNoDiscovery
	}
	if flags.Changed("sudo") {
		cfg.System.UseSudo = serveUseSudo
	}
	return cfg.Validate()
}

// listenPort extracts the port from a listen address such as ":80".
func listenPort(addr string) (int, error) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid listen port %q", port)
	}
	return n, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := applyServeFlags(cmd, cfg); err != nil {
		return err
	}

	logger := logging.GetLogger()
	logger.Info("Starting hotspoter",
		zap.String("config", configPath),
		zap.String("listen", cfg.Portal.Listen),
		zap.Bool("discovery", cfg.Discovery.Enabled),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := system.NewExecRunner(cfg.RunnerConfig(), logging.Named("system"))
	daemons := supervisor.New(runner, cfg.Units(), logging.Named("supervisor"))
	radio := wifi.NewNMCLI(runner, cfg.Radio.Interface)

	publishers := orchestrator.MultiPublisher{}
	orch := orchestrator.New(orchestrator.Options{
		Supervisor: daemons,
		Scanner:    wifi.NewScanner(radio, cfg.ScannerConfig(), logging.Named("scanner")),
		Joiner:     wifi.NewJoiner(radio, cfg.JoinerConfig(), logging.Named("joiner")),
		Publisher: orchestrator.PublisherFunc(func(event string, payload any) {
			publishers.Publish(event, payload)
		}),
		Recorder: config.NewStateStore(cfg.StateFile),
		Logger:   logging.Named("orchestrator"),
	})

	srv := portal.New(portal.Config{
		Listen:       cfg.Portal.Listen,
		WebDir:       cfg.Portal.WebDir,
		ScanDuration: cfg.Radio.ScanDuration,
	}, orch, daemons, logging.Named("portal"))
	publishers = append(publishers, srv.Hub())

	if err := orch.Start(ctx); err != nil {
		return fmt.Errorf("failed to enter access point mode: %w", err)
	}

	if cfg.Discovery.Enabled {
		port, err := listenPort(cfg.Portal.Listen)
		if err != nil {
			return err
		}
		adv := discovery.NewAdvertiser(discovery.AdvertiserConfig{
			Instance: cfg.Discovery.Instance,
			Port:     port,
		}, logging.Named("discovery"))

		// The portal still works without mDNS
		if err := adv.Start(orch.Mode()); err != nil {
			logger.Warn("mDNS advertisement unavailable", zap.Error(err))
		} else {
			defer adv.Shutdown()
			publishers = append(publishers, adv)
		}
	}

	err = srv.Run(ctx)
	orch.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("portal stopped: %w", err)
	}

	logger.Info("Hotspoter stopped")
	return nil
}
