// base-station runs a Thread base station node on the simulated stack.
//
// The node forms its own network, becomes leader, starts the commissioner and
// serves the question/answer CoAP resource. In interactive mode a console
// drives the simulation: buttons, CoAP requests, joiners and role changes.
//
// Usage:
//
//	base-station [flags]
//	base-station config [--write path]
//	base-station scan [--timeout 5s]
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/backkem/basestation/cmd/base-station/interactive"
	"github.com/backkem/basestation/pkg/basestation"
	"github.com/backkem/basestation/pkg/discovery"
	"github.com/backkem/basestation/pkg/thread/sim"
	"github.com/pion/logging"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
)

func main() {
	root := rootCmd()
	root.AddCommand(configCmd(), scanCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (basestation.Config, error) {
	cfg := basestation.DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = basestation.LoadConfig(configFile)
		if err != nil {
			return cfg, err
		}
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	return cfg, cfg.Validate()
}

func newLoggerFactory(w io.Writer, level string) (logging.LoggerFactory, error) {
	lvl, err := basestation.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	f := logging.NewDefaultLoggerFactory()
	f.Writer = w
	f.DefaultLogLevel = lvl
	return f, nil
}

func rootCmd() *cobra.Command {
	var (
		headless       bool
		networkName    string
		advertise      bool
		formationDelay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "base-station",
		Short: "Thread base station node",
		Long: `Forms a Thread network, commissions joiners and serves the
question/answer CoAP resource, running on a simulated stack.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("network-name") {
				cfg.NetworkName = networkName
			}
			if cmd.Flags().Changed("advertise") {
				cfg.Advertise = advertise
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var console *interactive.Console
			out := io.Writer(os.Stdout)
			if !headless {
				console, err = interactive.New()
				if err != nil {
					return err
				}
				out = console.Stdout()
			}

			lf, err := newLoggerFactory(out, cfg.LogLevel)
			if err != nil {
				return err
			}

			h, err := basestation.NewSimHarness(basestation.SimConfig{
				Config:        cfg,
				Output:        out,
				Stack:         sim.Config{FormationDelay: formationDelay},
				LoggerFactory: lf,
			})
			if err != nil {
				return err
			}

			displayDone := make(chan struct{})
			go func() {
				defer close(displayDone)
				h.Terminal.Run(ctx, 100*time.Millisecond)
			}()

			h.Stack.Post(func() {
				if err := h.Node.Start(); err != nil {
					fmt.Fprintf(out, "start: %v\n", err)
				}
			})

			if console != nil {
				loopDone := make(chan error, 1)
				go func() { loopDone <- h.Stack.Run(ctx) }()
				console.Run(ctx, cancel, h)
				<-loopDone
			} else {
				_ = h.Stack.Run(ctx)
			}

			// The loop has exited; finish on this goroutine.
			h.Stack.Post(func() { _ = h.Node.Stop() })
			h.Stack.Process()
			<-displayDone
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", basestation.DefaultLogLevel, "log level: disabled, error, warn, info, debug, trace")
	cmd.Flags().BoolVar(&headless, "headless", false, "run without the interactive console")
	cmd.Flags().StringVar(&networkName, "network-name", basestation.DefaultNetworkName, "Thread network name")
	cmd.Flags().BoolVar(&advertise, "advertise", false, "advertise a _meshcop._udp border agent via mDNS")
	cmd.Flags().DurationVar(&formationDelay, "formation-delay", 500*time.Millisecond, "simulated partition formation time")

	return cmd
}

func configCmd() *cobra.Command {
	var writePath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  `Prints the configuration as YAML: defaults merged with --config. Use --write to save it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if writePath != "" {
				if err := basestation.SaveConfig(writePath, cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", writePath)
				return nil
			}
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&writePath, "write", "", "write the configuration to this path")
	return cmd
}

func scanCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Browse for Thread border agents on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			lf, err := newLoggerFactory(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return err
			}

			r, err := discovery.NewResolver(discovery.ResolverConfig{
				BrowseTimeout: timeout,
				LoggerFactory: lf,
			})
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			agents, err := r.BrowseBorderAgents(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			found := 0
			for ba := range agents {
				found++
				name, xp := "?", "?"
				if ba.TXT != nil {
					name = ba.TXT.NetworkName
					xp = fmt.Sprintf("%x", ba.TXT.ExtendedPANID)
				}
				fmt.Fprintf(out, "%-32s network=%-16s xp=%s addr=%v port=%d\n",
					ba.InstanceName, name, xp, ba.PreferredIP(), ba.Port)
			}
			fmt.Fprintf(out, "%d border agent(s) found\n", found)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "how long to browse")
	return cmd
}
