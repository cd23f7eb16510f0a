package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/wzec-network/wzec-bridge/internal/config"
	"github.com/wzec-network/wzec-bridge/internal/server"
	"github.com/wzec-network/wzec-bridge/internal/types"
	"github.com/wzec-network/wzec-bridge/pkg/log"
)

var (
	FlagHome   = "home"
	FlagAPIURL = "api"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wzec-bridge",
		Short: "custodial zcash to solana wrapped token bridge",
	}
	cmd.AddCommand(
		startCmd(),
		statusCmd(),
		depositAddressCmd(),
		lookupCmd(),
		historyCmd(),
		pauseCmd(),
		resumeCmd(),
		initializeCmd(),
		versionCmd(),
	)
	cmd.PersistentFlags().String(FlagHome, "./", "bridge home directory")
	cmd.PersistentFlags().String(FlagAPIURL, "http://127.0.0.1:8080", "operator api base url")
	return cmd
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "run the bridge server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, err := cmd.Flags().GetString(FlagHome)
			if err != nil {
				return err
			}
			cfg, err := config.Load(home)
			if err != nil {
				return err
			}

			logOpts := log.NewOptions()
			logOpts.Level = cfg.LogLevel
			logOpts.Format = cfg.LogFormat
			log.Init(logOpts)
			defer log.Flush()

			db, err := server.NewDB(cfg)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), types.DBContextKey, db))

			return server.Start(&server.Context{
				Config: cfg,
				Logger: log.New(logOpts).WithName("server"),
			}, cmd)
		},
	}
}

// apiClient builds the resty client the operator subcommands share.
func apiClient(cmd *cobra.Command) (*resty.Client, error) {
	base, err := cmd.Flags().GetString(FlagAPIURL)
	if err != nil {
		return nil, err
	}
	return resty.New().SetBaseURL(base), nil
}

func printAPIResponse(cmd *cobra.Command, resp *resty.Response) error {
	if resp.IsError() {
		return fmt.Errorf("api error %d: %s", resp.StatusCode(), resp.String())
	}
	cmd.Println(resp.String())
	return nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "show bridge totals and settlement state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			resp, err := c.R().Get("/api/v1/status")
			if err != nil {
				return err
			}
			return printAPIResponse(cmd, resp)
		},
	}
}

func depositAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit-address",
		Short: "show the shielded deposit address and limits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			resp, err := c.R().Get("/api/v1/deposit-address")
			if err != nil {
				return err
			}
			return printAPIResponse(cmd, resp)
		},
	}
}

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup [refid]",
		Short: "trace a zcash txid or solana signature across both chains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			resp, err := c.R().Get("/api/v1/tx/" + args[0])
			if err != nil {
				return err
			}
			return printAPIResponse(cmd, resp)
		},
	}
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "show recent audit log entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}
			resp, err := c.R().
				SetQueryParam("limit", fmt.Sprintf("%d", limit)).
				Get("/api/v1/history")
			if err != nil {
				return err
			}
			return printAPIResponse(cmd, resp)
		},
	}
	cmd.Flags().Int("limit", 50, "max entries to return")
	return cmd
}

func pauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "pause settlement, ingestion keeps running",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			resp, err := c.R().Post("/api/v1/pause")
			if err != nil {
				return err
			}
			return printAPIResponse(cmd, resp)
		},
	}
}

func resumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "resume settlement and sweep deferred work",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			resp, err := c.R().Post("/api/v1/resume")
			if err != nil {
				return err
			}
			return printAPIResponse(cmd, resp)
		},
	}
}

func initializeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "initialize",
		Short: "one time bridge state initialization",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			feeBps, err := cmd.Flags().GetInt64("fee-bps")
			if err != nil {
				return err
			}
			resp, err := c.R().
				SetHeader("Content-Type", "application/json").
				SetBody(map[string]int64{"fee_bps": feeBps}).
				Post("/api/v1/initialize")
			if err != nil {
				return err
			}
			return printAPIResponse(cmd, resp)
		},
	}
	cmd.Flags().Int64("fee-bps", 10, "mint fee in basis points")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(Version)
		},
	}
}
