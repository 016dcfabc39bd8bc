// Package main 是银行助手的命令行客户端。
package main

import (
	"fmt"
	"os"

	"cfs-assistant-go/internal/config"
	"cfs-assistant-go/pkg/log"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	// cfg 由 PersistentPreRunE 加载，供所有子命令使用
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cfs",
	Short: "Command-line client for the CFS banking assistant",
	Long: `cfs talks to the banking assistant backend.

The session survives restarts: log in once, then chat, check who you
are logged in as, or build download links until you log out or the
backend rejects the session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Log.Level = "debug"
		}
		cfg = loaded
		log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
	// 默认进入聊天
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs/config.yaml", "Path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(downloadURLCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
