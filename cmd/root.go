package main

import (
	"social-backend/config"
	"social-backend/internal/util"

	"github.com/spf13/cobra"
)

// NewRootCommand 创建命令行入口
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "social-backend",
		Short:         "社交网络后端服务",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// 初始化配置
			if err := config.Init(); err != nil {
				return err
			}
			// 初始化日志
			util.InitLogger(config.AppConfig.LogLevel)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = util.Logger.Sync()
		},
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newReconcileCommand())
	return cmd
}
