package main

import (
	"encoding/json"
	"fmt"

	"social-backend/config"
	"social-backend/internal/service"

	"github.com/spf13/cobra"
)

func newReconcileCommand() *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "检查并修复单边的关注和点赞关系",
		Long: `扫描全部用户和帖子，找出成对写入中途失败留下的单边关系。

关注以被关注者的 followers 为准，点赞以帖子的 likes 为准。
加上 --repair 时补齐或移除另一侧；指向已删除帖子的 likedPosts 只报告。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repos, closeStore, err := openStore(ctx, config.AppConfig)
			if err != nil {
				return err
			}
			defer closeStore()

			report, err := service.NewReconciler(repos.Users(), repos.Posts()).Run(ctx, repair)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "修复发现的单边关系")
	return cmd
}
