package cmd

import (
	"context"

	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-collab/internal/web"
	"github.com/Laisky/laisky-collab/library/log"
)

var apiCMD = &cobra.Command{
	Use:   "api",
	Short: "api",
	Long:  `session sync API and websocket relay`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		web.NewControllor().Run(cmd.Context(),
			gconfig.Shared.GetString("listen"))
	},
}

func init() {
	rootCMD.AddCommand(apiCMD)
}
