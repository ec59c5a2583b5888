package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/thomasphansen/deepin-installer-reborn/config"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/mkfs"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/usage"
	"github.com/thomasphansen/deepin-installer-reborn/disk/parted"
	"github.com/thomasphansen/deepin-installer-reborn/partman"
	"github.com/thomasphansen/deepin-installer-reborn/sys/info/storage"
	"github.com/thomasphansen/deepin-installer-reborn/sys/ioctl"
	"github.com/thomasphansen/deepin-installer-reborn/util/command"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

var (
	cfgFile  string
	logLevel string
	dryRun   bool

	cfg       *config.Config
	logCloser io.Closer = io.NopCloser(nil)
)

var rootCmd = &cobra.Command{
	Use:   "partman",
	Short: "Disk partition manager for the installer",
	Long: `partman scans block devices, prints their partition tables and applies
partitioning plans, either by running an automatic partitioning script or by
executing an explicit list of operations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(cfgFile); err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("dry-run") {
			cfg.Executor.DryRun = dryRun
		}
		l, closer, err := logger.NewFileLogger("partman", cfg.Log.Level, cfg.Log.File)
		if err != nil {
			return err
		}
		logger.SetupDefaultLogger(l)
		logCloser = closer
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
		_ = logCloser.Close()
	},
}

// app 按配置组装的各个组件.
type app struct {
	lib      *parted.Native
	scanner  *partman.Scanner
	executor *partman.Executor
	manager  *partman.Manager
}

// newApp 读取类命令总是实际执行, 修改磁盘的命令(parted, mkfs, 分区脚本)在 dry-run 时只记录.
func newApp(cfg *config.Config) *app {
	reader := command.NewRunner(false)
	writer := command.NewRunner(cfg.Executor.DryRun)

	lib := parted.NewNative(writer, parted.Config{Parted: cfg.Executor.Parted, Partprobe: cfg.Executor.Partprobe})
	efi := func() bool { return cfg.EFI(ioctl.IsBootByUEFI) }
	scanner := partman.NewScanner(lib, storage.NewBuilder(reader, cfg.Scan.OsProber), usage.NewInspector(reader), efi, cfg.Scan.SkipRemovable)
	executor := partman.NewExecutor(lib, mkfs.NewFormatter(writer))
	return &app{
		lib:      lib,
		scanner:  scanner,
		executor: executor,
		manager:  partman.NewManager(scanner, executor, writer, cfg.Script.Shell),
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/deepin-installer/partman.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "log commands that modify disks instead of running them")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(autoPartCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
