package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/thomasphansen/deepin-installer-reborn/disk/table"
	"github.com/thomasphansen/deepin-installer-reborn/partman"
	"github.com/thomasphansen/deepin-installer-reborn/server"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan devices and print their partitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		a := newApp(cfg)
		a.manager.Start()
		defer a.manager.Stop()

		res := <-a.manager.RefreshDevices()
		if res.Err != nil {
			return res.Err
		}
		if jsonOut {
			out, err := partman.DevicesJSON(res.Devices)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), partman.DevicesText(res.Devices))
		return nil
	},
}

var tableCmd = &cobra.Command{
	Use:   "table <device>",
	Short: "Print the raw partition table entries of a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib := newApp(cfg).lib
		devs, err := lib.ProbeAll()
		if err != nil {
			return err
		}
		for _, dev := range devs {
			if dev.Path != args[0] {
				continue
			}
			disk, err := lib.OpenDisk(dev)
			if err != nil {
				return err
			}
			defer disk.Destroy()
			fmt.Fprintln(cmd.OutOrStdout(), table.DebugFormat(disk.Type, dev.SectorSize, dev.Length, disk.Entries()))
			return nil
		}
		return errors.Errorf("device %s not found", args[0])
	},
}

var autoPartCmd = &cobra.Command{
	Use:   "autopart <script>",
	Short: "Run an automatic partitioning script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cfg)
		a.manager.Start()
		defer a.manager.Stop()
		return resultError(<-a.manager.AutoPart(args[0]))
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply <operations.json>",
	Short: "Apply a JSON list of partition operations",
	Long: `Apply executes the operations in order and stops at the first failure.
Operations already applied are not rolled back. When every operation succeeds
the boot flag is set on the EFI, /boot or / partition, in that priority.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrapf(err, "read operations %s", args[0])
		}
		ops, err := partman.DecodeOperations(data)
		if err != nil {
			return err
		}
		a := newApp(cfg)
		a.manager.Start()
		defer a.manager.Stop()
		return resultError(<-a.manager.ManualPart(ops))
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the partition manager over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			cfg.Server.Listen = listen
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a := newApp(cfg)
		a.manager.Start()
		defer a.manager.Stop()
		return server.New(a.manager, cfg.Server).Run(ctx)
	},
}

func resultError(res partman.Result) error {
	if res.OK {
		logger.Info("partitioning finished")
		return nil
	}
	return res.Err
}

func init() {
	scanCmd.Flags().Bool("json", false, "Output as JSON")
	serveCmd.Flags().String("listen", "", "listen address, overrides server.listen")
}
