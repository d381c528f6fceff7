package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/easyaudioflip/audioflip/internal/client"
	"github.com/easyaudioflip/audioflip/internal/models"
	"github.com/easyaudioflip/audioflip/internal/panel"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List output devices and whether they are in the rotation",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := newClient().Devices(cmd.Context())
			if err != nil {
				return err
			}
			return printDevices(cmd.OutOrStdout(), devices)
		},
	}
}

func nextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Switch the default output to the next enabled device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := newClient().Next(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flagJSON {
				return writeJSON(out, map[string]interface{}{"changed": dev != nil, "device": dev})
			}
			if dev == nil {
				fmt.Fprintln(out, "Nothing to rotate: enable at least two devices")
				return nil
			}
			fmt.Fprintf(out, "Switched to %s\n", dev.Name)
			return nil
		},
	}
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [device-id]",
		Short: "Flip whether a device takes part in the rotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printToggle(cmd.OutOrStdout(), res)
		},
	}
}

func enableCmd() *cobra.Command {
	return setEnabledCmd("enable", "Add a device to the rotation", true)
}

func disableCmd() *cobra.Command {
	return setEnabledCmd("disable", "Remove a device from the rotation", false)
}

func setEnabledCmd(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [device-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().SetEnabled(cmd.Context(), args[0], enabled)
			if err != nil {
				return err
			}
			return printToggle(cmd.OutOrStdout(), res)
		},
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-enumerate output devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().Refresh(cmd.Context())
			if err != nil {
				return err
			}
			if !res.PlatformAvailable {
				warnf("audio system unavailable, device list is empty")
			}
			return printDevices(cmd.OutOrStdout(), res.Devices)
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current device and daemon information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			snap, err := c.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			info, err := c.Info(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flagJSON {
				return writeJSON(out, map[string]interface{}{"snapshot": snap, "info": info})
			}
			fmt.Fprintln(out, snap.Tooltip)
			fmt.Fprintf(out, "Daemon:  %s on %s\n", info.Version, info.Hostname)
			fmt.Fprintf(out, "Backend: %s\n", info.Backend)
			fmt.Fprintf(out, "Config:  %s\n", info.ConfigPath)
			fmt.Fprintf(out, "Streams: %d\n", info.Subscribers)
			return nil
		},
	}
}

func quitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quit",
		Short: "Stop the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().Quit(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Daemon is shutting down")
			return nil
		},
	}
}

func panelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "panel",
		Short: "Open the interactive device checklist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			events, err := c.Subscribe(cmd.Context())
			if err != nil {
				warnf("live updates unavailable: %v", err)
				events = nil
			}
			return panel.Run(cmd.Context(), c, events)
		},
	}
}

func printDevices(out io.Writer, devices []models.PanelDevice) error {
	if flagJSON {
		return writeJSON(out, devices)
	}
	if len(devices) == 0 {
		fmt.Fprintln(out, "No output devices found.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ENABLED\tCURRENT\tNAME\tID\n")
	for _, d := range devices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark(d.Enabled, "[x]", "[ ]"), mark(d.IsCurrent, "*", ""), d.Name, d.ID)
	}
	return tw.Flush()
}

func printToggle(out io.Writer, res client.ToggleResult) error {
	if !res.Persisted {
		warnf("change applied but the config could not be saved; it will be lost on restart")
	}
	return printDevices(out, res.Devices)
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func mark(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
