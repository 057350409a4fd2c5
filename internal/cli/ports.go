package cli

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func newPortsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports with their USB details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := a.listPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(a.out, "No serial ports found.")
				return nil
			}

			table := uitable.New()
			table.AddRow("PORT", "USB", "VID", "PID", "SERIAL")
			for _, p := range ports {
				usb := "no"
				if p.IsUSB {
					usb = "yes"
				}
				table.AddRow(p.Name, usb, p.VID, p.PID, p.SerialNumber)
			}
			fmt.Fprintln(a.out, table)
			return nil
		},
	}
}
