package cmd

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/urfave/cli"
)

// List the host cpus that can be used for rendering.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	cpus, err := cpu.Info()
	if err != nil {
		return fmt.Errorf("could not query cpu info: %w", err)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"#", "Vendor", "Model", "Cores", "MHz"})
	for idx, info := range cpus {
		table.Append([]string{
			fmt.Sprintf("%02d", idx),
			info.VendorID,
			info.ModelName,
			fmt.Sprintf("%d", info.Cores),
			fmt.Sprintf("%.0f", info.Mhz),
		})
	}

	logical, err := cpu.Counts(true)
	if err != nil {
		logical = runtime.NumCPU()
	}
	footer := []string{"", "", "TRACERS", fmt.Sprintf("%d", logical), ""}
	if vm, err := mem.VirtualMemory(); err == nil {
		footer[4] = fmt.Sprintf("%d MiB free", vm.Available>>20)
	}
	table.SetFooter(footer)

	table.Render()
	logger.Noticef("host provides %d logical cpu(s); each one can run a tracer\n%s", logical, buf.String())
	return nil
}
