package main

import (
	"context"

	"github.com/desertthunder/qsync/internal/device"
	"github.com/desertthunder/qsync/internal/ui"
	"github.com/urfave/cli/v3"
)

type deviceView struct {
	Serial  string `json:"serial"`
	State   string `json:"state"`
	Model   string `json:"model,omitempty"`
	Product string `json:"product,omitempty"`
	Ready   bool   `json:"ready"`
}

// Devices lists every headset adb can see, ready or not.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	devices, err := r.deviceManager().Devices(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]deviceView, len(devices))
		for i, d := range devices {
			views[i] = deviceView{Serial: d.Serial, State: d.State, Model: d.Model, Product: d.Product, Ready: d.Ready()}
		}
		return r.writeJSON(views, true)
	}

	if len(devices) == 0 {
		r.writePlain("%s\n", ui.Warning("No headsets found."))
		r.writePlain("%s\n", ui.Hint("Connect the Quest over USB and enable developer mode."))
		return nil
	}

	r.writePlainHeader("Connected headsets")
	for _, d := range devices {
		r.writePlain("%-24s %s\n", d.Label(), deviceState(d))
	}
	return nil
}

func deviceState(d device.Device) string {
	if d.Ready() {
		return ui.Success(d.State)
	}
	return ui.Warning(d.State) + " " + ui.Hint("(allow USB debugging in the headset)")
}
