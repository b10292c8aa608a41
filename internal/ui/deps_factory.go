package ui

import (
	"context"
	"time"

	camapp "github.com/skobkin/camwatch/internal/app"
)

const recentAddressesTimeout = 2 * time.Second

func BuildRuntimeDependencies(rt *camapp.Runtime, launch LaunchOptions, onQuit func()) RuntimeDependencies {
	dep := RuntimeDependencies{
		Launch: launch,
		Actions: ActionDependencies{
			OnQuit: onQuit,
		},
	}

	if rt == nil {
		dep.Data.InitialAddress = launch.Address

		return dep
	}

	logger := rt.LogManager.Logger("ui")
	dep.Logger = logger
	dep.Data = DataDependencies{
		Bus:            rt.Bus,
		Texts:          rt.Messages,
		InitialAddress: rt.InitialAddress,
		RecentAddresses: func() []string {
			ctx, cancel := context.WithTimeout(rt.Ctx, recentAddressesTimeout)
			defer cancel()
			addresses, err := rt.RecentAddresses(ctx)
			if err != nil {
				logger.Warn("load recent addresses", "error", err)

				return nil
			}

			return addresses
		},
		CurrentConnStatus: rt.CurrentConnStatus,
	}
	dep.Actions.StartNotifications = rt.StartNotifications

	if rt.Controller != nil {
		dep.Data.CurrentDashboard = rt.Controller.Dashboard
		dep.Actions.OnConnect = rt.Controller.Connect
		dep.Actions.OnDisconnect = rt.Controller.Disconnect
	}
	if launch.Address != "" {
		dep.Data.InitialAddress = launch.Address
	}

	return dep
}
