// Package banner prints the startup banner with the effective runtime
// configuration.
package banner

import (
	"fmt"

	"github.com/pubky/franky-sub007/pkg/config"
)

const banner = `
███████╗██████╗  █████╗ ███╗   ██╗██╗  ██╗██╗   ██╗
██╔════╝██╔══██╗██╔══██╗████╗  ██║██║ ██╔╝╚██╗ ██╔╝
█████╗  ██████╔╝███████║██╔██╗ ██║█████╔╝  ╚████╔╝
██╔══╝  ██╔══██╗██╔══██║██║╚██╗██║██╔═██╗   ╚██╔╝
██║     ██║  ██║██║  ██║██║ ╚████║██║  ██╗   ██║
╚═╝     ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝   ╚═╝
`

// Print writes the banner and a short config summary to stdout.
func Print(cfg config.Config, version string) {
	fmt.Print(banner)
	fmt.Println("== Session ====================================================")
	fmt.Printf("Owner:      %s\n", cfg.Session.Owner)
	fmt.Printf("Local API:  http://%s\n", cfg.Addr())
	fmt.Printf("Mirror:     %s\n", cfg.Storage.DBPath)
	fmt.Printf("Nexus:      %s\n", cfg.Remote.NexusURL)
	fmt.Printf("Homeserver: %s\n", cfg.Remote.HomeserverURL)
	if cfg.Sync.Enabled {
		fmt.Printf("Sync:       %s\n", cfg.Sync.Cron)
	} else {
		fmt.Println("Sync:       disabled")
	}
	if version != "" {
		fmt.Printf("Version:    %s\n", version)
	}
	fmt.Println()
}
