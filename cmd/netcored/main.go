// Command netcored runs the network subsystem: it wires the loopback
// pseudo-device and a stand-in physical NIC, finalizes the interface
// registry (spawning RX/TX workers), and serves the REST management API
// until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cezamee/netcore/internal/api"
	"github.com/cezamee/netcore/internal/config"
	"github.com/cezamee/netcore/internal/core"
	"github.com/cezamee/netcore/internal/driver"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8088", "REST API listen address")
	nicName := flag.String("nic", config.DefaultNICName, "physical interface name")
	nicIP := flag.String("nic-ip", "10.0.0.2", "physical interface IPv4 address")
	nicGateway := flag.String("nic-gateway", "10.0.0.1", "physical interface gateway")
	rxCore := flag.Int("rx-core", -1, "pin the physical NIC's RX worker to this CPU core (-1 disables pinning)")
	txCore := flag.Int("tx-core", -1, "pin the physical NIC's TX worker to this CPU core (-1 disables pinning)")
	flag.Parse()

	sub := core.NewSubsystem()

	phys := driver.NewNullNIC(0, *nicName, [6]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		net.ParseIP(*nicIP), net.ParseIP(*nicGateway))
	phys.RXCore, phys.TXCore = *rxCore, *txCore
	sub.Registry.Append(phys)

	loop := driver.NewLoopback(1)
	sub.Registry.Append(loop)

	sub.Finalize()
	log.Printf("netcore: %d interfaces online", sub.Registry.NumberOfInterfaces())

	srv := api.New(sub, *addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("netcore: REST API stopped: %v", err)
		}
	}()
	log.Printf("netcore: REST API listening on %s", *addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("netcore: REST API shutdown: %v", err)
	}
}
