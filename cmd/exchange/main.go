// The exchange binary runs the venue: matching engine, order server,
// market data publisher and snapshot synthesizer, wired together through
// SPSC rings and torn down in reverse construction order on SIGINT/SIGTERM.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/helixtrading/helix-venue/logging"
	"github.com/helixtrading/helix-venue/marketdata"
	"github.com/helixtrading/helix-venue/matching"
	"github.com/helixtrading/helix-venue/orderserver"
	"github.com/helixtrading/helix-venue/types/ring"
	"github.com/helixtrading/helix-venue/wire"
)

func main() {
	var port int
	var incIP, snapIP, logDir string
	var incPort, snapPort int
	flag.IntVar(&port, "port", orderserver.DefaultPort, "Order entry TCP port")
	flag.StringVar(&incIP, "inc-ip", marketdata.DefaultIncrementalIP, "Incremental multicast group")
	flag.IntVar(&incPort, "inc-port", marketdata.DefaultIncrementalPort, "Incremental multicast port")
	flag.StringVar(&snapIP, "snap-ip", marketdata.DefaultSnapshotIP, "Snapshot multicast group")
	flag.IntVar(&snapPort, "snap-port", marketdata.DefaultSnapshotPort, "Snapshot multicast port")
	flag.StringVar(&logDir, "log-dir", ".", "Directory for component log files")
	flag.Parse()

	logPath := func(name string) string {
		return filepath.Join(logDir, fmt.Sprintf("exchange_%s.log", name))
	}

	requests := ring.New[wire.MEClientRequest](wire.RingCapacity)
	responses := ring.New[wire.MEClientResponse](wire.RingCapacity)
	updates := ring.New[wire.MEMarketUpdate](wire.RingCapacity)

	publisher, err := marketdata.NewPublisher(updates, incIP, incPort, snapIP, snapPort,
		wire.MaxOrderIDs, logging.MustNew(logPath("market_data_publisher")))
	if err != nil {
		log.Fatalf("failed to create market data publisher: %v", err)
	}

	engine := matching.NewEngine(requests,
		matching.NewRingHandler(responses, updates),
		wire.MaxOrderIDs,
		logging.MustNew(logPath("matching_engine")))

	server, err := orderserver.NewServer(port, requests, responses,
		logging.MustNew(logPath("order_server")))
	if err != nil {
		log.Fatalf("failed to create order server: %v", err)
	}

	engine.Start()
	publisher.Start()
	server.Start()
	log.Printf("exchange up: order entry :%d, incremental %s:%d, snapshot %s:%d",
		port, incIP, incPort, snapIP, snapPort)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("shutting down")
	server.Stop()
	engine.Stop()
	publisher.Stop()
}
