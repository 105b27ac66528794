// The trading binary runs one client: market data consumer, trade engine
// with the selected algorithm, and order gateway, connected to a running
// exchange process.
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
	"github.com/helixtrading/helix-venue/orderserver"
	"github.com/helixtrading/helix-venue/trading"
	"github.com/helixtrading/helix-venue/types/ring"
	"github.com/helixtrading/helix-venue/wire"
)

func main() {
	var clientID uint
	var algoName, serverIP, incIP, snapIP, logDir string
	var serverPort, incPort, snapPort int
	var clip uint
	var threshold float64
	var maxOrderSize, maxPosition uint
	var maxLoss float64
	flag.UintVar(&clientID, "client", 0, "Client id, unique per trading process")
	flag.StringVar(&algoName, "algo", "default", "Trading algorithm: maker, taker or default")
	flag.StringVar(&serverIP, "server-ip", "127.0.0.1", "Order server address")
	flag.IntVar(&serverPort, "server-port", orderserver.DefaultPort, "Order server port")
	flag.StringVar(&incIP, "inc-ip", marketdata.DefaultIncrementalIP, "Incremental multicast group")
	flag.IntVar(&incPort, "inc-port", marketdata.DefaultIncrementalPort, "Incremental multicast port")
	flag.StringVar(&snapIP, "snap-ip", marketdata.DefaultSnapshotIP, "Snapshot multicast group")
	flag.IntVar(&snapPort, "snap-port", marketdata.DefaultSnapshotPort, "Snapshot multicast port")
	flag.StringVar(&logDir, "log-dir", ".", "Directory for component log files")
	flag.UintVar(&clip, "clip", 10, "Working quantity per side")
	flag.Float64Var(&threshold, "threshold", 0.6, "Algorithm signal threshold")
	flag.UintVar(&maxOrderSize, "max-order-size", 100, "Risk: maximum order size")
	flag.UintVar(&maxPosition, "max-position", 1000, "Risk: maximum absolute position")
	flag.Float64Var(&maxLoss, "max-loss", -1000, "Risk: total pnl floor")
	flag.Parse()

	algoType, err := trading.AlgoTypeFromString(algoName)
	if err != nil {
		log.Fatal(err)
	}

	logPath := func(name string) string {
		return filepath.Join(logDir, fmt.Sprintf("trading_%s_%d.log", name, clientID))
	}

	var cfg [wire.MaxTickers]trading.TradeEngineCfg
	for i := range cfg {
		cfg[i] = trading.TradeEngineCfg{
			Clip:      wire.Qty(clip),
			Threshold: threshold,
			Risk: trading.RiskCfg{
				MaxOrderSize: wire.Qty(maxOrderSize),
				MaxPosition:  wire.Qty(maxPosition),
				MaxLoss:      maxLoss,
			},
		}
	}

	requests := ring.New[wire.MEClientRequest](wire.RingCapacity)
	responses := ring.New[wire.MEClientResponse](wire.RingCapacity)
	mdUpdates := ring.New[wire.MEMarketUpdate](wire.RingCapacity)

	engine := trading.NewTradeEngine(wire.ClientID(clientID), algoType, &cfg,
		requests, responses, mdUpdates, wire.MaxOrderIDs,
		logging.MustNew(logPath("engine")))

	gateway, err := trading.NewOrderGateway(wire.ClientID(clientID), requests, responses,
		serverIP, serverPort, logging.MustNew(logPath("order_gateway")))
	if err != nil {
		log.Fatalf("failed to connect order gateway: %v", err)
	}

	consumer, err := trading.NewMarketDataConsumer(mdUpdates, incIP, incPort, snapIP, snapPort,
		logging.MustNew(logPath("market_data_consumer")))
	if err != nil {
		log.Fatalf("failed to create market data consumer: %v", err)
	}

	engine.Start()
	gateway.Start()
	consumer.Start()
	log.Printf("trading client %d up, algo %s", clientID, algoType)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("shutting down")
	consumer.Stop()
	gateway.Stop()
	engine.Stop()
}
