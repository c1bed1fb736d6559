// cmd/proxy/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmceleney/et112-proxy/internal/cache"
	"github.com/jmceleney/et112-proxy/internal/catalog"
	"github.com/jmceleney/et112-proxy/internal/config"
	"github.com/jmceleney/et112-proxy/internal/poll"
	"github.com/jmceleney/et112-proxy/internal/server"
	"github.com/jmceleney/et112-proxy/internal/stats"
	"github.com/jmceleney/et112-proxy/internal/transport"
)

const statusInterval = 30 * time.Second

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: proxy <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	config.Normalize(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Catalog + cache
	// --------------------

	cat, err := catalog.New(catalog.ET112Dynamic(), catalog.ET112Static())
	if err != nil {
		log.Fatalf("catalog build failed: %v", err)
	}

	log.Printf("catalog: %d registers (%d dynamic, %d static)",
		cat.Size(), len(cat.DynamicAddresses()), len(cat.StaticAddresses()))

	store := cache.New(cat)

	// --------------------
	// Remote target client
	// --------------------

	target := cfg.Proxy.Target

	client, err := transport.New(transport.Config{
		Endpoint: target.Endpoint,
		Serial: transport.SerialParams{
			Device:   target.Serial.Device,
			BaudRate: target.Serial.BaudRate,
			DataBits: target.Serial.DataBits,
			Parity:   target.Serial.Parity,
			StopBits: target.Serial.StopBits,
		},
		UnitID:  target.UnitID,
		Timeout: time.Duration(target.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("target connect failed: %v", err)
	}
	defer client.Close()

	// --------------------
	// Poll engine
	// --------------------

	tableLock := &stats.LockStats{}

	eng, err := poll.New(poll.Config{
		Catalog:   cat,
		Store:     store,
		Client:    client,
		Interval:  time.Duration(cfg.Proxy.Poll.IntervalMs) * time.Millisecond,
		TableLock: tableLock,
	})
	if err != nil {
		log.Fatalf("engine build failed: %v", err)
	}

	client.Start(transport.Callbacks{
		OnData:  eng.OnData,
		OnError: eng.OnError,
	})

	// --------------------
	// Local servers
	// --------------------

	servers := cfg.Proxy.Servers

	if sc := servers.TCP; sc != nil {
		responder := server.NewCacheResponder(store, eng, sc.UnitID)
		srv := server.NewTCPServer(responder.Respond)
		if err := srv.Start(sc.Listen); err != nil {
			log.Fatalf("tcp server start failed: %v", err)
		}
		defer srv.Close()
		log.Printf("tcp server listening on %s (unit=%d)", srv.Addr(), sc.UnitID)
	}

	if sc := servers.RTU; sc != nil {
		responder := server.NewCacheResponder(store, eng, sc.UnitID)
		srv, err := server.NewRTUServer(server.SerialParams{
			Device:   sc.Device,
			BaudRate: sc.BaudRate,
			DataBits: sc.DataBits,
			Parity:   sc.Parity,
			StopBits: sc.StopBits,
		}, responder.Respond)
		if err != nil {
			log.Fatalf("rtu server start failed: %v", err)
		}
		srv.Start()
		defer srv.Close()
		log.Printf("rtu server on %s (unit=%d)", sc.Device, sc.UnitID)
	}

	if sc := servers.Emulator; sc != nil {
		emap, err := catalog.New(catalog.SDM120Emulated(), nil)
		if err != nil {
			log.Fatalf("emulator map build failed: %v", err)
		}

		emu := server.NewEmulator(store, emap, eng, sc.UnitID)
		srv := server.NewTCPServer(emu.Respond)
		if err := srv.Start(sc.Listen); err != nil {
			log.Fatalf("emulator server start failed: %v", err)
		}
		defer srv.Close()
		log.Printf("emulator listening on %s (unit=%d)", srv.Addr(), sc.UnitID)
	}

	// --------------------
	// Periodic status report
	// --------------------

	go statusLoop(ctx, eng, store, tableLock)

	// --------------------
	// Drive the poll loop until a signal arrives
	// --------------------

	log.Printf("polling target every %dms", cfg.Proxy.Poll.IntervalMs)
	eng.Run(ctx)
	log.Print("shutting down")
}

// statusLoop logs a periodic health line: operational state, response
// latency, correlation lock contention and cache anomaly counters.
func statusLoop(ctx context.Context, eng *poll.Engine, store *cache.Store, tableLock *stats.LockStats) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		lat := eng.Latency()
		log.Printf("status: operational=%t outstanding=%d latency(ms) min=%.1f avg=%.1f max=%.1f stddev=%.1f n=%d",
			eng.Operational(), eng.Outstanding(),
			lat.Min(), lat.Average(), lat.Max(), lat.StdDev(), lat.Count())

		lc := tableLock.Counters()
		log.Printf("status: table lock attempts=%d contended=%d wait=%s hold=%s holdmax=%s",
			lc.Attempts, lc.Contended, lc.WaitTotal, lc.HoldTotal, lc.HoldMax)

		if n := store.InsaneCount(); n > 0 {
			log.Printf("status: rejected %d implausible readings", n)
		}
		if addrs := store.Unexpected(); len(addrs) > 0 {
			log.Printf("status: reads for undefined registers: %v", addrs)
		}
	}
}
