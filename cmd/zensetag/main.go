package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/zensetag/internal/api"
	"github.com/banshee-data/zensetag/internal/config"
	"github.com/banshee-data/zensetag/internal/db"
	"github.com/banshee-data/zensetag/internal/fsutil"
	"github.com/banshee-data/zensetag/internal/history"
	"github.com/banshee-data/zensetag/internal/monitoring"
	"github.com/banshee-data/zensetag/internal/stream"
	"github.com/banshee-data/zensetag/internal/tagdata"
	"github.com/banshee-data/zensetag/internal/timeutil"
	"github.com/banshee-data/zensetag/internal/version"
)

var (
	configPath    = flag.String("config", "", "Parameters file (.json or .yaml); defaults to "+config.DefaultConfigPath)
	listen        = flag.String("listen", ":8080", "Listen address")
	devMode       = flag.Bool("dev", false, "Replay synthetic tag reads instead of opening the reader")
	disableReader = flag.Bool("disable-reader", false, "Run without a reader connection")
	port          = flag.String("port", "/dev/ttyUSB0", "Serial port of the reader bridge (ignored in dev mode)")
	dbFile        = flag.String("db", "zensetag.db", "Session database path; empty disables session storage")
	verbose       = flag.Bool("verbose", false, "Log every tag read decision")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Current())
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	monitoring.SetVerbose(*verbose)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	profiles, err := cfg.Profiles()
	if err != nil {
		log.Fatalf("invalid sensor profiles: %v", err)
	}

	reader, err := newReader(readerMode(), *port, cfg, profiles)
	if err != nil {
		log.Fatalf("failed to open reader: %v", err)
	}
	defer reader.Close()

	if err := reader.Initialize(cfg.ReaderCommands()...); err != nil {
		log.Fatalf("failed to initialize reader: %v", err)
	}
	log.Printf("initialized reader (%s)", readerMode())

	var store *db.DB
	if *dbFile != "" {
		store, err = db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("failed to open session database: %v", err)
		}
		defer store.Close()
	}

	engine := tagdata.NewEngine(profiles, tagdata.OptionsFromConfig(cfg))
	hub := stream.NewHub(engine, profiles.SelectableNames())
	sinks := []stream.Sink{hub}
	if cfg.MQTT.Broker != "" {
		mqttSink, err := stream.NewMQTTSink(cfg.MQTT, cfg.GetMQTTTopic())
		if err != nil {
			log.Printf("MQTT disabled: %v", err)
		} else {
			defer mqttSink.Close()
			sinks = append(sinks, mqttSink)
		}
	}

	started := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// run the monitor routine to manage IO on the serial port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := reader.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("failed to monitor reader: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		consume(ctx, reader, engine)
		log.Print("subscribe routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		pub := stream.NewPublisher(engine, profiles, timeutil.RealClock{}, cfg.GetBroadcastInterval(), sinks...)
		if err := pub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("publisher stopped: %v", err)
		}
		log.Print("publisher routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		var sessions api.SessionStore
		if store != nil {
			sessions = store
		}
		mux := api.NewServer(engine, profiles, sessions, hub).ServeMux()
		reader.AttachAdminRoutes(mux)
		if store != nil {
			if err := store.AttachAdminRoutes(mux); err != nil {
				log.Printf("database admin routes unavailable: %v", err)
			}
		}

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()

	var recorder history.Recorder
	if store != nil {
		recorder = store
	}
	saver := history.NewSaver(cfg, fsutil.OSFileSystem{}, timeutil.RealClock{}, recorder)
	if err := saveHistory(context.Background(), saver, engine, started); err != nil {
		log.Printf("failed to save phase history: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

func readerMode() string {
	switch {
	case *disableReader:
		return modeDisabled
	case *devMode:
		return modeDev
	default:
		return modeSerial
	}
}
