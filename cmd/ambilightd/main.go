package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/example/ambilight-rgbw/internal/app"
	"github.com/example/ambilight-rgbw/internal/config"
	"github.com/example/ambilight-rgbw/internal/display"
	"github.com/example/ambilight-rgbw/internal/frame"
	"github.com/example/ambilight-rgbw/internal/layout"
	"github.com/example/ambilight-rgbw/internal/led"
	"github.com/example/ambilight-rgbw/internal/protocol"
	"github.com/example/ambilight-rgbw/internal/source"
	"github.com/example/ambilight-rgbw/internal/ws"
)

const pollInterval = 10 * time.Millisecond

func main() {
	// ---- Flags (config.yaml can override most) ----
	var (
		serialPort = flag.String("serial", "/dev/ttyUSB0", "serial port delivering the frame stream")
		baud       = flag.Int("baud", 115200, "serial bit rate")
		left       = flag.Int("left", layout.Default.Left, "LEDs on the left edge (bottom to top)")
		top        = flag.Int("top", layout.Default.Top, "LEDs on the top edge (left to right)")
		right      = flag.Int("right", layout.Default.Right, "LEDs on the right edge (top to bottom)")
		driver     = flag.String("driver", "spi", "driver: spi | sim")
		spiPort    = flag.String("spi", "", "SPI port name (empty selects the first available)")
		colorOrder = flag.String("color", "GRBW", "LED channel order (e.g. GRBW, RGBW)")
		ambient    = flag.String("ambient", "8B4513", "idle color, hex RRGGBB")
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware output)")
		debug      = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	if !*debug {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// ---- Load config.yaml (optional) ----
	var cfg *config.Config
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
	} else {
		cfg = c
	}

	// ---- Effective params (config overrides flags where available) ----
	eSerial, eBaud := *serialPort, *baud
	strip := layout.Strip{Left: *left, Top: *top, Right: *right}
	eDriver, eSPI, eOrder := *driver, *spiPort, *colorOrder
	eAmbient, eAddr := *ambient, *addr
	idle, off, fadeStep := display.DefaultIdleTimeout, display.DefaultOffTimeout, display.DefaultFadeStep
	spiFreq := 0

	if cfg != nil {
		if cfg.Serial.Port != "" {
			eSerial = cfg.Serial.Port
		}
		if cfg.Serial.Baud > 0 {
			eBaud = cfg.Serial.Baud
		}
		if cfg.Leds.Left > 0 {
			strip.Left = cfg.Leds.Left
		}
		if cfg.Leds.Top > 0 {
			strip.Top = cfg.Leds.Top
		}
		if cfg.Leds.Right > 0 {
			strip.Right = cfg.Leds.Right
		}
		if cfg.Driver != "" {
			eDriver = cfg.Driver
		}
		if cfg.SPI.Port != "" {
			eSPI = cfg.SPI.Port
		}
		if cfg.SPI.ColorOrder != "" {
			eOrder = cfg.SPI.ColorOrder
		}
		spiFreq = cfg.SPI.FreqHz
		if cfg.Ambient != "" {
			eAmbient = cfg.Ambient
		}
		if cfg.Addr != "" {
			eAddr = cfg.Addr
		}
		if cfg.Timeouts.IdleMs > 0 {
			idle = time.Duration(cfg.Timeouts.IdleMs) * time.Millisecond
		}
		if cfg.Timeouts.OffMs > 0 {
			off = time.Duration(cfg.Timeouts.OffMs) * time.Millisecond
		}
		if cfg.Timeouts.FadeStepMs > 0 {
			fadeStep = time.Duration(cfg.Timeouts.FadeStepMs) * time.Millisecond
		}
	}

	ar, ag, ab, err := config.ParseColor(eAmbient)
	if err != nil {
		log.Warn().Err(err).Msg("bad ambient color; using default")
		ar, ag, ab = 0x8B, 0x45, 0x13
	}

	// ---- Strip driver: -sim-only overrides; SPI failure falls back to SIM ----
	if *simOnly {
		eDriver = "sim"
	}
	var drv led.Driver
	switch eDriver {
	case "spi":
		d, err := led.NewSPI(eSPI, strip.Count(), eOrder, spiFreq)
		if err != nil {
			log.Warn().Err(err).Str("port", eSPI).Msg("SPI init failed; falling back to SIM")
			drv = led.NewSim(strip.Count())
			eDriver = "sim"
		} else {
			drv = d
		}
	case "sim":
		drv = led.NewSim(strip.Count())
	default:
		log.Warn().Str("driver", eDriver).Msg("unknown driver; using SIM")
		drv = led.NewSim(strip.Count())
		eDriver = "sim"
	}

	// ---- Byte source: serial, or an idle stand-in when the port is gone ----
	var src source.Source
	if s, err := source.OpenSerial(eSerial, eBaud, pollInterval); err != nil {
		log.Warn().Err(err).Str("port", eSerial).Msg("serial open failed; idling")
		src = source.Idle(pollInterval)
	} else {
		src = s
	}

	// ---- Pipeline ----
	buf := frame.NewBuffer(strip.Count())
	dec := protocol.NewDecoder(buf)
	ctrl := display.NewController(nil, buf, display.Config{
		IdleTimeout: idle,
		OffTimeout:  off,
		FadeStep:    fadeStep,
		Ambient:     frame.FromRGB(ar, ag, ab),
	})
	state := ws.NewState(strip, eDriver, ctrl, dec)
	ctrl.SetDriver(state.Mirror(drv))

	// ---- HTTP routes ----
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", state.HandleFramesWS)
	mux.HandleFunc("/health", state.HandleHealth)

	srv := &http.Server{
		Addr:         eAddr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run receive loop & server ----
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx, src, dec, ctrl)
	}()
	go func() {
		log.Info().Str("addr", eAddr).Str("driver", eDriver).Int("leds", strip.Count()).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-ch:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
		<-done
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
			log.Error().Err(err).Msg("receive loop failed")
		}
		cancel()
	}

	ctrl.Blank()
	_ = srv.Close()
	_ = src.Close()
	if err := drv.Close(); err != nil {
		log.Warn().Err(err).Msg("driver close")
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
