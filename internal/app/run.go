// Package app wires the byte source, frame decoder and display controller
// into the single cooperative receive loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/example/ambilight-rgbw/internal/display"
	"github.com/example/ambilight-rgbw/internal/protocol"
	"github.com/example/ambilight-rgbw/internal/source"
)

// Run clears the strip, emits the readiness handshake, then alternates
// between polling for the next protocol byte and evaluating the idle policy.
// The idle evaluation happens on every empty poll, so timeout transitions
// keep firing while the host is disconnected. Run returns when ctx is
// cancelled or the byte source fails.
func Run(ctx context.Context, src source.Source, dec *protocol.Decoder, ctrl *display.Controller) error {
	ctrl.Blank()
	if err := src.Handshake(); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	log.Info().Int("leds", dec.Buffer().Len()).Msg("ready, waiting for frames")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, ok, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return err
			}
			return fmt.Errorf("byte source: %w", err)
		}
		if !ok {
			// No data within the poll interval: the only suspension point,
			// and where time-based transitions happen.
			ctrl.Tick()
			continue
		}
		if dec.Feed(b) {
			ctrl.FrameAccepted()
		}
	}
}
