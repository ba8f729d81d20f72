//go:build js && wasm

// Command shadowsite-wasm runs the logo controller and the thoughts
// carousel in the browser. Build with GOOS=js GOARCH=wasm and load it with
// wasm_exec.js.
package main

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"shadowsite/internal/carousel"
	"shadowsite/internal/dom/jsdom"
	"shadowsite/internal/logging"
	"shadowsite/internal/scene"
)

func main() {
	// stderr is routed to the browser console by wasm_exec.js.
	if err := logging.Initialize(logging.Options{Level: "info", Format: "console"}); err != nil {
		jsdom.Log("error", "shadowsite: logging:", err)
	}
	defer func() { _ = logging.Sync() }()

	doc := jsdom.New()
	doc.Ready(func() { mount(doc) })

	// Keep the runtime alive for the event callbacks.
	select {}
}

func mount(doc *jsdom.Document) {
	log := logging.Logger(logging.CategoryPreview)

	c, err := scene.New(doc,
		scene.WithLogger(log),
		scene.WithScheduler(jsdom.NewFrameScheduler()),
		scene.WithAxis(scene.AxisAuto),
	)
	if err != nil {
		log.Error("logo controller disabled", zap.Error(err))
	} else {
		if err := c.Start(time.Now()); err != nil {
			log.Error("logo controller start", zap.Error(err))
		}
		if err := c.Attach(); err != nil {
			log.Error("logo controller attach", zap.Error(err))
		}
	}

	tc, err := carousel.Mount(doc, carousel.WithLogger(log))
	switch {
	case errors.Is(err, carousel.ErrNotMounted):
		log.Debug("no thoughts on this page")
	case err != nil:
		log.Error("thoughts carousel disabled", zap.Error(err))
	default:
		tc.Attach(doc)
	}
}
