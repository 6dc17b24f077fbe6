package main

import (
	"context"

	"dev.acmcsuf.com/mosaicc"
	"github.com/go-chi/chi/v5"
	"libdb.so/hrt"
)

// statusHandler exposes the client's state on a loopback address, since a
// headless display has no console to diagnose from.
type statusHandler struct {
	*chi.Mux
	client *mosaicc.Client
}

func newStatusHandler(client *mosaicc.Client) *statusHandler {
	h := &statusHandler{
		Mux:    chi.NewRouter(),
		client: client,
	}

	h.Use(hrt.Use(hrt.Opts{
		Encoder: hrt.CombinedEncoder{
			Encoder: hrt.JSONEncoder,
			Decoder: hrt.URLDecoder,
		},
		ErrorWriter: hrt.TextErrorWriter,
	}))

	h.Get("/status", hrt.Wrap(h.getStatus))

	return h
}

type statusRequest struct{}

func (h *statusHandler) getStatus(ctx context.Context, _ statusRequest) (mosaicc.Status, error) {
	return h.client.Status(), nil
}
