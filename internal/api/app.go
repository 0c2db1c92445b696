package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hookstate/internal/flow"

	log "github.com/sirupsen/logrus"
)

// RunServer runs the HTTP server exposing the `/hook` endpoint. This is a blocking call.
func RunServer(port int, deps flow.Deps) {
	srv := newServer(port, deps)
	log.Printf("hookstate listening on %s\n", srv.Addr)
	log.Fatal(srv.ListenAndServe())
}

// RunServerInterruptible runs the server in the background in a Go routine and immediately returns a chan to
// the caller. The caller can then send a signal to the chan to gracefully shutdown the server.
// It's up to the caller to wait for in the main Go routine to keep the server running.
func RunServerInterruptible(port int, deps flow.Deps) (stop chan<- struct{}, done <-chan error) {
	srv := newServer(port, deps)

	stopCh := make(chan struct{})
	doneCh := make(chan error, 1)

	go func() {
		log.Printf("hookstate listening on %s\n", srv.Addr)
		err := srv.ListenAndServe()
		// http.ErrServerClosed is returned on Shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			doneCh <- err
			return
		}
		doneCh <- nil
	}()

	go func() {
		<-stopCh
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	return stopCh, doneCh
}

func newServer(port int, deps flow.Deps) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewHandler(deps).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
