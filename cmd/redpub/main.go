// Package main runs the redpub service: an HTTP API that publishes image
// notes to the Xiaohongshu creator platform through a controlled browser,
// with LLM-backed content refinement.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/creatorkit/redpub/pkg/api"
	"github.com/creatorkit/redpub/pkg/auth"
	"github.com/creatorkit/redpub/pkg/bridge"
	"github.com/creatorkit/redpub/pkg/browser"
	"github.com/creatorkit/redpub/pkg/config"
	"github.com/creatorkit/redpub/pkg/llm/openai"
	"github.com/creatorkit/redpub/pkg/logging"
	"github.com/creatorkit/redpub/pkg/paths"
	"github.com/creatorkit/redpub/pkg/publish"
	"github.com/creatorkit/redpub/pkg/refine"
)

const version = "0.1.0"

func main() {
	// A missing .env is fine; explicit environment wins either way.
	_ = godotenv.Load()

	svc := config.DefaultService()
	flag.StringVar(&svc.Addr, "addr", svc.Addr, "HTTP listen address")
	flag.StringVar(&svc.DataDir, "data-dir", svc.DataDir, "credential artifact directory")
	flag.StringVar(&svc.ProjectRoot, "project-root", svc.ProjectRoot, "root for output/ and history/ image directories")
	flag.StringVar(&svc.ProvidersFile, "providers", svc.ProvidersFile, "text provider configuration file")
	flag.BoolVar(&svc.Headless, "headless", svc.Headless, "run the browser without a window (QR login needs a window)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("redpub v%s\n", version)
		return
	}

	if err := run(svc); err != nil {
		fmt.Fprintf(os.Stderr, "redpub: %v\n", err)
		os.Exit(1)
	}
}

func run(svc config.Service) error {
	log, err := logging.NewLogger("main")
	if err != nil {
		fmt.Fprintf(os.Stderr, "file logging unavailable: %v\n", err)
	}
	defer log.Close()

	manager := browser.NewManager(browser.Options{
		DataDir:  svc.DataDir,
		Headless: svc.Headless,
	}, nil)

	resolver := paths.NewResolver(svc.ProjectRoot)

	b := bridge.New()
	defer b.Stop()

	authSvc := auth.NewService(manager, nil)
	publisher := publish.New(manager, resolver, nil)
	refiner := buildRefiner(svc.ProvidersFile, log)

	handler := api.NewHandler(b, authSvc, publisher, refiner, nil)
	server := &http.Server{
		Addr:    svc.Addr,
		Handler: api.NewRouter(handler),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", svc.Addr)
		fmt.Printf("redpub v%s listening on %s\n", version, svc.Addr)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("server shutdown: %v", err)
	}

	// The browser teardown must run on the bridge like every other browser
	// operation.
	if _, err := b.Do(func() (interface{}, error) {
		return nil, manager.CloseCurrent()
	}); err != nil {
		log.Warnf("browser close: %v", err)
	}

	return nil
}

// buildRefiner wires the content refinement service from the provider
// configuration. Refinement is optional: when no provider is usable the
// service runs with the refine routes disabled.
func buildRefiner(providersFile string, log *logging.Logger) api.Refiner {
	providers, err := config.LoadTextProviders(providersFile)
	if err != nil {
		log.Warnf("provider config unusable, refinement disabled: %v", err)
		return nil
	}

	active, err := providers.Active()
	if err != nil {
		log.Warnf("no active text provider, refinement disabled: %v", err)
		return nil
	}

	provider, err := openai.NewProvider(active.APIKey,
		openai.WithModel(active.Model),
		openai.WithBaseURL(active.BaseURL),
	)
	if err != nil {
		log.Warnf("text provider init failed, refinement disabled: %v", err)
		return nil
	}

	return refine.NewService(provider, active, nil)
}
