package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"cartograph/internal/artifact"
	"cartograph/internal/batch"
	analysiscache "cartograph/internal/cache/analysis"
	"cartograph/internal/cache/runstore"
	"cartograph/internal/cache/snapshot"
	"cartograph/internal/events"
	"cartograph/internal/llm"
	"cartograph/internal/parser"
	"cartograph/internal/server"
	"cartograph/internal/summarizer"
	"cartograph/internal/watch"
)

func newServeCmd() *cobra.Command {
	var (
		addr     string
		watchDir string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the analysis dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runServe(cmd.Context(), addr, watchDir)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":5001", "listen address")
	cmd.Flags().StringVar(&watchDir, "watch", "", "re-analyze this directory whenever its files change")
	return cmd
}

func runServe(ctx context.Context, addr, watchDir string) error {
	snaps, err := snapshot.Open("")
	if err != nil {
		log.Printf("snapshot cache unavailable: %v", err)
	}
	defer snaps.Close()

	cache, err := analysiscache.New(0)
	if err != nil {
		return err
	}
	hub := events.NewHub()
	analyzer := batch.New(parser.New(), snaps, hub)

	var summ *summarizer.Summarizer
	if client, err := llm.NewFromEnv(ctx); err == nil {
		defer client.Close()
		summ = summarizer.New(client)
		log.Printf("AI enabled via %s", client.Name())
	} else {
		log.Printf("AI disabled: %v", err)
	}

	runs := runstore.NewFromEnv(".cartograph/runs.json")
	defer runs.Close()

	artifacts, err := artifact.New(artifact.ConfigFromEnv())
	if err != nil {
		log.Printf("artifact store disabled: %v", err)
	}

	srv := server.New(analyzer, cache, hub, summ, runs, artifacts)

	if watchDir != "" {
		if _, err := os.Stat(watchDir); err != nil {
			return fmt.Errorf("watch dir: %w", err)
		}
		projectID := uuid.NewString()
		go srv.RunAnalysis(ctx, projectID, watchDir, nil, summ != nil)

		w, err := watch.New(watchDir, watch.Options{})
		if err != nil {
			return fmt.Errorf("watch %s: %w", watchDir, err)
		}
		defer w.Close()
		go func() {
			err := w.Run(ctx, func() {
				log.Printf("change detected, re-analyzing %s", watchDir)
				srv.RunAnalysis(ctx, projectID, watchDir, nil, summ != nil)
			})
			if err != nil && ctx.Err() == nil {
				log.Printf("watch stopped: %v", err)
			}
		}()
		log.Printf("watching %s as project %s", watchDir, projectID)
	}

	log.Printf("Starting Code Cartographer API on %s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
