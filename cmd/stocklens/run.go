package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stocklens/stocklens/config"
	"github.com/stocklens/stocklens/internal/gateway"
	"github.com/stocklens/stocklens/internal/history"
	"github.com/stocklens/stocklens/internal/history/repository"
	"github.com/stocklens/stocklens/internal/logging"
	"github.com/stocklens/stocklens/internal/model"
	"github.com/stocklens/stocklens/internal/pipeline"
	"github.com/stocklens/stocklens/internal/registry"
	"github.com/stocklens/stocklens/internal/render"
)

func newRunCommand() *cobra.Command {
	var (
		runAll     bool
		clientName string
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest one client, several, or all known clients",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngestion(cmd.Context(), runAll, clientName, quiet)
		},
	}
	cmd.Flags().BoolVar(&runAll, "all", false, "run every known client")
	cmd.Flags().StringVar(&clientName, "client", "", "run a single client by name")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "disable the live task table")
	return cmd
}

func runIngestion(parent context.Context, runAll bool, clientName string, quiet bool) error {
	cfg := config.LoadEnv()
	logger := logging.NewZapLogger(cfg.Logger, cfg.App.Env)
	defer logger.Sync()

	roster, err := parseRoster(cfg.Pipeline.Clients)
	if err != nil {
		return err
	}
	if len(roster) == 0 {
		return errors.New("no clients configured, set CLIENTS to NAME:ID pairs")
	}

	reg := registry.NewJSONFile(filepath.Join(cfg.App.DataDir, "clients.json"))
	clients, err := selectClients(roster, reg, runAll, clientName)
	if err != nil || len(clients) == 0 {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := gateway.NewEnvAuthenticator(cfg.Gateway).Authenticate(ctx)
	if err != nil {
		return err
	}
	gw := gateway.NewClient(cfg.Gateway, sess, logger)

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	var observer pipeline.Observer
	if !quiet {
		observer = render.NewTaskTable(os.Stdout)
	}

	pipe := pipeline.New(gw, store, reg, observer, logger, pipeline.Options{
		DataDir:          cfg.App.DataDir,
		FetchConcurrency: cfg.Pipeline.FetchConcurrency,
		TransformWorkers: cfg.Pipeline.TransformWorkers,
		FlagshipClient:   cfg.Pipeline.FlagshipClient,
		FlagshipSite:     cfg.Pipeline.FlagshipSite,
	})

	failed := 0
	for _, client := range clients {
		state, err := pipe.Run(ctx, client)
		switch {
		case errors.Is(err, context.Canceled):
			logger.Warn("run interrupted", zap.String("client", client.Name))
			return nil
		case err != nil || state.Failed():
			// One broken client must not cost the others their run.
			failed++
			logger.Error("client run failed",
				zap.String("client", client.Name), zap.Error(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d client runs failed", failed, len(clients))
	}
	return nil
}

func newStore(cfg *config.Config) (history.Repository, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return repository.NewSQLite(cfg.Storage.SQLitePath)
	case "csv":
		return repository.NewCSV(filepath.Join(cfg.App.DataDir, "merged_history.csv")), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// parseRoster reads the CLIENTS setting: comma-separated NAME:ID pairs.
// The remote system cannot enumerate its tenants, so the roster is
// provisioned by hand.
func parseRoster(raw string) ([]pipeline.Client, error) {
	var roster []pipeline.Client
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, idRaw, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("malformed CLIENTS entry %q, want NAME:ID", pair)
		}
		id, err := strconv.Atoi(strings.TrimSpace(idRaw))
		if err != nil {
			return nil, fmt.Errorf("malformed CLIENTS entry %q: %w", pair, err)
		}
		roster = append(roster, pipeline.Client{ID: id, Name: strings.TrimSpace(name)})
	}
	return roster, nil
}

func selectClients(roster []pipeline.Client, reg registry.Registry, runAll bool, clientName string) ([]pipeline.Client, error) {
	if clientName != "" {
		for _, c := range roster {
			if strings.EqualFold(c.Name, clientName) ||
				model.NormalizeDesignation(c.Name) == model.NormalizeDesignation(clientName) {
				return []pipeline.Client{c}, nil
			}
		}
		return nil, fmt.Errorf("unknown client %q", clientName)
	}

	if runAll {
		return knownClients(roster, reg)
	}
	return promptSelection(roster)
}

// knownClients resolves the registry's names through the roster. A fresh
// installation with an empty registry falls back to the whole roster.
func knownClients(roster []pipeline.Client, reg registry.Registry) ([]pipeline.Client, error) {
	names, err := reg.List()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return roster, nil
	}

	byName := make(map[string]pipeline.Client, len(roster))
	for _, c := range roster {
		byName[model.NormalizeDesignation(c.Name)] = c
	}
	var clients []pipeline.Client
	for _, name := range names {
		if c, ok := byName[name]; ok {
			clients = append(clients, c)
		}
	}
	return clients, nil
}

func promptSelection(roster []pipeline.Client) ([]pipeline.Client, error) {
	fmt.Println("Clients:")
	for i, c := range roster {
		fmt.Printf("  %d. %s\n", i+1, c.Name)
	}
	fmt.Print("Pick a client (0 = all, q = quit): ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return nil, scanner.Err()
	}
	answer := strings.TrimSpace(scanner.Text())
	switch {
	case strings.EqualFold(answer, "q"):
		return nil, nil
	case answer == "0":
		return roster, nil
	}

	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(roster) {
		return nil, fmt.Errorf("invalid selection %q", answer)
	}
	return []pipeline.Client{roster[n-1]}, nil
}
