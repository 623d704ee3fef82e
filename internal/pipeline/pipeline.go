// Package pipeline orchestrates one client's ingestion run: inventory,
// images, movement history, derived analytics and persistence, as nine
// strictly ordered stages with live progress reporting.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stocklens/stocklens/internal/analytics"
	"github.com/stocklens/stocklens/internal/classify"
	"github.com/stocklens/stocklens/internal/cooccur"
	"github.com/stocklens/stocklens/internal/fetch"
	"github.com/stocklens/stocklens/internal/history"
	"github.com/stocklens/stocklens/internal/model"
	"github.com/stocklens/stocklens/internal/registry"
	"github.com/stocklens/stocklens/internal/transform"
)

// Gateway is the slice of the remote API the pipeline consumes.
type Gateway interface {
	ListInventory(ctx context.Context, clientID int) ([]model.InventoryItem, error)
	GetHistory(ctx context.Context, clientID, productID int) ([]model.HistoryEvent, error)
	GetStock(ctx context.Context, productID int) (*float64, error)
	FetchImage(ctx context.Context, photoRef string) ([]byte, error)
}

// Client identifies one tenant of the remote system.
type Client struct {
	ID   int
	Name string
}

// Options tunes a pipeline run.
type Options struct {
	// DataDir is the root under which each client gets its own output
	// directory, recreated from scratch at run start.
	DataDir          string
	FetchConcurrency int
	TransformWorkers int

	// FlagshipClient gets the site-scoped analytics treatment: only
	// FlagshipSite events count and disposal locations are excluded.
	FlagshipClient string
	FlagshipSite   string
}

// Pipeline runs the nine ingestion stages for one client at a time.
type Pipeline struct {
	gw       Gateway
	store    history.Repository
	registry registry.Registry
	observer Observer
	logger   *zap.Logger
	opts     Options

	// now is swapped in tests to pin obsolescence figures.
	now func() time.Time
}

func New(gw Gateway, store history.Repository, reg registry.Registry, observer Observer, logger *zap.Logger, opts Options) *Pipeline {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Pipeline{
		gw:       gw,
		store:    store,
		registry: reg,
		observer: observer,
		logger:   logger.Named("pipeline"),
		opts:     opts,
		now:      time.Now,
	}
}

// Run executes all stages for one client. A failed stage stops the run
// and the partial TaskState is returned; only hard errors (store writes,
// gateway failures, cancellation) come back as non-nil error. An empty
// inventory fails the first stage without an error: there is nothing to
// ingest, but nothing broke either.
func (p *Pipeline) Run(ctx context.Context, client Client) (TaskState, error) {
	state := newTaskState(uuid.NewString(), client.Name)
	p.notify(&state)

	log := p.logger.With(zap.String("client", client.Name), zap.String("run_id", state.RunID))
	log.Info("starting ingestion run")

	outDir := filepath.Join(p.opts.DataDir, model.NormalizeDesignation(client.Name))
	if err := os.RemoveAll(outDir); err != nil {
		p.fail(&state, stageInventory)
		return state, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		p.fail(&state, stageInventory)
		return state, err
	}

	// Stage 1: inventory.
	p.start(&state, stageInventory, 0)
	items, err := p.gw.ListInventory(ctx, client.ID)
	if err != nil {
		p.fail(&state, stageInventory)
		return state, err
	}
	for i := range items {
		items[i].Designation = model.NormalizeDesignation(items[i].Designation)
	}
	if len(items) == 0 {
		log.Warn("inventory is empty, aborting run")
		p.fail(&state, stageInventory)
		return state, nil
	}
	p.finish(&state, stageInventory, len(items))

	// Stage 2: image fetch.
	if err := p.checkCancelled(ctx, &state, stageImageFetch); err != nil {
		return state, err
	}
	if err := p.runImageFetch(ctx, &state, items, outDir); err != nil {
		return state, err
	}

	// Stage 3: image transform.
	if err := p.checkCancelled(ctx, &state, stageImageTransform); err != nil {
		return state, err
	}
	if err := p.runImageTransform(ctx, &state, items, outDir); err != nil {
		return state, err
	}

	// Stage 4: history fetch.
	if err := p.checkCancelled(ctx, &state, stageHistoryFetch); err != nil {
		return state, err
	}
	labeled, stocks, err := p.runHistoryFetch(ctx, &state, client, items, outDir)
	if err != nil {
		p.fail(&state, stageHistoryFetch)
		return state, err
	}

	filter := analytics.KeepAll
	if client.Name == p.opts.FlagshipClient {
		filter = analytics.SiteExitFilter(p.opts.FlagshipSite)
	}

	// Stage 5: zero-exit list.
	if err := p.checkCancelled(ctx, &state, stageZeroExit); err != nil {
		return state, err
	}
	p.start(&state, stageZeroExit, 1)
	zero := analytics.ZeroExit(labeled, filter)
	if err := writeZeroExitCSV(filepath.Join(outDir, "zero_sortie.csv"), zero); err != nil {
		p.fail(&state, stageZeroExit)
		return state, err
	}
	p.finish(&state, stageZeroExit, 1)

	// Stage 6: utility rate.
	if err := p.checkCancelled(ctx, &state, stageUtilityRate); err != nil {
		return state, err
	}
	p.start(&state, stageUtilityRate, 1)
	rates := analytics.UtilityRate(labeled, filter)
	if err := writeRatesCSV(filepath.Join(outDir, "sorties_par_produit_trie.csv"), rates); err != nil {
		p.fail(&state, stageUtilityRate)
		return state, err
	}
	p.finish(&state, stageUtilityRate, 1)

	// Stage 7: obsolescence.
	if err := p.checkCancelled(ctx, &state, stageObsolescence); err != nil {
		return state, err
	}
	p.start(&state, stageObsolescence, 1)
	ages := analytics.Obsolescence(labeled, p.now())
	p.finish(&state, stageObsolescence, 1)

	// Stage 8: co-occurrence.
	if err := p.checkCancelled(ctx, &state, stageCooccurrence); err != nil {
		return state, err
	}
	p.start(&state, stageCooccurrence, 1)
	var exits []model.HistoryEvent
	for _, e := range labeled {
		if e.Direction == model.Exit && filter(e) {
			exits = append(exits, e)
		}
	}
	if matrix := cooccur.Analyze(exits); matrix != nil {
		if err := writeJSON(filepath.Join(outDir, "cooccurrence.json"), matrix); err != nil {
			p.fail(&state, stageCooccurrence)
			return state, err
		}
	}
	p.finish(&state, stageCooccurrence, 1)

	// Stage 9: persist.
	if err := p.checkCancelled(ctx, &state, stagePersist); err != nil {
		return state, err
	}
	p.start(&state, stagePersist, 1)
	if err := p.persist(ctx, client, outDir, items, labeled, ages, rates, stocks); err != nil {
		p.fail(&state, stagePersist)
		return state, err
	}
	p.finish(&state, stagePersist, 1)

	log.Info("ingestion run complete",
		zap.Int("products", len(items)),
		zap.Int("movements", len(labeled)))
	return state, nil
}

func (p *Pipeline) runImageFetch(ctx context.Context, state *TaskState, items []model.InventoryItem, outDir string) error {
	imagesDir := filepath.Join(outDir, "images")

	var jobs []fetch.Job[int, struct{}]
	for _, item := range items {
		if item.PhotoRef == nil {
			continue
		}
		ref := *item.PhotoRef
		dst := filepath.Join(imagesDir, item.Designation+".jpg")
		jobs = append(jobs, fetch.Job[int, struct{}]{
			Key: item.ProductID,
			Run: func(ctx context.Context) (struct{}, error) {
				data, err := p.gw.FetchImage(ctx, ref)
				if err != nil {
					return struct{}{}, err
				}
				if err := os.MkdirAll(imagesDir, 0o755); err != nil {
					return struct{}{}, err
				}
				return struct{}{}, os.WriteFile(dst, data, 0o644)
			},
		})
	}

	p.start(state, stageImageFetch, len(jobs))
	fetch.Run(ctx, p.opts.FetchConcurrency, jobs, p.progress(state, stageImageFetch), p.logger)
	// A batch drained under cancellation is not a finished stage; the
	// skipped jobs never ran.
	if err := ctx.Err(); err != nil {
		p.fail(state, stageImageFetch)
		return err
	}
	p.finish(state, stageImageFetch, len(jobs))
	return nil
}

func (p *Pipeline) runImageTransform(ctx context.Context, state *TaskState, items []model.InventoryItem, outDir string) error {
	var jobs []transform.Job
	for _, item := range items {
		if item.PhotoRef == nil {
			continue
		}
		jobs = append(jobs, transform.Job{
			Src: filepath.Join(outDir, "images", item.Designation+".jpg"),
			Dst: filepath.Join(outDir, "images_webp", item.Designation+".webp"),
		})
	}

	p.start(state, stageImageTransform, len(jobs))
	pool := transform.NewPool(p.opts.TransformWorkers, p.logger)
	pool.Run(ctx, jobs, transform.WebP, p.progress(state, stageImageTransform))
	if err := ctx.Err(); err != nil {
		p.fail(state, stageImageTransform)
		return err
	}
	p.finish(state, stageImageTransform, len(jobs))
	return nil
}

type productData struct {
	events []model.HistoryEvent
	stock  *float64
}

func (p *Pipeline) runHistoryFetch(ctx context.Context, state *TaskState, client Client, items []model.InventoryItem, outDir string) ([]model.HistoryEvent, model.StockSnapshot, error) {
	byProduct := make(map[int]model.InventoryItem, len(items))
	var productIDs []int
	for _, item := range items {
		if _, seen := byProduct[item.ProductID]; seen {
			continue
		}
		byProduct[item.ProductID] = item
		productIDs = append(productIDs, item.ProductID)
	}

	jobs := make([]fetch.Job[int, productData], 0, len(productIDs))
	for _, productID := range productIDs {
		jobs = append(jobs, fetch.Job[int, productData]{
			Key: productID,
			Run: func(ctx context.Context) (productData, error) {
				events, err := p.gw.GetHistory(ctx, client.ID, productID)
				if err != nil {
					return productData{}, err
				}
				stock, err := p.gw.GetStock(ctx, productID)
				if err != nil {
					// Stock is decoration; losing it must not cost the history.
					p.logger.Warn("stock lookup failed",
						zap.Int("prod_id", productID), zap.Error(err))
					stock = nil
				}
				return productData{events: events, stock: stock}, nil
			},
		})
	}

	p.start(state, stageHistoryFetch, len(jobs))
	results := fetch.Run(ctx, p.opts.FetchConcurrency, jobs, p.progress(state, stageHistoryFetch), p.logger)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	stocks := make(model.StockSnapshot, len(results))
	var events []model.HistoryEvent
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		item := byProduct[res.Key]
		stocks[res.Key] = res.Value.stock
		for _, e := range res.Value.events {
			e.Designation = item.Designation
			e.ClientName = client.Name
			e.ClientID = client.ID
			e.StockVolume = res.Value.stock
			events = append(events, e)
		}
	}

	if err := writeStockVolumeJSON(filepath.Join(outDir, "stock_volume.json"), state.RunID, client, p.now(), byProduct, stocks); err != nil {
		return nil, nil, err
	}

	events = cleanEvents(events, p.opts.FlagshipSite)
	sort.SliceStable(events, func(a, b int) bool {
		if !events[a].EventDate.Equal(events[b].EventDate) {
			return events[a].EventDate.Before(events[b].EventDate)
		}
		return events[a].Seq < events[b].Seq
	})

	p.finish(state, stageHistoryFetch, len(jobs))
	return classify.Label(events), stocks, nil
}

// cleanEvents drops rows pointing at the undefined location and fills in
// the blank site of warehouse rows.
func cleanEvents(events []model.HistoryEvent, fallbackSite string) []model.HistoryEvent {
	kept := events[:0]
	for _, e := range events {
		if strings.EqualFold(strings.TrimSpace(e.Location), "NON DEFINI") {
			continue
		}
		if strings.TrimSpace(e.Site) == "" && strings.HasPrefix(strings.TrimSpace(e.Location), "STOCK") {
			e.Site = fallbackSite
		}
		kept = append(kept, e)
	}
	return kept
}

func (p *Pipeline) persist(ctx context.Context, client Client, outDir string, items []model.InventoryItem, labeled []model.HistoryEvent, ages []analytics.ProductAge, rates []analytics.ProductRate, stocks model.StockSnapshot) error {
	if err := p.store.Upsert(ctx, client.ID, labeled); err != nil {
		return err
	}

	// The per-client history artifact shares the merged store's schema;
	// the directory is fresh, so this writes exactly one generation.
	if err := writeHistoryCSV(ctx, filepath.Join(outDir, "history.csv"), client.ID, labeled); err != nil {
		return err
	}
	if err := writeInventoryCSV(filepath.Join(outDir, "inventaire.csv"), items); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, "data.json"), analytics.WebDataset(ages, rates, items, stocks)); err != nil {
		return err
	}
	return p.registry.Register(client.Name)
}

func (p *Pipeline) checkCancelled(ctx context.Context, state *TaskState, stage int) error {
	if err := ctx.Err(); err != nil {
		p.fail(state, stage)
		return err
	}
	return nil
}

// progress is invoked from the pools' single aggregator goroutine while
// the orchestrator is blocked on the batch, so the state is never
// mutated from two goroutines at once.
func (p *Pipeline) progress(state *TaskState, stage int) fetch.ProgressFunc {
	return func(done, total int) {
		state.Stages[stage].Done = done
		state.Stages[stage].Total = total
		p.notify(state)
	}
}

func (p *Pipeline) start(state *TaskState, stage, total int) {
	state.Stages[stage].Status = StageRunning
	state.Stages[stage].Total = total
	p.notify(state)
}

func (p *Pipeline) finish(state *TaskState, stage, total int) {
	state.Stages[stage].Status = StageDone
	state.Stages[stage].Done = total
	state.Stages[stage].Total = total
	p.notify(state)
}

func (p *Pipeline) fail(state *TaskState, stage int) {
	state.Stages[stage].Status = StageFailed
	p.notify(state)
}

func (p *Pipeline) notify(state *TaskState) {
	p.observer.Update(state.Client, state.Clone())
}
