// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ranqr/internal/adapters/audit"
	"github.com/okian/ranqr/internal/adapters/repository"
	"github.com/okian/ranqr/internal/domain/controversy"
	"github.com/okian/ranqr/internal/domain/ledger"
	"github.com/okian/ranqr/internal/domain/matchup"
	"github.com/okian/ranqr/internal/domain/model"
	"github.com/okian/ranqr/internal/domain/ranking"
	"github.com/okian/ranqr/internal/domain/triangle"
	"github.com/okian/ranqr/internal/domain/types"
	"github.com/okian/ranqr/pkg/logger"
	"github.com/okian/ranqr/pkg/metrics"
)

// exportVersion is the envelope version Export writes and Import accepts.
const exportVersion = 1

// youtubeID matches a bare YouTube video id so media links can be
// submitted as either a full URL or just the id.
var youtubeID = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// Service implements the API dependencies for the ranking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	selector   *matchup.Selector
	auditQueue audit.Queue
	auditPool  *audit.Pool
	locks      *collectionLocks

	// Configuration
	dbPath           string
	auditQueueSize   int
	auditWorkerCount int
	auditInterval    time.Duration
	topLimit         int

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		selector:         matchup.NewSelector(),
		locks:            newCollectionLocks(),
		dbPath:           "ranqr.db",
		auditQueueSize:   1024,
		auditWorkerCount: runtime.NumCPU(),
		auditInterval:    5 * time.Minute,
		topLimit:         20,
		stopCh:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting ranking service...")

	if s.store == nil {
		store, err := repository.OpenSQLite(s.dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.logger.Info(ctx, "using sqlite store", logger.String("path", s.dbPath))
	}

	s.auditQueue = audit.NewInMemoryQueue(audit.WithCapacity(s.auditQueueSize))
	s.auditPool = audit.NewPool(s.auditWorkerCount, s.auditQueue, s.store, s.locks)
	s.auditPool.Start(ctx)

	if s.auditInterval > 0 {
		go s.auditSweep(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("auditWorkers", s.auditWorkerCount),
		logger.Int("auditQueueSize", s.auditQueueSize),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping ranking service...")

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	if s.auditPool != nil {
		_ = s.auditPool.Shutdown(ctx)
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "ranking service stopped")
}

// auditSweep periodically schedules a point audit for every collection.
func (s *Service) auditSweep(ctx context.Context) {
	ticker := time.NewTicker(s.auditInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			summaries, err := s.store.Collections(ctx)
			if err != nil {
				s.logger.Error(ctx, "audit sweep failed to list collections", logger.Error(err))
				continue
			}
			for _, sum := range summaries {
				s.auditQueue.Enqueue(ctx, audit.Request{CollectionID: sum.Collection.ID})
			}
		}
	}
}

// requestAudit queues a best-effort point audit for one collection.
func (s *Service) requestAudit(ctx context.Context, collectionID int64) {
	if s.auditQueue == nil {
		return
	}
	if !s.auditQueue.Enqueue(ctx, audit.Request{CollectionID: collectionID}) {
		s.logger.Debug(ctx, "audit queue full, skipping",
			logger.Int64("collectionID", collectionID))
	}
}

// CreateCollection persists a new, empty collection.
func (s *Service) CreateCollection(ctx context.Context, name, searchPrefix string) (types.Collection, error) {
	if name == "" {
		return types.Collection{}, ErrEmptyName
	}
	c, err := s.store.CreateCollection(ctx, name, searchPrefix)
	if err != nil {
		return types.Collection{}, err
	}
	s.logger.Info(ctx, "collection created",
		logger.Int64("id", c.ID),
		logger.String("name", c.Name),
	)
	return types.Collection{
		ID:           c.ID,
		Name:         c.Name,
		SearchPrefix: c.SearchPrefix,
		CreatedAt:    c.CreatedAt,
	}, nil
}

// ListCollections returns every collection with aggregate counts.
func (s *Service) ListCollections(ctx context.Context) ([]types.Collection, error) {
	summaries, err := s.store.Collections(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.Collection, len(summaries))
	for i, sum := range summaries {
		out[i] = types.Collection{
			ID:              sum.Collection.ID,
			Name:            sum.Collection.Name,
			SearchPrefix:    sum.Collection.SearchPrefix,
			ItemCount:       sum.ItemCount,
			ComparisonCount: sum.ComparisonCount,
			CreatedAt:       sum.Collection.CreatedAt,
		}
	}
	return out, nil
}

// GetCollection returns one collection with its items in ranked order.
func (s *Service) GetCollection(ctx context.Context, id int64) (types.CollectionDetail, error) {
	c, err := s.store.Collection(ctx, id)
	if err != nil {
		return types.CollectionDetail{}, err
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	items, comps, err := s.loadState(ctx, id)
	if err != nil {
		return types.CollectionDetail{}, err
	}

	ordered := ranking.Order(items, comps)
	views := make([]types.Item, len(ordered))
	for i, r := range ordered {
		views[i] = itemView(r.Item, r.SubScores)
	}
	return types.CollectionDetail{
		ID:              c.ID,
		Name:            c.Name,
		SearchPrefix:    c.SearchPrefix,
		Items:           views,
		ComparisonCount: len(comps),
		CreatedAt:       c.CreatedAt,
	}, nil
}

// UpdateCollection applies the non-nil fields.
func (s *Service) UpdateCollection(ctx context.Context, id int64, name, searchPrefix *string) (types.Collection, error) {
	if name != nil && *name == "" {
		return types.Collection{}, ErrEmptyName
	}
	c, err := s.store.UpdateCollection(ctx, id, repository.CollectionUpdate{
		Name:         name,
		SearchPrefix: searchPrefix,
	})
	if err != nil {
		return types.Collection{}, err
	}
	return types.Collection{
		ID:           c.ID,
		Name:         c.Name,
		SearchPrefix: c.SearchPrefix,
		CreatedAt:    c.CreatedAt,
	}, nil
}

// DeleteCollection removes the collection and everything under it.
func (s *Service) DeleteCollection(ctx context.Context, id int64) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)
	return s.store.DeleteCollection(ctx, id)
}

// AddItems creates items under a collection. Duplicate names are
// skipped; the created items are returned.
func (s *Service) AddItems(ctx context.Context, collectionID int64, names []string, mediaLinks []string) ([]types.Item, error) {
	if len(names) == 0 {
		return nil, ErrEmptyName
	}
	inputs := make([]repository.NewItem, 0, len(names))
	for i, name := range names {
		if name == "" {
			continue
		}
		in := repository.NewItem{Name: name}
		if i < len(mediaLinks) {
			in.MediaLink = normalizeMediaLink(mediaLinks[i])
		}
		inputs = append(inputs, in)
	}
	if len(inputs) == 0 {
		return nil, ErrEmptyName
	}

	s.locks.Lock(collectionID)
	defer s.locks.Unlock(collectionID)

	created, err := s.store.AddItems(ctx, collectionID, inputs)
	if err != nil {
		return nil, err
	}
	out := make([]types.Item, len(created))
	for i, it := range created {
		out[i] = itemView(it, nil)
	}
	s.logger.Info(ctx, "items added",
		logger.Int64("collectionID", collectionID),
		logger.Int("count", len(out)),
	)
	return out, nil
}

// GetItem returns one item.
func (s *Service) GetItem(ctx context.Context, id int64) (types.Item, error) {
	it, err := s.store.Item(ctx, id)
	if err != nil {
		return types.Item{}, err
	}
	return itemView(it, nil), nil
}

// UpdateItem applies the non-nil fields. A media link given as a bare
// YouTube video id is expanded to the full watch URL.
func (s *Service) UpdateItem(ctx context.Context, id int64, name, mediaLink *string) (types.Item, error) {
	if name != nil && *name == "" {
		return types.Item{}, ErrEmptyName
	}
	if mediaLink != nil {
		normalized := normalizeMediaLink(*mediaLink)
		mediaLink = &normalized
	}
	it, err := s.store.UpdateItem(ctx, id, repository.ItemUpdate{
		Name:      name,
		MediaLink: mediaLink,
	})
	if err != nil {
		return types.Item{}, err
	}
	return itemView(it, nil), nil
}

// DeleteItem removes the item, its comparisons, and their point
// effects on the remaining items.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	it, err := s.store.Item(ctx, id)
	if err != nil {
		return err
	}

	s.locks.Lock(it.CollectionID)
	defer s.locks.Unlock(it.CollectionID)

	items, comps, err := s.loadState(ctx, it.CollectionID)
	if err != nil {
		return err
	}
	snap := model.NewSnapshot(items, comps)
	if _, err := ledger.RemoveAllForItem(snap, id); err != nil {
		return err
	}

	// Opponents keep their corrected totals; the item row and its
	// comparisons go away together.
	points := make(map[int64]int, len(items))
	for _, other := range items {
		if other.ID != id {
			points[other.ID] = other.Points
		}
	}
	if err := s.store.UpdatePoints(ctx, points); err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.requestAudit(ctx, it.CollectionID)
	return nil
}

// ItemVotes returns the item's comparison history, oldest first.
func (s *Service) ItemVotes(ctx context.Context, itemID int64) ([]types.Vote, error) {
	it, err := s.store.Item(ctx, itemID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Items(ctx, it.CollectionID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*model.Item, len(items))
	for _, i := range items {
		byID[i.ID] = i
	}
	comps, err := s.store.ComparisonsInvolving(ctx, itemID)
	if err != nil {
		return nil, err
	}

	out := make([]types.Vote, 0, len(comps))
	for _, c := range comps {
		low, high := byID[c.Pair.Low], byID[c.Pair.High]
		if low == nil || high == nil {
			continue
		}
		out = append(out, types.Vote{
			ID:              c.ID,
			Item1ID:         low.ID,
			Item2ID:         high.ID,
			Item1Name:       low.Name,
			Item2Name:       high.Name,
			Result:          string(c.Outcome),
			VoteDescription: describeVote(c.Outcome, low, high),
			CreatedAt:       c.CreatedAt,
		})
	}
	return out, nil
}

// ResetItemVotes deletes every comparison involving the item, reverses
// their point effects, and returns how many were removed.
func (s *Service) ResetItemVotes(ctx context.Context, itemID int64) (int, error) {
	it, err := s.store.Item(ctx, itemID)
	if err != nil {
		return 0, err
	}

	s.locks.Lock(it.CollectionID)
	defer s.locks.Unlock(it.CollectionID)

	items, comps, err := s.loadState(ctx, it.CollectionID)
	if err != nil {
		return 0, err
	}
	snap := model.NewSnapshot(items, comps)

	var doomed []model.Pair
	for _, c := range comps {
		if c.Involves(itemID) {
			doomed = append(doomed, c.Pair)
		}
	}
	removed, err := ledger.RemoveAllForItem(snap, itemID)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, nil
	}

	points := make(map[int64]int, len(items))
	for _, other := range items {
		points[other.ID] = other.Points
	}
	if err := s.store.UpdatePoints(ctx, points); err != nil {
		return 0, err
	}
	if _, err := s.store.DeleteComparisons(ctx, it.CollectionID, doomed); err != nil {
		return 0, err
	}
	s.requestAudit(ctx, it.CollectionID)
	s.logger.Info(ctx, "item votes reset",
		logger.Int64("itemID", itemID),
		logger.Int("comparisons", removed),
	)
	return removed, nil
}

// NextMatchup picks the most informative uncompared pair. The second
// return is false when every pair has been compared.
func (s *Service) NextMatchup(ctx context.Context, collectionID int64) (types.Matchup, bool, error) {
	if _, err := s.store.Collection(ctx, collectionID); err != nil {
		return types.Matchup{}, false, err
	}

	s.locks.Lock(collectionID)
	defer s.locks.Unlock(collectionID)

	items, comps, err := s.loadState(ctx, collectionID)
	if err != nil {
		return types.Matchup{}, false, err
	}
	if len(items) < 2 {
		return types.Matchup{}, false, ErrNotEnoughItems
	}

	pair, ok := s.selector.Next(items, comps)
	if !ok {
		return types.Matchup{}, false, nil
	}
	metrics.RecordMatchupServed()
	return s.matchupView(items, pair), true, nil
}

// DirectMatchup serves a caller-chosen pair for voting.
func (s *Service) DirectMatchup(ctx context.Context, collectionID, aID, bID int64) (types.Matchup, error) {
	if _, err := s.store.Collection(ctx, collectionID); err != nil {
		return types.Matchup{}, err
	}
	items, err := s.store.Items(ctx, collectionID)
	if err != nil {
		return types.Matchup{}, err
	}
	pair, err := matchup.Direct(items, aID, bID)
	if err != nil {
		return types.Matchup{}, err
	}
	metrics.RecordMatchupServed()
	return s.matchupView(items, pair), nil
}

// SubmitVote records the outcome of a comparison. The result is
// expressed relative to the submitted item order and re-oriented to
// the canonical pair internally. Voting on an already-compared pair
// replaces the previous outcome.
func (s *Service) SubmitVote(ctx context.Context, collectionID, item1ID, item2ID int64, result string) (types.Vote, error) {
	start := time.Now()
	defer func() {
		metrics.RecordVoteLatency(float64(time.Since(start).Milliseconds()))
	}()

	pair, outcome, err := model.Orient(item1ID, item2ID, model.Outcome(result))
	if err != nil {
		return types.Vote{}, err
	}
	if !outcome.Valid() {
		return types.Vote{}, model.ErrUnknownOutcome
	}

	s.locks.Lock(collectionID)
	defer s.locks.Unlock(collectionID)

	items, comps, err := s.loadState(ctx, collectionID)
	if err != nil {
		return types.Vote{}, err
	}
	snap := model.NewSnapshot(items, comps)

	// Both endpoints must belong to this collection.
	if _, err := matchup.Direct(items, item1ID, item2ID); err != nil {
		return types.Vote{}, err
	}

	comp, err := ledger.Apply(snap, pair, outcome)
	if err != nil {
		return types.Vote{}, err
	}
	if err := s.store.UpsertComparison(ctx, comp); err != nil {
		return types.Vote{}, err
	}
	low, _ := snap.Item(pair.Low)
	high, _ := snap.Item(pair.High)
	if err := s.store.UpdatePoints(ctx, map[int64]int{
		low.ID:  low.Points,
		high.ID: high.Points,
	}); err != nil {
		return types.Vote{}, err
	}

	metrics.RecordVote(string(outcome))
	s.logger.Debug(ctx, "vote recorded",
		logger.Int64("collectionID", collectionID),
		logger.Int64("item1", pair.Low),
		logger.Int64("item2", pair.High),
		logger.String("result", string(outcome)),
	)
	return types.Vote{
		ID:              comp.ID,
		Item1ID:         low.ID,
		Item2ID:         high.ID,
		Item1Name:       low.Name,
		Item2Name:       high.Name,
		Result:          string(outcome),
		VoteDescription: describeVote(outcome, low, high),
		CreatedAt:       comp.CreatedAt,
	}, nil
}

// ScoreDistribution counts items per score at one tie-break depth.
func (s *Service) ScoreDistribution(ctx context.Context, collectionID int64, path []int) (types.ScoreDistribution, error) {
	if _, err := s.store.Collection(ctx, collectionID); err != nil {
		return types.ScoreDistribution{}, err
	}

	s.locks.Lock(collectionID)
	defer s.locks.Unlock(collectionID)

	items, comps, err := s.loadState(ctx, collectionID)
	if err != nil {
		return types.ScoreDistribution{}, err
	}
	return types.ScoreDistribution{
		Path:         path,
		Distribution: distributionView(items, comps, path),
	}, nil
}

// distributionView renders one histogram level as descending score
// buckets, nesting the next level inside each group whose members it
// distinguishes.
func distributionView(items []*model.Item, comps []*model.Comparison, path []int) []types.ScoreBucket {
	hist := ranking.Histogram(items, comps, path)
	scores := make([]int, 0, len(hist))
	for s := range hist {
		scores = append(scores, s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(scores)))

	buckets := make([]types.ScoreBucket, 0, len(scores))
	for _, score := range scores {
		b := types.ScoreBucket{Score: score, Count: hist[score]}
		next := append(append(make([]int, 0, len(path)+1), path...), score)
		sub := ranking.Histogram(items, comps, next)
		subScores := make([]int, 0, len(sub))
		for s := range sub {
			subScores = append(subScores, s)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(subScores)))
		for _, s := range subScores {
			b.SubScoreDistribution = append(b.SubScoreDistribution,
				types.SubScoreCount{SubScore: s, Count: sub[s]})
		}
		buckets = append(buckets, b)
	}
	return buckets
}

// Triangles returns every intransitive triple in the collection.
func (s *Service) Triangles(ctx context.Context, collectionID int64) ([]types.Triangle, error) {
	if _, err := s.store.Collection(ctx, collectionID); err != nil {
		return nil, err
	}

	s.locks.Lock(collectionID)
	defer s.locks.Unlock(collectionID)

	items, comps, err := s.loadState(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	found := triangle.Find(items, comps)
	metrics.UpdateTrianglesDetected(len(found))

	out := make([]types.Triangle, len(found))
	for i, t := range found {
		out[i] = types.Triangle{
			ItemA:      itemView(t.A, nil),
			ItemB:      itemView(t.B, nil),
			ItemC:      itemView(t.C, nil),
			Dissonance: t.Dissonance,
		}
	}
	return out, nil
}

// TriangleOptions enumerates the six resolutions for one triple.
func (s *Service) TriangleOptions(ctx context.Context, collectionID, aID, bID, cID int64) ([]types.TriangleOption, error) {
	if _, err := s.store.Collection(ctx, collectionID); err != nil {
		return nil, err
	}

	s.locks.Lock(collectionID)
	defer s.locks.Unlock(collectionID)

	items, comps, err := s.loadState(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	snap := model.NewSnapshot(items, comps)

	options, err := triangle.Options(snap, aID, bID, cID)
	if err != nil {
		return nil, err
	}
	out := make([]types.TriangleOption, len(options))
	for i, opt := range options {
		changes := make([]types.VoteChange, len(opt.Changes))
		for j, ch := range opt.Changes {
			changes[j] = types.VoteChange{
				Item1ID: ch.Pair.Low,
				Item2ID: ch.Pair.High,
				From:    string(ch.From),
				To:      string(ch.To),
			}
		}
		out[i] = types.TriangleOption{
			Resolution: types.Resolution{
				ItemAOrder: opt.Ordering.A,
				ItemBOrder: opt.Ordering.B,
				ItemCOrder: opt.Ordering.C,
			},
			Changes:          changes,
			DissonanceChange: opt.DissonanceChange,
			NewDissonance:    opt.NewDissonance,
		}
	}
	return out, nil
}

// ResolveTriangle rewrites a triple's comparisons to match the chosen
// ordering and persists the adjusted points.
func (s *Service) ResolveTriangle(ctx context.Context, collectionID, aID, bID, cID int64, res types.Resolution) ([]types.VoteChange, error) {
	if _, err := s.store.Collection(ctx, collectionID); err != nil {
		return nil, err
	}

	s.locks.Lock(collectionID)
	defer s.locks.Unlock(collectionID)

	items, comps, err := s.loadState(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	snap := model.NewSnapshot(items, comps)

	before := make(map[model.Pair]model.Outcome, len(comps))
	for _, cmp := range comps {
		before[cmp.Pair] = cmp.Outcome
	}
	affected, err := triangle.Resolve(snap, aID, bID, cID, triangle.Ordering{
		A: res.ItemAOrder,
		B: res.ItemBOrder,
		C: res.ItemCOrder,
	})
	if err != nil {
		return nil, err
	}

	points := make(map[int64]int, 3)
	var changes []types.VoteChange
	for _, comp := range affected {
		if err := s.store.UpsertComparison(ctx, comp); err != nil {
			return nil, err
		}
		low, _ := snap.Item(comp.Pair.Low)
		high, _ := snap.Item(comp.Pair.High)
		points[low.ID] = low.Points
		points[high.ID] = high.Points
		if prev, ok := before[comp.Pair]; !ok || prev != comp.Outcome {
			changes = append(changes, types.VoteChange{
				Item1ID: comp.Pair.Low,
				Item2ID: comp.Pair.High,
				From:    string(prev),
				To:      string(comp.Outcome),
			})
		}
	}
	if err := s.store.UpdatePoints(ctx, points); err != nil {
		return nil, err
	}

	metrics.RecordTriangleResolved()
	s.requestAudit(ctx, collectionID)
	s.logger.Info(ctx, "triangle resolved",
		logger.Int64("collectionID", collectionID),
		logger.Int64("itemA", aID),
		logger.Int64("itemB", bID),
		logger.Int64("itemC", cID),
	)
	return changes, nil
}

// Controversy reports the comparisons that contradict the standings.
func (s *Service) Controversy(ctx context.Context, collectionID int64) (types.ControversyReport, error) {
	if _, err := s.store.Collection(ctx, collectionID); err != nil {
		return types.ControversyReport{}, err
	}

	s.locks.Lock(collectionID)
	defer s.locks.Unlock(collectionID)

	items, comps, err := s.loadState(ctx, collectionID)
	if err != nil {
		return types.ControversyReport{}, err
	}

	report := controversy.Build(items, comps, s.topLimit)
	metrics.UpdateControversyScore(strconv.FormatInt(collectionID, 10), report.TotalControversy)

	top := make([]types.ControversialVote, len(report.Top))
	for i, e := range report.Top {
		top[i] = types.ControversialVote{
			VoteID:           e.Comparison.ID,
			Item1ID:          e.Item1.ID,
			Item2ID:          e.Item2.ID,
			Item1Name:        e.Item1.Name,
			Item2Name:        e.Item2.Name,
			Item1Points:      e.Item1.Points,
			Item2Points:      e.Item2.Points,
			Result:           string(e.Comparison.Outcome),
			VoteDescription:  e.Description,
			ControversyScore: e.Score,
		}
	}
	return types.ControversyReport{
		TotalControversy: report.TotalControversy,
		TotalCount:       report.TotalCount,
		TopVotes:         top,
	}, nil
}

// ExportCollection serializes a collection into a portable envelope.
// Items and votes travel by name so the envelope survives id changes.
func (s *Service) ExportCollection(ctx context.Context, collectionID int64) (types.Export, error) {
	c, err := s.store.Collection(ctx, collectionID)
	if err != nil {
		return types.Export{}, err
	}

	s.locks.Lock(collectionID)
	defer s.locks.Unlock(collectionID)

	items, comps, err := s.loadState(ctx, collectionID)
	if err != nil {
		return types.Export{}, err
	}
	names := make(map[int64]string, len(items))
	exported := make([]types.ExportedItem, len(items))
	for i, it := range items {
		names[it.ID] = it.Name
		exported[i] = types.ExportedItem{
			Name:      it.Name,
			MediaLink: it.MediaLink,
			Points:    it.Points,
		}
	}
	votes := make([]types.ExportedVote, len(comps))
	for i, cmp := range comps {
		votes[i] = types.ExportedVote{
			Item1Name: names[cmp.Pair.Low],
			Item2Name: names[cmp.Pair.High],
			Result:    string(cmp.Outcome),
		}
	}
	return types.Export{
		Version:      exportVersion,
		ExportID:     uuid.NewString(),
		ExportedAt:   time.Now().UTC(),
		Name:         c.Name,
		SearchPrefix: c.SearchPrefix,
		Items:        exported,
		Votes:        votes,
	}, nil
}

// ImportCollection materializes an export envelope as a new
// collection. Vote outcomes are re-oriented against the new item ids,
// and points are rebuilt from the imported votes rather than trusted
// from the envelope.
func (s *Service) ImportCollection(ctx context.Context, exp types.Export) (types.CollectionDetail, error) {
	if exp.Version != exportVersion {
		return types.CollectionDetail{}, fmt.Errorf("%w: version %d", ErrUnsupportedExport, exp.Version)
	}
	if exp.Name == "" {
		return types.CollectionDetail{}, ErrEmptyName
	}
	if exp.Items == nil {
		return types.CollectionDetail{}, fmt.Errorf("%w: missing items", ErrMalformedExport)
	}

	c, err := s.store.CreateCollection(ctx, exp.Name, exp.SearchPrefix)
	if err != nil {
		return types.CollectionDetail{}, err
	}

	s.locks.Lock(c.ID)
	defer s.locks.Unlock(c.ID)

	inputs := make([]repository.NewItem, len(exp.Items))
	for i, it := range exp.Items {
		inputs[i] = repository.NewItem{
			Name:      it.Name,
			MediaLink: normalizeMediaLink(it.MediaLink),
		}
	}
	created, err := s.store.AddItems(ctx, c.ID, inputs)
	if err != nil {
		return types.CollectionDetail{}, err
	}
	byName := make(map[string]*model.Item, len(created))
	for _, it := range created {
		byName[it.Name] = it
	}

	// Invalid votes (unknown names, self-pairs, bad outcomes) are
	// skipped rather than failing the whole import.
	snap := model.NewSnapshot(created, nil)
	skipped := 0
	for _, v := range exp.Votes {
		first, ok1 := byName[v.Item1Name]
		second, ok2 := byName[v.Item2Name]
		if !ok1 || !ok2 {
			skipped++
			continue
		}
		pair, outcome, err := model.Orient(first.ID, second.ID, model.Outcome(v.Result))
		if err != nil {
			skipped++
			continue
		}
		comp, err := ledger.Apply(snap, pair, outcome)
		if err != nil {
			skipped++
			continue
		}
		if err := s.store.UpsertComparison(ctx, comp); err != nil {
			return types.CollectionDetail{}, err
		}
	}
	if skipped > 0 {
		s.logger.Warn(ctx, "import skipped invalid votes",
			logger.Int64("collection_id", c.ID), logger.Int("skipped", skipped))
	}

	points := make(map[int64]int, len(created))
	for _, it := range created {
		points[it.ID] = it.Points
	}
	if err := s.store.UpdatePoints(ctx, points); err != nil {
		return types.CollectionDetail{}, err
	}

	s.logger.Info(ctx, "collection imported",
		logger.Int64("id", c.ID),
		logger.String("name", c.Name),
		logger.Int("items", len(created)),
		logger.Int("votes", len(exp.Votes)),
	)

	ordered := ranking.Order(snap.Items, snap.Comparisons)
	views := make([]types.Item, len(ordered))
	for i, r := range ordered {
		views[i] = itemView(r.Item, r.SubScores)
	}
	return types.CollectionDetail{
		ID:              c.ID,
		Name:            c.Name,
		SearchPrefix:    c.SearchPrefix,
		Items:           views,
		ComparisonCount: len(snap.Comparisons),
		CreatedAt:       c.CreatedAt,
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"auditWorkerCount": s.auditWorkerCount,
		"auditQueueSize":   s.auditQueueSize,
	}
	if s.started && s.auditQueue != nil {
		stats["auditQueueLength"] = s.auditQueue.Len(context.Background())
	}
	return stats
}

// loadState reads a collection's items and comparisons in one place.
func (s *Service) loadState(ctx context.Context, collectionID int64) ([]*model.Item, []*model.Comparison, error) {
	items, err := s.store.Items(ctx, collectionID)
	if err != nil {
		return nil, nil, err
	}
	comps, err := s.store.Comparisons(ctx, collectionID)
	if err != nil {
		return nil, nil, err
	}
	return items, comps, nil
}

func (s *Service) matchupView(items []*model.Item, pair model.Pair) types.Matchup {
	var m types.Matchup
	for _, it := range items {
		switch it.ID {
		case pair.Low:
			m.Item1 = itemView(it, nil)
		case pair.High:
			m.Item2 = itemView(it, nil)
		}
	}
	return m
}

// itemView renders an item; a single-element sub-score path carries no
// tie-break information and is omitted.
func itemView(it *model.Item, subScores []int) types.Item {
	if len(subScores) <= 1 {
		subScores = nil
	}
	return types.Item{
		ID:           it.ID,
		CollectionID: it.CollectionID,
		Name:         it.Name,
		MediaLink:    it.MediaLink,
		Points:       it.Points,
		SubScores:    subScores,
	}
}

func describeVote(outcome model.Outcome, low, high *model.Item) string {
	switch outcome {
	case model.OutcomeFirst:
		return fmt.Sprintf("%s > %s", low.Name, high.Name)
	case model.OutcomeSecond:
		return fmt.Sprintf("%s > %s", high.Name, low.Name)
	}
	return fmt.Sprintf("%s = %s", low.Name, high.Name)
}

// normalizeMediaLink expands a bare YouTube video id to the full watch
// URL; everything else passes through untouched.
func normalizeMediaLink(link string) string {
	if youtubeID.MatchString(link) {
		return "https://www.youtube.com/watch?v=" + link
	}
	return link
}
