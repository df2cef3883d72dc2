package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/SubTrackr/app/models"
	"github.com/ManuelReschke/SubTrackr/app/repository"
)

type staticSource struct {
	feed *Feed
	err  error
}

func (s staticSource) Fetch(ctx context.Context) (*Feed, error) { return s.feed, s.err }

// memStore is an in-memory catalog that restores its state when a
// transaction function fails.
type memStore struct {
	categories map[string]models.Category
	services   map[string]models.Service
	plans      map[string]models.Plan
	nextID     uint

	failCategories map[string]bool
	failPlans      map[string]bool
	nilServices    map[string]bool
	transactions   int
}

func newMemStore() *memStore {
	return &memStore{
		categories:     map[string]models.Category{},
		services:       map[string]models.Service{},
		plans:          map[string]models.Plan{},
		failCategories: map[string]bool{},
		failPlans:      map[string]bool{},
		nilServices:    map[string]bool{},
	}
}

func (m *memStore) Transaction(ctx context.Context, fn func(tx repository.CatalogWriter) error) error {
	m.transactions++
	cats, svcs, plans, next := clone(m.categories), clone(m.services), clone(m.plans), m.nextID
	if err := fn(m); err != nil {
		m.categories, m.services, m.plans, m.nextID = cats, svcs, plans, next
		return err
	}
	return nil
}

func (m *memStore) UpsertCategory(ctx context.Context, name string) (*models.Category, error) {
	key := models.NaturalKey(name)
	if m.failCategories[key] {
		return nil, errors.New("lock wait timeout")
	}
	cat, ok := m.categories[key]
	if !ok {
		m.nextID++
		cat = models.Category{ID: m.nextID, NameKey: key}
	}
	cat.Name = name
	m.categories[key] = cat
	return &cat, nil
}

func (m *memStore) UpsertService(ctx context.Context, name string, categoryID uint) (*models.Service, error) {
	key := models.NaturalKey(name)
	if m.nilServices[key] {
		return nil, nil
	}
	svc, ok := m.services[key]
	if !ok {
		m.nextID++
		svc = models.Service{ID: m.nextID, NameKey: key}
	}
	svc.Name = name
	svc.CategoryID = categoryID
	m.services[key] = svc
	return &svc, nil
}

func (m *memStore) UpsertPlan(ctx context.Context, plan *models.Plan) error {
	if m.failPlans[plan.ExternalID] {
		return errors.New("constraint violation")
	}
	m.plans[plan.ExternalID] = *plan
	return nil
}

func clone[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func record(category, service, id, name, price string) FeedRecord {
	return FeedRecord{
		Category:  FeedText(category),
		Service:   FeedText(service),
		PlanID:    FeedText(id),
		PlanName:  FeedText(name),
		BasePrice: FeedText(price),
	}
}

func TestSyncer_AppliesDefaults(t *testing.T) {
	store := newMemStore()
	fixed := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	rec := record("", "Netflix", "NF-1", "Premium", "abc")
	rec.TrialAvailable = "Sí"

	res, err := NewSyncer(staticSource{feed: &Feed{Records: []FeedRecord{rec}}}, store, WithClock(func() time.Time { return fixed })).
		Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)

	_, ok := store.categories["otros"]
	assert.True(t, ok, "missing category falls back to Otros")

	plan := store.plans["NF-1"]
	assert.True(t, plan.BasePrice.IsZero())
	assert.Equal(t, "EUR", plan.Currency)
	assert.Equal(t, "Mensual", plan.BillingFrequency)
	assert.Equal(t, "Global", plan.Country)
	assert.Equal(t, "", plan.Features)
	assert.True(t, plan.TrialAvailable)
	assert.Equal(t, fixed, plan.LastSyncedAt)
	assert.Equal(t, store.services["netflix"].ID, plan.ServiceID)
}

func TestSyncer_TrialOnlyForExactToken(t *testing.T) {
	for _, token := range []string{"si", "Si", "sí", "Yes", "true", " Sí"} {
		store := newMemStore()
		rec := record("Video", "Netflix", "NF-1", "Premium", "1")
		rec.TrialAvailable = FeedText(token)

		_, err := NewSyncer(staticSource{feed: &Feed{Records: []FeedRecord{rec}}}, store).Sync(context.Background())
		require.NoError(t, err)
		assert.False(t, store.plans["NF-1"].TrialAvailable, "token %q", token)
	}
}

func TestSyncer_SkipsFailingRecordsAndRollsBack(t *testing.T) {
	store := newMemStore()
	store.failPlans["BAD-1"] = true
	store.nilServices["ghost"] = true

	feed := &Feed{Records: []FeedRecord{
		record("Video", "Netflix", "NF-1", "Premium", "17.99"),
		record("Gaming", "Xbox", "BAD-1", "Ultimate", "14.99"),
		record("Fitness", "Ghost", "GH-1", "Pro", "5"),
		record("Music", "", "SP-1", "Individual", "10.99"),
		record("Music", "Spotify", "", "Individual", "10.99"),
		record("Music", "Spotify", "SP-2", "Duo", "14.99"),
	}}

	res, err := NewSyncer(staticSource{feed: feed}, store).Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, res.Total)
	assert.Equal(t, 4, res.Skipped)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, res.Total-res.Skipped, res.Processed)

	assert.Len(t, store.plans, 2)
	_, gaming := store.categories["gaming"]
	assert.False(t, gaming, "category of a failed record is rolled back")
	_, xbox := store.services["xbox"]
	assert.False(t, xbox, "service of a failed record is rolled back")
	_, fitness := store.categories["fitness"]
	assert.False(t, fitness)
	assert.Equal(t, 4, store.transactions, "records without service or plan id never open a transaction")
}

func TestSyncer_CategoryFailureSkipsRecord(t *testing.T) {
	store := newMemStore()
	store.failCategories["gaming"] = true

	feed := &Feed{Records: []FeedRecord{
		record("Video", "Netflix", "NF-1", "Premium", "17.99"),
		record("Gaming", "Xbox", "XB-1", "Ultimate", "14.99"),
		record("Music", "Spotify", "SP-1", "Individual", "10.99"),
	}}

	res, err := NewSyncer(staticSource{feed: feed}, store).Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Skipped)

	_, xbox := store.services["xbox"]
	assert.False(t, xbox, "no service written for the failed record")
	_, plan := store.plans["XB-1"]
	assert.False(t, plan, "no plan written for the failed record")
	assert.Contains(t, store.plans, "NF-1")
	assert.Contains(t, store.plans, "SP-1")
}

func TestSyncer_TransportErrorWritesNothing(t *testing.T) {
	store := newMemStore()
	recorder := &recordingHooks{}
	transportErr := &TransportError{URL: "http://feed", StatusCode: 502, Err: errors.New("bad gateway")}

	res, err := NewSyncer(staticSource{err: transportErr}, store, WithRecorder(recorder), WithInvalidator(recorder)).
		Sync(context.Background())

	assert.Nil(t, res)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Zero(t, store.transactions)
	assert.Zero(t, recorder.recorded)
	assert.Zero(t, recorder.invalidated)
}

func TestSyncer_CancelledContextStopsBeforeNextRecord(t *testing.T) {
	store := newMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	feed := &Feed{Records: []FeedRecord{
		record("Video", "Netflix", "NF-1", "Premium", "17.99"),
		record("Music", "Spotify", "SP-1", "Individual", "10.99"),
	}}
	res, err := NewSyncer(staticSource{feed: feed}, store).Sync(ctx)

	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Skipped)
	assert.Zero(t, res.Processed)
	assert.Empty(t, store.plans)
}

type recordingHooks struct {
	archived    []byte
	runID       string
	recorded    int
	invalidated int
	failArchive bool
}

func (h *recordingHooks) Archive(ctx context.Context, runID string, raw []byte) error {
	if h.failArchive {
		return errors.New("s3 unavailable")
	}
	h.runID = runID
	h.archived = raw
	return nil
}

func (h *recordingHooks) RecordSync(ctx context.Context, result *Result) error {
	h.recorded++
	return nil
}

func (h *recordingHooks) InvalidateCatalog(ctx context.Context) error {
	h.invalidated++
	return nil
}

func TestSyncer_RunsHooksAfterSuccess(t *testing.T) {
	hooks := &recordingHooks{}
	raw := []byte(`[...]`)
	feed := &Feed{Records: []FeedRecord{record("Video", "Netflix", "NF-1", "Premium", "17.99")}, Raw: raw}

	res, err := NewSyncer(staticSource{feed: feed}, newMemStore(),
		WithArchiver(hooks), WithRecorder(hooks), WithInvalidator(hooks)).Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, res.RunID, hooks.runID)
	assert.Equal(t, raw, hooks.archived)
	assert.Equal(t, 1, hooks.recorded)
	assert.Equal(t, 1, hooks.invalidated)
	_, parseErr := uuid.Parse(res.RunID)
	assert.NoError(t, parseErr)
}

func TestSyncer_HookFailureDoesNotFailRun(t *testing.T) {
	hooks := &recordingHooks{failArchive: true}
	feed := &Feed{Records: []FeedRecord{record("Video", "Netflix", "NF-1", "Premium", "17.99")}}

	res, err := NewSyncer(staticSource{feed: feed}, newMemStore(), WithArchiver(hooks), WithRecorder(hooks)).
		Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, hooks.recorded)
}

func openCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Category{}, &models.Service{}, &models.Plan{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestSyncer_IdempotentAgainstDatabase(t *testing.T) {
	repo := repository.NewCatalogRepository(openCatalogDB(t))
	ctx := context.Background()

	first := &Feed{Records: []FeedRecord{
		record("Video", "Netflix", "NF-1", "Basic", "7.99"),
		record("Video", "Netflix", "NF-2", "Premium", "17.99"),
		record("Music", "Spotify", "SP-1", "Individual", "10.99"),
	}}
	syncer := NewSyncer(staticSource{feed: first}, repo)

	for i := 0; i < 2; i++ {
		res, err := syncer.Sync(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Processed)

		counts, err := repo.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, &repository.CatalogCounts{Categories: 2, Services: 2, Plans: 3}, counts)
	}

	second := &Feed{Records: []FeedRecord{
		record("Video", "NETFLIX", "NF-1", "Basic con anuncios", "5.49"),
		record("Audio", "Spotify", "SP-1", "Individual", "11.99"),
	}}
	res, err := NewSyncer(staticSource{feed: second}, repo).Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)

	counts, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, &repository.CatalogCounts{Categories: 3, Services: 2, Plans: 3}, counts, "plans absent from the feed are kept")

	nf, err := repo.GetPlan(ctx, "NF-1")
	require.NoError(t, err)
	assert.Equal(t, "Basic con anuncios", nf.Name)
	assert.True(t, nf.BasePrice.Equal(decimal.RequireFromString("5.49")))

	sp, err := repo.GetPlan(ctx, "SP-1")
	require.NoError(t, err)
	assert.Equal(t, "Audio", sp.Service.CategoryName(), "service moves to the latest category")
}
