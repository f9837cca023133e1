package pantry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ulam-ai/internal/core/store"
	"ulam-ai/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPantryAddDedupesByNormalizedName(t *testing.T) {
	ctx := context.Background()
	p := New(store.NewMemoryStore(), "s1")

	added := p.Add(ctx, "Chicken", " chicken ", "", "Garlic", "GARLIC", "Soy Sauce")
	assert.Equal(t, []string{"Chicken", "Garlic", "Soy Sauce"}, added)
	assert.Equal(t, []string{"Chicken", "Garlic", "Soy Sauce"}, p.List(ctx))

	assert.Empty(t, p.Add(ctx, "soy sauce"))
	assert.Equal(t, 3, p.Len(ctx))
}

func TestPantryPersistsPerSession(t *testing.T) {
	ctx := context.Background()
	docs := store.NewMemoryStore()

	New(docs, "s1").Add(ctx, "Pork", "Kangkong")
	New(docs, "s2").Add(ctx, "Egg")

	assert.Equal(t, []string{"Pork", "Kangkong"}, New(docs, "s1").List(ctx))
	assert.Equal(t, []string{"Egg"}, New(docs, "s2").List(ctx))

	raw, err := docs.Load(ctx, "ulam_cart:s1")
	require.NoError(t, err)
	assert.JSONEq(t, `["Pork","Kangkong"]`, string(raw))
}

func TestPantryRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	docs := store.NewMemoryStore()
	p := New(docs, "s1")
	p.Add(ctx, "Pork", "Kangkong", "Tamarind")

	require.NoError(t, p.Remove(ctx, 1))
	assert.Equal(t, []string{"Pork", "Tamarind"}, p.List(ctx))

	err := p.Remove(ctx, 5)
	assert.ErrorIs(t, err, common.ErrNotFound)

	p.Clear(ctx)
	assert.Empty(t, p.List(ctx))
	assert.Empty(t, New(docs, "s1").List(ctx))
}

func TestPantryCorruptStateStartsEmpty(t *testing.T) {
	ctx := context.Background()
	docs := store.NewMemoryStore()
	require.NoError(t, docs.Save(ctx, "ulam_cart:s1", []byte("{oops")))

	p := New(docs, "s1")
	assert.Empty(t, p.List(ctx))
	p.Add(ctx, "Rice")
	assert.Equal(t, []string{"Rice"}, New(docs, "s1").List(ctx))
}

func dish(id string) common.DishSuggestion {
	return common.DishSuggestion{ID: common.FlexString(id), Name: "Dish " + id}
}

func TestRecentIsBoundedMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	r := NewRecent(store.NewMemoryStore(), "s1")

	for i := 1; i <= 8; i++ {
		r.Push(ctx, dish(fmt.Sprint(i)))
	}

	list := r.List(ctx)
	require.Len(t, list, MaxRecent)
	ids := make([]string, len(list))
	for i, d := range list {
		ids[i] = string(d.ID)
	}
	assert.Equal(t, []string{"8", "7", "6", "5", "4", "3"}, ids)
}

func TestRecentDedupesByID(t *testing.T) {
	ctx := context.Background()
	docs := store.NewMemoryStore()
	r := NewRecent(docs, "s1")

	r.Push(ctx, dish("a"))
	r.Push(ctx, dish("b"))
	r.Push(ctx, dish("a"))

	list := NewRecent(docs, "s1").List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, common.FlexString("a"), list[0].ID)
	assert.Equal(t, common.FlexString("b"), list[1].ID)
}

// flakyStore 前 failLoads 次讀取回傳錯誤
type flakyStore struct {
	*store.MemoryStore
	failLoads int
}

func (f *flakyStore) Load(ctx context.Context, key string) ([]byte, error) {
	if f.failLoads > 0 {
		f.failLoads--
		return nil, errors.New("connection reset")
	}
	return f.MemoryStore.Load(ctx, key)
}

func TestPantryReadFailureNeverOverwritesStoredItems(t *testing.T) {
	ctx := context.Background()
	docs := &flakyStore{MemoryStore: store.NewMemoryStore()}
	require.NoError(t, docs.Save(ctx, "ulam_cart:s1", []byte(`["Pork","Kangkong"]`)))

	docs.failLoads = 1
	p := New(docs, "s1")
	assert.Empty(t, p.Add(ctx, "Egg"))

	raw, err := docs.MemoryStore.Load(ctx, "ulam_cart:s1")
	require.NoError(t, err)
	assert.JSONEq(t, `["Pork","Kangkong"]`, string(raw))

	// 下一次讀取成功後照常合併
	assert.Equal(t, []string{"Egg"}, p.Add(ctx, "Egg"))
	assert.Equal(t, []string{"Pork", "Kangkong", "Egg"}, New(docs, "s1").List(ctx))
}

func TestPantryRemoveSkippedWhileUnreadable(t *testing.T) {
	ctx := context.Background()
	docs := &flakyStore{MemoryStore: store.NewMemoryStore()}
	require.NoError(t, docs.Save(ctx, "ulam_cart:s1", []byte(`["Pork","Kangkong"]`)))

	docs.failLoads = 1
	p := New(docs, "s1")
	require.NoError(t, p.Remove(ctx, 0))
	assert.Equal(t, []string{"Pork", "Kangkong"}, p.List(ctx))
}

func TestRecentReadFailureNeverOverwritesStoredDishes(t *testing.T) {
	ctx := context.Background()
	docs := &flakyStore{MemoryStore: store.NewMemoryStore()}
	seed := NewRecent(docs, "s1")
	seed.Push(ctx, dish("a"))
	seed.Push(ctx, dish("b"))

	docs.failLoads = 1
	r := NewRecent(docs, "s1")
	r.Push(ctx, dish("c"))
	require.Len(t, NewRecent(docs, "s1").List(ctx), 2)

	r.Push(ctx, dish("c"))
	list := NewRecent(docs, "s1").List(ctx)
	require.Len(t, list, 3)
	assert.Equal(t, common.FlexString("c"), list[0].ID)
}
