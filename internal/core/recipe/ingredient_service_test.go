package recipe

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	aiimage "ulam-ai/internal/core/ai/image"
	"ulam-ai/internal/core/ai/service"
	"ulam-ai/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestScanIngredientsDedupesNames(t *testing.T) {
	gen := replyWith("```json\n[\"Pork\", \"Kangkong\", \" pork \", \"Onion\", \"\"]\n```", nil)
	svc := NewIngredientService(NewService(gen, testOracleConfig()), aiimage.NewProcessor(1<<20))

	names, err := svc.ScanIngredients(context.Background(), pngDataURI(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"Pork", "Kangkong", "Onion"}, names)

	call := gen.lastCall()
	assert.Equal(t, service.KindScan, call.Kind)
	assert.True(t, call.Cacheable)
	assert.True(t, strings.HasPrefix(call.ImageData, "data:image/jpeg;base64,"))
}

func TestScanIngredientsRejectsBadImage(t *testing.T) {
	gen := replyWith("[]", nil)
	svc := NewIngredientService(NewService(gen, testOracleConfig()), aiimage.NewProcessor(1<<20))

	_, err := svc.ScanIngredients(context.Background(), "data:image/png;base64,bm90IGFuIGltYWdl")
	assert.ErrorIs(t, err, common.ErrInvalidRequest)
	assert.Empty(t, gen.calls)

	_, err = svc.ScanIngredients(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrInvalidRequest)
}

func TestScanIngredientsOracleFailures(t *testing.T) {
	for name, gen := range map[string]*fakeGenerator{
		"transport": replyWith("", errors.New("503")),
		"not json":  replyWith("I see a fridge.", nil),
	} {
		t.Run(name, func(t *testing.T) {
			svc := NewIngredientService(NewService(gen, testOracleConfig()), aiimage.NewProcessor(1<<20))
			_, err := svc.ScanIngredients(context.Background(), pngDataURI(t))
			assert.ErrorIs(t, err, common.ErrOracleUnavailable)
		})
	}
}

func TestFeaturedReturnsCopies(t *testing.T) {
	first := Featured()
	require.Len(t, first, 6)
	first[0].Name = "changed"

	again, ok := FindFeatured("f1")
	require.True(t, ok)
	assert.Equal(t, "Chicken Adobo", again.Name)

	_, ok = FindFeatured("nope")
	assert.False(t, ok)
}
