package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosaicpim/mosaic/app/repositories"
	"github.com/mosaicpim/mosaic/pkg/event"
	"github.com/mosaicpim/mosaic/pkg/testkit"
)

func seedProducts(t *testing.T) *ProductService {
	t.Helper()

	states := testkit.NewMemoryStateStore()
	settings := repositories.NewSettingsRepository(states)
	productRepo := repositories.NewProductRepository(states)
	index := testkit.NewMemoryUniqueIndex()
	svc := NewProductService(settings, productRepo, NewValidatorService(index), index)
	require.NoError(t, settings.Save(testkit.Tenant, testkit.Settings()))
	return svc
}

func TestSaveAndDeleteProductNotifyListeners(t *testing.T) {
	t.Cleanup(event.Flush)

	var saved, deleted []string
	event.Listen(event.ProductSaved, func(payload interface{}) {
		if e, ok := payload.(ProductEvent); ok {
			saved = append(saved, e.Tenant+"/"+e.Product.SKU)
		}
	})
	event.Listen(event.ProductDeleted, func(payload interface{}) {
		if e, ok := payload.(ProductEvent); ok {
			deleted = append(deleted, e.Tenant+"/"+e.Product.SKU)
		}
	})

	ctx := context.Background()
	svc := seedProducts(t)
	_, err := svc.SaveProduct(ctx, testkit.Tenant, testkit.Product("tee-001"), "")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, testkit.Tenant, "tee-001"))

	assert.Equal(t, []string{testkit.Tenant + "/tee-001"}, saved)
	assert.Equal(t, []string{testkit.Tenant + "/tee-001"}, deleted)
}
