package service

import (
	"context"
	"errors"
	"testing"

	"agrifarma/internal/database"
)

func validProductInput() ProductInput {
	return ProductInput{
		Name:        "Organic wheat seed",
		Description: "Certified organic wheat seed, 25kg bag.",
		Price:       45.50,
		Category:    "seeds",
	}
}

func TestCreateProduct_DefaultsStockToOne(t *testing.T) {
	db := newTestDB(t)
	svc := NewMarketplaceService(db, nil, nil)
	user := createUser(t, db, "farmerali", false)

	product, err := svc.Create(context.Background(), actorFor(user), validProductInput(), "")
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if product.StockQuantity != 1 {
		t.Fatalf("stock quantity = %d, want default 1", product.StockQuantity)
	}
	if product.Approved {
		t.Fatal("new products must start pending moderation")
	}
	if product.UserID != user.ID {
		t.Fatalf("product owner = %d, want %d", product.UserID, user.ID)
	}
}

func TestCreateProduct_RejectsInvalidInput(t *testing.T) {
	db := newTestDB(t)
	svc := NewMarketplaceService(db, nil, nil)
	ctx := context.Background()
	user := createUser(t, db, "farmerali", false)

	cases := []struct {
		name   string
		mutate func(*ProductInput)
	}{
		{"short name", func(in *ProductInput) { in.Name = "ab" }},
		{"short description", func(in *ProductInput) { in.Description = "too short" }},
		{"zero price", func(in *ProductInput) { in.Price = 0 }},
		{"negative price", func(in *ProductInput) { in.Price = -1 }},
		{"negative stock", func(in *ProductInput) { negative := -1; in.StockQuantity = &negative }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validProductInput()
			tc.mutate(&in)
			mustValidationError(t, errOnly(svc.Create(ctx, actorFor(user), in, "")))
		})
	}
}

func TestUpdateProduct_NonOwnerDenied(t *testing.T) {
	db := newTestDB(t)
	svc := NewMarketplaceService(db, nil, nil)
	ctx := context.Background()
	owner := createUser(t, db, "farmerali", false)
	intruder := createUser(t, db, "intruder", false)

	product, err := svc.Create(ctx, actorFor(owner), validProductInput(), "")
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	in := validProductInput()
	in.Name = "Hijacked listing"
	mustAuthError(t, errOnly(svc.Update(ctx, actorFor(intruder), product.ID, in, nil)))

	var reloaded database.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Name != "Organic wheat seed" {
		t.Fatalf("denied update must not change the row, name = %q", reloaded.Name)
	}
}

func TestUpdateProduct_AdminOverride(t *testing.T) {
	db := newTestDB(t)
	svc := NewMarketplaceService(db, nil, nil)
	ctx := context.Background()
	owner := createUser(t, db, "farmerali", false)
	admin := createUser(t, db, "moderator", true)

	product, err := svc.Create(ctx, actorFor(owner), validProductInput(), "")
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	in := validProductInput()
	in.Price = 39.99
	updated, err := svc.Update(ctx, actorFor(admin), product.ID, in, nil)
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if updated.Price != 39.99 {
		t.Fatalf("price = %v, want 39.99", updated.Price)
	}
	if updated.UserID != owner.ID {
		t.Fatal("admin update must not change ownership")
	}
}

func TestUpdateProduct_ReplacingImageDeletesOldBlob(t *testing.T) {
	db := newTestDB(t)
	blobs := &fakeBlobRemover{}
	svc := NewMarketplaceService(db, nil, blobs)
	ctx := context.Background()
	owner := createUser(t, db, "farmerali", false)

	product, err := svc.Create(ctx, actorFor(owner), validProductInput(), "products/1/old.png")
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	newKey := "products/1/new.png"
	updated, err := svc.Update(ctx, actorFor(owner), product.ID, validProductInput(), &newKey)
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if updated.ImageKey != newKey {
		t.Fatalf("image key = %q, want %q", updated.ImageKey, newKey)
	}
	if len(blobs.deleted) != 1 || blobs.deleted[0] != "products/1/old.png" {
		t.Fatalf("expected old image deleted, got %v", blobs.deleted)
	}
}

func TestDeleteProduct(t *testing.T) {
	db := newTestDB(t)
	blobs := &fakeBlobRemover{}
	svc := NewMarketplaceService(db, nil, blobs)
	ctx := context.Background()
	owner := createUser(t, db, "farmerali", false)
	intruder := createUser(t, db, "intruder", false)

	product, err := svc.Create(ctx, actorFor(owner), validProductInput(), "products/1/pic.png")
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	mustAuthError(t, svc.Delete(ctx, actorFor(intruder), product.ID))

	if err := svc.Delete(ctx, actorFor(owner), product.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := svc.Get(ctx, product.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if len(blobs.deleted) != 1 || blobs.deleted[0] != "products/1/pic.png" {
		t.Fatalf("expected product image deleted, got %v", blobs.deleted)
	}
}

func TestListMine_ReturnsOnlyOwnProducts(t *testing.T) {
	db := newTestDB(t)
	svc := NewMarketplaceService(db, nil, nil)
	ctx := context.Background()
	ali := createUser(t, db, "farmerali", false)
	sara := createUser(t, db, "farmersara", false)

	if _, err := svc.Create(ctx, actorFor(ali), validProductInput(), ""); err != nil {
		t.Fatalf("create ali product: %v", err)
	}
	saraInput := validProductInput()
	saraInput.Name = "Drip irrigation kit"
	if _, err := svc.Create(ctx, actorFor(sara), saraInput, ""); err != nil {
		t.Fatalf("create sara product: %v", err)
	}

	mine, err := svc.ListMine(ctx, actorFor(ali))
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 || mine[0].UserID != ali.ID {
		t.Fatalf("expected only ali's product, got %+v", mine)
	}
}
