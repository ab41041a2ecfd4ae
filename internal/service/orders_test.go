package service

import (
	"context"
	"errors"
	"testing"

	"agrifarma/internal/database"
)

func seedProduct(t *testing.T, market *MarketplaceService, ownerActor Actor, name string, price float64) *database.Product {
	t.Helper()
	in := validProductInput()
	in.Name = name
	in.Price = price
	product, err := market.Create(context.Background(), ownerActor, in, "")
	if err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return product
}

func TestPlace_SnapshotsUnitPrice(t *testing.T) {
	db := newTestDB(t)
	market := NewMarketplaceService(db, nil, nil)
	svc := NewOrderService(db)
	ctx := context.Background()
	seller := createUser(t, db, "farmerali", false)
	buyer := createUser(t, db, "buyer", false)

	seed := seedProduct(t, market, actorFor(seller), "Organic wheat seed", 10.0)
	kit := seedProduct(t, market, actorFor(seller), "Drip irrigation kit", 120.0)

	order, err := svc.Place(ctx, actorFor(buyer), []OrderItemInput{
		{ProductID: seed.ID, Quantity: 2},
		{ProductID: kit.ID, Quantity: 1},
	}, "Village road 4, Multan")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if order.Status != database.OrderStatusPending {
		t.Fatalf("status = %q, want pending", order.Status)
	}
	if order.TotalAmount != 140.0 {
		t.Fatalf("total = %v, want 140", order.TotalAmount)
	}

	// 涨价不影响已下的订单
	if err := db.Model(&database.Product{}).Where("id = ?", seed.ID).Update("price", 99.0).Error; err != nil {
		t.Fatalf("raise price: %v", err)
	}

	var items []database.OrderItem
	if err := db.Where("order_id = ?", order.ID).Order("id").Find(&items).Error; err != nil {
		t.Fatalf("load items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].UnitPrice != 10.0 {
		t.Fatalf("unit price snapshot = %v, want 10", items[0].UnitPrice)
	}
}

func TestPlace_RejectsInvalidInput(t *testing.T) {
	db := newTestDB(t)
	market := NewMarketplaceService(db, nil, nil)
	svc := NewOrderService(db)
	ctx := context.Background()
	seller := createUser(t, db, "farmerali", false)
	buyer := createUser(t, db, "buyer", false)

	product := seedProduct(t, market, actorFor(seller), "Organic wheat seed", 10.0)

	mustValidationError(t, errOnly(svc.Place(ctx, actorFor(buyer), nil, "somewhere")))
	mustValidationError(t, errOnly(svc.Place(ctx, actorFor(buyer), []OrderItemInput{{ProductID: product.ID, Quantity: 1}}, "   ")))
	mustValidationError(t, errOnly(svc.Place(ctx, actorFor(buyer), []OrderItemInput{{ProductID: product.ID, Quantity: 0}}, "somewhere")))
	mustAuthError(t, errOnly(svc.Place(ctx, Actor{}, []OrderItemInput{{ProductID: product.ID, Quantity: 1}}, "somewhere")))

	var count int64
	if err := db.Model(&database.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected orders must not persist rows, got %d", count)
	}
}

func TestPlace_UnknownProductAbortsWholeOrder(t *testing.T) {
	db := newTestDB(t)
	market := NewMarketplaceService(db, nil, nil)
	svc := NewOrderService(db)
	ctx := context.Background()
	seller := createUser(t, db, "farmerali", false)
	buyer := createUser(t, db, "buyer", false)

	product := seedProduct(t, market, actorFor(seller), "Organic wheat seed", 10.0)

	_, err := svc.Place(ctx, actorFor(buyer), []OrderItemInput{
		{ProductID: product.ID, Quantity: 1},
		{ProductID: 999, Quantity: 1},
	}, "somewhere")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var orders, items int64
	if err := db.Model(&database.Order{}).Count(&orders).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if err := db.Model(&database.OrderItem{}).Count(&items).Error; err != nil {
		t.Fatalf("count items: %v", err)
	}
	if orders != 0 || items != 0 {
		t.Fatalf("aborted order left rows behind: orders=%d items=%d", orders, items)
	}
}

func TestListMine_ReturnsOnlyOwnOrders(t *testing.T) {
	db := newTestDB(t)
	market := NewMarketplaceService(db, nil, nil)
	svc := NewOrderService(db)
	ctx := context.Background()
	seller := createUser(t, db, "farmerali", false)
	buyerA := createUser(t, db, "buyera", false)
	buyerB := createUser(t, db, "buyerb", false)

	product := seedProduct(t, market, actorFor(seller), "Organic wheat seed", 10.0)
	for _, buyer := range []database.User{buyerA, buyerB} {
		if _, err := svc.Place(ctx, actorFor(buyer), []OrderItemInput{{ProductID: product.ID, Quantity: 1}}, "somewhere"); err != nil {
			t.Fatalf("place order for %s: %v", buyer.Username, err)
		}
	}

	orders, err := svc.ListMine(ctx, actorFor(buyerA))
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(orders) != 1 || orders[0].UserID != buyerA.ID {
		t.Fatalf("expected only buyerA's order, got %+v", orders)
	}
	if len(orders[0].Items) != 1 {
		t.Fatalf("expected preloaded items, got %d", len(orders[0].Items))
	}
}

func TestSetStatus(t *testing.T) {
	db := newTestDB(t)
	market := NewMarketplaceService(db, nil, nil)
	svc := NewOrderService(db)
	ctx := context.Background()
	seller := createUser(t, db, "farmerali", false)
	buyer := createUser(t, db, "buyer", false)
	admin := createUser(t, db, "moderator", true)

	product := seedProduct(t, market, actorFor(seller), "Organic wheat seed", 10.0)
	order, err := svc.Place(ctx, actorFor(buyer), []OrderItemInput{{ProductID: product.ID, Quantity: 1}}, "somewhere")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	mustAuthError(t, errOnly(svc.SetStatus(ctx, actorFor(buyer), order.ID, database.OrderStatusShipped)))
	mustValidationError(t, errOnly(svc.SetStatus(ctx, actorFor(admin), order.ID, "teleported")))

	updated, err := svc.SetStatus(ctx, actorFor(admin), order.ID, database.OrderStatusShipped)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != database.OrderStatusShipped {
		t.Fatalf("status = %q, want shipped", updated.Status)
	}

	if _, err := svc.SetStatus(ctx, actorFor(admin), 999, database.OrderStatusShipped); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown order, got %v", err)
	}
}
