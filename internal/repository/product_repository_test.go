package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/tina-boutique/store-service/internal/domain"
)

// fakeDynamo is an in-memory stand-in for the DynamoDB client, keyed by
// the item's partition key value.
type fakeDynamo struct {
	mu            sync.Mutex
	items         map[string]map[string]types.AttributeValue
	transactErr   error
	transactCalls []*dynamodb.TransactWriteItemsInput
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func keyValue(key map[string]types.AttributeValue) string {
	for _, av := range key {
		if s, ok := av.(*types.AttributeValueMemberS); ok {
			return s.Value
		}
	}
	return ""
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[keyValue(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var id string
	for _, attr := range []string{"product_id", "order_id", "category_id", "setting_id"} {
		if s, ok := params.Item[attr].(*types.AttributeValueMemberS); ok {
			id = s.Value
			break
		}
	}
	if params.ConditionExpression != nil && strings.Contains(*params.ConditionExpression, "attribute_not_exists") {
		if _, exists := f.items[id]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	f.items[id] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, keyValue(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &dynamodb.ScanOutput{}
	for _, item := range f.items {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (f *fakeDynamo) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactCalls = append(f.transactCalls, params)
	if f.transactErr != nil {
		return nil, f.transactErr
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func seedProduct(t *testing.T, f *fakeDynamo, product *domain.Product) {
	t.Helper()
	av, err := attributevalue.MarshalMap(product)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	f.items[product.ProductID] = av
}

func reservationProduct() *domain.Product {
	return &domain.Product{
		ProductID: "prod-1",
		Name:      "Remera Oversize",
		Price:     150,
		Version:   4,
		Stock: []domain.StockItem{
			{Size: "M", Color: "red", Quantity: 2},
		},
	}
}

func line(productID, name, size, color string, qty int) domain.CartItem {
	return domain.CartItem{
		ID:        domain.CartItemID(productID, size, color),
		ProductID: productID,
		Name:      name,
		Price:     150,
		Quantity:  qty,
		Size:      size,
		Color:     color,
	}
}

func TestReserveStock_Success(t *testing.T) {
	f := newFakeDynamo()
	seedProduct(t, f, reservationProduct())
	repo := NewProductRepository(f, "products")

	err := repo.ReserveStock(context.Background(), []domain.CartItem{
		line("prod-1", "Remera Oversize", "M", "red", 2),
	})
	if err != nil {
		t.Fatalf("expected reservation to succeed, got %v", err)
	}

	if len(f.transactCalls) != 1 {
		t.Fatalf("expected 1 transact call, got %d", len(f.transactCalls))
	}
	call := f.transactCalls[0]
	if len(call.TransactItems) != 1 {
		t.Errorf("expected 1 update in transaction, got %d", len(call.TransactItems))
	}
	update := call.TransactItems[0].Update
	if update == nil {
		t.Fatal("expected an Update transact item")
	}
	if update.ConditionExpression == nil {
		t.Error("expected the update to carry a version condition")
	}
}

func TestReserveStock_SharedProductProducesSingleUpdate(t *testing.T) {
	f := newFakeDynamo()
	product := reservationProduct()
	product.Stock = []domain.StockItem{
		{Size: "M", Color: "red", Quantity: 2},
		{Size: "L", Color: "red", Quantity: 2},
	}
	seedProduct(t, f, product)
	repo := NewProductRepository(f, "products")

	err := repo.ReserveStock(context.Background(), []domain.CartItem{
		line("prod-1", "Remera Oversize", "M", "red", 1),
		line("prod-1", "Remera Oversize", "L", "red", 1),
	})
	if err != nil {
		t.Fatalf("expected reservation to succeed, got %v", err)
	}

	if len(f.transactCalls[0].TransactItems) != 1 {
		t.Errorf("expected both lines folded into one product update, got %d",
			len(f.transactCalls[0].TransactItems))
	}
}

func TestReserveStock_ProductNotFound(t *testing.T) {
	f := newFakeDynamo()
	repo := NewProductRepository(f, "products")

	err := repo.ReserveStock(context.Background(), []domain.CartItem{
		line("ghost", "Campera Ghost", "M", "red", 1),
	})

	var resErr *domain.ReservationError
	if !errors.As(err, &resErr) || resErr.Reason != domain.ReasonProductNotFound {
		t.Fatalf("expected product-not-found reservation error, got %v", err)
	}
	if !strings.Contains(resErr.Error(), "Campera Ghost") {
		t.Errorf("error should name the offending product, got %q", resErr.Error())
	}
	if len(f.transactCalls) != 0 {
		t.Error("no writes may happen on a failed reservation")
	}
}

func TestReserveStock_VariantUnavailable(t *testing.T) {
	f := newFakeDynamo()
	seedProduct(t, f, reservationProduct())
	repo := NewProductRepository(f, "products")

	err := repo.ReserveStock(context.Background(), []domain.CartItem{
		line("prod-1", "Remera Oversize", "XL", "green", 1),
	})

	var resErr *domain.ReservationError
	if !errors.As(err, &resErr) || resErr.Reason != domain.ReasonVariantUnavailable {
		t.Fatalf("expected variant-unavailable reservation error, got %v", err)
	}
	if len(f.transactCalls) != 0 {
		t.Error("no writes may happen on a failed reservation")
	}
}

func TestReserveStock_InsufficientStock(t *testing.T) {
	// Scenario: requesting 3 against a row holding 2 aborts and leaves
	// the stored quantity at 2.
	f := newFakeDynamo()
	seedProduct(t, f, reservationProduct())
	repo := NewProductRepository(f, "products")

	err := repo.ReserveStock(context.Background(), []domain.CartItem{
		line("prod-1", "Remera Oversize", "M", "red", 3),
	})

	var resErr *domain.ReservationError
	if !errors.As(err, &resErr) || resErr.Reason != domain.ReasonInsufficientStock {
		t.Fatalf("expected insufficient-stock reservation error, got %v", err)
	}
	if resErr.Requested != 3 || resErr.Available != 2 {
		t.Errorf("expected requested 3 / available 2, got %d / %d", resErr.Requested, resErr.Available)
	}
	if len(f.transactCalls) != 0 {
		t.Error("no writes may happen on a failed reservation")
	}

	stored, err := repo.Get(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("failed to reread product: %v", err)
	}
	if stored.Stock[0].Quantity != 2 {
		t.Errorf("stock must be unchanged after abort, got %d", stored.Stock[0].Quantity)
	}
}

func TestReserveStock_MultiLineAbortWritesNothing(t *testing.T) {
	// One valid line plus one under-stocked line: the whole transaction
	// aborts and the valid product is untouched.
	f := newFakeDynamo()
	seedProduct(t, f, reservationProduct())
	short := &domain.Product{
		ProductID: "prod-2",
		Name:      "Pantalon Cargo",
		Price:     300,
		Version:   1,
		Stock:     []domain.StockItem{{Size: "40", Color: "black", Quantity: 1}},
	}
	seedProduct(t, f, short)
	repo := NewProductRepository(f, "products")

	err := repo.ReserveStock(context.Background(), []domain.CartItem{
		line("prod-1", "Remera Oversize", "M", "red", 1),
		line("prod-2", "Pantalon Cargo", "40", "black", 5),
	})

	var resErr *domain.ReservationError
	if !errors.As(err, &resErr) || resErr.ProductID != "prod-2" {
		t.Fatalf("expected reservation error for prod-2, got %v", err)
	}
	if len(f.transactCalls) != 0 {
		t.Error("no writes may happen on a failed reservation")
	}

	stored, _ := repo.Get(context.Background(), "prod-1")
	if stored.Stock[0].Quantity != 2 {
		t.Errorf("valid line's product must be unchanged, got quantity %d", stored.Stock[0].Quantity)
	}
}

func TestReserveStock_ConditionalCancelMapsToConflict(t *testing.T) {
	f := newFakeDynamo()
	seedProduct(t, f, reservationProduct())
	f.transactErr = &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("ConditionalCheckFailed")},
		},
	}
	repo := NewProductRepository(f, "products")

	err := repo.ReserveStock(context.Background(), []domain.CartItem{
		line("prod-1", "Remera Oversize", "M", "red", 1),
	})
	if !errors.Is(err, domain.ErrTransactionConflict) {
		t.Errorf("expected ErrTransactionConflict, got %v", err)
	}
}

func TestReserveStock_EmptyCart(t *testing.T) {
	repo := NewProductRepository(newFakeDynamo(), "products")
	if err := repo.ReserveStock(context.Background(), nil); err == nil {
		t.Error("expected an error for an empty line set")
	}
}

func TestCreate_DuplicateProduct(t *testing.T) {
	f := newFakeDynamo()
	repo := NewProductRepository(f, "products")

	product := reservationProduct()
	if err := repo.Create(context.Background(), product); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if err := repo.Create(context.Background(), product); !errors.Is(err, ErrProductExists) {
		t.Errorf("expected ErrProductExists, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := NewProductRepository(newFakeDynamo(), "products")
	_, err := repo.Get(context.Background(), "nope")
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}
