package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/tina-boutique/store-service/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductExists   = errors.New("product already exists")
)

// DynamoDB caps a write transaction at 100 items; each affected product
// contributes one.
const maxReservationProducts = 100

type ProductRepository struct {
	client    DynamoDBAPI
	tableName string
}

func NewProductRepository(client DynamoDBAPI, tableName string) *ProductRepository {
	return &ProductRepository{
		client:    client,
		tableName: tableName,
	}
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	av, err := attributevalue.MarshalMap(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(product_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrProductExists
		}
		return fmt.Errorf("failed to put product: %w", err)
	}

	return nil
}

func (r *ProductRepository) Get(ctx context.Context, productID string) (*domain.Product, error) {
	return r.get(ctx, productID, false)
}

func (r *ProductRepository) get(ctx context.Context, productID string, consistent bool) (*domain.Product, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
		ConsistentRead: aws.Bool(consistent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if result.Item == nil {
		return nil, ErrProductNotFound
	}

	var product domain.Product
	if err := attributevalue.UnmarshalMap(result.Item, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}

	return &product, nil
}

// List pages through the product table. The cursor is the last product ID
// of the previous page; an empty next cursor means the listing is done.
func (r *ProductRepository) List(ctx context.Context, limit int32, cursor string) ([]domain.Product, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if cursor != "" {
		input.ExclusiveStartKey = map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: cursor},
		}
	}

	result, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", fmt.Errorf("failed to scan products: %w", err)
	}

	products := make([]domain.Product, 0, len(result.Items))
	for _, item := range result.Items {
		var product domain.Product
		if err := attributevalue.UnmarshalMap(item, &product); err != nil {
			return nil, "", fmt.Errorf("failed to unmarshal product: %w", err)
		}
		products = append(products, product)
	}

	nextCursor := ""
	if key, ok := result.LastEvaluatedKey["product_id"]; ok {
		if s, ok := key.(*types.AttributeValueMemberS); ok {
			nextCursor = s.Value
		}
	}

	return products, nextCursor, nil
}

// Update is the admin edit path: an unconditional full replace, stock
// table included. It is operator-driven and low frequency; only the
// checkout reservation needs conflict detection.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	product.Version++
	av, err := attributevalue.MarshalMap(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put product: %w", err)
	}

	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// HasProductsInCategory reports whether any product still references the
// category. Used to refuse category deletion.
func (r *ProductRepository) HasProductsInCategory(ctx context.Context, categoryID string) (bool, error) {
	filter := expression.Equal(expression.Name("category_id"), expression.Value(categoryID))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return false, fmt.Errorf("failed to build category filter: %w", err)
	}

	result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("failed to scan products by category: %w", err)
	}

	return len(result.Items) > 0, nil
}

// ReserveStock validates and decrements stock for every cart line as one
// atomic write. Each line is checked against a fresh consistent read;
// client-supplied stock state is never trusted. Every affected product's
// update is conditioned on the version observed at read time, so a
// concurrent writer aborts the whole transaction instead of losing
// updates. On any failure nothing is written.
func (r *ProductRepository) ReserveStock(ctx context.Context, lines []domain.CartItem) error {
	if len(lines) == 0 {
		return errors.New("no cart lines to reserve")
	}

	products := make(map[string]*domain.Product)
	var productOrder []string
	for _, line := range lines {
		if _, ok := products[line.ProductID]; ok {
			continue
		}
		product, err := r.get(ctx, line.ProductID, true)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				return &domain.ReservationError{
					Reason:      domain.ReasonProductNotFound,
					ProductID:   line.ProductID,
					ProductName: line.Name,
				}
			}
			return err
		}
		products[line.ProductID] = product
		productOrder = append(productOrder, line.ProductID)
	}

	if len(productOrder) > maxReservationProducts {
		return fmt.Errorf("reservation touches %d products, limit is %d", len(productOrder), maxReservationProducts)
	}

	for _, line := range lines {
		product := products[line.ProductID]
		idx := -1
		for i, row := range product.Stock {
			if row.Size == line.Size && row.Color == line.Color {
				idx = i
				break
			}
		}
		if idx < 0 {
			return &domain.ReservationError{
				Reason:      domain.ReasonVariantUnavailable,
				ProductID:   line.ProductID,
				ProductName: product.Name,
				Size:        line.Size,
				Color:       line.Color,
			}
		}
		if product.Stock[idx].Quantity < line.Quantity {
			return &domain.ReservationError{
				Reason:      domain.ReasonInsufficientStock,
				ProductID:   line.ProductID,
				ProductName: product.Name,
				Size:        line.Size,
				Color:       line.Color,
				Requested:   line.Quantity,
				Available:   product.Stock[idx].Quantity,
			}
		}
		product.Stock[idx].Quantity -= line.Quantity
	}

	now := time.Now()
	items := make([]types.TransactWriteItem, 0, len(productOrder))
	for _, productID := range productOrder {
		product := products[productID]

		update := expression.Set(
			expression.Name("stock"),
			expression.Value(product.Stock),
		).Set(
			expression.Name("updated_at"),
			expression.Value(now),
		).Set(
			expression.Name("version"),
			expression.Value(product.Version+1),
		)
		condition := expression.Equal(
			expression.Name("version"),
			expression.Value(product.Version),
		)

		expr, err := expression.NewBuilder().
			WithUpdate(update).
			WithCondition(condition).
			Build()
		if err != nil {
			return fmt.Errorf("failed to build reservation expression: %w", err)
		}

		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName: aws.String(r.tableName),
				Key: map[string]types.AttributeValue{
					"product_id": &types.AttributeValueMemberS{Value: productID},
				},
				UpdateExpression:          expr.Update(),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			},
		})
	}

	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			for _, reason := range canceled.CancellationReasons {
				if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
					return domain.ErrTransactionConflict
				}
			}
		}
		var conflict *types.TransactionConflictException
		if errors.As(err, &conflict) {
			return domain.ErrTransactionConflict
		}
		return fmt.Errorf("failed to commit stock reservation: %w", err)
	}

	return nil
}
