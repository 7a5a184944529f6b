package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/tina-boutique/store-service/internal/domain"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryRepository struct {
	client    DynamoDBAPI
	tableName string
}

func NewCategoryRepository(client DynamoDBAPI, tableName string) *CategoryRepository {
	return &CategoryRepository{
		client:    client,
		tableName: tableName,
	}
}

// List returns every category, name-ordered. The table is small and
// operator-curated; a full scan is fine.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan categories: %w", err)
	}

	categories := make([]domain.Category, 0, len(result.Items))
	for _, item := range result.Items {
		var category domain.Category
		if err := attributevalue.UnmarshalMap(item, &category); err != nil {
			return nil, fmt.Errorf("failed to unmarshal category: %w", err)
		}
		categories = append(categories, category)
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})

	return categories, nil
}

func (r *CategoryRepository) Get(ctx context.Context, categoryID string) (*domain.Category, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"category_id": &types.AttributeValueMemberS{Value: categoryID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	if result.Item == nil {
		return nil, ErrCategoryNotFound
	}

	var category domain.Category
	if err := attributevalue.UnmarshalMap(result.Item, &category); err != nil {
		return nil, fmt.Errorf("failed to unmarshal category: %w", err)
	}

	return &category, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	av, err := attributevalue.MarshalMap(category)
	if err != nil {
		return fmt.Errorf("failed to marshal category: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put category: %w", err)
	}

	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, categoryID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"category_id": &types.AttributeValueMemberS{Value: categoryID},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}
