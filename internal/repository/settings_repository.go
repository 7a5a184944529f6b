package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/tina-boutique/store-service/internal/domain"
)

var ErrHeroNotConfigured = errors.New("hero section not configured")

const heroSettingID = "hero"

// SettingsRepository stores singleton site documents, currently just the
// homepage hero section.
type SettingsRepository struct {
	client    DynamoDBAPI
	tableName string
}

func NewSettingsRepository(client DynamoDBAPI, tableName string) *SettingsRepository {
	return &SettingsRepository{
		client:    client,
		tableName: tableName,
	}
}

func (r *SettingsRepository) GetHero(ctx context.Context) (*domain.HeroData, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"setting_id": &types.AttributeValueMemberS{Value: heroSettingID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get hero settings: %w", err)
	}

	if result.Item == nil {
		return nil, ErrHeroNotConfigured
	}

	var hero domain.HeroData
	if err := attributevalue.UnmarshalMap(result.Item, &hero); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hero settings: %w", err)
	}

	return &hero, nil
}

func (r *SettingsRepository) SaveHero(ctx context.Context, hero *domain.HeroData) error {
	av, err := attributevalue.MarshalMap(hero)
	if err != nil {
		return fmt.Errorf("failed to marshal hero settings: %w", err)
	}
	av["setting_id"] = &types.AttributeValueMemberS{Value: heroSettingID}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put hero settings: %w", err)
	}

	return nil
}
