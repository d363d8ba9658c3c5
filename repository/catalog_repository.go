package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/shopspring/decimal"
	"github.com/yashrajoria/streetkit/models"
)

var ErrCatalogItemNotFound = errors.New("catalog item not found")

// CatalogRepository is the read side of the kit and product catalog.
type CatalogRepository interface {
	List(ctx context.Context, filter models.CatalogFilter) ([]models.CatalogItem, error)
	FindByID(ctx context.Context, id string) (*models.CatalogItem, error)
}

// MemoryCatalogRepository serves a fixed catalog from memory.
type MemoryCatalogRepository struct {
	mu    sync.RWMutex
	items map[string]models.CatalogItem
	order []string
}

func NewMemoryCatalogRepository(items ...models.CatalogItem) *MemoryCatalogRepository {
	r := &MemoryCatalogRepository{items: make(map[string]models.CatalogItem)}
	for _, item := range items {
		r.Put(item)
	}
	return r
}

// Put inserts or replaces an item, keeping first-insertion order for listings.
func (r *MemoryCatalogRepository) Put(item models.CatalogItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[item.ID]; !exists {
		r.order = append(r.order, item.ID)
	}
	r.items[item.ID] = item
}

func (r *MemoryCatalogRepository) List(_ context.Context, filter models.CatalogFilter) ([]models.CatalogItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.CatalogItem, 0, len(r.order))
	for _, id := range r.order {
		if item := r.items[id]; filter.Matches(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *MemoryCatalogRepository) FindByID(_ context.Context, id string) (*models.CatalogItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, ErrCatalogItemNotFound
	}
	return &item, nil
}

// DynamoAPI is the part of the DynamoDB client the catalog needs.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoCatalogRepository reads the catalog from a table keyed by `item_id`.
type DynamoCatalogRepository struct {
	client DynamoAPI
	table  string
}

func NewDynamoCatalogRepository(client DynamoAPI, table string) *DynamoCatalogRepository {
	return &DynamoCatalogRepository{client: client, table: table}
}

// Prices are stored as strings to keep decimal precision.
type ddbCatalogItem struct {
	ItemID      string  `dynamodbav:"item_id"`
	Name        string  `dynamodbav:"name"`
	Kind        string  `dynamodbav:"kind"`
	Category    string  `dynamodbav:"category"`
	UnitPrice   string  `dynamodbav:"unit_price"`
	UnitLabel   *string `dynamodbav:"unit_label,omitempty"`
	Description *string `dynamodbav:"description,omitempty"`
	SupplierID  *string `dynamodbav:"supplier_id,omitempty"`
	Available   bool    `dynamodbav:"available"`
}

func (d ddbCatalogItem) toModel() (models.CatalogItem, error) {
	price, err := decimal.NewFromString(d.UnitPrice)
	if err != nil {
		return models.CatalogItem{}, fmt.Errorf("item %s has invalid unit_price %q: %w", d.ItemID, d.UnitPrice, err)
	}
	item := models.CatalogItem{
		ID:        d.ItemID,
		Name:      d.Name,
		Kind:      models.ItemKind(d.Kind),
		Category:  d.Category,
		UnitPrice: price,
		Available: d.Available,
	}
	if d.UnitLabel != nil {
		item.UnitLabel = *d.UnitLabel
	}
	if d.Description != nil {
		item.Description = *d.Description
	}
	if d.SupplierID != nil {
		item.SupplierID = *d.SupplierID
	}
	return item, nil
}

func fromModel(item models.CatalogItem) ddbCatalogItem {
	d := ddbCatalogItem{
		ItemID:    item.ID,
		Name:      item.Name,
		Kind:      string(item.Kind),
		Category:  item.Category,
		UnitPrice: item.UnitPrice.String(),
		Available: item.Available,
	}
	if item.UnitLabel != "" {
		d.UnitLabel = &item.UnitLabel
	}
	if item.Description != "" {
		d.Description = &item.Description
	}
	if item.SupplierID != "" {
		d.SupplierID = &item.SupplierID
	}
	return d
}

// DynamoPutAPI is the write side used to load a catalog table.
type DynamoPutAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// PutCatalogItems writes items to table, replacing entries with the same item_id.
// It stops at the first failure and returns how many items were written.
func PutCatalogItems(ctx context.Context, client DynamoPutAPI, table string, items []models.CatalogItem) (int, error) {
	for i, item := range items {
		if item.ID == "" || item.UnitPrice.IsNegative() {
			return i, fmt.Errorf("item %d: id is required and unit_price must not be negative", i)
		}
		av, err := attributevalue.MarshalMap(fromModel(item))
		if err != nil {
			return i, fmt.Errorf("marshal item %s: %w", item.ID, err)
		}
		if _, err := client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &table, Item: av}); err != nil {
			return i, fmt.Errorf("dynamodb PutItem %s failed: %w", item.ID, err)
		}
	}
	return len(items), nil
}

func (r *DynamoCatalogRepository) FindByID(ctx context.Context, id string) (*models.CatalogItem, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"item_id": id})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &r.table, Key: key})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrCatalogItemNotFound
	}
	var di ddbCatalogItem
	if err := attributevalue.UnmarshalMap(out.Item, &di); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	item, err := di.toModel()
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// List scans the whole table and filters in memory. The catalog is small enough for that.
func (r *DynamoCatalogRepository) List(ctx context.Context, filter models.CatalogFilter) ([]models.CatalogItem, error) {
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: &r.table})

	var out []models.CatalogItem
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb Scan failed: %w", err)
		}
		var rows []ddbCatalogItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &rows); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
		for _, row := range rows {
			item, err := row.toModel()
			if err != nil {
				return nil, err
			}
			if filter.Matches(item) {
				out = append(out, item)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
