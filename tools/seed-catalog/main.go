package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/yashrajoria/streetkit/models"
	aws_pkg "github.com/yashrajoria/streetkit/pkg/aws"
	ddb "github.com/yashrajoria/streetkit/pkg/dynamodb"
	"github.com/yashrajoria/streetkit/repository"
)

func main() {
	_ = godotenv.Load()

	var table, file string
	var dryRun bool
	flag.StringVar(&table, "table", os.Getenv("CATALOG_TABLE"), "DynamoDB table name")
	flag.StringVar(&file, "file", "", "JSON array of catalog items (defaults to the demo catalog)")
	flag.BoolVar(&dryRun, "dry-run", false, "print the items without writing")
	flag.Parse()

	if table == "" {
		table = "streetkit-catalog"
	}

	items := repository.DemoCatalog()
	if file != "" {
		loaded, err := readItems(file)
		if err != nil {
			log.Fatalf("read %s: %v", file, err)
		}
		items = loaded
	}

	if dryRun {
		for _, item := range items {
			fmt.Printf("%s\t%s\t%s\t%s\n", item.ID, item.Kind, item.Name, item.UnitPrice.StringFixed(2))
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
	if err != nil {
		log.Fatalf("aws config: %v", err)
	}
	client := ddb.NewClientFromConfig(awsCfg)
	if err := ddb.CheckTable(ctx, client, table); err != nil {
		log.Fatal(err)
	}

	written, err := repository.PutCatalogItems(ctx, client, table, items)
	if err != nil {
		log.Fatalf("seed stopped after %d items: %v", written, err)
	}
	log.Printf("Seeding complete. table=%s written=%d", table, written)
}

func readItems(path string) ([]models.CatalogItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []models.CatalogItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}
