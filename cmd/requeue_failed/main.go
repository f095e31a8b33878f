package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
)

// Configuration for the outbox remediation job
type Config struct {
	SpannerDB string
	DryRun    bool
}

func main() {
	config := Config{}
	flag.StringVar(&config.SpannerDB, "database", "", "Spanner database (required, format: projects/PROJECT/instances/INSTANCE/databases/DATABASE)")
	flag.BoolVar(&config.DryRun, "dry-run", false, "Show what would be requeued without actually resetting")
	flag.Parse()

	if config.SpannerDB == "" {
		log.Fatal("Error: -database flag is required")
	}

	ctx := context.Background()

	if err := requeueFailed(ctx, config); err != nil {
		log.Fatalf("Requeue failed: %v", err)
	}

	log.Println("Requeue completed successfully")
}

// requeueFailed bulk-resets failed outbox records to pending with their
// retry counters cleared, so the publisher picks them up again. Failed
// records are never deleted; this is the operator remediation path.
func requeueFailed(ctx context.Context, config Config) error {
	client, err := spanner.NewClient(ctx, config.SpannerDB)
	if err != nil {
		return fmt.Errorf("failed to create Spanner client: %w", err)
	}
	defer client.Close()

	log.Printf("Starting outbox requeue...")
	log.Printf("  Dry run: %v", config.DryRun)

	if config.DryRun {
		return dryRunRequeue(ctx, client)
	}

	return performRequeue(ctx, client)
}

func dryRunRequeue(ctx context.Context, client *spanner.Client) error {
	stmt := spanner.Statement{
		SQL: `SELECT event_type, COUNT(*) as count
		      FROM outbox_events
		      WHERE status = 'failed'
		      GROUP BY event_type`,
	}

	iter := client.Single().Query(ctx, stmt)
	defer iter.Stop()

	totalCount := int64(0)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to query failed records: %w", err)
		}

		var eventType string
		var count int64
		if err := row.Columns(&eventType, &count); err != nil {
			return fmt.Errorf("failed to parse row: %w", err)
		}

		log.Printf("  Would requeue %d %s records", count, eventType)
		totalCount += count
	}

	log.Printf("DRY RUN: Would requeue %d total records", totalCount)
	log.Println("Run without --dry-run to actually requeue records")

	return nil
}

func performRequeue(ctx context.Context, client *spanner.Client) error {
	_, err := client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		stmt := spanner.Statement{
			SQL: `UPDATE outbox_events
			      SET status = 'pending', retry_count = 0, last_error = NULL
			      WHERE status = 'failed'`,
		}

		rowCount, err := txn.Update(ctx, stmt)
		if err != nil {
			return fmt.Errorf("failed to requeue records: %w", err)
		}

		if rowCount == 0 {
			log.Println("No failed records to requeue")
			return nil
		}

		log.Printf("Requeued %d records", rowCount)
		return nil
	})
	if err != nil {
		return fmt.Errorf("requeue transaction failed: %w", err)
	}

	return nil
}
