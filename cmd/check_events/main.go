package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
)

func main() {
	spannerDB := flag.String("database", defaultDatabase(), "Spanner database")
	limit := flag.Int64("limit", 10, "Number of recent events to list")
	flag.Parse()

	ctx := context.Background()

	client, err := spanner.NewClient(ctx, *spannerDB)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	stmt := spanner.Statement{
		SQL: `SELECT event_id, routing_key, aggregate_id, status, retry_count, created_at
		      FROM outbox_events ORDER BY created_at DESC LIMIT @limit`,
		Params: map[string]interface{}{"limit": *limit},
	}

	iter := client.Single().Query(ctx, stmt)
	defer iter.Stop()

	fmt.Println("Events in outbox_events table:")
	count := 0
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Fatalf("Failed to iterate: %v", err)
		}

		var eventID, routingKey, aggregateID, status string
		var retryCount int64
		var createdAt spanner.NullTime
		if err := row.Columns(&eventID, &routingKey, &aggregateID, &status, &retryCount, &createdAt); err != nil {
			log.Fatalf("Failed to scan: %v", err)
		}

		fmt.Printf("%d. %s - %s (donation: %s, status: %s, retries: %d)\n",
			count+1, routingKey, eventID, aggregateID, status, retryCount)
		count++
	}

	if count == 0 {
		fmt.Println("No events found!")
	} else {
		fmt.Printf("\nTotal: %d events\n", count)
	}
}

func defaultDatabase() string {
	if db := os.Getenv("SPANNER_DATABASE"); db != "" {
		return db
	}
	return "projects/test-project/instances/dev-instance/databases/donation-db"
}
