package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	json "github.com/goccy/go-json"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/donation-service/internal/app/donation/contracts"
	"github.com/light-bringer/donation-service/internal/models/m_webhook"
)

// WebhookLogRepo implements WebhookLogStore for Spanner.
type WebhookLogRepo struct {
	client *spanner.Client
	model  *m_webhook.Model
}

// NewWebhookLogRepo creates a new WebhookLogRepo.
func NewWebhookLogRepo(client *spanner.Client) contracts.WebhookLogStore {
	return &WebhookLogRepo{
		client: client,
		model:  m_webhook.NewModel(),
	}
}

// Insert writes the dedup row for an inbound provider event. The insert is
// the fencing token: the primary key on the event id makes the second
// delivery fail with AlreadyExists before any side effect runs.
func (r *WebhookLogRepo) Insert(ctx context.Context, log *contracts.WebhookLog) error {
	data := &m_webhook.Data{
		EventID:     log.EventID,
		Provider:    log.Provider,
		EventType:   log.EventType,
		Status:      log.Status,
		ProcessedAt: log.ProcessedAt,
	}
	if log.Signature != "" {
		data.Signature = spanner.NullString{StringVal: log.Signature, Valid: true}
	}
	if log.Payload != "" {
		data.Payload = spanner.NullJSON{Value: json.RawMessage(log.Payload), Valid: true}
	}

	if _, err := r.client.Apply(ctx, []*spanner.Mutation{r.model.InsertMut(data)}); err != nil {
		if spanner.ErrCode(err) == codes.AlreadyExists {
			return contracts.ErrDuplicateWebhookEvent
		}
		return fmt.Errorf("failed to insert webhook log %s: %w", log.EventID, err)
	}
	return nil
}
