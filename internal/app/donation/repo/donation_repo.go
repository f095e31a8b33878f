package repo

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	json "github.com/goccy/go-json"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/donation-service/internal/app/donation/contracts"
	"github.com/light-bringer/donation-service/internal/app/donation/domain"
	"github.com/light-bringer/donation-service/internal/models/m_donation"
	"github.com/light-bringer/donation-service/internal/pkg/committer"
	"github.com/light-bringer/donation-service/internal/pkg/query"
)

// DonationRepo implements DonationRepository for Spanner.
type DonationRepo struct {
	client    *spanner.Client
	model     *m_donation.Model
	outbox    *OutboxRepo
	committer *committer.Committer
}

// NewDonationRepo creates a new DonationRepo.
func NewDonationRepo(client *spanner.Client, outbox *OutboxRepo) contracts.DonationRepository {
	return &DonationRepo{
		client:    client,
		model:     m_donation.NewModel(),
		outbox:    outbox,
		committer: committer.NewCommitter(client),
	}
}

// Create inserts a new donation in its own atomic unit. The unique index on
// the idempotency key turns a duplicate create into AlreadyExists, which is
// translated into ErrIdempotencyKeyConflict for the orchestrator.
func (r *DonationRepo) Create(ctx context.Context, d *domain.Donation) error {
	plan := committer.NewPlan()
	plan.Add(r.model.InsertMut(domainToData(d)))

	if err := r.committer.Apply(ctx, plan); err != nil {
		if spanner.ErrCode(err) == codes.AlreadyExists {
			return contracts.ErrIdempotencyKeyConflict
		}
		return fmt.Errorf("failed to insert donation: %w", err)
	}
	return nil
}

// GetByID retrieves a donation by id, reconstructing the domain aggregate.
func (r *DonationRepo) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	row, err := r.client.Single().ReadRow(ctx, m_donation.TableName, spanner.Key{id}, r.model.Columns())
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrDonationNotFound
		}
		return nil, fmt.Errorf("failed to read donation %s: %w", id, err)
	}
	return scanDonationRow(row)
}

// GetByIdempotencyKey retrieves the donation created with the given key.
func (r *DonationRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Donation, error) {
	stmt := query.From(m_donation.TableName).
		Select(r.model.Columns()...).
		Where(query.Eq(m_donation.IdempotencyKey, key)).
		Limit(1).
		Build()

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err == iterator.Done {
		return nil, domain.ErrDonationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query donation by idempotency key: %w", err)
	}
	return scanDonationRow(row)
}

// Transition re-reads the currently persisted donation inside a read-write
// transaction, applies the domain change, and buffers the row update
// together with one outbox insert per recorded event. A failure anywhere
// aborts the whole unit; nothing is half-committed.
func (r *DonationRepo) Transition(ctx context.Context, id string, apply func(d *domain.Donation) error) (*domain.Donation, error) {
	var committed *domain.Donation

	err := r.committer.ApplyWithReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		row, err := txn.ReadRow(ctx, m_donation.TableName, spanner.Key{id}, r.model.Columns())
		if err != nil {
			if spanner.ErrCode(err) == codes.NotFound {
				return domain.ErrDonationNotFound
			}
			return fmt.Errorf("failed to read donation %s: %w", id, err)
		}

		d, err := scanDonationRow(row)
		if err != nil {
			return err
		}

		previous := d.Status()
		if err := apply(d); err != nil {
			return err
		}

		updates := map[string]interface{}{
			m_donation.Status:    string(d.Status()),
			m_donation.UpdatedAt: d.UpdatedAt(),
		}
		if reason := d.Reason(); reason != "" {
			updates[m_donation.Reason] = spanner.NullString{StringVal: reason, Valid: true}
		}
		if ref := d.ExternalRef(); ref != "" {
			updates[m_donation.ExternalRef] = spanner.NullString{StringVal: ref, Valid: true}
		}
		if d.Status() != previous {
			if col, ok := m_donation.StampColumn(string(d.Status())); ok {
				if stamp, stamped := d.StatusTimestamp(d.Status()); stamped {
					updates[col] = spanner.NullTime{Time: stamp, Valid: true}
				}
			}
		}

		plan := committer.NewPlan()
		plan.Add(r.model.UpdateMut(id, updates))
		for _, event := range d.DomainEvents() {
			payload, err := json.Marshal(event)
			if err != nil {
				return fmt.Errorf("failed to serialize event %s: %w", event.EventType(), err)
			}
			outboxEvent := r.outbox.EnrichEvent(event, string(payload))
			plan.Add(r.outbox.InsertMut(outboxEvent))
		}

		committed = d
		return txn.BufferWrite(plan.Mutations())
	})
	if err != nil {
		return nil, err
	}

	// Events are in the outbox now; drop the in-memory copies.
	committed.ClearEvents()
	return committed, nil
}

func domainToData(d *domain.Donation) *m_donation.Data {
	data := &m_donation.Data{
		DonationID:     d.ID(),
		CampaignID:     d.CampaignID(),
		DonorKind:      string(d.Donor().Kind),
		AccountID:      d.AccountID(),
		Amount:         d.Amount(),
		Status:         string(d.Status()),
		IdempotencyKey: d.IdempotencyKey(),
		CreatedAt:      d.CreatedAt(),
		UpdatedAt:      d.UpdatedAt(),
	}
	if d.Donor().IsAuthenticated() {
		data.DonorUserID = spanner.NullString{StringVal: d.Donor().UserID, Valid: true}
	}
	if ref := d.ExternalRef(); ref != "" {
		data.ExternalRef = spanner.NullString{StringVal: ref, Valid: true}
	}
	if reason := d.Reason(); reason != "" {
		data.Reason = spanner.NullString{StringVal: reason, Valid: true}
	}

	stamps := d.StatusTimestamps()
	assign := func(status domain.DonationStatus, dst *spanner.NullTime) {
		if t, ok := stamps[status]; ok {
			*dst = spanner.NullTime{Time: t, Valid: true}
		}
	}
	assign(domain.StatusPending, &data.PendingAt)
	assign(domain.StatusBalanceCheck, &data.BalanceCheckAt)
	assign(domain.StatusAuthorized, &data.AuthorizedAt)
	assign(domain.StatusCaptured, &data.CapturedAt)
	assign(domain.StatusCompleted, &data.CompletedAt)
	assign(domain.StatusFailed, &data.FailedAt)
	assign(domain.StatusRefunded, &data.RefundedAt)

	return data
}

func scanDonationRow(row *spanner.Row) (*domain.Donation, error) {
	var data m_donation.Data
	if err := row.Columns(
		&data.DonationID,
		&data.CampaignID,
		&data.DonorKind,
		&data.DonorUserID,
		&data.AccountID,
		&data.Amount,
		&data.Status,
		&data.IdempotencyKey,
		&data.ExternalRef,
		&data.Reason,
		&data.CreatedAt,
		&data.UpdatedAt,
		&data.PendingAt,
		&data.BalanceCheckAt,
		&data.AuthorizedAt,
		&data.CapturedAt,
		&data.CompletedAt,
		&data.FailedAt,
		&data.RefundedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan donation row: %w", err)
	}

	donor := domain.GuestDonor()
	if domain.DonorKind(data.DonorKind) == domain.DonorAuthenticated {
		donor = domain.AuthenticatedDonor(data.DonorUserID.StringVal)
	}

	stamps := make(map[domain.DonationStatus]time.Time)
	collect := func(status domain.DonationStatus, src spanner.NullTime) {
		if src.Valid {
			stamps[status] = src.Time
		}
	}
	collect(domain.StatusPending, data.PendingAt)
	collect(domain.StatusBalanceCheck, data.BalanceCheckAt)
	collect(domain.StatusAuthorized, data.AuthorizedAt)
	collect(domain.StatusCaptured, data.CapturedAt)
	collect(domain.StatusCompleted, data.CompletedAt)
	collect(domain.StatusFailed, data.FailedAt)
	collect(domain.StatusRefunded, data.RefundedAt)

	return domain.ReconstructDonation(
		data.DonationID,
		data.CampaignID,
		donor,
		data.AccountID,
		data.Amount,
		domain.DonationStatus(data.Status),
		data.IdempotencyKey,
		data.ExternalRef.StringVal,
		data.Reason.StringVal,
		data.CreatedAt,
		data.UpdatedAt,
		stamps,
	), nil
}
