package repo

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/shopspring/decimal"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/contracts"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"google.golang.org/api/iterator"
)

var _ contracts.FailedChargeRepository = (*SpannerFailedChargeRepo)(nil)

// SpannerFailedChargeRepo reads failed charges and customer subscriptions from Cloud Spanner
type SpannerFailedChargeRepo struct {
	client *spanner.Client
}

// NewSpannerFailedChargeRepo creates a new failed-charge repository
func NewSpannerFailedChargeRepo(client *spanner.Client) *SpannerFailedChargeRepo {
	return &SpannerFailedChargeRepo{client: client}
}

// ListFailedCharges returns all failed charges, most recent failure first
func (r *SpannerFailedChargeRepo) ListFailedCharges(ctx context.Context) ([]domain.FailedCharge, error) {
	defer observe("list_failed_charges", time.Now())

	stmt := spanner.Statement{
		SQL: `
			SELECT id, subscription_id, customer_email, customer_first_name, customer_last_name,
			       customer_name, failed_amount, failure_reason, failure_date, recovery_status,
			       priority_level, recovery_notes, total_paid, remaining_balance, created_at, updated_at
			FROM failed_charges
			ORDER BY failure_date DESC
		`,
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	charges := []domain.FailedCharge{}
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapSpannerError("query failed charges", err)
		}

		var (
			id                                        string
			subscriptionID, email, first, last, name  spanner.NullString
			reason, status, priority, notes           spanner.NullString
			failedAmount, totalPaid, remainingBalance spanner.NullNumeric
			failureDate, createdAt, updatedAt         spanner.NullTime
		)
		if err := row.Columns(&id, &subscriptionID, &email, &first, &last, &name,
			&failedAmount, &reason, &failureDate, &status, &priority, &notes,
			&totalPaid, &remainingBalance, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("decode failed charge row: %w", err)
		}

		charge := domain.FailedCharge{
			ID:               id,
			SubscriptionID:   subscriptionID.StringVal,
			CustomerName:     domain.CustomerDisplayName(name.StringVal, first.StringVal, last.StringVal),
			CustomerEmail:    email.StringVal,
			FailedAmount:     numericToDecimal(failedAmount),
			FailureReason:    reason.StringVal,
			FailureDate:      failureDate.Time,
			RecoveryStatus:   domain.RecoveryStatus(status.StringVal),
			PriorityLevel:    domain.PriorityLevel(priority.StringVal),
			RecoveryNotes:    notes.StringVal,
			TotalPaid:        numericToDecimal(totalPaid),
			RemainingBalance: numericToDecimal(remainingBalance),
			CreatedAt:        createdAt.Time,
			UpdatedAt:        updatedAt.Time,
		}
		charges = append(charges, charge.Normalize())
	}
	return charges, nil
}

// CountCustomers returns the number of customer subscriptions
func (r *SpannerFailedChargeRepo) CountCustomers(ctx context.Context) (int, error) {
	defer observe("count_customers", time.Now())

	stmt := spanner.Statement{SQL: `SELECT COUNT(*) FROM customer_subscriptions`}
	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, mapSpannerError("count customers", err)
	}

	var count int64
	if err := row.Columns(&count); err != nil {
		return 0, fmt.Errorf("decode customer count: %w", err)
	}
	return int(count), nil
}

func numericToDecimal(n spanner.NullNumeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(spanner.NumericString(&n.Numeric))
	if err != nil {
		return decimal.Zero
	}
	return d
}
