package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/omribarmats/pricegit/internal/domain"
	"github.com/omribarmats/pricegit/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings
// into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// CreateObservation inserts a new price observation with a duplicate-window check
func (s *pgStore) CreateObservation(ctx context.Context, obs *schema.PriceObservation, newProduct *schema.Product, duplicateWindow time.Duration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. A brand-new product is created alongside its first observation,
		// so neither row can exist without the other
		if newProduct != nil {
			if err := tx.Create(newProduct).Error; err != nil {
				return fmt.Errorf("failed to create product: %w", err)
			}
			obs.ProductID = newProduct.ID
		}

		// 2. Duplicate-submission guard. Skipped for brand-new products (no
		// prior submissions are possible). This is check-then-insert,
		// deliberately not serializable: two near-simultaneous submissions
		// may both pass, which the design tolerates as a soft limit.
		if duplicateWindow > 0 && newProduct == nil && obs.ProductID != "" {
			var count int64
			since := obs.CreatedAt.Add(-duplicateWindow)
			err := tx.Model(&schema.PriceObservation{}).
				Where("product_id = ? AND submitted_by = ? AND status <> ? AND created_at > ?",
					obs.ProductID, obs.SubmittedBy, domain.StatusRejected, since).
				Count(&count).Error
			if err != nil {
				return fmt.Errorf("failed to check duplicate window: %w", err)
			}
			if count > 0 {
				return domain.ErrDuplicateSubmission
			}
		}

		// 3. A referenced retail store row is created the first time its id is
		// seen. Repeat references must not conflict.
		if obs.StoreID != nil && *obs.StoreID != "" {
			row := schema.RetailStore{
				ID:      *obs.StoreID,
				Name:    storeDisplayName(obs),
				Country: obs.Country,
				City:    obs.City,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to ensure retail store: %w", err)
			}
		}

		// 4. Insert the observation
		if err := tx.Create(obs).Error; err != nil {
			return fmt.Errorf("failed to create observation: %w", err)
		}

		// 5. Auto-approved submissions get their audit row immediately, so
		// every approved observation has a journal entry regardless of path
		if obs.Status == domain.StatusApproved {
			reviewer := obs.SubmittedBy
			if obs.ReviewedBy != nil {
				reviewer = *obs.ReviewedBy
			}
			meta := schema.ModerationChangeMeta{
				ObservationID: obs.ID,
				ProductID:     obs.ProductID,
				From:          domain.StatusPending,
				To:            domain.StatusApproved,
				ReviewedBy:    reviewer,
				AutoApproved:  true,
			}
			if err := createModerationEvent(tx, obs.ID, obs.CreatedAt, meta); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetObservationByID retrieves an observation by id
func (s *pgStore) GetObservationByID(ctx context.Context, id string) (*schema.PriceObservation, error) {
	var obs schema.PriceObservation
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&obs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get observation: %w", err)
	}
	return &obs, nil
}

// ListApprovedByProduct retrieves a snapshot of approved observations for a product
func (s *pgStore) ListApprovedByProduct(ctx context.Context, productID string) ([]schema.PriceObservation, error) {
	var observations []schema.PriceObservation
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, domain.StatusApproved).
		Order("created_at ASC, id ASC").
		Find(&observations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list approved observations: %w", err)
	}
	return observations, nil
}

// ListByProductForUser retrieves observations visible to a specific user
func (s *pgStore) ListByProductForUser(ctx context.Context, productID, userID string, moderator bool) ([]schema.PriceObservation, error) {
	query := s.db.WithContext(ctx).Where("product_id = ?", productID)

	// Pending and rejected rows are visible only to their submitter and to moderators
	if !moderator {
		query = query.Where("status = ? OR submitted_by = ?", domain.StatusApproved, userID)
	}

	var observations []schema.PriceObservation
	if err := query.Order("created_at ASC, id ASC").Find(&observations).Error; err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	return observations, nil
}

// ReviewObservation applies a moderation decision as a single conditional write
func (s *pgStore) ReviewObservation(ctx context.Context, input ReviewObservationInput) (*schema.PriceObservation, error) {
	var reviewed schema.PriceObservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var obs schema.PriceObservation
		err := tx.Where("id = ?", input.ObservationID).First(&obs).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrObservationNotFound
			}
			return fmt.Errorf("failed to get observation: %w", err)
		}

		// Self-review ban holds regardless of role
		if input.ReviewerID == obs.SubmittedBy {
			return domain.ErrSelfReview
		}

		if obs.Status != domain.StatusPending {
			return domain.ErrAlreadyReviewed
		}

		if input.Decision == domain.DecisionReject &&
			(input.RejectionReason == nil || *input.RejectionReason == "") {
			return domain.ErrRejectionReasonRequired
		}

		newStatus := domain.StatusApproved
		if input.Decision == domain.DecisionReject {
			newStatus = domain.StatusRejected
		}

		updates := map[string]interface{}{
			"status":      newStatus,
			"reviewed_by": input.ReviewerID,
			"reviewed_at": input.DecidedAt,
		}
		if input.Decision == domain.DecisionReject {
			updates["rejection_reason"] = input.RejectionReason
		}

		// Conditional write keyed on the row still being pending. A
		// concurrent reviewer that committed first leaves RowsAffected at 0,
		// which must surface as a lost race and never as a silent overwrite.
		res := tx.Model(&schema.PriceObservation{}).
			Where("id = ? AND status = ?", input.ObservationID, domain.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update observation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrAlreadyReviewed
		}

		meta := schema.ModerationChangeMeta{
			ObservationID: obs.ID,
			ProductID:     obs.ProductID,
			From:          domain.StatusPending,
			To:            newStatus,
			ReviewedBy:    input.ReviewerID,
			Reason:        input.RejectionReason,
		}
		if err := createModerationEvent(tx, obs.ID, input.DecidedAt, meta); err != nil {
			return err
		}

		if err := tx.Where("id = ?", input.ObservationID).First(&reviewed).Error; err != nil {
			return fmt.Errorf("failed to reload observation: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &reviewed, nil
}

// ListModerationEvents retrieves the audit journal for an observation
func (s *pgStore) ListModerationEvents(ctx context.Context, observationID string) ([]schema.ModerationEvent, error) {
	var events []schema.ModerationEvent
	err := s.db.WithContext(ctx).
		Where("observation_id = ?", observationID).
		Order("changed_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list moderation events: %w", err)
	}
	return events, nil
}

// ReassignSubmitter rewrites submitted_by to the deleted-user sentinel
func (s *pgStore) ReassignSubmitter(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&schema.PriceObservation{}).
		Where("submitted_by = ?", userID).
		Update("submitted_by", domain.DeletedUserID)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to reassign submitter: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// storeDisplayName picks the best available name for a first-seen store row
func storeDisplayName(obs *schema.PriceObservation) string {
	if obs.StoreName != nil && *obs.StoreName != "" {
		return *obs.StoreName
	}
	if obs.SourceLabel != nil && *obs.SourceLabel != "" {
		return *obs.SourceLabel
	}
	return *obs.StoreID
}

// createModerationEvent appends an audit journal row inside the caller's transaction
func createModerationEvent(tx *gorm.DB, observationID string, changedAt time.Time, meta schema.ModerationChangeMeta) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal moderation event meta: %w", err)
	}

	event := schema.ModerationEvent{
		ObservationID: observationID,
		ChangedAt:     changedAt,
		Meta:          metaJSON,
	}
	if err := tx.Create(&event).Error; err != nil {
		return fmt.Errorf("failed to create moderation event: %w", err)
	}

	return nil
}
