package executor

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/omribarmats/pricegit/internal/api/shared/dto"
	"github.com/omribarmats/pricegit/internal/domain"
	"github.com/omribarmats/pricegit/internal/emitter"
	"github.com/omribarmats/pricegit/internal/logger"
	"github.com/omribarmats/pricegit/internal/pricing"
	"github.com/omribarmats/pricegit/internal/store"
	"github.com/omribarmats/pricegit/internal/store/schema"
)

// SubmitInput holds a validated submission plus the acting user's identity
type SubmitInput struct {
	// ProductID references an existing product. Empty means brand-new, in
	// which case ProductName is required and a product row is created with
	// the observation.
	ProductID   string
	ProductName *string

	StoreID     *string
	StoreName   *string
	SourceLabel *string

	Price        float64
	Currency     string
	ItemPrice    *float64
	ShippingCost *float64
	Fees         *float64
	FinalPrice   bool

	Country string
	City    *string

	Fulfillment domain.FulfillmentKind
	Condition   domain.Condition

	SubmitterID   string
	SubmitterRole domain.Role
}

// ReviewInput holds a moderation decision plus the acting reviewer's identity
type ReviewInput struct {
	ObservationID string
	ReviewerID    string
	Decision      domain.ReviewDecision
	Reason        *string
}

// Executor is the interface for the price aggregation and moderation core
type Executor interface {
	// Submit runs the duplicate guard and persists a new observation,
	// creating a brand-new product when the submission names one instead of
	// referencing an id, and auto-approving submissions from privileged roles
	Submit(ctx context.Context, input SubmitInput) (*dto.SubmitResponse, error)

	// Review applies a moderation decision to a pending observation
	Review(ctx context.Context, input ReviewInput) (*dto.ObservationResponse, error)

	// RankedPrices aggregates the approved observations for one product and
	// ranks the canonical groups by relevance to the shopper's location
	RankedPrices(ctx context.Context, productID string, shopper domain.Location, filters pricing.Filters) (*dto.RankedPricesResponse, error)

	// RankedPricesBulk ranks several products concurrently. Each product is
	// aggregated from its own snapshot; no state is shared between products.
	RankedPricesBulk(ctx context.Context, productIDs []string, shopper domain.Location) (*dto.BulkRankedPricesResponse, error)

	// GetObservation retrieves one observation. Pending and rejected rows are
	// only visible to their submitter and to moderators.
	GetObservation(ctx context.Context, observationID, userID string, moderator bool) (*dto.ObservationResponse, error)

	// ProductObservations lists a product's observations visible to the
	// requesting user: all approved rows plus the user's own pending and
	// rejected ones. Moderators see everything.
	ProductObservations(ctx context.Context, productID, userID string, moderator bool) (*dto.ProductObservationsResponse, error)

	// ModerationTrail retrieves the audit journal for an observation
	ModerationTrail(ctx context.Context, observationID string) (*dto.ModerationEventsResponse, error)

	// DetachUser reassigns all of a deleted user's observations to the
	// deleted-user sentinel, preserving aggregate history
	DetachUser(ctx context.Context, userID string) (*dto.DetachUserResponse, error)
}

type executorImpl struct {
	store           store.Store
	publisher       emitter.Publisher
	duplicateWindow time.Duration
	pool            pond.Pool
}

// New creates a new executor
func New(st store.Store, pub emitter.Publisher, duplicateWindow time.Duration, poolSize int) Executor {
	if poolSize <= 0 {
		poolSize = 8
	}
	return &executorImpl{
		store:           st,
		publisher:       pub,
		duplicateWindow: duplicateWindow,
		pool:            pond.NewPool(poolSize),
	}
}

// Submit runs the duplicate guard and persists a new observation
func (e *executorImpl) Submit(ctx context.Context, input SubmitInput) (*dto.SubmitResponse, error) {
	if !hasStoreReference(input) {
		return nil, domain.ErrStoreReferenceMissing
	}

	now := time.Now().UTC()

	// A submission must anchor to a product: an existing id, or a name that
	// creates one alongside the observation
	var newProduct *schema.Product
	if input.ProductID == "" {
		if input.ProductName == nil || *input.ProductName == "" {
			return nil, domain.ErrProductReferenceMissing
		}
		newProduct = &schema.Product{
			ID:        ulid.Make().String(),
			Name:      *input.ProductName,
			CreatedBy: input.SubmitterID,
			CreatedAt: now,
		}
	}

	obs := &schema.PriceObservation{
		ID:           ulid.Make().String(),
		ProductID:    input.ProductID,
		StoreID:      input.StoreID,
		StoreName:    input.StoreName,
		SourceLabel:  input.SourceLabel,
		Price:        input.Price,
		Currency:     input.Currency,
		ItemPrice:    input.ItemPrice,
		ShippingCost: input.ShippingCost,
		Fees:         input.Fees,
		FinalPrice:   input.FinalPrice,
		Country:      input.Country,
		City:         input.City,
		Fulfillment:  input.Fulfillment,
		Condition:    input.Condition,
		SubmittedBy:  input.SubmitterID,
		Status:       domain.StatusPending,
		CreatedAt:    now,
	}

	// Privileged submitters skip the pending queue: the submission is
	// self-attested with reviewer = submitter
	if input.SubmitterRole.AutoApproves() {
		obs.Status = domain.StatusApproved
		obs.ReviewedBy = &input.SubmitterID
		obs.ReviewedAt = &now
	}

	if err := e.store.CreateObservation(ctx, obs, newProduct, e.duplicateWindow); err != nil {
		return nil, err
	}

	if obs.Status == domain.StatusApproved {
		e.publishApproved(ctx, obs)
	}

	return &dto.SubmitResponse{ID: obs.ID, ProductID: obs.ProductID, Status: string(obs.Status)}, nil
}

// Review applies a moderation decision to a pending observation
func (e *executorImpl) Review(ctx context.Context, input ReviewInput) (*dto.ObservationResponse, error) {
	reviewed, err := e.store.ReviewObservation(ctx, store.ReviewObservationInput{
		ObservationID:   input.ObservationID,
		ReviewerID:      input.ReviewerID,
		Decision:        input.Decision,
		RejectionReason: input.Reason,
		DecidedAt:       time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if reviewed.Status == domain.StatusApproved {
		e.publishApproved(ctx, reviewed)
	}

	resp := toObservationDTO(reviewed)
	return &resp, nil
}

// RankedPrices aggregates and ranks the approved observations for one product
func (e *executorImpl) RankedPrices(ctx context.Context, productID string, shopper domain.Location, filters pricing.Filters) (*dto.RankedPricesResponse, error) {
	observations, err := e.store.ListApprovedByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	aggregated := pricing.Aggregate(observations)
	if aggregated.SkippedMalformed > 0 {
		logger.WarnCtx(ctx, "Skipped malformed observations during aggregation",
			zap.String("product_id", productID),
			zap.Int("skipped", aggregated.SkippedMalformed),
		)
	}

	ranked := pricing.Rank(aggregated.Groups, shopper)
	filtered := filters.Apply(ranked)

	return toRankedDTO(productID, filtered), nil
}

// RankedPricesBulk ranks several products concurrently on the worker pool
func (e *executorImpl) RankedPricesBulk(ctx context.Context, productIDs []string, shopper domain.Location) (*dto.BulkRankedPricesResponse, error) {
	var mu sync.Mutex
	results := make(map[string]*dto.RankedPricesResponse, len(productIDs))

	group := e.pool.NewGroup()
	for _, productID := range productIDs {
		group.SubmitErr(func() error {
			ranked, err := e.RankedPrices(ctx, productID, shopper, pricing.Filters{})
			if err != nil {
				return err
			}
			mu.Lock()
			results[productID] = ranked
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return &dto.BulkRankedPricesResponse{Products: results}, nil
}

// GetObservation retrieves one observation, respecting submitter visibility
func (e *executorImpl) GetObservation(ctx context.Context, observationID, userID string, moderator bool) (*dto.ObservationResponse, error) {
	obs, err := e.store.GetObservationByID(ctx, observationID)
	if err != nil {
		return nil, err
	}
	if obs == nil {
		return nil, domain.ErrObservationNotFound
	}

	// Undecided and rejected rows stay private to their submitter. Not-found
	// rather than forbidden, so the response does not leak existence.
	if obs.Status != domain.StatusApproved && !moderator && obs.SubmittedBy != userID {
		return nil, domain.ErrObservationNotFound
	}

	resp := toObservationDTO(obs)
	return &resp, nil
}

// ProductObservations lists a product's observations visible to the user
func (e *executorImpl) ProductObservations(ctx context.Context, productID, userID string, moderator bool) (*dto.ProductObservationsResponse, error) {
	observations, err := e.store.ListByProductForUser(ctx, productID, userID, moderator)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProductObservationsResponse{
		ProductID:    productID,
		Observations: make([]dto.ObservationResponse, 0, len(observations)),
	}
	for i := range observations {
		resp.Observations = append(resp.Observations, toObservationDTO(&observations[i]))
	}
	return resp, nil
}

// ModerationTrail retrieves the audit journal for an observation
func (e *executorImpl) ModerationTrail(ctx context.Context, observationID string) (*dto.ModerationEventsResponse, error) {
	obs, err := e.store.GetObservationByID(ctx, observationID)
	if err != nil {
		return nil, err
	}
	if obs == nil {
		return nil, domain.ErrObservationNotFound
	}

	events, err := e.store.ListModerationEvents(ctx, observationID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ModerationEventsResponse{
		ObservationID: observationID,
		Events:        make([]dto.ModerationEventResponse, 0, len(events)),
	}
	for i := range events {
		entry := dto.ModerationEventResponse{
			ID:            events[i].ID,
			ObservationID: events[i].ObservationID,
			ChangedAt:     events[i].ChangedAt,
			CreatedAt:     events[i].CreatedAt,
		}

		var meta schema.ModerationChangeMeta
		if err := json.Unmarshal(events[i].Meta, &meta); err != nil {
			logger.WarnCtx(ctx, "Skipping undecodable moderation event meta",
				zap.Uint64("event_id", events[i].ID),
				zap.Error(err),
			)
		} else {
			entry.From = string(meta.From)
			entry.To = string(meta.To)
			entry.ReviewedBy = meta.ReviewedBy
			entry.Reason = meta.Reason
			entry.AutoApproved = meta.AutoApproved
		}

		resp.Events = append(resp.Events, entry)
	}
	return resp, nil
}

// DetachUser reassigns a deleted user's observations to the sentinel submitter
func (e *executorImpl) DetachUser(ctx context.Context, userID string) (*dto.DetachUserResponse, error) {
	reassigned, err := e.store.ReassignSubmitter(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.DetachUserResponse{Reassigned: reassigned}, nil
}

// publishApproved emits an approved-price event. Fire-and-forget: publish
// failures are logged and never surfaced to the caller.
func (e *executorImpl) publishApproved(ctx context.Context, obs *schema.PriceObservation) {
	approvedAt := obs.CreatedAt
	if obs.ReviewedAt != nil {
		approvedAt = *obs.ReviewedAt
	}

	event := &emitter.ApprovedPriceEvent{
		ObservationID: obs.ID,
		ProductID:     obs.ProductID,
		Price:         obs.Price,
		Currency:      obs.Currency,
		Country:       obs.Country,
		City:          obs.City,
		Fulfillment:   string(obs.Fulfillment),
		Condition:     string(obs.Condition),
		ApprovedAt:    approvedAt,
	}

	if err := e.publisher.PublishApproved(ctx, event); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("observation_id", obs.ID),
			zap.String("product_id", obs.ProductID),
		)
	}
}

func hasStoreReference(input SubmitInput) bool {
	present := func(s *string) bool { return s != nil && *s != "" }
	return present(input.StoreID) || present(input.StoreName) || present(input.SourceLabel)
}

func toObservationDTO(obs *schema.PriceObservation) dto.ObservationResponse {
	return dto.ObservationResponse{
		ID:              obs.ID,
		ProductID:       obs.ProductID,
		StoreID:         obs.StoreID,
		StoreName:       obs.StoreName,
		SourceLabel:     obs.SourceLabel,
		Price:           obs.Price,
		Currency:        obs.Currency,
		ItemPrice:       obs.ItemPrice,
		ShippingCost:    obs.ShippingCost,
		Fees:            obs.Fees,
		FinalPrice:      obs.FinalPrice,
		Country:         obs.Country,
		City:            obs.City,
		Fulfillment:     string(obs.Fulfillment),
		Condition:       string(obs.Condition),
		SubmittedBy:     obs.SubmittedBy,
		Status:          string(obs.Status),
		ReviewedBy:      obs.ReviewedBy,
		ReviewedAt:      obs.ReviewedAt,
		RejectionReason: obs.RejectionReason,
		CreatedAt:       obs.CreatedAt,
	}
}

func toRankedDTO(productID string, ranked pricing.RankedPrices) *dto.RankedPricesResponse {
	records := make([]dto.PriceGroupResponse, 0, len(ranked.Records))
	for _, group := range ranked.Records {
		record := dto.PriceGroupResponse{Current: toObservationDTO(&group.Current)}
		for i := range group.History {
			record.History = append(record.History, toObservationDTO(&group.History[i]))
		}
		records = append(records, record)
	}

	return &dto.RankedPricesResponse{
		ProductID:     productID,
		Records:       records,
		TotalCount:    ranked.TotalCount,
		FilteredCount: ranked.FilteredCount,
	}
}
