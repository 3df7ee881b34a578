package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/internal/notifications"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
	"github.com/homefix/homeservices-backend/pkg/logger"
	"github.com/homefix/homeservices-backend/pkg/metrics"
	"github.com/homefix/homeservices-backend/pkg/outbox"
	"github.com/homefix/homeservices-backend/pkg/pagination"
)

// Service runs the booking lifecycle. Every mutating call commits its rows and
// outbox effects together, then drains the effects best-effort.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Result, error)
	Transition(ctx context.Context, input TransitionInput) (*Result, error)
	AttachReview(ctx context.Context, input ReviewInput) (*ReviewResult, error)
	Get(ctx context.Context, bookingID, actorID uuid.UUID) (*Detail, error)
	ListForUser(ctx context.Context, params ListParams) (*ListResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ratingAggregator interface {
	Apply(ctx context.Context, tx *gorm.DB, providerID uuid.UUID, rating int) (*models.ServiceProvider, error)
}

type effectQueue interface {
	Enqueue(ctx context.Context, tx *gorm.DB, aggregate enums.OutboxAggregateType, aggregateID uuid.UUID, actor *outbox.ActorRef, events []notifications.Event) []notifications.Event
}

type effectDrainer interface {
	Drain(ctx context.Context, events []notifications.Event)
}

// ServiceParams bundles booking service dependencies.
type ServiceParams struct {
	DB      txRunner
	Repo    *Repository
	Ratings ratingAggregator
	Queue   effectQueue
	Drainer effectDrainer
	Logger  *logger.Logger
	Metrics *metrics.DomainMetrics
	Now     func() time.Time
}

type service struct {
	tx      txRunner
	repo    *Repository
	ratings ratingAggregator
	queue   effectQueue
	drainer effectDrainer
	logg    *logger.Logger
	metrics *metrics.DomainMetrics
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "bookings repository required")
	}
	if params.Ratings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "rating aggregator required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:      params.DB,
		repo:    params.Repo,
		ratings: params.Ratings,
		queue:   params.Queue,
		drainer: params.Drainer,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Result, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	var (
		booking *models.Booking
		chat    *models.Chat
		effects []notifications.Event
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		provider, err := repo.FindProvider(ctx, input.ProviderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider")
		}
		svc, err := repo.FindService(ctx, input.ServiceID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
		}

		var planned []notifications.Event
		booking, chat, planned, err = planCreate(input, provider, svc)
		if err != nil {
			return err
		}
		if err := repo.CreateBooking(ctx, booking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
		}
		if err := repo.CreateChat(ctx, chat); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create chat")
		}
		effects = s.enqueue(ctx, tx, enums.AggregateBooking, booking.ID, input.CustomerID, planned)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.drain(ctx, effects)
	if s.logg != nil {
		logCtx := s.logg.WithBookingID(ctx, booking.ID.String())
		s.logg.Info(logCtx, "booking created")
	}
	chatID := chat.ID
	return &Result{Booking: bookingFromModel(booking), ChatID: &chatID, Effects: effects}, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*Result, error) {
	if input.BookingID == uuid.Nil || input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id and actor id are required")
	}

	var (
		updated *models.Booking
		plan    *transitionPlan
		effects []notifications.Event
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		booking, err := repo.FindByID(ctx, input.BookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}

		var planned []notifications.Event
		plan, planned, err = planTransition(booking, input, s.now().UTC())
		if err != nil {
			return err
		}

		applied, err := repo.ApplyTransition(ctx, booking.ID, plan)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking status")
		}
		if !applied {
			return invalidTransition("booking status changed concurrently")
		}
		if plan.CompleteProvider {
			if err := repo.IncrementCompleted(ctx, booking.ProviderID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update provider stats")
			}
		}

		updated, err = repo.FindByID(ctx, booking.ID)
		if err != nil || updated == nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload booking")
		}
		effects = s.enqueue(ctx, tx, enums.AggregateBooking, booking.ID, input.ActorID, planned)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(plan.From), string(plan.To))
	s.drain(ctx, effects)
	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithBookingID(ctx, updated.ID.String()), map[string]any{
			"from": plan.From,
			"to":   plan.To,
		})
		s.logg.Info(logCtx, "booking transitioned")
	}
	return &Result{Booking: bookingFromModel(updated), Effects: effects}, nil
}

func (s *service) AttachReview(ctx context.Context, input ReviewInput) (*ReviewResult, error) {
	if err := validateReview(input); err != nil {
		return nil, err
	}

	var (
		review  *models.Review
		profile *models.ServiceProvider
		effects []notifications.Event
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		booking, err := repo.FindByID(ctx, input.BookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}

		var planned []notifications.Event
		review, planned, err = planReview(booking, input)
		if err != nil {
			return err
		}

		exists, err := repo.ReviewExists(ctx, booking.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
		}
		if exists {
			return reviewExists()
		}
		if err := repo.CreateReview(ctx, review); err != nil {
			if isReviewConflict(err) {
				return reviewExists()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}

		profile, err = s.ratings.Apply(ctx, tx, booking.ProviderID, review.Rating)
		if err != nil {
			return err
		}
		effects = s.enqueue(ctx, tx, enums.AggregateReview, review.ID, input.ReviewerID, planned)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.drain(ctx, effects)
	return &ReviewResult{
		Review:         reviewFromModel(review),
		ProviderRating: profile.Rating,
		TotalReviews:   profile.TotalReviews,
		Effects:        effects,
	}, nil
}

func (s *service) Get(ctx context.Context, bookingID, actorID uuid.UUID) (*Detail, error) {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking == nil || !booking.Involves(actorID) {
		return nil, notFound()
	}

	detail := &Detail{BookingDTO: bookingFromModel(booking)}
	svc, err := s.repo.FindService(ctx, booking.ServiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	if svc != nil {
		detail.Service = &ServiceSummary{ID: svc.ID, Name: svc.Name, Category: svc.Category, Price: svc.BasePrice, Unit: svc.Unit}
	}
	chat, err := s.repo.FindChat(ctx, booking.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chat")
	}
	if chat != nil {
		id := chat.ID
		detail.ChatID = &id
	}
	review, err := s.repo.FindReview(ctx, booking.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	if review != nil {
		dto := reviewFromModel(review)
		detail.Review = &dto
	}
	payment, err := s.repo.FindPayment(ctx, booking.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment != nil {
		detail.Payment = &PaymentSummary{ID: payment.ID, Amount: payment.Amount, Status: payment.Status, PaidAt: payment.PaidAt}
	}
	return detail, nil
}

func (s *service) ListForUser(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid booking status")
	}
	query := listBookingsParams{UserID: params.UserID, Status: params.Status, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	items := make([]BookingDTO, 0, len(rows))
	for i := range rows {
		items = append(items, bookingFromModel(&rows[i]))
	}
	result := &ListResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) enqueue(ctx context.Context, tx *gorm.DB, aggregate enums.OutboxAggregateType, aggregateID, actorID uuid.UUID, events []notifications.Event) []notifications.Event {
	if s.queue == nil {
		return events
	}
	return s.queue.Enqueue(ctx, tx, aggregate, aggregateID, &outbox.ActorRef{UserID: actorID}, events)
}

func (s *service) drain(ctx context.Context, events []notifications.Event) {
	if s.drainer == nil || len(events) == 0 {
		return
	}
	s.drainer.Drain(ctx, events)
}
