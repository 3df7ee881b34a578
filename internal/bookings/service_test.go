package bookings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/internal/dbtest"
	"github.com/homefix/homeservices-backend/internal/notifications"
	"github.com/homefix/homeservices-backend/internal/ratings"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
	"github.com/homefix/homeservices-backend/pkg/outbox"
)

type harness struct {
	svc  Service
	conn *gorm.DB
	now  time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client, conn := dbtest.Client(t)
	outboxRepo := outbox.NewRepository(conn)
	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{Repo: notifications.NewRepository(conn)})
	require.NoError(t, err)

	h := &harness{conn: conn, now: time.Date(2026, 4, 10, 9, 30, 0, 0, time.UTC)}
	svc, err := NewService(ServiceParams{
		DB:      client,
		Repo:    NewRepository(conn),
		Ratings: ratings.NewAggregator(),
		Queue:   notifications.NewQueue(outbox.NewService(outboxRepo, nil), nil),
		Drainer: notifications.NewDrainer(dispatcher, outboxRepo, nil),
		Now:     func() time.Time { return h.now },
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func (h *harness) count(t *testing.T, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	q := h.conn.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (h *harness) seedBooking(t *testing.T, status enums.BookingStatus) (*models.Booking, *models.User, *models.ServiceProvider) {
	t.Helper()
	customer := dbtest.SeedUser(t, h.conn, enums.UserRoleCustomer, "")
	provider := dbtest.SeedProvider(t, h.conn, true)
	svc := dbtest.SeedService(t, h.conn, true)
	booking := &models.Booking{
		CustomerID:     customer.ID,
		ProviderID:     provider.UserID,
		ServiceID:      svc.ID,
		ScheduledDate:  h.now.Add(24 * time.Hour),
		ScheduledTime:  "10:00",
		Address:        "12 MG Road",
		Status:         status,
		EstimatedPrice: decimal.NewFromInt(800),
	}
	require.NoError(t, h.conn.Create(booking).Error)
	return booking, customer, provider
}

func createInput(customerID, providerID, serviceID uuid.UUID, now time.Time) CreateInput {
	return CreateInput{
		CustomerID:     customerID,
		ProviderID:     providerID,
		ServiceID:      serviceID,
		ScheduledDate:  now.Add(48 * time.Hour),
		ScheduledTime:  "14:30",
		Address:        "221B Residency Road",
		EstimatedPrice: decimal.NewFromInt(1200),
	}
}

func TestCreateBookingCommitsBookingChatAndNotification(t *testing.T) {
	h := newHarness(t)
	customer := dbtest.SeedUser(t, h.conn, enums.UserRoleCustomer, "")
	provider := dbtest.SeedProvider(t, h.conn, true)
	svc := dbtest.SeedService(t, h.conn, true)

	result, err := h.svc.Create(context.Background(), createInput(customer.ID, provider.UserID, svc.ID, h.now))
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusConfirmed, result.Booking.Status)
	require.NotNil(t, result.ChatID)
	require.Len(t, result.Effects, 1)
	assert.Equal(t, provider.UserID, result.Effects[0].UserID)
	assert.NotEqual(t, uuid.Nil, result.Effects[0].ID)

	assert.Equal(t, int64(1), h.count(t, &models.Chat{}, "booking_id = ?", result.Booking.ID))
	var note models.Notification
	require.NoError(t, h.conn.Where("user_id = ?", provider.UserID).First(&note).Error)
	assert.Equal(t, "New Booking Request", note.Title)
	assert.Equal(t, enums.NotificationTypeBookingConfirmed, note.Type)
	assert.Equal(t, int64(0), h.count(t, &models.OutboxEvent{}, "published_at IS NULL"))

	var profile models.ServiceProvider
	require.NoError(t, h.conn.Where("user_id = ?", provider.UserID).First(&profile).Error)
	assert.Zero(t, profile.TotalBookings)
}

func TestCreateBookingUnavailableProviderLeavesNoTrace(t *testing.T) {
	h := newHarness(t)
	customer := dbtest.SeedUser(t, h.conn, enums.UserRoleCustomer, "")
	provider := dbtest.SeedProvider(t, h.conn, false)
	svc := dbtest.SeedService(t, h.conn, true)

	_, err := h.svc.Create(context.Background(), createInput(customer.ID, provider.UserID, svc.ID, h.now))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProviderUnavailable))

	assert.Zero(t, h.count(t, &models.Booking{}, ""))
	assert.Zero(t, h.count(t, &models.Chat{}, ""))
	assert.Zero(t, h.count(t, &models.Notification{}, ""))
	assert.Zero(t, h.count(t, &models.OutboxEvent{}, ""))
}

func TestCreateBookingProviderChecks(t *testing.T) {
	h := newHarness(t)
	customer := dbtest.SeedUser(t, h.conn, enums.UserRoleCustomer, "")
	other := dbtest.SeedUser(t, h.conn, enums.UserRoleCustomer, "")
	inactive := dbtest.SeedProvider(t, h.conn, true)
	require.NoError(t, h.conn.Model(&models.User{}).Where("id = ?", inactive.UserID).UpdateColumn("is_active", false).Error)
	svc := dbtest.SeedService(t, h.conn, true)

	for _, providerID := range []uuid.UUID{uuid.New(), other.ID, inactive.UserID} {
		_, err := h.svc.Create(context.Background(), createInput(customer.ID, providerID, svc.ID, h.now))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrProviderUnavailable), "provider %s", providerID)
	}
	assert.Zero(t, h.count(t, &models.Booking{}, ""))
}

func TestCreateBookingInactiveService(t *testing.T) {
	h := newHarness(t)
	customer := dbtest.SeedUser(t, h.conn, enums.UserRoleCustomer, "")
	provider := dbtest.SeedProvider(t, h.conn, true)
	svc := dbtest.SeedService(t, h.conn, false)

	_, err := h.svc.Create(context.Background(), createInput(customer.ID, provider.UserID, svc.ID, h.now))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrServiceNotFound))

	_, err = h.svc.Create(context.Background(), createInput(customer.ID, provider.UserID, uuid.New(), h.now))
	assert.True(t, errors.Is(err, ErrServiceNotFound))
	assert.Zero(t, h.count(t, &models.Booking{}, ""))
}

func TestCreateBookingValidation(t *testing.T) {
	h := newHarness(t)
	input := createInput(uuid.New(), uuid.New(), uuid.New(), h.now)
	input.ScheduledTime = "25:00"

	_, err := h.svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateBookingSurvivesNotificationFailure(t *testing.T) {
	h := newHarness(t)
	customer := dbtest.SeedUser(t, h.conn, enums.UserRoleCustomer, "")
	provider := dbtest.SeedProvider(t, h.conn, true)
	svc := dbtest.SeedService(t, h.conn, true)
	require.NoError(t, h.conn.Migrator().DropTable(&models.Notification{}))

	result, err := h.svc.Create(context.Background(), createInput(customer.ID, provider.UserID, svc.ID, h.now))
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.count(t, &models.Booking{}, "id = ?", result.Booking.ID))

	var row models.OutboxEvent
	require.NoError(t, h.conn.First(&row).Error)
	assert.Nil(t, row.PublishedAt)
	assert.Equal(t, 1, row.AttemptCount)
}

func TestTransitionLifecycleToCompleted(t *testing.T) {
	h := newHarness(t)
	booking, customer, provider := h.seedBooking(t, enums.BookingStatusConfirmed)
	ctx := context.Background()

	result, err := h.svc.Transition(ctx, TransitionInput{BookingID: booking.ID, ActorID: provider.UserID, Status: enums.BookingStatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusInProgress, result.Booking.Status)
	require.Len(t, result.Effects, 1)
	assert.Equal(t, customer.ID, result.Effects[0].UserID)
	assert.Equal(t, enums.NotificationTypeBookingUpdated, result.Effects[0].Type)

	result, err = h.svc.Transition(ctx, TransitionInput{BookingID: booking.ID, ActorID: provider.UserID, Status: enums.BookingStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusCompleted, result.Booking.Status)
	require.NotNil(t, result.Booking.CompletedAt)
	assert.True(t, h.now.Equal(*result.Booking.CompletedAt))
	assert.Nil(t, result.Booking.CancelledAt)

	var profile models.ServiceProvider
	require.NoError(t, h.conn.Where("user_id = ?", provider.UserID).First(&profile).Error)
	assert.Equal(t, 1, profile.CompletedBookings)
	assert.Zero(t, profile.TotalBookings)

	assert.Equal(t, int64(2), h.count(t, &models.Notification{}, "user_id = ?", customer.ID))

	_, err = h.svc.Transition(ctx, TransitionInput{BookingID: booking.ID, ActorID: customer.ID, Status: enums.BookingStatusCancelled, Reason: "late"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestTransitionCancelRequiresReason(t *testing.T) {
	h := newHarness(t)
	booking, customer, provider := h.seedBooking(t, enums.BookingStatusConfirmed)
	ctx := context.Background()

	_, err := h.svc.Transition(ctx, TransitionInput{BookingID: booking.ID, ActorID: customer.ID, Status: enums.BookingStatusCancelled, Reason: "  "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReasonRequired))

	result, err := h.svc.Transition(ctx, TransitionInput{BookingID: booking.ID, ActorID: customer.ID, Status: enums.BookingStatusCancelled, Reason: "Plans changed"})
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusCancelled, result.Booking.Status)
	require.NotNil(t, result.Booking.CancelledAt)
	require.NotNil(t, result.Booking.CancellationReason)
	assert.Equal(t, "Plans changed", *result.Booking.CancellationReason)
	assert.Nil(t, result.Booking.CompletedAt)

	require.Len(t, result.Effects, 1)
	assert.Equal(t, provider.UserID, result.Effects[0].UserID)
	assert.Equal(t, enums.NotificationTypeBookingCancelled, result.Effects[0].Type)
}

func TestTransitionRejectsOutsiders(t *testing.T) {
	h := newHarness(t)
	booking, _, _ := h.seedBooking(t, enums.BookingStatusConfirmed)

	_, err := h.svc.Transition(context.Background(), TransitionInput{BookingID: booking.ID, ActorID: uuid.New(), Status: enums.BookingStatusInProgress})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = h.svc.Transition(context.Background(), TransitionInput{BookingID: uuid.New(), ActorID: uuid.New(), Status: enums.BookingStatusInProgress})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTransitionTableEnforced(t *testing.T) {
	cases := []struct {
		from enums.BookingStatus
		to   enums.BookingStatus
	}{
		{enums.BookingStatusConfirmed, enums.BookingStatusCompleted},
		{enums.BookingStatusConfirmed, enums.BookingStatusConfirmed},
		{enums.BookingStatusInProgress, enums.BookingStatusConfirmed},
		{enums.BookingStatusCompleted, enums.BookingStatusInProgress},
		{enums.BookingStatusCancelled, enums.BookingStatusConfirmed},
		{enums.BookingStatusCancelled, enums.BookingStatusInProgress},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			h := newHarness(t)
			booking, customer, _ := h.seedBooking(t, tc.from)
			_, err := h.svc.Transition(context.Background(), TransitionInput{
				BookingID: booking.ID,
				ActorID:   customer.ID,
				Status:    tc.to,
				Reason:    "reason",
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
			assert.Zero(t, h.count(t, &models.Notification{}, ""))
		})
	}
}

func TestConcurrentTransitionsApplyOnce(t *testing.T) {
	h := newHarness(t)
	booking, customer, provider := h.seedBooking(t, enums.BookingStatusInProgress)

	inputs := []TransitionInput{
		{BookingID: booking.ID, ActorID: provider.UserID, Status: enums.BookingStatusCompleted},
		{BookingID: booking.ID, ActorID: customer.ID, Status: enums.BookingStatusCancelled, Reason: "no show"},
		{BookingID: booking.ID, ActorID: provider.UserID, Status: enums.BookingStatusCompleted},
	}
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for _, input := range inputs {
		wg.Add(1)
		go func(input TransitionInput) {
			defer wg.Done()
			_, err := h.svc.Transition(context.Background(), input)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, ErrInvalidTransition) {
				conflicts++
			}
		}(input)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 2, conflicts)

	var profile models.ServiceProvider
	require.NoError(t, h.conn.Where("user_id = ?", provider.UserID).First(&profile).Error)
	assert.LessOrEqual(t, profile.CompletedBookings, 1)
}

func TestAttachReviewUpdatesProviderRating(t *testing.T) {
	h := newHarness(t)
	booking, customer, provider := h.seedBooking(t, enums.BookingStatusCompleted)
	require.NoError(t, h.conn.Model(&models.ServiceProvider{}).
		Where("user_id = ?", provider.UserID).
		Updates(map[string]any{"rating": 4.0, "total_reviews": 2}).Error)

	comment := "Great work"
	result, err := h.svc.AttachReview(context.Background(), ReviewInput{
		BookingID:  booking.ID,
		ReviewerID: customer.ID,
		Rating:     5,
		Comment:    &comment,
		Images:     []string{"https://cdn.example/a.jpg", " "},
	})
	require.NoError(t, err)
	assert.InDelta(t, 13.0/3.0, result.ProviderRating, 1e-9)
	assert.Equal(t, 3, result.TotalReviews)
	assert.Equal(t, []string{"https://cdn.example/a.jpg"}, result.Review.Images)

	require.Len(t, result.Effects, 1)
	assert.Equal(t, provider.UserID, result.Effects[0].UserID)
	assert.Equal(t, int64(1), h.count(t, &models.Notification{}, "user_id = ? AND type = ?", provider.UserID, enums.NotificationTypeReviewReceived))
}

func TestAttachReviewConcurrentSubmissionsStoreOne(t *testing.T) {
	h := newHarness(t)
	booking, customer, provider := h.seedBooking(t, enums.BookingStatusCompleted)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		exists    int
	)
	for _, rating := range []int{5, 1} {
		wg.Add(1)
		go func(rating int) {
			defer wg.Done()
			_, err := h.svc.AttachReview(context.Background(), ReviewInput{BookingID: booking.ID, ReviewerID: customer.ID, Rating: rating})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, ErrReviewExists) {
				exists++
			}
		}(rating)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, exists)
	assert.Equal(t, int64(1), h.count(t, &models.Review{}, "booking_id = ?", booking.ID))

	var profile models.ServiceProvider
	require.NoError(t, h.conn.Where("user_id = ?", provider.UserID).First(&profile).Error)
	assert.Equal(t, 1, profile.TotalReviews)
}

func TestAttachReviewEligibility(t *testing.T) {
	h := newHarness(t)
	confirmed, customer, _ := h.seedBooking(t, enums.BookingStatusConfirmed)
	completed, completedCustomer, completedProvider := h.seedBooking(t, enums.BookingStatusCompleted)
	ctx := context.Background()

	cases := []ReviewInput{
		{BookingID: confirmed.ID, ReviewerID: customer.ID, Rating: 4},
		{BookingID: completed.ID, ReviewerID: completedProvider.UserID, Rating: 4},
		{BookingID: uuid.New(), ReviewerID: completedCustomer.ID, Rating: 4},
	}
	for _, input := range cases {
		_, err := h.svc.AttachReview(ctx, input)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotEligible))
	}

	_, err := h.svc.AttachReview(ctx, ReviewInput{BookingID: completed.ID, ReviewerID: completedCustomer.ID, Rating: 6})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Zero(t, h.count(t, &models.Review{}, ""))
}

func TestReviewUniqueIndexMapsToReviewExists(t *testing.T) {
	h := newHarness(t)
	booking, customer, provider := h.seedBooking(t, enums.BookingStatusCompleted)
	repo := NewRepository(h.conn)
	first := &models.Review{BookingID: booking.ID, UserID: customer.ID, ProviderID: provider.UserID, Rating: 4}
	second := &models.Review{BookingID: booking.ID, UserID: customer.ID, ProviderID: provider.UserID, Rating: 2}

	require.NoError(t, repo.CreateReview(context.Background(), first))
	err := repo.CreateReview(context.Background(), second)
	require.Error(t, err)
	assert.True(t, isReviewConflict(err))
}

func TestGetAndListBookings(t *testing.T) {
	h := newHarness(t)
	booking, customer, provider := h.seedBooking(t, enums.BookingStatusConfirmed)
	h.seedBooking(t, enums.BookingStatusConfirmed)

	detail, err := h.svc.Get(context.Background(), booking.ID, provider.UserID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, detail.ID)
	require.NotNil(t, detail.Service)
	assert.Nil(t, detail.Review)

	_, err = h.svc.Get(context.Background(), booking.ID, uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))

	list, err := h.svc.ListForUser(context.Background(), ListParams{UserID: customer.ID})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, booking.ID, list.Items[0].ID)
	assert.Empty(t, list.Cursor)

	cancelled := enums.BookingStatusCancelled
	list, err = h.svc.ListForUser(context.Background(), ListParams{UserID: provider.UserID, Status: &cancelled})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

// beforeWrite registers a one-shot gorm callback that runs mutate inside the
// caller's transaction just before the next write against table.
func beforeWrite(t *testing.T, conn *gorm.DB, op string, table string, mutate func(tx *gorm.DB) error) {
	t.Helper()
	fired := false
	hook := func(db *gorm.DB) {
		if fired || db.Statement.Table != table {
			return
		}
		fired = true
		if err := mutate(db.Session(&gorm.Session{NewDB: true})); err != nil {
			_ = db.AddError(err)
		}
	}
	name := "test:before_" + op + "_" + table
	switch op {
	case "create":
		require.NoError(t, conn.Callback().Create().Before("gorm:create").Register(name, hook))
	case "update":
		require.NoError(t, conn.Callback().Update().Before("gorm:update").Register(name, hook))
	default:
		t.Fatalf("unsupported op %q", op)
	}
}

func TestApplyTransitionRejectsStalePlan(t *testing.T) {
	h := newHarness(t)
	booking, _, _ := h.seedBooking(t, enums.BookingStatusInProgress)
	repo := NewRepository(h.conn)

	applied, err := repo.ApplyTransition(context.Background(), booking.ID, &transitionPlan{
		From:    enums.BookingStatusConfirmed,
		To:      enums.BookingStatusInProgress,
		Updates: map[string]any{"status": enums.BookingStatusInProgress},
	})
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = repo.ApplyTransition(context.Background(), booking.ID, &transitionPlan{
		From:    enums.BookingStatusInProgress,
		To:      enums.BookingStatusCompleted,
		Updates: map[string]any{"status": enums.BookingStatusCompleted},
	})
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestTransitionLosesToWriteBehindItsRead(t *testing.T) {
	h := newHarness(t)
	booking, _, provider := h.seedBooking(t, enums.BookingStatusInProgress)

	beforeWrite(t, h.conn, "update", "bookings", func(tx *gorm.DB) error {
		return tx.Exec("UPDATE bookings SET status = ? WHERE id = ?", enums.BookingStatusCancelled, booking.ID).Error
	})

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		BookingID: booking.ID,
		ActorID:   provider.UserID,
		Status:    enums.BookingStatusCompleted,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	var stored models.Booking
	require.NoError(t, h.conn.First(&stored, "id = ?", booking.ID).Error)
	assert.Equal(t, enums.BookingStatusInProgress, stored.Status)

	var profile models.ServiceProvider
	require.NoError(t, h.conn.Where("user_id = ?", provider.UserID).First(&profile).Error)
	assert.Zero(t, profile.CompletedBookings)
	assert.Zero(t, h.count(t, &models.Notification{}, ""))
}

func TestAttachReviewUniqueIndexBehindPreCheck(t *testing.T) {
	h := newHarness(t)
	booking, customer, provider := h.seedBooking(t, enums.BookingStatusCompleted)
	require.NoError(t, h.conn.Model(&models.ServiceProvider{}).
		Where("user_id = ?", provider.UserID).
		Updates(map[string]any{"rating": 4.5, "total_reviews": 2}).Error)

	beforeWrite(t, h.conn, "create", "reviews", func(tx *gorm.DB) error {
		return tx.Create(&models.Review{
			BookingID:  booking.ID,
			UserID:     customer.ID,
			ProviderID: provider.UserID,
			Rating:     1,
		}).Error
	})

	_, err := h.svc.AttachReview(context.Background(), ReviewInput{BookingID: booking.ID, ReviewerID: customer.ID, Rating: 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReviewExists))
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	var profile models.ServiceProvider
	require.NoError(t, h.conn.Where("user_id = ?", provider.UserID).First(&profile).Error)
	assert.InDelta(t, 4.5, profile.Rating, 1e-9)
	assert.Equal(t, 2, profile.TotalReviews)
	assert.Zero(t, h.count(t, &models.Notification{}, "type = ?", enums.NotificationTypeReviewReceived))
}
