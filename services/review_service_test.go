package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order/database"
	"github.com/yeremiapane/table-order/models"
)

type mockReviewPublisher struct {
	mock.Mock
}

func (m *mockReviewPublisher) PublishReview(ctx context.Context, event models.ReviewEvent) error {
	return m.Called(ctx, event).Error(0)
}

func TestSubmitReview(t *testing.T) {
	ctx := context.Background()
	publisher := new(mockReviewPublisher)
	publisher.On("PublishReview", mock.Anything, mock.MatchedBy(func(e models.ReviewEvent) bool {
		return e.Scope == testScope && e.MenuID == 7 && e.Rating == 5 && !e.CreatedAt.IsZero()
	})).Return(nil).Twice()

	rs := NewReviewService(database.NewMemoryStore(), publisher)

	ids, err := rs.Submit(ctx, testScope, ReviewInput{MenuID: 7, Rating: 5, Comment: "mashisseoyo"})
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids)

	ids, err = rs.Submit(ctx, testScope, ReviewInput{MenuID: 7, Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids, "duplicates are ignored")

	reviewed, err := rs.Reviewed(ctx, testScope)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, reviewed)
	publisher.AssertExpectations(t)
}

func TestSubmitReviewValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   ReviewInput
		wantErr error
	}{
		{"rating too low", ReviewInput{MenuID: 1, Rating: 0}, ErrInvalidRating},
		{"rating too high", ReviewInput{MenuID: 1, Rating: 6}, ErrInvalidRating},
		{"missing menu", ReviewInput{Rating: 3}, ErrMenuNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := new(mockReviewPublisher)
			rs := NewReviewService(database.NewMemoryStore(), publisher)

			_, err := rs.Submit(context.Background(), testScope, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			publisher.AssertNotCalled(t, "PublishReview", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitReviewPublishFailureKeepsRecord(t *testing.T) {
	publisher := new(mockReviewPublisher)
	publisher.On("PublishReview", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	rs := NewReviewService(database.NewMemoryStore(), publisher)

	ids, err := rs.Submit(context.Background(), testScope, ReviewInput{MenuID: 2, Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
}

func TestReviewedMalformed(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	require.NoError(t, store.Set(ctx, testScope.ReviewedKey(), "[1,"))

	ids, err := NewReviewService(store, nil).Reviewed(ctx, testScope)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestNewKafkaReviewPublisher(t *testing.T) {
	p := NewKafkaReviewPublisher([]string{"localhost:9092"}, "menu-reviews")
	assert.Equal(t, "menu-reviews", p.Writer.Topic)
	assert.Equal(t, "localhost:9092", p.Writer.Addr.String())
	assert.NoError(t, p.Close())
}
