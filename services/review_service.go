package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/yeremiapane/table-order/database"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
)

type ReviewPublisher interface {
	PublishReview(ctx context.Context, event models.ReviewEvent) error
}

type KafkaReviewPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaReviewPublisher(brokers []string, topic string) *KafkaReviewPublisher {
	return &KafkaReviewPublisher{Writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}}
}

// PublishReview writes the event keyed by menu id
func (p *KafkaReviewPublisher) PublishReview(ctx context.Context, event models.ReviewEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.MenuID, 10)),
		Value: payload,
	})
}

func (p *KafkaReviewPublisher) Close() error {
	return p.Writer.Close()
}

// NopReviewPublisher is used when no broker is configured
type NopReviewPublisher struct{}

func (NopReviewPublisher) PublishReview(context.Context, models.ReviewEvent) error { return nil }

type ReviewInput struct {
	MenuID  int64  `json:"menuId" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// ReviewService remembers which menus a table reviewed and forwards the reviews
type ReviewService struct {
	store     database.Store
	publisher ReviewPublisher
	now       func() time.Time
}

func NewReviewService(store database.Store, publisher ReviewPublisher) *ReviewService {
	if publisher == nil {
		publisher = NopReviewPublisher{}
	}
	return &ReviewService{store: store, publisher: publisher, now: time.Now}
}

// Submit records the review. A publish failure is logged and the review stays recorded.
func (rs *ReviewService) Submit(ctx context.Context, scope models.Scope, input ReviewInput) ([]int64, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if input.MenuID <= 0 {
		return nil, ErrMenuNotFound
	}

	reviewed, err := rs.Reviewed(ctx, scope)
	if err != nil {
		return nil, err
	}
	seen := false
	for _, id := range reviewed {
		if id == input.MenuID {
			seen = true
			break
		}
	}
	if !seen {
		reviewed = append(reviewed, input.MenuID)
		if err := database.SetJSON(ctx, rs.store, scope.ReviewedKey(), reviewed); err != nil {
			return nil, err
		}
	}

	event := models.ReviewEvent{
		Scope:     scope,
		MenuID:    input.MenuID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: rs.now(),
	}
	if err := rs.publisher.PublishReview(ctx, event); err != nil {
		utils.ErrorLogger.Errorf("Error publishing review of menu %d for %s: %v", input.MenuID, scope, err)
	}
	return reviewed, nil
}

// Reviewed lists reviewed menu ids of the table
func (rs *ReviewService) Reviewed(ctx context.Context, scope models.Scope) ([]int64, error) {
	ids := make([]int64, 0)
	found, err := database.GetJSON(ctx, rs.store, scope.ReviewedKey(), &ids)
	if err != nil && found {
		utils.ErrorLogger.Errorf("Malformed reviewed list of %s: %v", scope, err)
		return make([]int64, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}
