package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"katiba-reader-be/internal/dto"
	"katiba-reader-be/internal/model"
	"katiba-reader-be/internal/pkg/logger"
	"katiba-reader-be/internal/repository/contract"
	"katiba-reader-be/pkg/cache"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the view topic: every tracked view is persisted
// for the popularity aggregations and mirrored into a cache counter for
// cheap per-reference totals.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	views     contract.ContentViewRepository
	store     cache.Store
	log       logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	views contract.ContentViewRepository,
	store cache.Store,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		views:     views,
		store:     store,
		log:       log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ViewTrackedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("view_consumer", "failed to unmarshal view event", map[string]interface{}{
			"error": err.Error(),
		})
		// Ack malformed messages to prevent infinite retry.
		msg.Ack()
		return
	}

	view := &model.ContentView{
		ID:          uuid.New(),
		ContentType: payload.ContentType,
		Reference:   payload.Reference,
		ViewedAt:    payload.ViewedAt,
	}
	if view.ViewedAt.IsZero() {
		view.ViewedAt = time.Now()
	}
	if payload.UserID != "" {
		if userID, err := uuid.Parse(payload.UserID); err == nil {
			view.UserID = &userID
		}
	}

	if err := cs.views.Create(ctx, view); err != nil {
		cs.log.Error("view_consumer", "failed to persist view", map[string]interface{}{
			"content_type": payload.ContentType,
			"reference":    payload.Reference,
			"error":        err.Error(),
		})
		msg.Nack()
		return
	}

	counterKey := fmt.Sprintf("constitution:views:%s:%s", payload.ContentType, payload.Reference)
	cs.store.Increment(ctx, counterKey)

	msg.Ack()
}
