package service

import (
	"context"
	"encoding/json"
	"log"

	"alrah-ai-be/internal/dto"
	"alrah-ai-be/internal/repository/specification"
	"alrah-ai-be/internal/repository/unitofwork"
	"alrah-ai-be/pkg/events"
	pktNats "alrah-ai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const sessionTitleMaxRunes = 50

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService reacts to completed exchanges: an untitled session gets
// titled from its first question, and the exchange is re-published to the
// cluster bus for analytics. Runs off the request path so titling and bus
// publication never delay an answer.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	natsPub    *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	natsPub *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		natsPub:    natsPub,
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
	var payload dto.ExchangeCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal exchange message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.BySessionKey{UserID: payload.UserId, SessionID: payload.SessionId},
	)
	if err != nil {
		log.Printf("[ERROR] Failed to load session %s: %v", payload.SessionId, err)
		msg.Nack() // Retriable
		return
	}
	if sess == nil {
		// Session deleted before the event was handled. Ack.
		msg.Ack()
		return
	}

	if sess.Title == "" {
		sess.Title = deriveTitle(payload.Question)
		if err := uow.ChatSessionRepository().Update(ctx, sess); err != nil {
			log.Printf("[ERROR] Failed to title session %s: %v", payload.SessionId, err)
			msg.Nack()
			return
		}
	}

	if cs.natsPub != nil {
		evt := events.QueryAnsweredEvent{
			UserID:     payload.UserId,
			SessionID:  payload.SessionId,
			Channel:    payload.Channel,
			Question:   payload.Question,
			Answer:     payload.Answer,
			OccurredAt: payload.AnsweredAt,
		}
		if err := cs.natsPub.Publish(ctx, evt); err != nil {
			// Analytics only; never hold the local message hostage.
			log.Printf("[WARN] Failed to publish analytics event: %v", err)
		}
	}

	msg.Ack()
}

func deriveTitle(question string) string {
	runes := []rune(question)
	if len(runes) <= sessionTitleMaxRunes {
		return question
	}
	return string(runes[:sessionTitleMaxRunes]) + "..."
}
