package notify

import (
	"classrent/src/types"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/tidwall/gjson"
)

type SQSAPI interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

var ErrMalformedEmail = errors.New("malformed queued email")

type queueURL struct {
	client SQSAPI
	name   string

	mu  sync.Mutex
	url *string
}

func (q *queueURL) resolve(ctx context.Context) (*string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.url != nil {
		return q.url, nil
	}
	out, err := q.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(q.name)})
	if err != nil {
		return nil, fmt.Errorf("resolve queue %s: %w", q.name, err)
	}
	q.url = out.QueueUrl
	return q.url, nil
}

// QueueSender defers delivery by pushing the email onto an SQS queue.
type QueueSender struct {
	queue *queueURL
}

func NewQueueSender(client SQSAPI, queue string) *QueueSender {
	return &QueueSender{queue: &queueURL{client: client, name: queue}}
}

func EncodeMessage(m *Message) (string, error) {
	body, err := json.Marshal(&types.JSONB{
		"from":      m.From,
		"from-name": m.FromName,
		"to":        m.To,
		"reply-to":  m.ReplyTo,
		"subject":   m.Subject,
		"body":      m.Body,
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func DecodeMessage(payload string) (*Message, error) {
	if !gjson.Valid(payload) {
		return nil, ErrMalformedEmail
	}
	fields := gjson.GetMany(payload, "from", "from-name", "to", "reply-to", "subject", "body")
	m := &Message{
		From:     fields[0].String(),
		FromName: fields[1].String(),
		ReplyTo:  fields[3].String(),
		Subject:  fields[4].String(),
		Body:     fields[5].String(),
	}
	for _, to := range fields[2].Array() {
		if addr := to.String(); addr != "" {
			m.To = append(m.To, addr)
		}
	}
	if m.From == "" || len(m.To) == 0 {
		return nil, ErrMalformedEmail
	}
	return m, nil
}

func (s *QueueSender) Send(ctx context.Context, m *Message) error {
	url, err := s.queue.resolve(ctx)
	if err != nil {
		return err
	}
	body, err := EncodeMessage(m)
	if err != nil {
		return err
	}
	if _, err := s.queue.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    url,
		MessageBody: aws.String(body),
	}); err != nil {
		return fmt.Errorf("error sending message to queue: %w", err)
	}
	return nil
}

// QueueConsumer drains the email queue and hands each message to a delivering Sender.
type QueueConsumer struct {
	queue   *queueURL
	deliver Sender
}

func NewQueueConsumer(client SQSAPI, queue string, deliver Sender) *QueueConsumer {
	return &QueueConsumer{queue: &queueURL{client: client, name: queue}, deliver: deliver}
}

// Handle delivers one queued payload.
func (c *QueueConsumer) Handle(ctx context.Context, payload string) error {
	m, err := DecodeMessage(payload)
	if err != nil {
		return err
	}
	return c.deliver.Send(ctx, m)
}

// Listen long-polls the queue until ctx is done. Messages are deleted once delivered;
// malformed ones are deleted as well so they do not loop forever.
func (c *QueueConsumer) Listen(ctx context.Context) error {
	url, err := c.queue.resolve(ctx)
	if err != nil {
		return err
	}
	log.Printf("[mailer] %s: Listening for messages...\n", c.queue.name)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		out, err := c.queue.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            url,
			WaitTimeSeconds:     20,
			MaxNumberOfMessages: 10,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive messages: %w", err)
		}
		for i := range out.Messages {
			c.process(ctx, url, &out.Messages[i])
		}
	}
}

func (c *QueueConsumer) process(ctx context.Context, url *string, m *sqstypes.Message) {
	err := c.Handle(ctx, aws.ToString(m.Body))
	switch {
	case errors.Is(err, ErrMalformedEmail):
		log.Printf("[mailer] Dropping malformed message %s\n", aws.ToString(m.MessageId))
	case err != nil:
		log.Printf("[mailer] Error delivering message %s: %s\n", aws.ToString(m.MessageId), err.Error())
		return
	}
	if _, err := c.queue.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      url,
		ReceiptHandle: m.ReceiptHandle,
	}); err != nil {
		log.Printf("[mailer] Error deleting message from queue: %s\n", err.Error())
	}
}
