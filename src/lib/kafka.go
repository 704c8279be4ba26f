package lib

import (
	"classrent/src/booking"
	"classrent/src/config"
	"classrent/src/types"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

const ReservationsTopic = "reservations"

// Producer is the subset of *kafka.Producer the publisher needs.
type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

func GetKafkaProducerConfig(clientId string) *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers": config.KAFKA_BROKER,
		"client.id":         clientId,
		"acks":              "all",
	}
}

func GetKafkaConsumerConfig(groupId string) *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers": config.KAFKA_BROKER,
		"group.id":          groupId,
		"auto.offset.reset": "smallest",
		"retry.backoff.ms":  100,
	}
}

// KafkaPublisher writes reservation lifecycle events to a topic, keyed by space
// so events for one space stay ordered within a partition.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

var _ booking.Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(p Producer, topic string) *KafkaPublisher {
	if topic == "" {
		topic = ReservationsTopic
	}
	return &KafkaPublisher{producer: p, topic: topic}
}

// DialKafkaPublisher connects a producer to config.KAFKA_BROKER.
func DialKafkaPublisher(clientId string) (*KafkaPublisher, error) {
	p, err := kafka.NewProducer(GetKafkaProducerConfig(clientId))
	if err != nil {
		log.Printf("Error on producer: %s\n", err.Error())
		return nil, err
	}
	go drainDeliveryReports(p)
	return NewKafkaPublisher(p, ReservationsTopic), nil
}

func drainDeliveryReports(p *kafka.Producer) {
	for e := range p.Events() {
		if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			log.Printf("[kafka] Delivery failed: %s\n", m.TopicPartition.Error.Error())
		}
	}
}

func (k *KafkaPublisher) Publish(ctx context.Context, event booking.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	topic := k.topic
	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(strconv.FormatUint(uint64(event.SpaceID), 10)),
		Value:          value,
		Headers:        []kafka.Header{{Key: "type", Value: []byte(event.Type)}},
	}, nil)
	if err != nil {
		log.Printf("Error producing %s for reservation %d: %s\n", event.Type, event.ReservationID, err.Error())
		return err
	}
	return nil
}

func (k *KafkaPublisher) Close() {
	k.producer.Flush(5000)
	k.producer.Close()
}

// KafkaConsumer subscribes groupId to topic and passes each payload to handler until ctx is done.
func KafkaConsumer(ctx context.Context, groupId, topic string, handler types.Handler) error {
	log.Println("Initializing kafka Consumer...")
	c, err := kafka.NewConsumer(GetKafkaConsumerConfig(groupId))
	if err != nil {
		log.Printf("Error on consumer: %s\n", err.Error())
		return err
	}
	if err := c.SubscribeTopics([]string{topic}, nil); err != nil {
		log.Printf("Error on consumer: %s\n", err.Error())
		c.Close()
		return err
	}
	go func() {
		defer c.Close()
		log.Printf("[BACKGROUND]: waiting for messages on %s...\n", topic)
		for ctx.Err() == nil {
			switch e := c.Poll(100).(type) {
			case *kafka.Message:
				handler(string(e.Value))
			case kafka.Error:
				log.Printf("[kafka] Consumer error: %v\n", e)
				if e.IsFatal() {
					return
				}
			}
		}
	}()
	return nil
}

func KafkaCreateTopics(ctx context.Context, topics ...string) ([]kafka.TopicResult, error) {
	a, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": config.KAFKA_BROKER,
	})
	if err != nil {
		log.Printf("Error on AdminClient: %s\n", err.Error())
		return nil, err
	}
	defer a.Close()
	topicsDef := []kafka.TopicSpecification{}
	for _, topic := range topics {
		topicsDef = append(topicsDef, kafka.TopicSpecification{
			Topic:             topic,
			NumPartitions:     10,
			ReplicationFactor: 1,
		})
	}
	result, err := a.CreateTopics(ctx, topicsDef)
	if err != nil {
		log.Printf("Error creating topics: %s\n", err.Error())
		return nil, err
	}
	return result, nil
}
