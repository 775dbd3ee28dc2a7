// Package queue transporte les événements qui déclenchent les workflows.
// La livraison est "au moins une fois" : un message n'est acquitté qu'au
// retour du handler.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"admix-studio/internal/config"
)

// Noms d'événements
const (
	EventContentOptimize = "news/optimize"
	EventTextToSpeech    = "tts/convert"
	EventVoiceClone      = "tts/add-voice"
	EventVideoGenerate   = "video/generation.requested"
	EventCleanup         = "cleanup/old-records"
)

// Event correspond à un run de workflow. ID est l'identifiant du run et
// reste stable entre les tentatives.
type Event struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Data        json.RawMessage `json:"data"`
	Attempt     int             `json:"attempt"`
	RequestedAt time.Time       `json:"requestedAt"`
	NotBefore   time.Time       `json:"notBefore,omitempty"`
}

// NewEvent encode data et construit la première tentative
func NewEvent(id, name string, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return Event{
		ID:          id,
		Name:        name,
		Data:        raw,
		Attempt:     1,
		RequestedAt: time.Now().UTC(),
	}, nil
}

// Decode lit la charge utile dans out
func (e Event) Decode(out interface{}) error {
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Name, err)
	}
	return nil
}

// Retry renvoie la tentative suivante, différée de delay
func (e Event) Retry(delay time.Duration) Event {
	next := e
	next.Attempt = e.Attempt + 1
	next.NotBefore = time.Now().UTC().Add(delay)
	return next
}

// Handler traite un événement. Le message est acquitté à son retour,
// la politique de relance appartient à l'appelant.
type Handler func(ctx context.Context, event Event) error

type Queue interface {
	Publish(ctx context.Context, event Event) error
	// Consume bloque jusqu'à l'annulation du contexte en appelant handler
	// depuis concurrency goroutines
	Consume(ctx context.Context, concurrency int, handler Handler) error
	Close() error
}

// New construit le backend choisi par QUEUE_TYPE
func New(ctx context.Context, cfg config.QueueConfig) (Queue, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryQueue(1024), nil
	case "redis":
		return NewRedisQueue(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
	case "rabbitmq":
		return NewRabbitMQQueue(ctx, RabbitMQOptions{
			URL:      cfg.RabbitURL,
			Exchange: cfg.RabbitExchange,
			Queue:    cfg.RabbitQueue,
		})
	default:
		return nil, fmt.Errorf("unknown queue type: %s", cfg.Type)
	}
}
