// Package queue maintains RabbitMQ bindings which mirror context and
// conversation memberships. Each canonical entity gets a fanout exchange
// named by its identifier; subscribed users are bound to it through their
// personal queue.
package queue

import (
	"encoding/json"
	"errors"

	"github.com/streadway/amqp"

	"github.com/agoranet/agora/server/logs"
)

// Exchange where freshly created conversations are announced to their
// participants.
const newConversationsExchange = "new"

// Queue which collects everything for mobile push delivery.
const pushQueue = "push"

type configType struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
}

type NewConversationMsg struct {
	Conversation string `json:"conversation"`
}

// RabbitMQ is a live connection to the message broker.
type RabbitMQ struct {
	Channel    *amqp.Channel
	Connection *amqp.Connection

	enabled bool
}

func NewRabbitMQ() *RabbitMQ {
	return &RabbitMQ{}
}

// Init connects to the broker. With `enabled: false` in the config every
// other method becomes a no-op; handy in tests and single-node setups.
func (q *RabbitMQ) Init(jsonconf json.RawMessage) error {
	var config configType
	if len(jsonconf) > 0 {
		if err := json.Unmarshal(jsonconf, &config); err != nil {
			return errors.New("queue: failed to parse config: " + err.Error())
		}
	}

	if !config.Enabled {
		logs.Info.Println("queue: notifications disabled")
		return nil
	}

	conn, err := amqp.Dial(config.URL)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	// ExchangeDeclare: name, type, durable, autoDelete, internal, noWait, args
	if err = ch.ExchangeDeclare(newConversationsExchange, "direct", true, false, false, false, nil); err != nil {
		conn.Close()
		return err
	}
	// QueueDeclare: name, durable, autoDelete, exclusive, noWait, args
	if _, err = ch.QueueDeclare(pushQueue, true, false, false, false, nil); err != nil {
		conn.Close()
		return err
	}

	q.Channel = ch
	q.Connection = conn
	q.enabled = true

	logs.Info.Println("queue: connected to", config.URL)
	return nil
}

// Close terminates the broker connection.
func (q *RabbitMQ) Close() error {
	if !q.enabled {
		return nil
	}
	q.enabled = false
	q.Channel.Close()
	return q.Connection.Close()
}

// DeclareEntityExchange sets up the fanout exchange for a context or
// conversation and attaches the push queue to it.
func (q *RabbitMQ) DeclareEntityExchange(ident string) error {
	if !q.enabled {
		return nil
	}
	if err := q.Channel.ExchangeDeclare(ident, "fanout", true, false, false, false, nil); err != nil {
		return err
	}
	return q.Channel.QueueBind(pushQueue, "", ident, false, nil)
}

// DeleteEntityExchange tears the exchange down, dropping all bindings.
func (q *RabbitMQ) DeleteEntityExchange(ident string) error {
	if !q.enabled {
		return nil
	}
	return q.Channel.ExchangeDelete(ident, false, false)
}

// BindUser routes the entity's traffic into the user's personal queue.
func (q *RabbitMQ) BindUser(username, ident string) error {
	if !q.enabled {
		return nil
	}
	// Personal queues are named after the user and survive reconnects.
	if _, err := q.Channel.QueueDeclare(username, true, false, false, false, nil); err != nil {
		return err
	}
	return q.Channel.QueueBind(username, "", ident, false, nil)
}

// UnbindUser removes the user's binding to the entity exchange.
func (q *RabbitMQ) UnbindUser(username, ident string) error {
	if !q.enabled {
		return nil
	}
	return q.Channel.QueueUnbind(username, "", ident, nil)
}

// AnnounceConversation tells each participant except the owner that a
// conversation now exists for them.
func (q *RabbitMQ) AnnounceConversation(ident, owner string, participants []string) error {
	if !q.enabled {
		return nil
	}
	body, _ := json.Marshal(NewConversationMsg{Conversation: ident})
	for _, username := range participants {
		if username == owner {
			continue
		}
		err := q.Channel.Publish(
			newConversationsExchange, // exchange
			username,                 // routing key
			false,                    // mandatory
			false,                    // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				Body:         body,
				DeliveryMode: amqp.Persistent,
			})
		if err != nil {
			return err
		}
	}
	return nil
}
