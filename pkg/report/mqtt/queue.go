// Package mqtt publishes impact records to an MQTT broker.
package mqtt

import (
	"errors"
	"net/url"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// ErrPublishTimeout indicates the broker did not acknowledge in time.
var ErrPublishTimeout = errors.New("publish timeout")

// ClientOptionsFromURL creates ClientOptions from a broker URL of the form
// mqtt://[user:pass@]host:port/topic-prefix[?client-id=ID].
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")
	if topicPrefix != "" && !strings.HasSuffix(topicPrefix, "/") {
		topicPrefix += "/"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	if clientID := u.Query().Get("client-id"); clientID != "" {
		opts.SetClientID(clientID)
	}
	return opts, topicPrefix, nil
}

// Publisher is the part of paho.Client used for publishing.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Queue wraps an MQTT client with a topic prefix.
type Queue struct {
	Client      paho.Client
	TopicPrefix string
}

// NewQueue creates Queue.
func NewQueue(options *paho.ClientOptions, topicPrefix string) *Queue {
	q := &Queue{TopicPrefix: topicPrefix}
	options.SetOnConnectHandler(q.OnConnectHandler)
	options.SetConnectionLostHandler(q.ConnectionLostHandler)
	q.Client = paho.NewClient(options)
	return q
}

// NewQueueFromURL creates Queue from URL.
func NewQueueFromURL(brokerURL string) (*Queue, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return NewQueue(opts, topicPrefix), nil
}

// Connect connects the client and waits up to timeout.
func (q *Queue) Connect(timeout time.Duration) error {
	token := q.Client.Connect()
	if !token.WaitTimeout(timeout) {
		return errors.New("connect timeout")
	}
	return token.Error()
}

// Close implements io.Closer.
func (q *Queue) Close() error {
	q.Client.Disconnect(250)
	return nil
}

// OnConnectHandler is the default implementation of paho.OnConnectHandler.
func (q *Queue) OnConnectHandler(paho.Client) {
	glog.Info("mqtt: connected")
}

// ConnectionLostHandler is the default implementation of paho.ConnectionLostHandler.
func (q *Queue) ConnectionLostHandler(c paho.Client, err error) {
	glog.Warningf("mqtt: connection lost: %v", err)
}

// Writer publishes each packet to one topic and waits for the broker.
type Writer struct {
	Publisher Publisher
	Topic     string
	QoS       byte
	Timeout   time.Duration
}

// Writer creates a Writer on topic, relative to the prefix.
func (q *Queue) Writer(topic string, qos byte) *Writer {
	return &Writer{
		Publisher: q.Client,
		Topic:     q.TopicPrefix + topic,
		QoS:       qos,
		Timeout:   time.Second,
	}
}

// RecordsTopic is the topic a device publishes its records to.
func RecordsTopic(deviceID string) string {
	return "impact/" + deviceID + "/records"
}

// WritePacket implements report.PacketWriter.
func (w *Writer) WritePacket(pkt []byte) error {
	token := w.Publisher.Publish(w.Topic, w.QoS, false, pkt)
	if !token.WaitTimeout(w.Timeout) {
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return err
	}
	glog.V(2).Infof("mqtt: PUB %q %d bytes", w.Topic, len(pkt))
	return nil
}

// Handler is the callback when a message is received.
// topic is relative to the prefix.
type Handler func(topic string, payload []byte)

// Subscribe subscribes topic relative to the prefix and waits up to
// timeout for the broker. Wildcards are allowed.
func (q *Queue) Subscribe(topic string, qos byte, timeout time.Duration, handler Handler) error {
	token := q.Client.Subscribe(q.TopicPrefix+topic, qos, func(_ paho.Client, msg paho.Message) {
		handler(strings.TrimPrefix(msg.Topic(), q.TopicPrefix), msg.Payload())
	})
	if !token.WaitTimeout(timeout) {
		return errors.New("subscribe timeout")
	}
	if err := token.Error(); err != nil {
		return err
	}
	glog.V(2).Infof("mqtt: SUB %q", q.TopicPrefix+topic)
	return nil
}
