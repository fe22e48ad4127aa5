package ingest

import (
	"crypto/tls"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"gaitsense-pipeline/gaitcore"
)

// Collector subscribes to the sensor batch topic, decodes payloads and
// assembles full recording sessions. Completed sessions come out of
// Sessions().
type Collector struct {
	config   Config
	client   mqtt.Client
	decoder  *Decoder
	asm      *SessionAssembler
	stats    *Statistics
	payloads chan []byte
	sessions chan *gaitcore.SessionInput
	done     chan struct{}
}

func NewCollector(config Config, defaultRate float64, unit gaitcore.GyroUnit) *Collector {
	return &Collector{
		config:   config,
		decoder:  NewDecoder(defaultRate),
		asm:      NewSessionAssembler(unit),
		stats:    NewStatistics(),
		payloads: make(chan []byte, config.QueueSize),
		sessions: make(chan *gaitcore.SessionInput, 16),
		done:     make(chan struct{}),
	}
}

func (c *Collector) Start() error {
	log.Printf("[ingest] Starting collector...")
	log.Printf("[ingest] Config: Broker=%s:%d Topic=%s", c.config.MQTTBroker, c.config.MQTTPort, c.config.MQTTTopic)

	opts := mqtt.NewClientOptions()

	protocol := "tcp"
	if c.config.UseTLS {
		protocol = "tls"
	}
	brokerURL := fmt.Sprintf("%s://%s:%d", protocol, c.config.MQTTBroker, c.config.MQTTPort)
	opts.AddBroker(brokerURL)

	clientID := fmt.Sprintf("gaitsense-collector-%d", time.Now().Unix())
	opts.SetClientID(clientID)

	if c.config.MQTTUsername != "" {
		opts.SetUsername(c.config.MQTTUsername)
		opts.SetPassword(c.config.MQTTPassword)
	}

	if c.config.UseTLS {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: c.config.InsecureSkipTLS,
		}
		opts.SetTLSConfig(tlsConfig)
	}

	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = c.onConnect
	opts.OnConnectionLost = c.onConnectionLost
	opts.OnReconnecting = c.onReconnecting

	c.client = mqtt.NewClient(opts)

	log.Printf("[mqtt] Connecting to %s as %s...", brokerURL, clientID)

	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("MQTT connect timeout")
	}
	if token.Error() != nil {
		return fmt.Errorf("MQTT connect failed: %w", token.Error())
	}

	log.Printf("[ingest] Starting %d decoder workers", c.config.DecoderWorkers)
	for i := 0; i < c.config.DecoderWorkers; i++ {
		go c.decodeWorker(i)
	}
	go c.idleFlusher()
	go c.statsReporter()

	log.Printf("[ingest] Collector started successfully")
	return nil
}

func (c *Collector) Stop() {
	log.Printf("[ingest] Stopping collector...")
	close(c.done)

	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(1000)
	}

	successRate := 0.0
	if c.stats.BatchesReceived > 0 {
		successRate = float64(c.stats.DecodeSuccesses) / float64(c.stats.BatchesReceived) * 100.0
	}

	log.Printf("[ingest] Collector stopped - received %d batches (%.1f%% decode success)",
		c.stats.BatchesReceived, successRate)
}

// Sessions yields each fully assembled recording session exactly once.
func (c *Collector) Sessions() <-chan *gaitcore.SessionInput {
	return c.sessions
}

func (c *Collector) onConnect(client mqtt.Client) {
	log.Printf("[mqtt] Connected successfully")

	token := client.Subscribe(c.config.MQTTTopic, 0, c.onMessage)
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("[mqtt] Subscribe timeout for %s", c.config.MQTTTopic)
		return
	}
	if token.Error() != nil {
		log.Printf("[mqtt] Subscribe error: %v", token.Error())
		return
	}

	log.Printf("[mqtt] Subscribed to %s", c.config.MQTTTopic)
}

func (c *Collector) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("[mqtt] Connection lost: %v (will auto-reconnect)", err)
}

func (c *Collector) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	log.Printf("[mqtt] Reconnecting...")
}

func (c *Collector) onMessage(client mqtt.Client, msg mqtt.Message) {
	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())

	select {
	case c.payloads <- payload:
		// Success
	case <-c.done:
		return
	default:
		// Queue full, drop batch (prioritize latest data)
	}
}

func (c *Collector) decodeWorker(id int) {
	log.Printf("[ingest] Decoder worker %d started", id)

	for {
		select {
		case payload := <-c.payloads:
			batch, err := c.decoder.Decode(payload)
			if err != nil {
				c.stats.RecordBatch("", 0, false)
				continue
			}
			c.stats.RecordBatch(batch.Placement, len(batch.Samples), true)

			if input := c.asm.Add(batch); input != nil {
				c.emit(input)
			}

		case <-c.done:
			log.Printf("[ingest] Decoder worker %d stopped", id)
			return
		}
	}
}

func (c *Collector) emit(input *gaitcore.SessionInput) {
	c.stats.RecordSession()
	select {
	case c.sessions <- input:
		// Success
	case <-c.done:
	default:
		log.Printf("[ingest] Session queue full, dropping session %s", input.SessionID)
	}
}

// idleFlusher closes sessions whose sender stopped without an end
// marker.
func (c *Collector) idleFlusher() {
	ticker := time.NewTicker(c.config.SessionIdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, input := range c.asm.FlushIdle(c.config.SessionIdleTimeout) {
				log.Printf("[ingest] Session %s closed by idle timeout", input.SessionID)
				c.emit(input)
			}

		case <-c.done:
			return
		}
	}
}

func (c *Collector) statsReporter() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := c.stats.GetSnapshot()
			log.Printf("[ingest] Stats: %d batches, %.1f batch/s, %.1f%% success, pending sessions: %d",
				stats["batches_received"],
				stats["batches_per_sec"],
				stats["success_rate"],
				c.asm.Pending())

		case <-c.done:
			return
		}
	}
}

func (c *Collector) Stats() *Statistics {
	return c.stats
}

func (c *Collector) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}
