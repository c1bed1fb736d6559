// internal/transport/client.go
package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Callbacks receive the outcome of fire-and-forget requests. OnData gets the
// raw register payload of a read response (byte count stripped); OnError gets
// the transport or exception error. Both run on the client's worker
// goroutine, concurrently with the caller of AddRequest.
type Callbacks struct {
	OnData  func(payload []byte, token uint32)
	OnError func(err error, token uint32)
}

// SerialParams configure an RTU target.
type SerialParams struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
}

// Config selects and parameterizes the remote target. Exactly one of
// Endpoint (TCP) or Serial.Device (RTU) must be set.
type Config struct {
	Endpoint string
	Serial   SerialParams
	UnitID   uint8
	Timeout  time.Duration

	// QueueSize bounds the outbound request queue. Defaults to 16.
	QueueSize int
}

// IsRTU reports whether the config addresses a serial target.
func (c Config) IsRTU() bool { return c.Serial.Device != "" }

type request struct {
	write bool
	addr  uint16
	count uint16 // reads
	value uint16 // writes
	token uint32
}

// closer is the part of the goburrow handlers the client owns.
type closer interface {
	Connect() error
	Close() error
}

// Client is an asynchronous Modbus client over a goburrow TCP or RTU
// handler. Requests are queued and executed by a single worker, so the
// synchronous underlying client never blocks the polling loop; outcomes are
// delivered through the callbacks.
type Client struct {
	handler closer
	mb      modbus.Client

	queue chan request
	cb    Callbacks

	once sync.Once
	done chan struct{}
}

// New builds and connects a client for the configured target.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" && !cfg.IsRTU() {
		return nil, errors.New("transport: endpoint or serial device required")
	}
	if cfg.Endpoint != "" && cfg.IsRTU() {
		return nil, errors.New("transport: endpoint and serial device are mutually exclusive")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}

	var handler closer
	var mb modbus.Client

	if cfg.IsRTU() {
		h := modbus.NewRTUClientHandler(cfg.Serial.Device)
		h.BaudRate = cfg.Serial.BaudRate
		h.DataBits = cfg.Serial.DataBits
		h.Parity = cfg.Serial.Parity
		h.StopBits = cfg.Serial.StopBits
		h.SlaveId = cfg.UnitID
		h.Timeout = cfg.Timeout
		handler = h
		mb = modbus.NewClient(h)
	} else {
		h := modbus.NewTCPClientHandler(cfg.Endpoint)
		h.SlaveId = cfg.UnitID
		h.Timeout = cfg.Timeout
		handler = h
		mb = modbus.NewClient(h)
	}

	if err := handler.Connect(); err != nil {
		return nil, fmt.Errorf("transport: connect: %w", err)
	}

	return &Client{
		handler: handler,
		mb:      mb,
		queue:   make(chan request, cfg.QueueSize),
		done:    make(chan struct{}),
	}, nil
}

// Start registers the callbacks and launches the worker. Must be called once
// before AddRequest or WriteSingle.
func (c *Client) Start(cb Callbacks) {
	c.cb = cb
	go c.worker()
}

// AddRequest queues one batched holding-register read. It never blocks: a
// full queue drops the request with an error, and the scheduler's next pass
// re-requests the range.
func (c *Client) AddRequest(start, count uint16, token uint32) error {
	select {
	case c.queue <- request{addr: start, count: count, token: token}:
		return nil
	default:
		return errors.New("transport: request queue full")
	}
}

// WriteSingle queues one single-register write. The response is discarded;
// failures surface through OnError only.
func (c *Client) WriteSingle(addr, value uint16, token uint32) error {
	select {
	case c.queue <- request{write: true, addr: addr, value: value, token: token}:
		return nil
	default:
		return errors.New("transport: request queue full")
	}
}

// Close stops the worker and closes the connection.
func (c *Client) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.handler.Close()
}

func (c *Client) worker() {
	for {
		select {
		case <-c.done:
			return
		case req := <-c.queue:
			c.execute(req)
		}
	}
}

func (c *Client) execute(req request) {
	if req.write {
		if _, err := c.mb.WriteSingleRegister(req.addr, req.value); err != nil && c.cb.OnError != nil {
			c.cb.OnError(err, req.token)
		}
		return
	}

	payload, err := c.mb.ReadHoldingRegisters(req.addr, req.count)
	if err != nil {
		if c.cb.OnError != nil {
			c.cb.OnError(err, req.token)
		}
		return
	}
	if c.cb.OnData != nil {
		c.cb.OnData(payload, req.token)
	}
}
