// Package blobdb implements the watch's key/value blob store client:
// random nonzero 16-bit token correlation, an outbound-drain worker and a
// pending-ack retry-scan worker, and a SyncWrapper for one-shot blocking
// callers.
package blobdb

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pebblekit/pebble2/codec"
	"github.com/pebblekit/pebble2/packet"
)

const EndpointBlobDB uint16 = 0xb1db

type Database uint8

const (
	DatabasePin          Database = 1
	DatabaseApp          Database = 2
	DatabaseReminder     Database = 3
	DatabaseNotification Database = 4
	DatabaseWeather      Database = 5
	DatabaseAppGlance    Database = 11
)

type opcode uint8

const (
	opInsert opcode = 1
	opDelete opcode = 4
	opClear  opcode = 5
)

// command is the outbound BlobCommand: a random token, an opcode, the
// target database, and an opcode-specific payload (key, or key+value).
type command struct {
	Token    uint16
	Opcode   uint8
	Database uint8
	KeyLen   uint8
	Key      []byte
	ValLen   uint16
	Value    []byte
}

func (c *command) Fields() []codec.Field {
	fields := []codec.Field{
		codec.Uint16(&c.Token),
		codec.Uint8(&c.Opcode),
		codec.Uint8(&c.Database),
		codec.Uint8(&c.KeyLen),
		codec.BinaryArrayWithLength(&c.Key, codec.Uint8Ref(&c.KeyLen)),
	}
	if opcode(c.Opcode) == opInsert {
		fields = append(fields,
			codec.Uint16(&c.ValLen),
			codec.BinaryArrayWithLength(&c.Value, codec.Uint16Ref(&c.ValLen)),
		)
	}
	return fields
}

func (c *command) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: EndpointBlobDB, Register: false}
}

// Response is the watch's reply to a command: the echoed token and a
// result status. A watch reply is always final — it's never reinterpreted
// as anything but the definitive outcome of the request it answers.
type Response struct {
	Token  uint16
	Status uint8
}

func (r *Response) Fields() []codec.Field {
	return []codec.Field{codec.Uint16(&r.Token), codec.Uint8(&r.Status)}
}
func (r *Response) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: EndpointBlobDB, Register: true}
}

func init() {
	packet.Global.Register(EndpointBlobDB, func() packet.Descriptor { return &Response{} })
}

const (
	StatusSuccess       uint8 = 1
	drainInterval             = 50 * time.Millisecond
	retryScanInterval         = 5 * time.Second
)

// Sender is the surface Client needs from a connection.
type Sender interface {
	SendPacket(ctx context.Context, msg packet.Descriptor) error
	RegisterEndpoint(endpoint uint16, fn func(packet.Descriptor)) func()
}

type pending struct {
	cmd       *command
	sentAt    time.Time
	callback  func(status uint8, err error)
}

// Client is the asynchronous BlobDB client: Insert/Delete/Clear enqueue a
// command and return immediately; callback fires once, either from the
// watch's response or from a send error. A command left unanswered past
// the timeout is resent under the same token by the retry scan.
type Client struct {
	conn    Sender
	timeout time.Duration

	mu      sync.Mutex
	outbox  []*command
	pending map[uint16]*pending
	callbacks map[uint16]func(status uint8, err error)

	unsubscribe func()
	cancel      context.CancelFunc
}

// New starts the client's two background workers bound to ctx.
func New(ctx context.Context, conn Sender, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	c := &Client{
		conn:      conn,
		timeout:   timeout,
		pending:   make(map[uint16]*pending),
		callbacks: make(map[uint16]func(status uint8, err error)),
		cancel:    cancel,
	}
	c.unsubscribe = conn.RegisterEndpoint(EndpointBlobDB, c.onResponse)
	go c.drainLoop(ctx)
	go c.retryScanLoop(ctx)
	return c
}

func (c *Client) Close() {
	c.unsubscribe()
	c.cancel()
}

func randToken() uint16 {
	for {
		t := uint16(rand.Intn(1 << 16))
		if t != 0 {
			return t
		}
	}
}

func (c *Client) enqueue(cmd *command, cb func(status uint8, err error)) {
	c.mu.Lock()
	c.outbox = append(c.outbox, cmd)
	c.callbacks[cmd.Token] = cb
	c.mu.Unlock()
}

// Insert writes key/value into db.
func (c *Client) Insert(db Database, key, value []byte, cb func(status uint8, err error)) {
	c.enqueue(&command{Token: randToken(), Opcode: uint8(opInsert), Database: uint8(db), Key: key, Value: value}, cb)
}

// Delete removes key from db.
func (c *Client) Delete(db Database, key []byte, cb func(status uint8, err error)) {
	c.enqueue(&command{Token: randToken(), Opcode: uint8(opDelete), Database: uint8(db), Key: key}, cb)
}

// Clear empties db entirely.
func (c *Client) Clear(db Database, cb func(status uint8, err error)) {
	c.enqueue(&command{Token: randToken(), Opcode: uint8(opClear), Database: uint8(db)}, cb)
}

func (c *Client) drainLoop(ctx context.Context) {
	t := time.NewTicker(drainInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.drainOnce(ctx)
		}
	}
}

func (c *Client) drainOnce(ctx context.Context) {
	c.mu.Lock()
	if len(c.outbox) == 0 {
		c.mu.Unlock()
		return
	}
	cmd := c.outbox[0]
	c.outbox = c.outbox[1:]
	c.pending[cmd.Token] = &pending{cmd: cmd, sentAt: time.Now()}
	c.mu.Unlock()

	if err := c.conn.SendPacket(ctx, cmd); err != nil {
		c.finish(cmd.Token, 0, fmt.Errorf("blobdb: send: %w", err))
	}
}

// retryScanLoop evicts pending entries older than timeout. Eviction means
// a resend with the same token, not giving up — only the watch's own
// response is ever treated as final.
func (c *Client) retryScanLoop(ctx context.Context) {
	bo := backoff.NewConstantBackOff(retryScanInterval)
	timer := time.NewTimer(bo.NextBackOff())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			c.retryScanOnce()
			timer.Reset(bo.NextBackOff())
		}
	}
}

func (c *Client) retryScanOnce() {
	now := time.Now()
	var expired []*command
	c.mu.Lock()
	for token, p := range c.pending {
		if now.Sub(p.sentAt) >= c.timeout {
			expired = append(expired, p.cmd)
			delete(c.pending, token)
		}
	}
	c.mu.Unlock()

	for _, cmd := range expired {
		c.mu.Lock()
		c.outbox = append(c.outbox, cmd)
		c.mu.Unlock()
	}
}

func (c *Client) onResponse(d packet.Descriptor) {
	resp, ok := d.(*Response)
	if !ok {
		return
	}
	c.finish(resp.Token, resp.Status, nil)
}

func (c *Client) finish(token uint16, status uint8, err error) {
	c.mu.Lock()
	delete(c.pending, token)
	cb := c.callbacks[token]
	delete(c.callbacks, token)
	c.mu.Unlock()
	if cb != nil {
		cb(status, err)
	}
}

// SyncWrapper adapts Client's async callback API into a single blocking
// call, for callers that don't want to manage their own synchronization.
type SyncWrapper struct {
	client *Client
}

func NewSyncWrapper(client *Client) *SyncWrapper { return &SyncWrapper{client: client} }

func (w *SyncWrapper) Insert(ctx context.Context, db Database, key, value []byte) (uint8, error) {
	return w.wait(ctx, func(cb func(uint8, error)) { w.client.Insert(db, key, value, cb) })
}

func (w *SyncWrapper) Delete(ctx context.Context, db Database, key []byte) (uint8, error) {
	return w.wait(ctx, func(cb func(uint8, error)) { w.client.Delete(db, key, cb) })
}

func (w *SyncWrapper) Clear(ctx context.Context, db Database) (uint8, error) {
	return w.wait(ctx, func(cb func(uint8, error)) { w.client.Clear(db, cb) })
}

func (w *SyncWrapper) wait(ctx context.Context, start func(cb func(uint8, error))) (uint8, error) {
	type result struct {
		status uint8
		err    error
	}
	done := make(chan result, 1)
	start(func(status uint8, err error) {
		done <- result{status, err}
	})
	select {
	case r := <-done:
		return r.status, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
