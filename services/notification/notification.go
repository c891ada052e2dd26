// Package notification is the typed client for the phone-notification
// endpoint: pushing call events (ring, incoming/missed call, start/end)
// to the watch, and subscribing to the call-control commands
// (answer/hang up/state request) the watch sends back.
package notification

import (
	"context"
	"fmt"

	"github.com/pebblekit/pebble2/packet"
	"github.com/pebblekit/pebble2/packet/phone"
)

// Sender is the surface Client needs from a connection.
type Sender interface {
	SendPacket(ctx context.Context, msg packet.Descriptor) error
	RegisterEndpoint(endpoint uint16, fn func(packet.Descriptor)) func()
}

type Client struct {
	conn Sender
}

func New(conn Sender) *Client { return &Client{conn: conn} }

func (c *Client) send(ctx context.Context, p *phone.PhoneNotification) error {
	if err := c.conn.SendPacket(ctx, p); err != nil {
		return fmt.Errorf("notification: send: %w", err)
	}
	return nil
}

func (c *Client) Ring(ctx context.Context, cookie uint32) error {
	return c.send(ctx, phone.NewRing(cookie))
}

func (c *Client) CallStart(ctx context.Context, cookie uint32) error {
	return c.send(ctx, phone.NewCallStart(cookie))
}

func (c *Client) CallEnd(ctx context.Context, cookie uint32) error {
	return c.send(ctx, phone.NewCallEnd(cookie))
}

func (c *Client) IncomingCall(ctx context.Context, cookie uint32, number, name string) error {
	return c.send(ctx, phone.NewIncomingCall(cookie, number, name))
}

func (c *Client) MissedCall(ctx context.Context, cookie uint32, number, name string) error {
	return c.send(ctx, phone.NewMissedCall(cookie, number, name))
}

// OnWatchCommand subscribes to the call-control commands (answer/hang up/
// phone state request) the watch sends back over the same endpoint. The
// returned func unsubscribes.
func (c *Client) OnWatchCommand(fn func(*phone.PhoneNotification)) func() {
	return c.conn.RegisterEndpoint(phone.EndpointPhoneNotification, func(d packet.Descriptor) {
		if p, ok := d.(*phone.PhoneNotification); ok {
			fn(p)
		}
	})
}
