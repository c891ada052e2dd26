// Package voice is the typed client for the voice-control endpoint:
// starting a dictation/command session and waiting for its result.
//
// VoiceControlResult shares its endpoint with VoiceControlCommand but is
// deliberately unregistered in the packet registry (a registry entry picks
// exactly one decode type per endpoint, and VoiceControlCommand already
// claims 0x2af8 for the host->watch direction). Client reads the result
// side off RawEndpointQueue and decodes it itself instead of going through
// the registered-type dispatch used for every other service.
package voice

import (
	"context"
	"fmt"
	"time"

	"github.com/pebblekit/pebble2/event"
	"github.com/pebblekit/pebble2/packet"
	pvoice "github.com/pebblekit/pebble2/packet/voice"
)

// Conn is the surface Client needs from a connection.
type Conn interface {
	SendPacket(ctx context.Context, msg packet.Descriptor) error
	RawEndpointQueue(endpoint uint16, capacity int) *event.Queue
}

type Client struct {
	conn Conn
}

func New(conn Conn) *Client { return &Client{conn: conn} }

// Error reports a non-Success voice control result.
type Error struct {
	Result pvoice.Result
}

func (e *Error) Error() string {
	return fmt.Sprintf("voice: session failed: result %d", e.Result)
}

func nextResult(queue *event.Queue, timeout time.Duration) (*pvoice.VoiceControlResult, error) {
	ev, err := queue.Get(timeout)
	if err != nil {
		return nil, err
	}
	payload := ev.([]byte)
	result := &pvoice.VoiceControlResult{}
	if _, err := packet.Parse(result, payload, 0); err != nil {
		return nil, fmt.Errorf("voice: decode result: %w", err)
	}
	return result, nil
}

// StartSession opens a dictation or command session and blocks for the
// watch's SessionSetup result.
func (c *Client) StartSession(ctx context.Context, sessionType pvoice.SessionType, sessionID uint16, appInitiated bool, timeout time.Duration) error {
	queue := c.conn.RawEndpointQueue(pvoice.EndpointVoiceControl, 4)
	defer queue.Close()

	cmd := pvoice.NewSessionSetup(sessionType, sessionID, appInitiated)
	if err := c.conn.SendPacket(ctx, cmd); err != nil {
		return fmt.Errorf("voice: send session setup: %w", err)
	}

	for {
		result, err := nextResult(queue, timeout)
		if err != nil {
			return fmt.Errorf("voice: await session result: %w", err)
		}
		if !result.IsSessionSetup() {
			continue
		}
		if pvoice.Result(result.Setup.Result) != pvoice.ResultSuccess {
			return &Error{Result: pvoice.Result(result.Setup.Result)}
		}
		return nil
	}
}

// AwaitDictation blocks until a dictation result for sessionID arrives.
func (c *Client) AwaitDictation(ctx context.Context, sessionID uint16, timeout time.Duration) (*pvoice.DictationResult, error) {
	queue := c.conn.RawEndpointQueue(pvoice.EndpointVoiceControl, 4)
	defer queue.Close()

	for {
		result, err := nextResult(queue, timeout)
		if err != nil {
			return nil, fmt.Errorf("voice: await dictation: %w", err)
		}
		if !result.IsDictation() || result.Dict.SessionID != sessionID {
			continue
		}
		if pvoice.Result(result.Dict.Result) != pvoice.ResultSuccess {
			return nil, &Error{Result: pvoice.Result(result.Dict.Result)}
		}
		return &result.Dict, nil
	}
}
