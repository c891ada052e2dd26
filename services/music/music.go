// Package music is the typed client for the music-control endpoint:
// issuing playback commands to the phone and pushing now-playing
// metadata to the watch.
package music

import (
	"context"
	"fmt"

	"github.com/pebblekit/pebble2/packet"
	pmusic "github.com/pebblekit/pebble2/packet/music"
)

type Sender interface {
	SendPacket(ctx context.Context, msg packet.Descriptor) error
	RegisterEndpoint(endpoint uint16, fn func(packet.Descriptor)) func()
}

type Client struct {
	conn Sender
}

func New(conn Sender) *Client { return &Client{conn: conn} }

func (c *Client) send(ctx context.Context, msg *pmusic.MusicControl) error {
	if err := c.conn.SendPacket(ctx, msg); err != nil {
		return fmt.Errorf("music: send: %w", err)
	}
	return nil
}

func (c *Client) PlayPause(ctx context.Context) error     { return c.send(ctx, pmusic.NewPlayPause()) }
func (c *Client) Play(ctx context.Context) error           { return c.send(ctx, pmusic.NewPlay()) }
func (c *Client) Pause(ctx context.Context) error          { return c.send(ctx, pmusic.NewPause()) }
func (c *Client) NextTrack(ctx context.Context) error      { return c.send(ctx, pmusic.NewNextTrack()) }
func (c *Client) PreviousTrack(ctx context.Context) error  { return c.send(ctx, pmusic.NewPreviousTrack()) }
func (c *Client) VolumeUp(ctx context.Context) error       { return c.send(ctx, pmusic.NewVolumeUp()) }
func (c *Client) VolumeDown(ctx context.Context) error     { return c.send(ctx, pmusic.NewVolumeDown()) }

// UpdateCurrentTrack pushes now-playing metadata to the watch.
func (c *Client) UpdateCurrentTrack(ctx context.Context, artist, album, title string) error {
	return c.send(ctx, pmusic.NewUpdateCurrentTrack(pmusic.CurrentTrack{Artist: artist, Album: album, Title: title}))
}

func (c *Client) UpdateVolume(ctx context.Context, percent uint8) error {
	return c.send(ctx, pmusic.NewUpdateVolume(percent))
}

func (c *Client) UpdatePlayerInfo(ctx context.Context, pkg, name string) error {
	return c.send(ctx, pmusic.NewUpdatePlayerInfo(pkg, name))
}

// OnCommand subscribes to playback commands the watch sends (play/pause/
// next/previous/volume/get-current-track).
func (c *Client) OnCommand(fn func(*pmusic.MusicControl)) func() {
	return c.conn.RegisterEndpoint(pmusic.EndpointMusicControl, func(d packet.Descriptor) {
		if m, ok := d.(*pmusic.MusicControl); ok {
			fn(m)
		}
	})
}
