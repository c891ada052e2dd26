// Package screenshot takes a screenshot from the watch: send the request,
// reassemble the chunked response stream, and decode the raw pixel data
// into RGB8 rows — grounded in libpebble2's Screenshot service, including
// its two wire versions (1-bit-per-pixel and 2-bit-per-channel).
package screenshot

import (
	"context"
	"fmt"
	"time"

	"github.com/pebblekit/pebble2/event"
	"github.com/pebblekit/pebble2/packet"
	pss "github.com/pebblekit/pebble2/packet/screenshot"
)

// Error reports a non-OK response code from the watch.
type Error struct {
	Code pss.ResponseCode
}

func (e *Error) Error() string {
	return fmt.Sprintf("screenshot: failed: response code %d", e.Code)
}

// Conn is the surface Client needs from a connection.
type Conn interface {
	SendPacket(ctx context.Context, msg packet.Descriptor) error
	GetEndpointQueue(endpoint uint16, capacity int) *event.Queue
}

type Client struct {
	conn Conn
}

func New(conn Conn) *Client { return &Client{conn: conn} }

// Image is a decoded screenshot: one []byte per row, 3 bytes (R,G,B) per
// pixel.
type Image struct {
	Width, Height int
	Rows          [][]byte
}

// Grab requests a screenshot and blocks until it's fully downloaded and
// decoded, or the watch reports a failure. progress, if non-nil, is
// called after every chunk with (bytes downloaded, expected total).
func (c *Client) Grab(ctx context.Context, timeout time.Duration, progress func(downloaded, total int)) (*Image, error) {
	queue := c.conn.GetEndpointQueue(pss.EndpointScreenshot, 32)
	defer queue.Close()

	if err := c.conn.SendPacket(ctx, pss.NewRequest()); err != nil {
		return nil, fmt.Errorf("screenshot: send request: %w", err)
	}

	chunk, err := nextChunk(queue, timeout)
	if err != nil {
		return nil, err
	}
	header := &pss.Header{}
	n, err := packet.Parse(header, chunk, 0)
	if err != nil {
		return nil, fmt.Errorf("screenshot: parse header: %w", err)
	}
	if pss.ResponseCode(header.ResponseCode) != pss.ResponseOK {
		return nil, &Error{Code: pss.ResponseCode(header.ResponseCode)}
	}

	expected, err := expectedBytes(header)
	if err != nil {
		return nil, err
	}
	data := append([]byte(nil), chunk[n:]...)
	for len(data) < expected {
		more, err := nextChunk(queue, timeout)
		if err != nil {
			return nil, err
		}
		data = append(data, more...)
		if progress != nil {
			progress(len(data), expected)
		}
	}

	return decodeImage(header, data)
}

func nextChunk(queue *event.Queue, timeout time.Duration) ([]byte, error) {
	ev, err := queue.Get(timeout)
	if err != nil {
		return nil, fmt.Errorf("screenshot: await chunk: %w", err)
	}
	resp, ok := ev.(*pss.Response)
	if !ok {
		return nil, fmt.Errorf("screenshot: unexpected event type")
	}
	return resp.Data, nil
}

func expectedBytes(h *pss.Header) (int, error) {
	switch h.Version {
	case 1:
		return int(h.Width*h.Height) / 8, nil
	case 2:
		return int(h.Width * h.Height), nil
	default:
		return 0, fmt.Errorf("screenshot: unknown screenshot version %d", h.Version)
	}
}

func decodeImage(h *pss.Header, data []byte) (*Image, error) {
	switch h.Version {
	case 1:
		return decode1Bit(h, data), nil
	case 2:
		return decode8Bit(h, data), nil
	default:
		return nil, fmt.Errorf("screenshot: unknown screenshot version %d", h.Version)
	}
}

func decode1Bit(h *pss.Header, data []byte) *Image {
	width, height := int(h.Width), int(h.Height)
	rowBytes := width / 8
	img := &Image{Width: width, Height: height}
	for row := 0; row < height; row++ {
		rowValues := make([]byte, 0, width*3)
		for col := 0; col < width; col++ {
			idx := row*rowBytes + col/8
			pixel := (data[idx] >> uint(col%8)) & 1
			v := pixel * 255
			rowValues = append(rowValues, v, v, v)
		}
		img.Rows = append(img.Rows, rowValues)
	}
	return img
}

func decode8Bit(h *pss.Header, data []byte) *Image {
	width, height := int(h.Width), int(h.Height)
	img := &Image{Width: width, Height: height}
	for row := 0; row < height; row++ {
		rowValues := make([]byte, 0, width*3)
		for col := 0; col < width; col++ {
			pixel := data[row*width+col]
			r := ((pixel >> 4) & 0b11) * 85
			g := ((pixel >> 2) & 0b11) * 85
			b := (pixel & 0b11) * 85
			rowValues = append(rowValues, r, g, b)
		}
		img.Rows = append(img.Rows, rowValues)
	}
	return img
}
