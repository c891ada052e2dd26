// Package appinstall drives a modern (3.x+) app install: write the app's
// BlobDB metadata record, start it via AppRunState, wait for the watch's
// AppFetchRequest, validate its UUID, then push binary/resources/worker
// over PutBytes using the app id the watch supplied. Grounded in
// libpebble2's AppInstaller._install_modern; the legacy 2.x bank-based
// install path (_install_legacy2) is out of scope — it targets firmware
// this library doesn't otherwise support and would need the legacy2
// protocol module this port never builds.
package appinstall

import (
	"context"
	"fmt"
	"time"

	"github.com/pebblekit/pebble2/blobdb"
	"github.com/pebblekit/pebble2/packet"
	pappinstall "github.com/pebblekit/pebble2/packet/appinstall"
	"github.com/pebblekit/pebble2/putbytes"
)

// Error reports a failed install step.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return fmt.Sprintf("appinstall: %s", e.Reason) }

// Conn is the surface Client needs from a connection.
type Conn interface {
	SendPacket(ctx context.Context, msg packet.Descriptor) error
	ReadFromEndpoint(ctx context.Context, endpoint uint16, timeout time.Duration) (packet.Descriptor, error)
}

type Client struct {
	conn   Conn
	blobdb *blobdb.SyncWrapper
}

func New(conn Conn, blobdbClient *blobdb.SyncWrapper) *Client {
	return &Client{conn: conn, blobdb: blobdbClient}
}

// App is the bundle of parts an Install call pushes to the watch; Resources
// and Worker may be nil.
type App struct {
	Metadata  pappinstall.Metadata
	Binary    []byte
	Resources []byte
	Worker    []byte
}

const fetchTimeout = 10 * time.Second

// Install writes app's metadata to BlobDB, launches it, and transfers its
// parts once the watch asks for them. progress, if non-nil, is called
// after every PutBytes chunk across all parts.
func (c *Client) Install(ctx context.Context, app App, progress func(putbytes.Progress)) error {
	metaBytes, err := packet.Serialise(&app.Metadata, 0)
	if err != nil {
		return fmt.Errorf("appinstall: serialise metadata: %w", err)
	}
	status, err := c.blobdb.Insert(ctx, blobdb.DatabaseApp, app.Metadata.UUID[:], metaBytes)
	if err != nil {
		return fmt.Errorf("appinstall: blobdb insert: %w", err)
	}
	if status != blobdb.StatusSuccess {
		return &Error{Reason: fmt.Sprintf("blobdb insert failed: status %d", status)}
	}

	if err := c.conn.SendPacket(ctx, pappinstall.NewAppRunStateStart(app.Metadata.UUID)); err != nil {
		return fmt.Errorf("appinstall: send run state start: %w", err)
	}

	reply, err := c.conn.ReadFromEndpoint(ctx, pappinstall.EndpointAppFetch, fetchTimeout)
	if err != nil {
		return fmt.Errorf("appinstall: await fetch request: %w", err)
	}
	fetch, ok := reply.(*pappinstall.FetchRequest)
	if !ok {
		return &Error{Reason: "unexpected reply to run state start"}
	}
	if fetch.UUID != app.Metadata.UUID {
		_ = c.conn.SendPacket(ctx, pappinstall.NewFetchResponse(pappinstall.FetchInvalidUUID))
		return &Error{Reason: fmt.Sprintf("watch requested UUID %s, expected %s", fetch.UUID, app.Metadata.UUID)}
	}
	if err := c.conn.SendPacket(ctx, pappinstall.NewFetchResponse(pappinstall.FetchStart)); err != nil {
		return fmt.Errorf("appinstall: send fetch response: %w", err)
	}

	appID := uint32(fetch.AppID)
	if err := putbytes.Upload(ctx, c.conn, putbytes.ObjectAppBinary, true, appID, app.Binary, progress); err != nil {
		return fmt.Errorf("appinstall: send binary: %w", err)
	}
	if len(app.Resources) > 0 {
		if err := putbytes.Upload(ctx, c.conn, putbytes.ObjectAppResources, true, appID, app.Resources, progress); err != nil {
			return fmt.Errorf("appinstall: send resources: %w", err)
		}
	}
	if len(app.Worker) > 0 {
		if err := putbytes.Upload(ctx, c.conn, putbytes.ObjectAppWorker, true, appID, app.Worker, progress); err != nil {
			return fmt.Errorf("appinstall: send worker: %w", err)
		}
	}
	return nil
}
