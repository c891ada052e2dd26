// Package tui is a Bubble Tea console for pebble2d: it dials the daemon's
// gRPC Watch service for a set of endpoints and renders incoming events as
// a scrollable list plus a per-event inspector, in the same shape as the
// teacher's sql-tap TUI (model.go's connect/eventMsg/errMsg Bubble Tea
// plumbing, list.go's bordered list rendering).
package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/pebblekit/pebble2/rpc"
)

type viewMode int

const (
	viewList viewMode = iota
	viewInspect
)

// Model is the Bubble Tea model for the pebble2 console.
type Model struct {
	target    string
	endpoints []uint32

	conn    *grpc.ClientConn
	client  *rpc.WatchClient
	streams []*rpc.WatchStream

	events []*rpc.WatchEvent
	cursor int
	follow bool
	width  int
	height int
	err    error
	view   viewMode
}

// New creates a Model that will dial target and watch each of endpoints.
func New(target string, endpoints []uint32) Model {
	return Model{target: target, endpoints: endpoints, follow: true}
}

func (m Model) Init() tea.Cmd {
	return connect(m.target)
}

type connectedMsg struct {
	conn    *grpc.ClientConn
	client  *rpc.WatchClient
	streams []*rpc.WatchStream
}

type eventMsg struct {
	idx int
	ev  *rpc.WatchEvent
}

type streamDoneMsg struct{ idx int }

type errMsg struct{ err error }

func connect(target string) tea.Cmd {
	return func() tea.Msg {
		conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return errMsg{err: fmt.Errorf("dial %s: %w", target, err)}
		}
		return connectedMsg{conn: conn, client: rpc.NewWatchClient(conn)}
	}
}

func openStreams(client *rpc.WatchClient, endpoints []uint32) tea.Cmd {
	return func() tea.Msg {
		streams := make([]*rpc.WatchStream, len(endpoints))
		for i, ep := range endpoints {
			s, err := client.Watch(context.Background(), ep)
			if err != nil {
				return errMsg{err: fmt.Errorf("watch endpoint %d: %w", ep, err)}
			}
			streams[i] = s
		}
		return connectedMsg{streams: streams}
	}
}

func recvFrom(idx int, stream *rpc.WatchStream) tea.Cmd {
	return func() tea.Msg {
		ev, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				return streamDoneMsg{idx: idx}
			}
			return errMsg{err: err}
		}
		return eventMsg{idx: idx, ev: ev}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case connectedMsg:
		if msg.conn != nil {
			m.conn = msg.conn
			m.client = msg.client
			return m, openStreams(m.client, m.endpoints)
		}
		m.streams = msg.streams
		cmds := make([]tea.Cmd, len(m.streams))
		for i, s := range m.streams {
			cmds[i] = recvFrom(i, s)
		}
		return m, tea.Batch(cmds...)

	case eventMsg:
		m.events = append(m.events, msg.ev)
		if m.follow {
			m.cursor = len(m.events) - 1
		}
		return m, recvFrom(msg.idx, m.streams[msg.idx])

	case streamDoneMsg:
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.view == viewInspect {
			m.view = viewList
			return m, nil
		}
		if m.conn != nil {
			_ = m.conn.Close()
		}
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.events)-1 {
			m.cursor++
			m.follow = m.cursor == len(m.events)-1
		}
		return m, nil
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
			m.follow = false
		}
		return m, nil
	case "g":
		m.cursor = 0
		m.follow = false
		return m, nil
	case "G":
		m.cursor = max(len(m.events)-1, 0)
		m.follow = true
		return m, nil
	case "enter":
		if len(m.events) > 0 {
			m.view = viewInspect
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if m.err != nil {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1")).
			Render(fmt.Sprintf("pebble2: %v\n", m.err))
	}
	switch m.view {
	case viewInspect:
		return m.renderInspector()
	default:
		return m.renderList()
	}
}
