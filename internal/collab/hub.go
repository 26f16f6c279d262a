package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/driftboard/canvas/backend-go/internal/config"
	"github.com/driftboard/canvas/backend-go/internal/document"
)

var ErrHubStopped = errors.New("hub stopped")

// Loader returns the initial snapshot for a document that has no room yet.
type Loader func(documentID string) (*document.Document, error)

type inbound struct {
	client *Client
	msg    *Message
}

type job struct {
	documentID string
	fn         func(*Room) error
	done       chan error
}

// Hub owns every room. All room state, including each room's sessions, is
// only read and written by the goroutine running Run, so commands for a
// document are applied one at a time in arrival order.
type Hub struct {
	cfg   config.Engine
	load  Loader
	rooms map[string]*Room

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	jobs       chan job
	stopped    chan struct{}
}

func NewHub(cfg config.Engine, load Loader) *Hub {
	return &Hub{
		cfg:        cfg,
		load:       load,
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 256),
		jobs:       make(chan job),
		stopped:    make(chan struct{}),
	}
}

// Run processes hub events until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case in := <-h.inbound:
			h.handleMessage(in.client, in.msg)
		case j := <-h.jobs:
			j.done <- h.runJob(j)
		case <-ctx.Done():
			for _, room := range h.rooms {
				for _, c := range room.clients {
					close(c.send)
				}
			}
			slog.Info("hub stopped", "rooms", len(h.rooms))
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.stopped:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// Dispatch queues a message from client for the hub goroutine.
func (h *Hub) Dispatch(client *Client, msg *Message) {
	select {
	case h.inbound <- inbound{client: client, msg: msg}:
	case <-h.stopped:
	}
}

// Do runs fn against the room for documentID on the hub goroutine, loading
// the room first if needed.
func (h *Hub) Do(ctx context.Context, documentID string, fn func(*Room) error) error {
	j := job{documentID: documentID, fn: fn, done: make(chan error, 1)}
	select {
	case h.jobs <- j:
	case <-h.stopped:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current snapshot of documentID.
func (h *Hub) Snapshot(ctx context.Context, documentID string) (*document.Document, error) {
	var doc *document.Document
	err := h.Do(ctx, documentID, func(r *Room) error {
		doc = r.Document()
		return nil
	})
	return doc, err
}

// Replace swaps the snapshot of documentID and pushes it to every client.
func (h *Hub) Replace(ctx context.Context, documentID string, doc *document.Document) error {
	return h.Do(ctx, documentID, func(r *Room) error {
		if err := r.Replace(doc); err != nil {
			return err
		}
		h.broadcastToRoom(r, h.syncMessage(r), "")
		return nil
	})
}

func (h *Hub) runJob(j job) error {
	room, err := h.room(j.documentID)
	if err != nil {
		return err
	}
	return j.fn(room)
}

// room returns the room for documentID, creating it from the loader.
// Rooms outlive their clients; the hub is the only copy of the document.
func (h *Hub) room(documentID string) (*Room, error) {
	if room, ok := h.rooms[documentID]; ok {
		return room, nil
	}
	doc, err := h.load(documentID)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", documentID, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("load document %s: %w", documentID, err)
	}
	room := newRoom(documentID, h.cfg, doc)
	h.rooms[documentID] = room
	slog.Info("room opened", "document", documentID, "nodes", doc.Len())
	return room, nil
}

func (h *Hub) addClient(client *Client) {
	room, err := h.room(client.DocumentID)
	if err != nil {
		slog.Error("open room", "error", err, "document", client.DocumentID)
		client.sendError(err.Error())
		close(client.send)
		return
	}
	room.clients[client.ClientID] = client

	if msg, err := newMessage(TypeWelcome, WelcomePayload{
		ClientID:  client.ClientID,
		UserID:    client.UserID,
		ServerSeq: room.serverSeq,
	}); err == nil {
		client.Send(msg)
	}
	client.Send(h.syncMessage(room))
	if msg := room.presence.stateMessage(); msg != nil {
		client.Send(msg)
	}

	if msg, err := newMessage(TypePresenceJoin, PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	}); err == nil {
		msg.UserID = client.UserID
		h.broadcastToRoom(room, msg, client.ClientID)
	}

	slog.Info("client joined", "user", client.UserID, "document", client.DocumentID)
}

func (h *Hub) removeClient(client *Client) {
	room, ok := h.rooms[client.DocumentID]
	if !ok {
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		return
	}

	delete(room.clients, client.ClientID)
	delete(room.sessions, client.ClientID)
	close(client.send)
	room.presence.remove(client.UserID)

	if msg, err := newMessage(TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID}); err == nil {
		msg.UserID = client.UserID
		h.broadcastToRoom(room, msg, "")
	}

	slog.Info("client left", "user", client.UserID, "document", client.DocumentID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	room, ok := h.rooms[sender.DocumentID]
	if !ok {
		return
	}
	if _, joined := room.clients[sender.ClientID]; !joined {
		return
	}

	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(room, sender, msg)
	case TypeCmdSubmit:
		h.handleCommand(room, sender, msg)
	case TypeDocRequest:
		sender.Send(h.syncMessage(room))
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sender.sendError(fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (h *Hub) handlePresenceUpdate(room *Room, sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}
	presence.DisplayName = sender.DisplayName
	room.presence.update(sender.UserID, &presence)

	out, err := newMessage(TypePresenceUpdate, presence)
	if err != nil {
		return
	}
	out.UserID = sender.UserID
	h.broadcastToRoom(room, out, sender.ClientID)
}

func (h *Hub) handleCommand(room *Room, sender *Client, msg *Message) {
	var submit CommandSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		slog.Warn("invalid command payload", "error", err, "user", sender.UserID)
		sender.sendError("invalid command payload")
		return
	}
	cmd := submit.Command

	res, changed, err := room.apply(sender.ClientID, sender.UserID, cmd)
	if err != nil {
		slog.Debug("command rejected", "type", cmd.Type, "error", err, "user", sender.UserID)
		if nack, err := newMessage(TypeCmdNack, CommandNackPayload{CommandID: cmd.ID, Reason: err.Error()}); err == nil {
			sender.Send(nack)
		}
		return
	}

	if ack, err := newMessage(TypeCmdAck, CommandAckPayload{
		CommandID: cmd.ID,
		ServerSeq: room.serverSeq,
		Result:    res,
	}); err == nil {
		ack.Seq = room.serverSeq
		sender.Send(ack)
	}

	if !changed {
		return
	}
	if out, err := newMessage(TypeCmdBroadcast, CommandBroadcastPayload{
		Command:   cmd,
		UserID:    sender.UserID,
		ServerSeq: room.serverSeq,
	}); err == nil {
		out.UserID = sender.UserID
		out.Seq = room.serverSeq
		h.broadcastToRoom(room, out, sender.ClientID)
	}
}

func (h *Hub) syncMessage(room *Room) *Message {
	msg, err := newMessage(TypeDocSync, DocSyncPayload{Document: room.doc, ServerSeq: room.serverSeq})
	if err != nil {
		slog.Error("marshal document", "error", err, "document", room.documentID)
		return &Message{Type: TypeError}
	}
	msg.Seq = room.serverSeq
	return msg
}

func (h *Hub) broadcastToRoom(room *Room, msg *Message, excludeClientID string) {
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}
