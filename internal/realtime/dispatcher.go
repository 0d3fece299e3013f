package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/marketly/marketly-backend/internal/messages"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
	"github.com/marketly/marketly-backend/pkg/logger"
	"github.com/marketly/marketly-backend/pkg/metrics"
)

type messageService interface {
	Send(ctx context.Context, senderID uuid.UUID, input messages.SendInput) (*messages.MessageDTO, bool, error)
	MarkMessageRead(ctx context.Context, messageID uuid.UUID) (*messages.MessageDTO, error)
	ConversationSummary(ctx context.Context, userID, otherID uuid.UUID) (*messages.ConversationDTO, error)
}

type joinPayload struct {
	PartnerID uuid.UUID `json:"partner_id"`
}

type messageNewPayload struct {
	Message messages.MessageDTO `json:"message"`
}

type conversationUpdatePayload struct {
	Conversation messages.ConversationDTO `json:"conversation"`
}

// Dispatcher handles client events and fans messages out to rooms. REST sends
// go through Send as well so both paths notify the same rooms.
type Dispatcher struct {
	registry *Registry
	messages messageService
	logg     *logger.Logger
	metrics  *metrics.RealtimeMetrics
}

func NewDispatcher(registry *Registry, svc messageService, logg *logger.Logger, m *metrics.RealtimeMetrics) (*Dispatcher, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry required")
	}
	if svc == nil {
		return nil, fmt.Errorf("message service required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Dispatcher{registry: registry, messages: svc, logg: logg, metrics: m}, nil
}

// Connect joins the peer to its private user room.
func (d *Dispatcher) Connect(peer Peer) {
	d.registry.Join(UserRoom(peer.UserID()), peer)
	d.metrics.Connected()
}

func (d *Dispatcher) Disconnect(peer Peer) {
	d.registry.LeaveAll(peer)
	d.metrics.Disconnected()
}

// Handle processes one client frame. Errors are answered through the ack when
// the frame carried one and through an error event otherwise.
func (d *Dispatcher) Handle(ctx context.Context, peer Peer, frame Frame) {
	var (
		payload AckPayload
		err     error
	)
	switch frame.Event {
	case EventJoin:
		payload, err = d.join(peer, frame.Data)
	case EventLeave:
		payload, err = d.leave(peer, frame.Data)
	case EventSend:
		payload, err = d.send(ctx, peer, frame.Data)
	default:
		err = pkgerrors.Newf(pkgerrors.CodeValidation, "unknown event %q", frame.Event)
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
		payload = AckPayload{OK: false, Error: clientMessage(err)}
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			d.logg.Error(d.logg.WithField(ctx, "event", frame.Event), "realtime.event_failed", err)
		}
	}
	d.metrics.Event(frame.Event, outcome)

	if frame.Ack != nil {
		ack, ackErr := ackFrame(*frame.Ack, payload)
		if ackErr == nil {
			peer.Send(ack)
		}
		return
	}
	if err != nil {
		if out, frameErr := NewFrame(EventError, errorPayload{Event: frame.Event, Error: payload.Error}); frameErr == nil {
			peer.Send(out)
		}
	}
}

func (d *Dispatcher) join(peer Peer, data json.RawMessage) (AckPayload, error) {
	partner, err := decodePartner(peer, data)
	if err != nil {
		return AckPayload{}, err
	}
	room := ConversationRoom(peer.UserID(), partner)
	d.registry.Join(room, peer)
	return AckPayload{OK: true, Room: room}, nil
}

func (d *Dispatcher) leave(peer Peer, data json.RawMessage) (AckPayload, error) {
	partner, err := decodePartner(peer, data)
	if err != nil {
		return AckPayload{}, err
	}
	room := ConversationRoom(peer.UserID(), partner)
	d.registry.Leave(room, peer)
	return AckPayload{OK: true, Room: room}, nil
}

func (d *Dispatcher) send(ctx context.Context, peer Peer, data json.RawMessage) (AckPayload, error) {
	var input messages.SendInput
	if len(data) == 0 {
		return AckPayload{}, pkgerrors.New(pkgerrors.CodeValidation, "message payload required")
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return AckPayload{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid message payload")
	}
	msg, _, err := d.Send(ctx, peer.UserID(), input)
	if err != nil {
		return AckPayload{}, err
	}
	return AckPayload{OK: true, Message: msg}, nil
}

// Send stores a message and notifies both users. A deduplicated retry returns
// the original message without a second broadcast.
func (d *Dispatcher) Send(ctx context.Context, senderID uuid.UUID, input messages.SendInput) (*messages.MessageDTO, bool, error) {
	msg, created, err := d.messages.Send(ctx, senderID, input)
	if err != nil || !created {
		return msg, created, err
	}

	room := ConversationRoom(msg.SenderID, msg.ReceiverID)
	if d.registry.HasUser(room, msg.ReceiverID) {
		read, err := d.messages.MarkMessageRead(ctx, msg.ID)
		if err != nil {
			d.logg.Error(ctx, "realtime.mark_read_failed", err)
		} else {
			msg = read
		}
	}

	if frame, err := NewFrame(EventMessageNew, messageNewPayload{Message: *msg}); err == nil {
		d.registry.Emit(room, frame)
	}
	d.pushConversation(ctx, msg.SenderID, msg.ReceiverID)
	d.pushConversation(ctx, msg.ReceiverID, msg.SenderID)
	return msg, true, nil
}

// pushConversation sends userID's inbox row for otherID to userID's private room.
func (d *Dispatcher) pushConversation(ctx context.Context, userID, otherID uuid.UUID) {
	summary, err := d.messages.ConversationSummary(ctx, userID, otherID)
	if err != nil {
		d.logg.Error(ctx, "realtime.conversation_summary_failed", err)
		return
	}
	frame, err := NewFrame(EventConversationUpdate, conversationUpdatePayload{Conversation: *summary})
	if err != nil {
		return
	}
	d.registry.Emit(UserRoom(userID), frame)
}

func decodePartner(peer Peer, data json.RawMessage) (uuid.UUID, error) {
	var in joinPayload
	if len(data) == 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "partner_id is required")
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid conversation payload")
	}
	if in.PartnerID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "partner_id is required")
	}
	if in.PartnerID == peer.UserID() {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot join a conversation with yourself")
	}
	return in.PartnerID, nil
}

func clientMessage(err error) string {
	if pkgerrors.StatusOf(err) >= 500 {
		return "internal error"
	}
	return pkgerrors.As(err).Message()
}
