package protocol

import (
	"context"
	"fmt"

	"kudubot/internal/domain"
	"kudubot/internal/transport"

	"github.com/rs/zerolog"
)

// DispatcherConfig wires a Dispatcher.
type DispatcherConfig struct {
	Service Service
	Store   domain.InvocationStore // optional, best effort
	Logger  zerolog.Logger
}

// Dispatcher runs exactly one protocol operation per call. It keeps no state
// between calls.
type Dispatcher struct {
	service Service
	store   domain.InvocationStore
	logger  zerolog.Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		service: cfg.Service,
		store:   cfg.Store,
		logger:  cfg.Logger,
	}
}

// Run executes inv. Nothing is written when the message cannot be read or decoded.
func (d *Dispatcher) Run(ctx context.Context, inv Invocation) error {
	log := d.logger.With().Str("mode", inv.Mode.String()).Str("message_file", inv.MessagePath).Logger()

	switch inv.Mode {
	case IsApplicableTo:
		return d.isApplicableTo(ctx, inv, log)
	case HandleMessage:
		return d.handleMessage(ctx, inv, log)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnrecognizedMode, inv.Mode)
	}
}

func (d *Dispatcher) isApplicableTo(ctx context.Context, inv Invocation, log zerolog.Logger) error {
	msg, err := transport.ReadMessage(inv.MessagePath)
	if err != nil {
		return err
	}

	applicable := d.service.IsApplicable(ctx, msg)
	log.Debug().Bool("applicable", applicable).Int64("sender", msg.Sender.DatabaseID).Msg("applicability checked")

	if err := transport.WriteJSON(inv.ResponsePath, domain.ApplicabilityResponse{IsApplicable: applicable}); err != nil {
		return err
	}

	outcome := domain.OutcomeNotApplicable
	if applicable {
		outcome = domain.OutcomeApplicable
	}
	d.record(ctx, inv.Mode, msg, outcome, log)
	return nil
}

func (d *Dispatcher) handleMessage(ctx context.Context, inv Invocation, log zerolog.Logger) error {
	msg, err := transport.ReadMessage(inv.MessagePath)
	if err != nil {
		return err
	}

	title, body := d.service.Reply(ctx, msg)
	reply := msg.Reply(title, body)

	if err := transport.WriteMessage(inv.MessagePath, reply); err != nil {
		return err
	}
	if err := transport.WriteJSON(inv.ResponsePath, domain.HandleResponse{Mode: domain.ReplyMode}); err != nil {
		return err
	}
	log.Debug().Int64("receiver", reply.Receiver.DatabaseID).Str("title", title).Msg("reply written")

	d.record(ctx, inv.Mode, msg, domain.OutcomeReplied, log)
	return nil
}

// record stores the decision and the contacts involved. Failures are logged only.
func (d *Dispatcher) record(ctx context.Context, mode Mode, msg domain.Message, outcome string, log zerolog.Logger) {
	if d.store == nil {
		return
	}

	contacts := []domain.Contact{msg.Sender, msg.Receiver}
	if msg.SenderGroup != nil {
		contacts = append(contacts, *msg.SenderGroup)
	}
	for _, c := range contacts {
		if err := d.store.UpsertContact(ctx, c); err != nil {
			log.Warn().Err(err).Int64("contact", c.DatabaseID).Msg("cannot store contact")
		}
	}

	rec := domain.InvocationRecord{
		Mode:        mode.String(),
		SenderID:    msg.Sender.DatabaseID,
		MessageBody: msg.MessageBody,
		Outcome:     outcome,
	}
	if msg.SenderGroup != nil {
		id := msg.SenderGroup.DatabaseID
		rec.GroupID = &id
	}
	if ex, ok := d.service.(Explainer); ok {
		rec.Rule = ex.Explain(msg)
	}
	if err := d.store.RecordInvocation(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("cannot record invocation")
	}
}
