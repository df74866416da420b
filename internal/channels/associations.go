package channels

import (
	"context"
	"dbuilder/internal/keys"
	"dbuilder/internal/pool"
	"dbuilder/internal/ports"
	"dbuilder/internal/types"
	"time"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// Reservations is the part of the reservation ledger a channel binding needs.
type Reservations interface {
	Recover(ctx context.Context, tenant, reservationID string) (string, bool, error)
	Clear(ctx context.Context, tenant, reservationID string) (bool, error)
}

// Retirer returns a name to its tenant's usable pool.
type Retirer interface {
	Retire(ctx context.Context, tenant, name string) error
}

// Associations binds channels to the names reserved for them and hands names back to the pool when the
// channel goes away.
//
// Per channel: unassociated --AssignReservation--> associated(name) --ClearChannel--> unassociated.
// Assigning an already associated channel overwrites the binding (last write wins); if the old name differs
// from the new one it is retired so it does not stay in use forever.
type Associations struct {
	store        ports.Store
	reservations Reservations
	names        Retirer

	pub   ports.Publisher
	topic string
	now   func() time.Time
}

func NewAssociations(store ports.Store, reservations Reservations, names Retirer) *Associations {
	return &Associations{
		store:        store,
		reservations: reservations,
		names:        names,
		now:          time.Now,
	}
}

// WithEvents publishes channel.assigned / channel.cleared events to topic. Publishing is best effort.
func (a *Associations) WithEvents(pub ports.Publisher, topic string) *Associations {
	a.pub = pub
	a.topic = topic
	return a
}

// ChannelName returns the name bound to channelID, if any.
func (a *Associations) ChannelName(ctx context.Context, tenant, channelID string) (string, bool, error) {
	return a.store.Get(ctx, keys.Channel(tenant, channelID))
}

// AssignReservation binds channelID to the name held by reservationID and consumes the reservation.
// It returns false without doing anything when the reservation does not exist, which is also what a retry
// sees after a successful first call.
func (a *Associations) AssignReservation(ctx context.Context, tenant, reservationID, channelID string) (bool, error) {
	if err := pool.ValidateIDs(tenant, reservationID, channelID); err != nil {
		return false, err
	}
	name, ok, err := a.reservations.Recover(ctx, tenant, reservationID)
	if err != nil || !ok {
		return false, err
	}
	fields := log.Fields{"tenant": tenant, "reservationID": reservationID, "channelID": channelID, "name": name}

	prev, hadPrev, err := a.store.Get(ctx, keys.Channel(tenant, channelID))
	if err != nil {
		return false, err
	}
	if err := a.store.Set(ctx, keys.Channel(tenant, channelID), name, 0); err != nil {
		return false, err
	}
	// The reservation must not outlive its use, whatever the write reported.
	if _, err := a.reservations.Clear(ctx, tenant, reservationID); err != nil {
		return true, err
	}
	if hadPrev && prev != name {
		log.WithFields(fields).WithField("previous", prev).Info("channel re-assigned, retiring previous name")
		if err := a.names.Retire(ctx, tenant, prev); err != nil {
			return true, err
		}
	}
	log.WithFields(fields).Debug("channel assigned")
	a.publish(ctx, types.EventChannelAssigned, tenant, channelID, name)
	return true, nil
}

// ClearChannel removes channelID's binding and retires its name. It returns whether a binding existed; a
// channel without one is a no-op.
func (a *Associations) ClearChannel(ctx context.Context, tenant, channelID string) (bool, error) {
	if err := pool.ValidateIDs(tenant, channelID); err != nil {
		return false, err
	}
	name, ok, err := a.store.Get(ctx, keys.Channel(tenant, channelID))
	if err != nil {
		return false, err
	}
	deleted, err := a.store.Delete(ctx, keys.Channel(tenant, channelID))
	if err != nil {
		return false, err
	}
	if ok {
		if err := a.names.Retire(ctx, tenant, name); err != nil {
			return deleted, err
		}
	}
	if deleted {
		log.WithFields(log.Fields{"tenant": tenant, "channelID": channelID, "name": name}).Debug("channel cleared")
		a.publish(ctx, types.EventChannelCleared, tenant, channelID, name)
	}
	return deleted, nil
}

func (a *Associations) publish(ctx context.Context, eventType, tenant, channelID, name string) {
	if a.pub == nil || a.topic == "" {
		return
	}
	b, err := json.Marshal(types.Event{
		Type:      eventType,
		Tenant:    tenant,
		ChannelID: channelID,
		Name:      name,
		At:        a.now().Unix(),
	})
	if err != nil {
		log.WithError(err).Error("failed to encode channel event")
		return
	}
	if err := a.pub.PublishRaw(ctx, a.topic, b); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"type":      eventType,
			"tenant":    tenant,
			"channelID": channelID,
		}).Warn("failed to publish channel event")
	}
}
