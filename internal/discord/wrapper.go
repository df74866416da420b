package discord

import (
	"context"
	"dbuilder/internal/metrics"
	"dbuilder/internal/ports"
	"dbuilder/internal/types"
	"errors"

	log "github.com/sirupsen/logrus"
)

// Wrapper resolves the stored credential pair of an identity and refreshes it when the platform rejects the
// access token. It keeps no state of its own; the pair lives in the CredentialStore.
type Wrapper struct {
	store     ports.CredentialStore
	idp       ports.IdentityProvider
	refresher ports.TokenRefresher
}

func NewWrapper(store ports.CredentialStore, idp ports.IdentityProvider, refresher ports.TokenRefresher) *Wrapper {
	return &Wrapper{store: store, idp: idp, refresher: refresher}
}

// Resolve returns the pair held in the store, or fetches it from the identity provider and stores it.
// It returns types.ErrNotFound when neither has one.
func (w *Wrapper) Resolve(ctx context.Context, identity string) (types.CredentialPair, error) {
	pair, err := w.store.GetCredentials(ctx, identity)
	if err != nil {
		return types.CredentialPair{}, err
	}
	if pair != nil {
		return *pair, nil
	}
	if w.idp == nil {
		return types.CredentialPair{}, types.Err(types.ErrNotFound, nil, "no credentials for %s", identity)
	}
	fetched, err := w.idp.FetchCredentials(ctx, identity)
	if err != nil {
		return types.CredentialPair{}, err
	}
	if err := w.store.PutCredentials(ctx, identity, fetched); err != nil {
		return types.CredentialPair{}, err
	}
	log.WithField("identity", identity).Debug("credentials imported from identity provider")
	return fetched, nil
}

func (w *Wrapper) refresh(ctx context.Context, identity string, old types.CredentialPair) (types.CredentialPair, error) {
	pair, err := w.refresher.Refresh(ctx, old.RefreshToken)
	if err != nil {
		metrics.CredentialRefresh.WithLabelValues(metrics.ResultFailed).Inc()
		return types.CredentialPair{}, err
	}
	if err := w.store.PutCredentials(ctx, identity, pair); err != nil {
		metrics.CredentialRefresh.WithLabelValues(metrics.ResultFailed).Inc()
		return types.CredentialPair{}, err
	}
	metrics.CredentialRefresh.WithLabelValues(metrics.ResultOK).Inc()
	return pair, nil
}

// WithToken runs action with the identity's access token. If action fails with types.ErrUnauthorized the pair
// is refreshed, stored, and action runs once more with the new token; whatever that second run returns is the
// result. Any other failure is returned without a refresh.
func WithToken[T any](ctx context.Context, w *Wrapper, identity string, action func(ctx context.Context, accessToken string) (T, error)) (T, error) {
	var zero T
	pair, err := w.Resolve(ctx, identity)
	if err != nil {
		return zero, err
	}
	v, err := action(ctx, pair.AccessToken)
	if err == nil || !errors.Is(err, types.ErrUnauthorized) {
		return v, err
	}

	log.WithField("identity", identity).WithError(err).Info("access token rejected, refreshing")
	pair, err = w.refresh(ctx, identity, pair)
	if err != nil {
		return zero, err
	}
	return action(ctx, pair.AccessToken)
}
