package service

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/academic-ledger/internal/ledger"
	"github.com/noah-isme/academic-ledger/internal/repository"
	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
)

const anonymousCaller = "anonymous"

// invocation is what a handler knows about the transaction it runs in.
type invocation struct {
	txID      string
	org       string
	user      string
	timestamp time.Time
}

// now formats the transaction timestamp. Handlers never read the local clock
// so every endorser stores identical values.
func (inv *invocation) now() string {
	return inv.timestamp.UTC().Format(time.RFC3339)
}

func currentInvocation(ctx context.Context) (*invocation, error) {
	tx, err := ledger.MustFrom(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "handler invoked outside a ledger transaction")
	}
	ts, err := tx.Timestamp()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read transaction timestamp")
	}
	inv := &invocation{txID: tx.TxID(), timestamp: ts}

	identity := tx.Identity()
	if identity == nil {
		identity = ledger.Anonymous
	}
	org, err := identity.OrganizationID()
	if err != nil && !errors.Is(err, ledger.ErrNoIdentity) {
		return nil, appErrors.Wrap(err, appErrors.ErrAuthorization.Code, appErrors.ErrAuthorization.Status, "failed to resolve caller organization")
	}
	inv.org = org
	if user, err := identity.ClientID(); err == nil {
		inv.user = user
	}
	return inv, nil
}

// authorize resolves the caller and checks it against the policy.
func authorize(ctx context.Context, policy *Policy, action string) (*invocation, error) {
	inv, err := currentInvocation(ctx)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(action, inv.org); err != nil {
		return nil, err
	}
	return inv, nil
}

// stateError keeps typed ledger failures (conflicts, storage) and wraps
// everything else as a storage error.
func stateError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErrors.Wrap(err, appErr.Code, appErr.Status, message)
	}
	return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, message)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
