package app

import (
	"context"
	"fmt"

	"billvault/internal/domain/billing"
)

const defaultFeePercentage uint32 = 200 // 2.00% in basis points

// Initialize performs one-time setup: it records the admin and settlement
// asset, defaults the fee recipient to the admin and the fee to 2%, and zeroes
// the ID counters. It fails once an admin is already configured.
func (e *Engine) Initialize(ctx context.Context, admin, settlementAsset billing.Identity) error {
	if err := e.auth.RequireAuth(ctx, admin); err != nil {
		return err
	}

	exists, err := e.store.Has(ctx, keyAdmin)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return billing.ErrAlreadyInitialized
	}

	if err := e.store.Set(ctx, keyAdmin, admin); err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if err := e.store.Set(ctx, keySettlementAsset, settlementAsset); err != nil {
		return fmt.Errorf("set settlement asset: %w", err)
	}
	if err := e.store.Set(ctx, keyFeeRecipient, admin); err != nil {
		return fmt.Errorf("set fee recipient: %w", err)
	}
	if err := e.store.Set(ctx, keyFeePercentage, defaultFeePercentage); err != nil {
		return fmt.Errorf("set fee percentage: %w", err)
	}
	if err := e.store.Set(ctx, keyCycleCounter, uint64(0)); err != nil {
		return fmt.Errorf("set cycle counter: %w", err)
	}
	if err := e.store.Set(ctx, keyBillCounter, uint64(0)); err != nil {
		return fmt.Errorf("set bill counter: %w", err)
	}
	return nil
}

// Admin returns the current admin identity.
func (e *Engine) Admin(ctx context.Context) (billing.Identity, error) {
	var admin billing.Identity
	found, err := e.store.Get(ctx, keyAdmin, &admin)
	if err != nil {
		return "", fmt.Errorf("load admin: %w", err)
	}
	if !found {
		return "", billing.ErrAdminNotSet
	}
	return admin, nil
}

// requireAdmin proves the current call was approved by the configured admin.
func (e *Engine) requireAdmin(ctx context.Context) error {
	admin, err := e.Admin(ctx)
	if err != nil {
		return err
	}
	return e.auth.RequireAuth(ctx, admin)
}

// TransferAdmin stages a two-step admin handover. The offer stays open until
// the clock's sequence number passes expirySequence; a second transfer cannot
// be staged while an unexpired one is pending, so two competing handovers
// cannot race each other.
func (e *Engine) TransferAdmin(ctx context.Context, newAdmin billing.Identity, expirySequence uint64) error {
	if err := e.requireAdmin(ctx); err != nil {
		return err
	}

	var expiry uint64
	found, err := e.store.Get(ctx, keyTransferExpiry, &expiry)
	if err != nil {
		return fmt.Errorf("load transfer expiry: %w", err)
	}
	if found && e.clock.Sequence() <= expiry {
		return billing.ErrPendingAdminTransferExists
	}

	if err := e.store.Set(ctx, keyPendingAdmin, newAdmin); err != nil {
		return fmt.Errorf("set pending admin: %w", err)
	}
	if err := e.store.Set(ctx, keyTransferExpiry, expirySequence); err != nil {
		return fmt.Errorf("set transfer expiry: %w", err)
	}

	e.events.Publish(ctx, billing.AdminTransferInitiated{NewAdmin: newAdmin})
	return nil
}

// AcceptAdminTransfer completes a pending handover. Only the staged admin can
// accept, and only while the offer is unexpired. The admin is replaced and the
// pending state cleared in one step.
func (e *Engine) AcceptAdminTransfer(ctx context.Context) error {
	var pending billing.Identity
	found, err := e.store.Get(ctx, keyPendingAdmin, &pending)
	if err != nil {
		return fmt.Errorf("load pending admin: %w", err)
	}
	if !found {
		return billing.ErrNoPendingAdminTransfer
	}

	if err := e.auth.RequireAuth(ctx, pending); err != nil {
		return err
	}

	var expiry uint64
	found, err = e.store.Get(ctx, keyTransferExpiry, &expiry)
	if err != nil {
		return fmt.Errorf("load transfer expiry: %w", err)
	}
	if !found {
		return billing.ErrNoPendingAdminTransfer
	}
	if e.clock.Sequence() > expiry {
		return billing.ErrAdminTransferExpired
	}

	if err := e.store.Set(ctx, keyAdmin, pending); err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if err := e.store.Remove(ctx, keyPendingAdmin); err != nil {
		return fmt.Errorf("clear pending admin: %w", err)
	}
	if err := e.store.Remove(ctx, keyTransferExpiry); err != nil {
		return fmt.Errorf("clear transfer expiry: %w", err)
	}

	e.events.Publish(ctx, billing.AdminTransferred{NewAdmin: pending})
	return nil
}

// CancelAdminTransfer withdraws a pending handover.
func (e *Engine) CancelAdminTransfer(ctx context.Context) error {
	if err := e.requireAdmin(ctx); err != nil {
		return err
	}

	exists, err := e.store.Has(ctx, keyPendingAdmin)
	if err != nil {
		return fmt.Errorf("check pending admin: %w", err)
	}
	if !exists {
		return billing.ErrNoPendingAdminTransfer
	}

	if err := e.store.Remove(ctx, keyPendingAdmin); err != nil {
		return fmt.Errorf("clear pending admin: %w", err)
	}
	if err := e.store.Remove(ctx, keyTransferExpiry); err != nil {
		return fmt.Errorf("clear transfer expiry: %w", err)
	}
	return nil
}

// SetFeeRecipient routes future operating fees to recipient.
func (e *Engine) SetFeeRecipient(ctx context.Context, recipient billing.Identity) error {
	if err := e.requireAdmin(ctx); err != nil {
		return err
	}
	if err := e.store.Set(ctx, keyFeeRecipient, recipient); err != nil {
		return fmt.Errorf("set fee recipient: %w", err)
	}
	e.events.Publish(ctx, billing.FeeRecipientUpdated{Recipient: recipient})
	return nil
}

func (e *Engine) FeeRecipient(ctx context.Context) (billing.Identity, error) {
	var recipient billing.Identity
	found, err := e.store.Get(ctx, keyFeeRecipient, &recipient)
	if err != nil {
		return "", fmt.Errorf("load fee recipient: %w", err)
	}
	if !found {
		return "", billing.ErrFeeRecipientNotSet
	}
	return recipient, nil
}

// SetSettlementAsset records the token identity all cycles settle in.
func (e *Engine) SetSettlementAsset(ctx context.Context, asset billing.Identity) error {
	if err := e.requireAdmin(ctx); err != nil {
		return err
	}
	if err := e.store.Set(ctx, keySettlementAsset, asset); err != nil {
		return fmt.Errorf("set settlement asset: %w", err)
	}
	return nil
}

func (e *Engine) SettlementAsset(ctx context.Context) (billing.Identity, error) {
	var asset billing.Identity
	found, err := e.store.Get(ctx, keySettlementAsset, &asset)
	if err != nil {
		return "", fmt.Errorf("load settlement asset: %w", err)
	}
	if !found {
		return "", billing.ErrSettlementAssetNotSet
	}
	return asset, nil
}

// SetFeePercentage updates the global fee rate in basis points. The rate is
// snapshotted onto each cycle at creation, so changing it never reprices
// existing cycles.
func (e *Engine) SetFeePercentage(ctx context.Context, basisPoints uint32) error {
	if err := e.requireAdmin(ctx); err != nil {
		return err
	}
	if basisPoints < 100 || basisPoints > 500 {
		return billing.ErrInvalidFeePercentage
	}
	if err := e.store.Set(ctx, keyFeePercentage, basisPoints); err != nil {
		return fmt.Errorf("set fee percentage: %w", err)
	}
	return nil
}

func (e *Engine) FeePercentage(ctx context.Context) (uint32, error) {
	var basisPoints uint32
	found, err := e.store.Get(ctx, keyFeePercentage, &basisPoints)
	if err != nil {
		return 0, fmt.Errorf("load fee percentage: %w", err)
	}
	if !found {
		return 0, billing.ErrInvalidFeePercentage
	}
	return basisPoints, nil
}
