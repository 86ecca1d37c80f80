package checkout

import (
	"context"
	"fmt"

	"github.com/estefaniii/mautik-checkout/internal/domain"
)

// LoadAddresses fetches the saved addresses and applies the selection rule:
// default address, else first, else none.
func (s *Service) LoadAddresses(ctx context.Context) ([]domain.Address, error) {
	list, err := s.backend.ListAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load addresses: %w", err)
	}
	s.addresses.SetList(list)
	return list, nil
}

// AddAddress creates the address and selects it immediately. The very first
// address a user saves becomes their default.
func (s *Service) AddAddress(ctx context.Context, addr domain.Address) (*domain.Address, error) {
	if len(s.addresses.Items()) == 0 {
		addr.IsDefault = true
	}

	created, err := s.backend.CreateAddress(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}

	s.addresses.Add(*created)
	s.persistDraft(ctx)
	return created, nil
}

// UpdateAddress edits in place; which address is selected does not change.
func (s *Service) UpdateAddress(ctx context.Context, addr domain.Address) (*domain.Address, error) {
	updated, err := s.backend.UpdateAddress(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}

	s.addresses.Update(*updated)
	return updated, nil
}

// DeleteAddress removes the address and repairs a dangling selection.
func (s *Service) DeleteAddress(ctx context.Context, id string) error {
	if err := s.backend.DeleteAddress(ctx, id); err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}

	s.addresses.Remove(id)
	s.persistDraft(ctx)
	return nil
}

func (s *Service) Addresses() []domain.Address {
	return s.addresses.Items()
}

func (s *Service) SelectedAddress() (domain.Address, bool) {
	return s.addresses.Selected()
}

// LoadPaymentMethods mirrors LoadAddresses for saved cards.
func (s *Service) LoadPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	list, err := s.backend.ListPaymentMethods(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment methods: %w", err)
	}
	s.payments.SetList(list)
	return list, nil
}

func (s *Service) AddPaymentMethod(ctx context.Context, pm domain.PaymentMethod) (*domain.PaymentMethod, error) {
	if len(s.payments.Items()) == 0 {
		pm.IsDefault = true
	}

	created, err := s.backend.CreatePaymentMethod(ctx, pm)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment method: %w", err)
	}

	s.payments.Add(*created)
	s.persistDraft(ctx)
	return created, nil
}

func (s *Service) UpdatePaymentMethod(ctx context.Context, pm domain.PaymentMethod) (*domain.PaymentMethod, error) {
	updated, err := s.backend.UpdatePaymentMethod(ctx, pm)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment method: %w", err)
	}

	s.payments.Update(*updated)
	return updated, nil
}

func (s *Service) DeletePaymentMethod(ctx context.Context, id string) error {
	if err := s.backend.DeletePaymentMethod(ctx, id); err != nil {
		return fmt.Errorf("failed to delete payment method: %w", err)
	}

	s.payments.Remove(id)
	s.persistDraft(ctx)
	return nil
}

func (s *Service) PaymentMethods() []domain.PaymentMethod {
	return s.payments.Items()
}

func (s *Service) SelectedPaymentMethod() (domain.PaymentMethod, bool) {
	return s.payments.Selected()
}
