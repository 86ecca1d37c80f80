package checkout

import (
	"context"
	"log"

	"github.com/estefaniii/mautik-checkout/internal/domain"
)

// Restore is the best-effort draft restore on page load. A missing or
// unreadable draft is a no-op; nothing here may block checkout. Call after
// LoadAddresses/LoadPaymentMethods so restored selection ids can be checked
// against the current lists.
func (s *Service) Restore(ctx context.Context) {
	d, err := s.drafts.Load(ctx, s.session.UserID)
	if err != nil {
		return
	}

	s.mu.Lock()
	mergeForm(&s.form, d.Form)
	s.mu.Unlock()

	// A dangling id is simply ignored; the selector keeps its repaired
	// default/first choice.
	if d.SelectedAddressID != "" {
		s.addresses.Select(d.SelectedAddressID)
	}
	if d.SelectedPaymentID != "" {
		s.payments.Select(d.SelectedPaymentID)
	}
}

// mergeForm shallow-merges: only fields the draft actually carries
// overwrite the current form.
func mergeForm(dst *domain.ContactForm, src domain.ContactForm) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Email != "" {
		dst.Email = src.Email
	}
	if src.Phone != "" {
		dst.Phone = src.Phone
	}
	if src.Street != "" {
		dst.Street = src.Street
	}
	if src.City != "" {
		dst.City = src.City
	}
	if src.State != "" {
		dst.State = src.State
	}
	if src.ZipCode != "" {
		dst.ZipCode = src.ZipCode
	}
	if src.Country != "" {
		dst.Country = src.Country
	}
}

// UpdateForm replaces the contact form and persists the draft, as every
// field edit does.
func (s *Service) UpdateForm(ctx context.Context, form domain.ContactForm) {
	s.mu.Lock()
	s.form = form
	s.mu.Unlock()

	s.persistDraft(ctx)
}

// SelectAddress switches the active address when the id is known.
func (s *Service) SelectAddress(ctx context.Context, id string) bool {
	ok := s.addresses.Select(id)
	if ok {
		s.persistDraft(ctx)
	}
	return ok
}

func (s *Service) SelectPaymentMethod(ctx context.Context, id string) bool {
	ok := s.payments.Select(id)
	if ok {
		s.persistDraft(ctx)
	}
	return ok
}

// persistDraft writes unconditionally, overwriting any prior draft. A
// storage failure is logged and swallowed: the draft is a convenience, not
// part of the order path.
func (s *Service) persistDraft(ctx context.Context) {
	s.mu.Lock()
	d := &domain.CheckoutDraft{
		Form:              s.form,
		SelectedAddressID: s.addresses.SelectedID(),
		SelectedPaymentID: s.payments.SelectedID(),
	}
	s.mu.Unlock()

	if err := s.drafts.Save(ctx, s.session.UserID, d); err != nil {
		log.Printf("failed to persist checkout draft for user %s: %v", s.session.UserID, err)
	}
}

func (s *Service) clearDraft(ctx context.Context) {
	if err := s.drafts.Clear(ctx, s.session.UserID); err != nil {
		log.Printf("failed to clear checkout draft for user %s: %v", s.session.UserID, err)
	}
}
