package bank

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"artpriv/internal/lifecycle/authz"
	"artpriv/internal/lifecycle/engine"
	"artpriv/internal/lifecycle/models"
	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
	"artpriv/pkg/platform/sentinel"
)

const defaultTemplateVersion = "1.0"

// TemplateInput creates a consent template.
type TemplateInput struct {
	Title   string
	Content string
	Version string
	Order   int
}

// TemplatePatch updates a consent template. Nil fields are left unchanged.
type TemplatePatch struct {
	Title    *string
	Content  *string
	Order    *int
	IsActive *bool
}

func validateOrder(order int) error {
	if order < models.MinTemplateOrder || order > models.MaxTemplateOrder {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("consent order must be between %d and %d", models.MinTemplateOrder, models.MaxTemplateOrder))
	}
	return nil
}

// CreateConsentTemplate adds an active consent template to the bank.
func (s *Service) CreateConsentTemplate(ctx context.Context, actor models.Actor, bankID id.BankID, in TemplateInput) (*models.ConsentTemplate, error) {
	if !authz.ActsAsBank(actor, bankID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the bank may manage its consent templates")
	}
	if err := validateOrder(in.Order); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "template title is required")
	}
	version := strings.TrimSpace(in.Version)
	if version == "" {
		version = defaultTemplateVersion
	}

	now := s.now()
	tpl := &models.ConsentTemplate{
		ID:        id.NewTemplateID(),
		BankID:    bankID,
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		Version:   version,
		Order:     in.Order,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.lifecycle.Execute(ctx, models.BankRef(bankID), func(ctx context.Context, tx *engine.Tx) error {
		if _, err := tx.Store().GetBank(ctx, bankID); err != nil {
			return err
		}
		return tx.Store().CreateTemplate(ctx, tpl)
	})
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

// UpdateConsentTemplate patches a template owned by the bank. Templates of
// other banks are reported as not found.
func (s *Service) UpdateConsentTemplate(ctx context.Context, actor models.Actor, bankID id.BankID, templateID id.TemplateID, patch TemplatePatch) (*models.ConsentTemplate, error) {
	if !authz.ActsAsBank(actor, bankID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the bank may manage its consent templates")
	}
	if patch.Order != nil {
		if err := validateOrder(*patch.Order); err != nil {
			return nil, err
		}
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "template title cannot be empty")
	}

	var out *models.ConsentTemplate
	err := s.lifecycle.Execute(ctx, models.BankRef(bankID), func(ctx context.Context, tx *engine.Tx) error {
		tpl, err := tx.Store().GetTemplate(ctx, templateID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		if err != nil || tpl.BankID != bankID {
			return dErrors.New(dErrors.CodeNotFound, "consent template not found")
		}
		if patch.Title != nil {
			tpl.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Content != nil {
			tpl.Content = *patch.Content
		}
		if patch.Order != nil {
			tpl.Order = *patch.Order
		}
		if patch.IsActive != nil {
			tpl.IsActive = *patch.IsActive
		}
		tpl.UpdatedAt = s.now()
		if err := tx.Store().UpdateTemplate(ctx, tpl); err != nil {
			return err
		}
		out = tpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListConsentTemplates returns the bank's templates ordered by Order.
func (s *Service) ListConsentTemplates(ctx context.Context, bankID id.BankID, activeOnly bool) ([]*models.ConsentTemplate, error) {
	if _, err := s.reader.GetBank(ctx, bankID); err != nil {
		return nil, storeError(err, "bank not found")
	}
	tpls, err := s.reader.ListTemplates(ctx, bankID, activeOnly)
	if err != nil {
		return nil, storeError(err, "bank not found")
	}
	return tpls, nil
}
