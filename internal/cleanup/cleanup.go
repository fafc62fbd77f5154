// Package cleanup re-validates stored roles and deactivates the ones the classifier now rejects.
package cleanup

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/validity"
)

// Store is the persistence surface cleanup needs
type Store interface {
	ActiveRoles(ctx context.Context) ([]domain.ActiveRole, error)
	DeactivateRole(ctx context.Context, id uuid.UUID) error
}

// DeactivationObserver is told how many roles a cleanup pass deactivated
type DeactivationObserver interface {
	ObserveDeactivated(n int)
}

// Rejected is one role that failed re-validation
type Rejected struct {
	ID          uuid.UUID `json:"id"`
	CompanyName string    `json:"company_name"`
	RoleTitle   string    `json:"role_title"`
	Link        string    `json:"application_url"`
	Check       string    `json:"check"`
	// Err is set when deactivation itself failed
	Err string `json:"error,omitempty"`
}

// Report summarizes a cleanup pass
type Report struct {
	Checked     int        `json:"checked"`
	Kept        int        `json:"kept"`
	Deactivated int        `json:"deactivated"`
	Failed      int        `json:"failed"`
	DryRun      bool       `json:"dry_run"`
	Rejected    []Rejected `json:"rejected"`
}

// Cleaner runs cleanup passes
type Cleaner struct {
	store      Store
	classifier *validity.Classifier
	observer   DeactivationObserver
	logger     *zap.Logger
}

// New creates a cleaner. A nil classifier uses the default rules.
func New(store Store, classifier *validity.Classifier, observer DeactivationObserver, logger *zap.Logger) *Cleaner {
	if classifier == nil {
		classifier = validity.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{store: store, classifier: classifier, observer: observer, logger: logger}
}

// Run checks every active role against its representative link. With dryRun
// nothing is written. A failed deactivation is recorded and the pass continues.
func (c *Cleaner) Run(ctx context.Context, dryRun bool) (*Report, error) {
	roles, err := c.store.ActiveRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active roles: %w", err)
	}

	report := &Report{DryRun: dryRun, Rejected: []Rejected{}}
	c.logger.Info("Cleanup started", zap.Int("active_roles", len(roles)), zap.Bool("dry_run", dryRun))

	for _, r := range roles {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		verdict := c.classifier.Explain(r.RoleTitle, r.CompanyName, r.ApplicationURL)
		if verdict.Valid {
			report.Kept++
			continue
		}

		rej := Rejected{
			ID:          r.ID,
			CompanyName: r.CompanyName,
			RoleTitle:   r.RoleTitle,
			Link:        r.ApplicationURL,
			Check:       verdict.Check,
		}
		log := c.logger.With(
			zap.String("role_id", r.ID.String()),
			zap.String("company", r.CompanyName),
			zap.String("title", r.RoleTitle),
			zap.String("check", verdict.Check),
		)

		if !dryRun {
			if err := c.store.DeactivateRole(ctx, r.ID); err != nil {
				log.Warn("Failed to deactivate role", zap.Error(err))
				rej.Err = err.Error()
				report.Failed++
				report.Rejected = append(report.Rejected, rej)
				continue
			}
		}
		log.Info("Invalid role")
		report.Deactivated++
		report.Rejected = append(report.Rejected, rej)
	}

	if !dryRun && c.observer != nil {
		c.observer.ObserveDeactivated(report.Deactivated)
	}
	c.logger.Info("Cleanup finished",
		zap.Int("checked", report.Checked),
		zap.Int("kept", report.Kept),
		zap.Int("deactivated", report.Deactivated),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}
