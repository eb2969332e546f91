// Package reconcile heals drift between the identity provider and the
// local store. Creates and deletes span both systems without a
// transaction, so a failure between the two calls leaves either an
// orphaned provider user (no local row) or a stranded local row (no
// provider user). The sweeper back-fills the former and reports the
// latter; it never deletes data on its own.
package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/contacerta/apiserver/internal/identity"
	"github.com/contacerta/apiserver/internal/services"
	"github.com/contacerta/apiserver/internal/store"
	"github.com/contacerta/apiserver/types"
)

const listPageSize = 100

// Report summarizes a sweep run.
type Report struct {
	ProviderUsers int
	LocalUsers    int
	Backfilled    int
	StrandedLocal []string
}

// Sweeper compares the provider's user list against the local table.
type Sweeper struct {
	identity identity.Client
	repo     services.UserRepository
	logger   *slog.Logger
}

func NewSweeper(idp identity.Client, repo services.UserRepository, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{identity: idp, repo: repo, logger: logger}
}

// Run performs one full sweep.
func (s *Sweeper) Run(ctx context.Context) (Report, error) {
	var report Report

	providerIDs := map[string]struct{}{}
	for page := 1; ; page++ {
		users, err := s.identity.AdminListUsers(ctx, page, listPageSize)
		if err != nil {
			return report, err
		}
		if len(users) == 0 {
			break
		}

		for _, ext := range users {
			providerIDs[ext.ID] = struct{}{}
			report.ProviderUsers++

			backfilled, err := s.ensureLocal(ctx, ext)
			if err != nil {
				return report, err
			}
			if backfilled {
				report.Backfilled++
			}
		}

		if len(users) < listPageSize {
			break
		}
	}

	locals, err := s.repo.List(ctx, "")
	if err != nil {
		return report, err
	}
	report.LocalUsers = len(locals)

	for _, user := range locals {
		if _, ok := providerIDs[user.ID]; !ok {
			report.StrandedLocal = append(report.StrandedLocal, user.ID)
			s.logger.Warn("local row has no provider user",
				"user_id", user.ID,
				"email", user.Email,
			)
		}
	}

	return report, nil
}

func (s *Sweeper) ensureLocal(ctx context.Context, ext identity.User) (bool, error) {
	_, err := s.repo.GetByID(ctx, ext.ID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	_, err = s.repo.Create(ctx, types.User{
		ID:    ext.ID,
		Email: ext.Email,
		Tipo:  types.TipoPendente,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.logger.Info("back-filled local row for provider user",
		"user_id", ext.ID,
		"email", ext.Email,
	)
	return true, nil
}
