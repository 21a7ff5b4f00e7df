package service

import (
	"context"
	"fmt"

	"pcms/internal/domain"
	"pcms/internal/storage"
	"pcms/internal/storage/memory"
	"pcms/internal/tags/models"
	"pcms/pkg/platform/sentinel"
)

// interleavedDeleteStore replays a delete that commits between a link's
// existence checks and its insert. The first Link call fails the way a
// foreign key violation does; the delete is committed before the next unit
// of work starts.
type interleavedDeleteStore struct {
	*memory.Store
	remove  func(ctx context.Context, tx storage.Tx) error
	fired   bool
	pending bool
}

func (s *interleavedDeleteStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if s.pending {
		s.pending = false
		if err := s.Store.RunInTx(ctx, s.remove); err != nil {
			return err
		}
	}
	return s.Store.RunInTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return fn(ctx, &interleavedTx{Tx: tx, store: s})
	})
}

type interleavedTx struct {
	storage.Tx
	store *interleavedDeleteStore
}

func (t *interleavedTx) CaseTags() storage.CaseTagRepo {
	return interleavedLinks{CaseTagRepo: t.Tx.CaseTags(), store: t.store}
}

type interleavedLinks struct {
	storage.CaseTagRepo
	store *interleavedDeleteStore
}

func (l interleavedLinks) Link(ctx context.Context, link *domain.CaseTag) (bool, error) {
	if !l.store.fired {
		l.store.fired = true
		l.store.pending = true
		return false, fmt.Errorf("link tag %s to case %s: referenced row missing: %w", link.TagID, link.CaseID, sentinel.ErrNotFound)
	}
	return l.CaseTagRepo.Link(ctx, link)
}

func (s *TagServiceSuite) TestLinkLosingEndpointToConcurrentDelete() {
	s.Run("tag deleted", func() {
		caseID := s.seedCase()
		tag := s.createTag("vandalism")
		svc := s.interleavedService(func(ctx context.Context, tx storage.Tx) error {
			return tx.Tags().Delete(ctx, tag.ID)
		})

		outcome, err := svc.LinkTagToCase(s.ctx, tag.ID, caseID)
		s.Require().NoError(err)
		s.Equal(models.OutcomeTagNotFound, outcome)
	})

	s.Run("case deleted", func() {
		caseID := s.seedCase()
		tag := s.createTag("trespass")
		svc := s.interleavedService(func(ctx context.Context, tx storage.Tx) error {
			return tx.Cases().Delete(ctx, caseID)
		})

		outcome, err := svc.LinkTagToCase(s.ctx, tag.ID, caseID)
		s.Require().NoError(err)
		s.Equal(models.OutcomeCaseNotFound, outcome)

		_, err = s.service.GetTagByID(s.ctx, tag.ID)
		s.NoError(err, "tag survives its case")
	})
}

func (s *TagServiceSuite) interleavedService(remove func(ctx context.Context, tx storage.Tx) error) *Service {
	svc, err := New(&interleavedDeleteStore{Store: s.store, remove: remove}, WithMetrics(s.metrics))
	s.Require().NoError(err)
	return svc
}

var _ storage.Store = (*interleavedDeleteStore)(nil)
