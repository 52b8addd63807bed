package services

import (
	"context"
	"fmt"
	"log"

	"github.com/Abdullah7175/mustafabackend/internal/auth"
	"github.com/Abdullah7175/mustafabackend/internal/extsource"
	"github.com/Abdullah7175/mustafabackend/internal/ident"
	"github.com/Abdullah7175/mustafabackend/internal/models"
)

// IReconcileService defines the interface for the merged inquiry view.
type IReconcileService interface {
	ListForCaller(ctx context.Context, callerID, role string) ([]models.Inquiry, error)
}

// reconcileService merges the upstream inquiry feed with the local store.
type reconcileService struct {
	inquiries IInquiryService
	fetcher   extsource.IFetcher
}

// NewReconcileService creates a new ReconcileService.
func NewReconcileService(inquiries IInquiryService, fetcher extsource.IFetcher) IReconcileService {
	return &reconcileService{inquiries: inquiries, fetcher: fetcher}
}

// ListForCaller produces the inquiry list a caller should see.
//
// Agents see only their own assigned inquiries, newest first; there is no
// external merge for them since unassigned work is admin-routed. Admins see
// unassigned upstream records first (in source order), then all assigned
// stored inquiries newest first.
func (s *reconcileService) ListForCaller(ctx context.Context, callerID, role string) ([]models.Inquiry, error) {
	if role != auth.RoleAdmin {
		return s.inquiries.ListByAgent(ctx, callerID)
	}

	assigned, err := s.inquiries.ListAssigned(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load assigned inquiries: %w", err)
	}

	external := s.fetchUnassigned(ctx)

	merged := make([]models.Inquiry, 0, len(external)+len(assigned))
	merged = append(merged, external...)
	merged = append(merged, assigned...)
	return merged, nil
}

// fetchUnassigned pulls the upstream feed and drops every record already
// present in the store. Upstream failure degrades to an empty contribution
// so the caller still gets the local view.
func (s *reconcileService) fetchUnassigned(ctx context.Context) []models.Inquiry {
	upstream, err := s.fetcher.Fetch(ctx)
	if err != nil {
		log.Printf("WARN: External inquiry fetch failed, serving local view only: %v", err)
		return []models.Inquiry{}
	}

	seen, err := s.storedKeys(ctx)
	if err != nil {
		log.Printf("WARN: Failed to build inquiry dedup keys, serving local view only: %v", err)
		return []models.Inquiry{}
	}

	unassigned := []models.Inquiry{}
	for _, inq := range upstream {
		if _, dup := seen[inq.ExternalID]; dup {
			continue
		}
		unassigned = append(unassigned, inq)
	}
	return unassigned
}

// storedKeys builds the set of identifiers already represented in the store:
// every non-empty external_id, plus any primary key that does not look like
// a locally generated one. Legacy imports reused raw upstream identifiers as
// _id, so those must count as external too or they would surface twice.
func (s *reconcileService) storedKeys(ctx context.Context) (map[string]struct{}, error) {
	identifiers, err := s.inquiries.ListIdentifiers(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(identifiers))
	for _, id := range identifiers {
		if id.ExternalID != "" {
			seen[id.ExternalID] = struct{}{}
		}
		if !ident.IsLocalHex(id.ID) {
			seen[id.ID] = struct{}{}
		}
	}
	return seen, nil
}
