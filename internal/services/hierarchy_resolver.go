package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	dbm "resellerdash/internal/models/db_models"
	"resellerdash/internal/repositories"
	"resellerdash/pkg/utils"
)

// AccountNode is the part of an account the reseller tree needs.
type AccountNode struct {
	ID        uuid.UUID
	Role      dbm.AccountRole
	ParentID  *uuid.UUID
	DailyRate int64
}

type AgencySubordinates struct {
	AgencyID uuid.UUID
	Users    []uuid.UUID
}

// Subordinates is the closed set of accounts whose usage bills to a distributor.
type Subordinates struct {
	DirectUsers []uuid.UUID
	Agencies    []AgencySubordinates
}

// AccountIDs flattens the set into the ids that carry subscriptions.
func (s Subordinates) AccountIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.DirectUsers))
	ids = append(ids, s.DirectUsers...)
	for _, agency := range s.Agencies {
		ids = append(ids, agency.Users...)
	}
	return ids
}

// HierarchySnapshot is an immutable view of the reseller tree taken once per
// settlement run. Membership reflects current parent links only; an account
// that moved mid-period is attributed entirely to its current parent.
type HierarchySnapshot struct {
	nodes        map[uuid.UUID]AccountNode
	children     map[uuid.UUID][]uuid.UUID
	distributors []AccountNode
}

// NewHierarchySnapshot indexes nodes. Accounts with an unknown role are left
// out of the tree entirely, together with anything hanging below them.
func NewHierarchySnapshot(nodes []AccountNode) *HierarchySnapshot {
	snap := &HierarchySnapshot{
		nodes:    make(map[uuid.UUID]AccountNode, len(nodes)),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, n := range nodes {
		if !n.Role.Valid() {
			continue
		}
		snap.nodes[n.ID] = n
		if n.ParentID != nil {
			snap.children[*n.ParentID] = append(snap.children[*n.ParentID], n.ID)
		}
		if n.Role == dbm.RoleDistributor {
			snap.distributors = append(snap.distributors, n)
		}
	}
	for parent := range snap.children {
		sortIDs(snap.children[parent])
	}
	sort.Slice(snap.distributors, func(i, j int) bool {
		return snap.distributors[i].ID.String() < snap.distributors[j].ID.String()
	})
	return snap
}

// Distributors lists every DISTRIBUTOR account ordered by id.
func (h *HierarchySnapshot) Distributors() []AccountNode {
	out := make([]AccountNode, len(h.distributors))
	copy(out, h.distributors)
	return out
}

// Distributor returns the DISTRIBUTOR node for id.
func (h *HierarchySnapshot) Distributor(id uuid.UUID) (AccountNode, error) {
	node, ok := h.nodes[id]
	if !ok || node.Role != dbm.RoleDistributor {
		return AccountNode{}, fmt.Errorf("%w: %s", utils.ErrDistributorNotFound, id)
	}
	return node, nil
}

// SubordinatesOf returns a distributor's direct users plus each direct agency
// with its users. Other roles below a distributor are ignored.
func (h *HierarchySnapshot) SubordinatesOf(distributorID uuid.UUID) (Subordinates, error) {
	if _, err := h.Distributor(distributorID); err != nil {
		return Subordinates{}, err
	}

	subs := Subordinates{
		DirectUsers: []uuid.UUID{},
		Agencies:    []AgencySubordinates{},
	}
	for _, childID := range h.children[distributorID] {
		child, ok := h.nodes[childID]
		if !ok {
			continue
		}
		switch child.Role {
		case dbm.RoleUser:
			subs.DirectUsers = append(subs.DirectUsers, childID)
		case dbm.RoleAgency:
			agency := AgencySubordinates{AgencyID: childID, Users: []uuid.UUID{}}
			for _, grandchildID := range h.children[childID] {
				if gc, ok := h.nodes[grandchildID]; ok && gc.Role == dbm.RoleUser {
					agency.Users = append(agency.Users, grandchildID)
				}
			}
			subs.Agencies = append(subs.Agencies, agency)
		}
	}
	return subs, nil
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}

// HierarchyResolver loads a fresh snapshot of the reseller tree.
type HierarchyResolver interface {
	Snapshot(ctx context.Context) (*HierarchySnapshot, error)
}

type hierarchyResolver struct {
	accountRepo repositories.AccountRepository
}

func NewHierarchyResolver(accountRepo repositories.AccountRepository) HierarchyResolver {
	return &hierarchyResolver{accountRepo: accountRepo}
}

func (r *hierarchyResolver) Snapshot(ctx context.Context) (*HierarchySnapshot, error) {
	accounts, err := r.accountRepo.ListHierarchy(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load hierarchy: %v", utils.ErrStorageFailure, err)
	}

	nodes := make([]AccountNode, 0, len(accounts))
	for _, a := range accounts {
		nodes = append(nodes, AccountNode{
			ID:        a.ID,
			Role:      a.Role,
			ParentID:  a.ParentID,
			DailyRate: a.DailyRate,
		})
	}
	return NewHierarchySnapshot(nodes), nil
}
