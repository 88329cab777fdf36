package accounts

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service handles chart of accounts business logic.
type Service struct {
	repo  Repository
	audit shared.AuditPort
	now   func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get returns one account by id.
func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// GetByCode returns one account by its human code.
func (s *Service) GetByCode(ctx context.Context, code string) (Account, error) {
	return s.repo.GetByCode(ctx, code)
}

// List returns all accounts ordered by code.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// ListByType returns accounts of one category ordered by code.
func (s *Service) ListByType(ctx context.Context, t AccountType) ([]Account, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("accounts: unknown type %q", t)
	}
	return s.repo.ListByType(ctx, t)
}

// Tree returns root accounts with their children attached.
func (s *Service) Tree(ctx context.Context) ([]Node, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return buildTree(accounts), nil
}

func buildTree(accounts []Account) []Node {
	children := make(map[int64][]Account)
	var roots []Account
	for _, a := range accounts {
		if a.ParentID == nil {
			roots = append(roots, a)
			continue
		}
		children[*a.ParentID] = append(children[*a.ParentID], a)
	}
	var attach func(a Account) Node
	attach = func(a Account) Node {
		node := Node{Account: a}
		for _, child := range children[a.ID] {
			node.Children = append(node.Children, attach(child))
		}
		return node
	}
	nodes := make([]Node, 0, len(roots))
	for _, root := range roots {
		nodes = append(nodes, attach(root))
	}
	return nodes
}

// Create registers a new account; duplicate codes are rejected.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	if in.ParentID != nil {
		parent, err := s.repo.Get(ctx, *in.ParentID)
		if err != nil {
			return Account{}, fmt.Errorf("accounts: parent: %w", err)
		}
		if parent.Type != in.Type {
			return Account{}, fmt.Errorf("accounts: parent %s is %s, child must match", parent.Code, parent.Type)
		}
	}
	account, err := s.repo.Create(ctx, in)
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, in.ActorID, "account.create", account.ID, map[string]any{"code": account.Code})
	return account, nil
}

// Update mutates account metadata; system accounts are rejected.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	current, err := s.repo.Get(ctx, in.AccountID)
	if err != nil {
		return Account{}, err
	}
	if current.IsSystem {
		return Account{}, shared.ErrProtected
	}
	account, err := s.repo.Update(ctx, in)
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, in.ActorID, "account.update", account.ID, map[string]any{"code": account.Code})
	return account, nil
}

// Delete removes an account unless it is system protected or has journal
// lines or child accounts.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.IsSystem {
		return shared.ErrProtected
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "account.delete", id, map[string]any{"code": current.Code})
	return nil
}

// ResolveMapping returns the account bound to a posting purpose.
func (s *Service) ResolveMapping(ctx context.Context, purpose MappingPurpose) (Account, error) {
	accountID, err := s.repo.GetMapping(ctx, purpose)
	if err != nil {
		return Account{}, err
	}
	return s.repo.Get(ctx, accountID)
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "account",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
