// Package seed imports users, groups and records from a YAML fixture.
//
// Records are written through scope.Impersonate: each block of records names
// its owner (a personal space) or its group, and the user recorded as creator.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/hisaabdost/backend/internal/auth"
	"github.com/hisaabdost/backend/internal/cache"
	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/scope"
	"github.com/hisaabdost/backend/internal/storage"
)

// DateLayout is the format of dates in fixtures.
const DateLayout = "2006-01-02"

// Fixture is the top-level YAML document.
type Fixture struct {
	Users   []User  `yaml:"users"`
	Groups  []Group `yaml:"groups"`
	Records []Block `yaml:"records"`
}

type User struct {
	Email       string `yaml:"email"`
	DisplayName string `yaml:"display_name"`
	Password    string `yaml:"password"`
}

type Group struct {
	Name    string   `yaml:"name"`
	Owner   string   `yaml:"owner"`
	Members []Member `yaml:"members"`
}

type Member struct {
	Email string      `yaml:"email"`
	Role  models.Role `yaml:"role"`
}

// Block is a set of records in one context. Exactly one of Owner and Group is
// set. CreatedBy defaults to Owner and is required for group blocks.
type Block struct {
	Owner     string `yaml:"owner"`
	Group     string `yaml:"group"`
	CreatedBy string `yaml:"created_by"`

	Expenses []Expense `yaml:"expenses"`
	Budgets  []Budget  `yaml:"budgets"`
	Income   []Income  `yaml:"income"`
	Goals    []Goal    `yaml:"goals"`
	Loans    []Loan    `yaml:"loans"`
	Wallet   []Wallet  `yaml:"wallet"`
}

type Expense struct {
	Amount      decimal.Decimal `yaml:"amount"`
	Category    string          `yaml:"category"`
	Description string          `yaml:"description"`
	Date        string          `yaml:"date"`
}

type Budget struct {
	Category string          `yaml:"category"`
	Limit    decimal.Decimal `yaml:"limit"`
	Month    string          `yaml:"month"`
}

type Income struct {
	Month  string          `yaml:"month"`
	Amount decimal.Decimal `yaml:"amount"`
	Source string          `yaml:"source"`
}

type Goal struct {
	Title    string          `yaml:"title"`
	Target   decimal.Decimal `yaml:"target"`
	Saved    decimal.Decimal `yaml:"saved"`
	Deadline string          `yaml:"deadline"`
}

type Loan struct {
	Counterparty string               `yaml:"counterparty"`
	Direction    models.LoanDirection `yaml:"direction"`
	Amount       decimal.Decimal      `yaml:"amount"`
	Repaid       decimal.Decimal      `yaml:"repaid"`
	Due          string               `yaml:"due"`
}

type Wallet struct {
	Type   models.WalletEntryType `yaml:"type"`
	Amount decimal.Decimal        `yaml:"amount"`
	Note   string                 `yaml:"note"`
	Date   string                 `yaml:"date"`
}

// Load decodes a fixture. Unknown keys are rejected.
func Load(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return &f, nil
}

// Summary counts what Apply wrote.
type Summary struct {
	Users       int
	Groups      int
	Memberships int
	Records     int
}

// Seeder writes fixtures to a store.
type Seeder struct {
	store storage.Store
	auth  auth.Authenticator
	inv   *cache.Invalidator
}

// New creates a Seeder. inv may be nil; when set, every user whose data
// changed has their cached collections invalidated.
func New(store storage.Store, authenticator auth.Authenticator, inv *cache.Invalidator) *Seeder {
	return &Seeder{store: store, auth: authenticator, inv: inv}
}

// Apply writes f. Users that already exist are reused, so a fixture can be
// applied on top of live data.
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (Summary, error) {
	var sum Summary
	users := make(map[string]string) // email -> id
	groups := make(map[string]string) // name -> id
	touched := make(map[string]bool)

	for _, u := range f.Users {
		id, created, err := s.ensureUser(ctx, u)
		if err != nil {
			return sum, err
		}
		users[auth.NormalizeEmail(u.Email)] = id
		if created {
			sum.Users++
		}
	}
	lookup := func(email string) (string, error) {
		if id, ok := users[auth.NormalizeEmail(email)]; ok {
			return id, nil
		}
		u, err := s.store.GetUserByEmail(ctx, auth.NormalizeEmail(email))
		if err != nil {
			return "", err
		}
		if u == nil {
			return "", fmt.Errorf("unknown user %q", email)
		}
		users[u.Email] = u.ID
		return u.ID, nil
	}

	for _, g := range f.Groups {
		ownerID, err := lookup(g.Owner)
		if err != nil {
			return sum, fmt.Errorf("group %q owner: %w", g.Name, err)
		}
		group := &models.Group{Name: g.Name, CreatedBy: ownerID}
		if err := s.store.CreateGroup(ctx, group); err != nil {
			return sum, fmt.Errorf("failed to create group %q: %w", g.Name, err)
		}
		groups[g.Name] = group.ID
		touched[ownerID] = true
		sum.Groups++

		for _, m := range g.Members {
			memberID, err := lookup(m.Email)
			if err != nil {
				return sum, fmt.Errorf("group %q member: %w", g.Name, err)
			}
			role := m.Role
			if role == "" {
				role = models.RoleMember
			}
			if role == models.RoleOwner {
				return sum, fmt.Errorf("group %q: only the owner field may name the owner", g.Name)
			}
			if err := s.store.UpsertMembership(ctx, &models.Membership{GroupID: group.ID, UserID: memberID, Role: role}); err != nil {
				return sum, fmt.Errorf("failed to add %s to %q: %w", m.Email, g.Name, err)
			}
			touched[memberID] = true
			sum.Memberships++
		}
	}

	for i, b := range f.Records {
		p, err := s.predicate(ctx, b, lookup, groups)
		if err != nil {
			return sum, fmt.Errorf("records[%d]: %w", i, err)
		}
		n, err := s.insertBlock(ctx, p, b)
		sum.Records += n
		if err != nil {
			return sum, fmt.Errorf("records[%d]: %w", i, err)
		}
		audience, err := s.audience(ctx, p)
		if err != nil {
			return sum, err
		}
		for _, id := range audience {
			touched[id] = true
		}
	}

	if s.inv != nil {
		for id := range touched {
			s.inv.Invalidate(ctx, id, append(cache.ContextScoped(), cache.Groups)...)
		}
	}
	slog.Info("Fixture applied",
		"users", sum.Users,
		"groups", sum.Groups,
		"memberships", sum.Memberships,
		"records", sum.Records,
	)
	return sum, nil
}

func (s *Seeder) ensureUser(ctx context.Context, u User) (string, bool, error) {
	user, err := s.auth.Register(ctx, u.Email, u.DisplayName, u.Password)
	if errors.Is(err, auth.ErrEmailExists) {
		existing, err := s.store.GetUserByEmail(ctx, auth.NormalizeEmail(u.Email))
		if err != nil {
			return "", false, fmt.Errorf("failed to load existing user %s: %w", u.Email, err)
		}
		if existing == nil {
			return "", false, fmt.Errorf("user %s vanished during seeding", u.Email)
		}
		return existing.ID, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to create user %s: %w", u.Email, err)
	}
	return user.ID, true, nil
}

func (s *Seeder) predicate(ctx context.Context, b Block, lookup func(string) (string, error), groups map[string]string) (scope.Predicate, error) {
	if (b.Owner == "") == (b.Group == "") {
		return scope.Predicate{}, errors.New("exactly one of owner and group is required")
	}
	if b.Owner != "" {
		ownerID, err := lookup(b.Owner)
		if err != nil {
			return scope.Predicate{}, err
		}
		return scope.Impersonate(ownerID, "")
	}

	groupID, ok := groups[b.Group]
	if !ok {
		return scope.Predicate{}, fmt.Errorf("unknown group %q", b.Group)
	}
	if b.CreatedBy == "" {
		return scope.Predicate{}, fmt.Errorf("group %q: created_by is required", b.Group)
	}
	creatorID, err := lookup(b.CreatedBy)
	if err != nil {
		return scope.Predicate{}, err
	}
	return scope.Impersonate(creatorID, groupID)
}

func (s *Seeder) audience(ctx context.Context, p scope.Predicate) ([]string, error) {
	if p.IsPersonal() {
		return []string{p.UserID()}, nil
	}
	rows, err := s.store.ListGroupMemberships(ctx, p.GroupID())
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.UserID
	}
	return ids, nil
}

func (s *Seeder) insertBlock(ctx context.Context, p scope.Predicate, b Block) (int, error) {
	n := 0
	for _, e := range b.Expenses {
		at, err := parseDate(e.Date)
		if err != nil {
			return n, err
		}
		rec := &models.Expense{Amount: e.Amount, Category: e.Category, Description: e.Description, SpentAt: at}
		if err := s.store.Expenses().Insert(ctx, p, rec); err != nil {
			return n, err
		}
		n++
	}
	for _, bu := range b.Budgets {
		rec := &models.Budget{Category: bu.Category, Limit: bu.Limit, Month: bu.Month}
		if err := s.store.Budgets().Insert(ctx, p, rec); err != nil {
			return n, err
		}
		n++
	}
	for _, in := range b.Income {
		rec := &models.Income{Month: in.Month, Amount: in.Amount, Source: in.Source}
		if err := s.store.Income().Insert(ctx, p, rec); err != nil {
			return n, err
		}
		n++
	}
	for _, g := range b.Goals {
		deadline, err := parseDate(g.Deadline)
		if err != nil {
			return n, err
		}
		rec := &models.Goal{Title: g.Title, TargetAmount: g.Target, SavedAmount: g.Saved, Deadline: deadline}
		if err := s.store.Goals().Insert(ctx, p, rec); err != nil {
			return n, err
		}
		n++
	}
	for _, l := range b.Loans {
		due, err := parseDate(l.Due)
		if err != nil {
			return n, err
		}
		rec := &models.Loan{Counterparty: l.Counterparty, Direction: l.Direction, Amount: l.Amount, Repaid: l.Repaid, DueAt: due}
		if err := s.store.Loans().Insert(ctx, p, rec); err != nil {
			return n, err
		}
		n++
	}
	for _, w := range b.Wallet {
		at, err := parseDate(w.Date)
		if err != nil {
			return n, err
		}
		rec := &models.WalletEntry{Type: w.Type, Amount: w.Amount, Note: w.Note, OccurredAt: at}
		if err := s.store.Wallet().Insert(ctx, p, rec); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// parseDate turns a fixture date into a unix timestamp. Empty means zero.
func parseDate(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t.Unix(), nil
}
