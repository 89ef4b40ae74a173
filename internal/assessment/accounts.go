package assessment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the cost used for admin-provisioned accounts.
const DefaultBcryptCost = 12

// Accounts handles registration, credential checks and roster administration.
type Accounts struct {
	store Store
	cost  int
}

func NewAccounts(store Store, bcryptCost int) *Accounts {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = DefaultBcryptCost
	}
	return &Accounts{store: store, cost: bcryptCost}
}

type Registration struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Classroom string `json:"classroom"`
	RosterNo  string `json:"roster_no"`
}

// Register creates a non-admin learner. Usernames are unique.
func (a *Accounts) Register(ctx context.Context, r Registration) (Learner, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Username = strings.TrimSpace(r.Username)
	if r.Name == "" || r.Username == "" || r.Password == "" {
		return Learner{}, fmt.Errorf("%w: name, username and password required", ErrInvalid)
	}
	return a.create(ctx, Learner{
		Name:      r.Name,
		Username:  r.Username,
		Classroom: strings.TrimSpace(r.Classroom),
		RosterNo:  strings.TrimSpace(r.RosterNo),
	}, r.Password)
}

func (a *Accounts) create(ctx context.Context, l Learner, password string) (Learner, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return Learner{}, err
	}
	l.PasswordHash = string(hash)
	return a.store.CreateLearner(ctx, l)
}

// Authenticate returns ErrInvalidCredentials for an unknown user or a
// wrong password alike.
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (Learner, error) {
	l, err := a.store.FindLearnerByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return Learner{}, ErrInvalidCredentials
	}
	if err != nil {
		return Learner{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(l.PasswordHash), []byte(password)) != nil {
		return Learner{}, ErrInvalidCredentials
	}
	return l, nil
}

// EnsureAdmin creates the administrator account when none exists yet.
func (a *Accounts) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	all, err := a.store.CountLearners(ctx, false)
	if err != nil {
		return false, err
	}
	nonAdmin, err := a.store.CountLearners(ctx, true)
	if err != nil {
		return false, err
	}
	if all > nonAdmin {
		return false, nil
	}
	if username == "" || password == "" {
		return false, fmt.Errorf("%w: admin username and password required", ErrInvalid)
	}
	if _, err := a.create(ctx, Learner{Name: "Administrator", Username: username, IsAdmin: true}, password); err != nil {
		return false, err
	}
	log.Printf("[STARTUP] created administrator %q", username)
	return true, nil
}

// RosterEntry is a learner with whatever results they have.
type RosterEntry struct {
	Learner Learner     `json:"learner"`
	Pre     *TestResult `json:"pre,omitempty"`
	Post    *TestResult `json:"post,omitempty"`
}

// Roster lists non-admin learners newest first.
func (a *Accounts) Roster(ctx context.Context) ([]RosterEntry, error) {
	ls, err := a.store.ListLearners(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make([]RosterEntry, 0, len(ls))
	for _, l := range ls {
		e := RosterEntry{Learner: l}
		if e.Pre, err = a.optionalResult(ctx, l.ID, PhasePre); err != nil {
			return nil, err
		}
		if e.Post, err = a.optionalResult(ctx, l.ID, PhasePost); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (a *Accounts) optionalResult(ctx context.Context, learnerID string, p Phase) (*TestResult, error) {
	r, err := a.store.FindResult(ctx, learnerID, p)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Reset deletes every result of the learner so both tests can be taken again.
func (a *Accounts) Reset(ctx context.Context, learnerID string) (int, error) {
	if _, err := a.store.GetLearner(ctx, learnerID); err != nil {
		return 0, err
	}
	return a.store.DeleteResults(ctx, learnerID)
}

// Remove deletes a non-admin learner along with their results.
func (a *Accounts) Remove(ctx context.Context, learnerID string) error {
	l, err := a.store.GetLearner(ctx, learnerID)
	if err != nil {
		return err
	}
	if l.IsAdmin {
		return fmt.Errorf("%w: administrators cannot be removed", ErrForbidden)
	}
	return a.store.DeleteLearner(ctx, learnerID)
}
