// Package decision is the append-only ledger of conversion decisions.
// Decisions are never edited in place: an override mints a new active
// decision and marks the old one superseded, preserving the full chain.
package decision

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lucasnoah/portforge/internal/errs"
	"github.com/lucasnoah/portforge/internal/pipeline"
)

// Decision statuses.
const (
	StatusActive     = "active"
	StatusSuperseded = "superseded"
)

// Decision is one entry in the ledger.
type Decision struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Value          string   `json:"value"`
	Status         string   `json:"status"`
	SupersededBy   string   `json:"superseded_by,omitempty"`
	Supersedes     []string `json:"supersedes,omitempty"`
	Reason         string   `json:"reason,omitempty"`
	OverrideReason string   `json:"override_reason,omitempty"`
	Fingerprint    string   `json:"fingerprint"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

// OverrideResult reports the outcome of a decision override, including
// whether the conversion plan should be regenerated.
type OverrideResult struct {
	OldDecisionID  string `json:"old_decision_id"`
	NewDecisionID  string `json:"new_decision_id"`
	OldFingerprint string `json:"old_fingerprint"`
	NewFingerprint string `json:"new_fingerprint"`
	PlanIsStale    bool   `json:"plan_is_stale"`
	Message        string `json:"message"`
}

// Fingerprint hashes a decision's semantic content. Only the title and
// value participate, so two decisions with identical content always
// fingerprint equal regardless of id or timestamps.
func Fingerprint(title, value string) string {
	payload, _ := json.Marshal(struct {
		Title string `json:"title"`
		Value string `json:"value"`
	}{Title: title, Value: value})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func newID() string {
	return "D-" + strings.ToUpper(uuid.NewString()[:8])
}

// Ledger stores the decision log as a single JSON document.
type Ledger struct {
	baseDir string
	mu      sync.Mutex
}

// NewLedger creates a ledger rooted at baseDir.
func NewLedger(baseDir string) *Ledger {
	return &Ledger{baseDir: baseDir}
}

// DefaultLedger returns a Ledger at ~/.portforge, creating the
// directory if needed.
func DefaultLedger() (*Ledger, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".portforge")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return NewLedger(dir), nil
}

func (l *Ledger) path() string {
	return filepath.Join(l.baseDir, "decisions.json")
}

func (l *Ledger) load() ([]Decision, error) {
	var decisions []Decision
	if err := pipeline.ReadJSON(l.path(), &decisions); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return decisions, nil
}

func (l *Ledger) save(decisions []Decision) error {
	return pipeline.WriteJSON(l.path(), decisions)
}

// Add appends a new active decision and returns it.
func (l *Ledger) Add(title, value, reason string) (*Decision, error) {
	if title == "" {
		return nil, errs.Validation("decision title is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	decisions, err := l.load()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	d := Decision{
		ID:          newID(),
		Title:       title,
		Value:       value,
		Status:      StatusActive,
		Reason:      reason,
		Fingerprint: Fingerprint(title, value),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	decisions = append(decisions, d)
	if err := l.save(decisions); err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns all decisions in insertion order.
func (l *Ledger) List() ([]Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// Get returns the decision with the given id.
func (l *Ledger) Get(id string) (*Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	decisions, err := l.load()
	if err != nil {
		return nil, err
	}
	for i := range decisions {
		if decisions[i].ID == id {
			return &decisions[i], nil
		}
	}
	return nil, errs.NotFound("decision", id)
}

// Override supersedes an active decision with a new value. The old
// decision keeps its content and is marked superseded; the new decision
// becomes active and records its ancestry. Overriding an already
// superseded decision is a validation error so every chain stays
// linear.
//
// autoReplan forces a stale verdict regardless of content; otherwise
// the plan is stale only when the fingerprints differ.
func (l *Ledger) Override(id, newValue, reason string, autoReplan bool) (*OverrideResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	decisions, err := l.load()
	if err != nil {
		return nil, err
	}

	var old *Decision
	for i := range decisions {
		if decisions[i].ID == id {
			old = &decisions[i]
			break
		}
	}
	if old == nil {
		return nil, errs.NotFound("decision", id)
	}
	if old.Status == StatusSuperseded {
		return nil, errs.Validation("decision %s is already superseded by %s; override the active decision instead", id, old.SupersededBy)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	next := Decision{
		ID:             newID(),
		Title:          old.Title,
		Value:          newValue,
		Status:         StatusActive,
		Supersedes:     []string{old.ID},
		OverrideReason: reason,
		Fingerprint:    Fingerprint(old.Title, newValue),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	old.Status = StatusSuperseded
	old.SupersededBy = next.ID
	old.UpdatedAt = now
	decisions = append(decisions, next)

	if err := l.save(decisions); err != nil {
		return nil, err
	}

	stale := autoReplan || old.Fingerprint != next.Fingerprint
	msg := fmt.Sprintf("Decision %s superseded by %s", old.ID, next.ID)
	if stale {
		msg += "; conversion plan is stale and should be regenerated"
	}
	return &OverrideResult{
		OldDecisionID:  old.ID,
		NewDecisionID:  next.ID,
		OldFingerprint: old.Fingerprint,
		NewFingerprint: next.Fingerprint,
		PlanIsStale:    stale,
		Message:        msg,
	}, nil
}
