package db

import (
	"fmt"
)

// PipelineEvent is one row of the pipeline lifecycle log.
type PipelineEvent struct {
	ID         int64
	PipelineID string
	Event      string
	Stage      string
	Detail     string
	Timestamp  string
}

// GateDecision is one recorded human gate action: a checkpoint
// approval/rejection/override or a finding accept/reject/defer.
type GateDecision struct {
	ID         int64
	PipelineID string
	Kind       string // "checkpoint" or "finding"
	RefID      string
	Action     string
	Reason     string
	Timestamp  string
}

// DecisionOverride is one recorded decision supersession.
type DecisionOverride struct {
	ID             int64
	OldDecisionID  string
	NewDecisionID  string
	OldFingerprint string
	NewFingerprint string
	PlanStale      bool
	Reason         string
	Timestamp      string
}

// LogPipelineEvent records a pipeline lifecycle event.
func (d *DB) LogPipelineEvent(pipelineID, event, stage, detail string) error {
	_, err := d.conn.Exec(
		"INSERT INTO pipeline_events (pipeline_id, event, stage, detail) VALUES (?, ?, ?, ?)",
		pipelineID, event, stage, detail)
	if err != nil {
		return fmt.Errorf("log pipeline event: %w", err)
	}
	return nil
}

// GetPipelineHistory returns the most recent events for a pipeline,
// newest first. limit <= 0 means no limit.
func (d *DB) GetPipelineHistory(pipelineID string, limit int) ([]PipelineEvent, error) {
	query := "SELECT id, pipeline_id, event, COALESCE(stage, ''), COALESCE(detail, ''), timestamp FROM pipeline_events WHERE pipeline_id = ? ORDER BY timestamp DESC, id DESC"
	args := []interface{}{pipelineID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pipeline history: %w", err)
	}
	defer rows.Close()

	var events []PipelineEvent
	for rows.Next() {
		var e PipelineEvent
		if err := rows.Scan(&e.ID, &e.PipelineID, &e.Event, &e.Stage, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan pipeline event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// LogGateDecision records a human gate action against a checkpoint or
// semantic finding.
func (d *DB) LogGateDecision(pipelineID, kind, refID, action, reason string) error {
	_, err := d.conn.Exec(
		"INSERT INTO gate_decisions (pipeline_id, kind, ref_id, action, reason) VALUES (?, ?, ?, ?, ?)",
		pipelineID, kind, refID, action, reason)
	if err != nil {
		return fmt.Errorf("log gate decision: %w", err)
	}
	return nil
}

// GetGateDecisions returns the gate decisions for a pipeline, newest
// first. limit <= 0 means no limit.
func (d *DB) GetGateDecisions(pipelineID string, limit int) ([]GateDecision, error) {
	query := "SELECT id, pipeline_id, kind, ref_id, action, COALESCE(reason, ''), timestamp FROM gate_decisions WHERE pipeline_id = ? ORDER BY timestamp DESC, id DESC"
	args := []interface{}{pipelineID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query gate decisions: %w", err)
	}
	defer rows.Close()

	var decisions []GateDecision
	for rows.Next() {
		var g GateDecision
		if err := rows.Scan(&g.ID, &g.PipelineID, &g.Kind, &g.RefID, &g.Action, &g.Reason, &g.Timestamp); err != nil {
			return nil, fmt.Errorf("scan gate decision: %w", err)
		}
		decisions = append(decisions, g)
	}
	return decisions, rows.Err()
}

// LogDecisionOverride records a decision supersession and its staleness
// verdict.
func (d *DB) LogDecisionOverride(oldID, newID, oldFP, newFP string, planStale bool, reason string) error {
	_, err := d.conn.Exec(
		"INSERT INTO decision_overrides (old_decision_id, new_decision_id, old_fingerprint, new_fingerprint, plan_stale, reason) VALUES (?, ?, ?, ?, ?, ?)",
		oldID, newID, oldFP, newFP, planStale, reason)
	if err != nil {
		return fmt.Errorf("log decision override: %w", err)
	}
	return nil
}

// GetDecisionOverrides returns all recorded overrides, newest first.
func (d *DB) GetDecisionOverrides() ([]DecisionOverride, error) {
	rows, err := d.conn.Query(
		"SELECT id, old_decision_id, new_decision_id, old_fingerprint, new_fingerprint, plan_stale, COALESCE(reason, ''), timestamp FROM decision_overrides ORDER BY timestamp DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("query decision overrides: %w", err)
	}
	defer rows.Close()

	var overrides []DecisionOverride
	for rows.Next() {
		var o DecisionOverride
		if err := rows.Scan(&o.ID, &o.OldDecisionID, &o.NewDecisionID, &o.OldFingerprint, &o.NewFingerprint, &o.PlanStale, &o.Reason, &o.Timestamp); err != nil {
			return nil, fmt.Errorf("scan decision override: %w", err)
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}
