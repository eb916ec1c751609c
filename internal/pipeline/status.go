package pipeline

// ComputeStatus derives the overall pipeline status from the base
// status and the current stage statuses. It is recomputed on every
// query and never cached: stage statuses change under code paths (a
// checkpoint approval, a finding decision) that don't touch the base
// status.
//
// Precedence, highest first: blocked, failed, running, completed.
func ComputeStatus(base string, stages []Stage) string {
	if len(stages) == 0 {
		if base == "" {
			return StatusIdle
		}
		return base
	}

	for i := range stages {
		if stages[i].Status == StageBlocked {
			return StatusBlocked
		}
	}

	if base == StatusRunning {
		for i := range stages {
			if stages[i].Status == StageFailed {
				return StatusFailed
			}
		}
	}

	for i := range stages {
		if stages[i].Status == StageRunning {
			return StatusRunning
		}
	}

	allTerminal := true
	for i := range stages {
		if !Terminal(stages[i].Status) {
			allTerminal = false
			break
		}
	}
	if allTerminal {
		return StatusCompleted
	}

	// Pending stages remain: the pipeline is mid-flight if it ever
	// started, idle if it never did.
	if base == StatusRunning {
		return StatusRunning
	}
	if base == "" {
		return StatusIdle
	}
	return base
}

// ComputedStatus derives the pipeline's overall status.
func (p *Pipeline) ComputedStatus() string {
	return ComputeStatus(p.Status, p.Stages)
}
