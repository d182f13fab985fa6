package agents

import (
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/router"
)

// Goal describes one planning cycle: which source to scan and how hot a
// trend must be to act on.
type Goal struct {
	Source            string `json:"source"`
	TimeWindow        string `json:"time_window"`
	VelocityThreshold int    `json:"velocity_threshold"`
	MaxResults        int    `json:"max_results"`
}

// Planner turns goals into task request envelopes addressed to skills.
type Planner struct {
	sender string
}

func NewPlanner(sender string) *Planner {
	if sender == "" {
		sender = "planner"
	}
	return &Planner{sender: sender}
}

// PlanTrendScan mints a task request for the trend fetch skill. Identity and
// trace id are fresh; the trace id follows the task to its terminal state.
func (p *Planner) PlanTrendScan(goal Goal) router.Envelope {
	params := map[string]any{
		"source": goal.Source,
	}
	if goal.TimeWindow != "" {
		params["time_window"] = goal.TimeWindow
	}
	if goal.VelocityThreshold > 0 {
		params["velocity_threshold"] = goal.VelocityThreshold
	}
	if goal.MaxResults > 0 {
		params["max_results"] = goal.MaxResults
	}
	return router.NewTaskRequest(p.sender, "skill_fetch_trends", "scan_trends", params)
}
