package swarm

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/swarmmind/swarmmind/core"
)

// reportInput carries the data for spec §6's per-root-task report layout:
// request, metadata, initial analysis, subtask execution, summary,
// project location, system metrics.
type reportInput struct {
	Root        *core.Task
	Children    []*core.Task
	Analysis    map[string]interface{}
	ProjectRoot string
	Metrics     Metrics
}

// writeReport renders report_<task_id>_<ts>.md under dir (spec §6)
// and returns the path written.
func writeReport(dir string, in reportInput) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	ts := time.Now().Unix()
	path := filepath.Join(dir, fmt.Sprintf("report_%s_%d.md", in.Root.ID, ts))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Task Report: %s\n\n", in.Root.Name)

	fmt.Fprintf(&buf, "## Request\n\n%s\n\n", in.Root.Description)

	duration := "n/a"
	if in.Root.StartedAt != nil && in.Root.CompletedAt != nil {
		duration = in.Root.CompletedAt.Sub(*in.Root.StartedAt).String()
	}
	fmt.Fprintf(&buf, "## Metadata\n\n- id: %s\n- state: %s\n- duration: %s\n- priority: %s\n\n",
		in.Root.ID, in.Root.State, duration, in.Root.Priority)

	fmt.Fprintf(&buf, "## Initial Analysis\n\n")
	if in.Analysis != nil {
		for _, key := range []string{"type", "domains", "required_outputs", "requires_decompose"} {
			if v, ok := in.Analysis[key]; ok {
				fmt.Fprintf(&buf, "- %s: %v\n", key, v)
			}
		}
	} else {
		fmt.Fprintf(&buf, "(no decomposition was required)\n")
	}
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "## Subtask Execution\n\n")
	if len(in.Children) == 0 {
		fmt.Fprintf(&buf, "(no subtasks)\n\n")
	}
	totalValidation, validatedCount := 0, 0
	for _, c := range in.Children {
		fmt.Fprintf(&buf, "### %s\n\n", c.Name)
		fmt.Fprintf(&buf, "- description: %s\n- state: %s\n- type: %s\n- agent: %s\n- validation score: %d\n",
			c.Description, c.State, c.Type, c.AssignedAgentID, c.ValidationScore)
		if c.ValidationScore > 0 {
			totalValidation += c.ValidationScore
			validatedCount++
		}
		if c.Result != nil {
			if solution, ok := c.Result["solution"].(string); ok {
				fmt.Fprintf(&buf, "- solution: %s\n", solution)
			}
			if code, ok := c.Result["code"].(string); ok && code != "" {
				fmt.Fprintf(&buf, "- code:\n\n```\n%s\n```\n", code)
			}
		}
		buf.WriteString("\n")
	}

	avgValidation := 0.0
	if validatedCount > 0 {
		avgValidation = float64(totalValidation) / float64(validatedCount)
	}
	fmt.Fprintf(&buf, "## Summary\n\n- total subtasks: %d\n- average validation score: %.1f\n\n", len(in.Children), avgValidation)

	fmt.Fprintf(&buf, "## Project Location\n\n%s\n\n", in.ProjectRoot)

	fmt.Fprintf(&buf, "## System Metrics\n\n- total tasks: %d\n- completed: %d\n- failed: %d\n- avg task time: %s\n- active agents: %d\n- recovery count: %d\n- auto-scale events: %d\n",
		in.Metrics.TotalTasks, in.Metrics.CompletedTasks, in.Metrics.FailedTasks,
		in.Metrics.AvgTaskTime, in.Metrics.ActiveAgents, in.Metrics.RecoveryCount, in.Metrics.AutoScaleEvents)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
