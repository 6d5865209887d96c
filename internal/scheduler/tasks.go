package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TaskAutomationRun  = "emailautomation.run"
	TaskStageRecompute = "audio.stage.recompute"
)

// AutomationRunPayload names one due (template, event) pair for one day.
type AutomationRunPayload struct {
	TemplateID string `json:"templateId"`
	EventID    string `json:"eventId"`
	Day        string `json:"day"`
}

// taskID keeps a pair from being queued twice on the same day.
func (p AutomationRunPayload) taskID() string {
	return fmt.Sprintf("automation:%s:%s:%s", p.TemplateID, p.EventID, p.Day)
}

func NewAutomationRunTask(payload AutomationRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAutomationRun, data), nil
}

func ParseAutomationRunPayload(task *asynq.Task) (AutomationRunPayload, error) {
	var payload AutomationRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AutomationRunPayload{}, err
	}
	return payload, nil
}

// StageRecomputePayload names one event whose release date passed.
type StageRecomputePayload struct {
	EventID string `json:"eventId"`
	Day     string `json:"day"`
}

func (p StageRecomputePayload) taskID() string {
	return fmt.Sprintf("stage:%s:%s", p.EventID, p.Day)
}

func NewStageRecomputeTask(payload StageRecomputePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStageRecompute, data), nil
}

func ParseStageRecomputePayload(task *asynq.Task) (StageRecomputePayload, error) {
	var payload StageRecomputePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return StageRecomputePayload{}, err
	}
	return payload, nil
}
