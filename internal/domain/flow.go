package domain

import "time"

// Flow is a scripted dialogue tree. Steps and options are pure configuration;
// resolution never mutates them.
type Flow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	Steps       []Step    `json:"steps"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Step struct {
	ID      string   `json:"id"`
	Message string   `json:"message"`
	IsFinal bool     `json:"isFinal"`
	Options []Option `json:"options"`
}

// Option is a user choice within a step. A nil NextStepID ends the dialogue at
// this branch.
type Option struct {
	ID              string  `json:"id"`
	Label           string  `json:"label"`
	NextStepID      *string `json:"nextStepId"`
	ResponseMessage string  `json:"responseMessage"`
}

// StepByID looks a step up within the flow.
func (f *Flow) StepByID(id string) *Step {
	for i := range f.Steps {
		if f.Steps[i].ID == id {
			return &f.Steps[i]
		}
	}
	return nil
}

func (s *Step) OptionByID(id string) *Option {
	for i := range s.Options {
		if s.Options[i].ID == id {
			return &s.Options[i]
		}
	}
	return nil
}
