package service

import (
	"fmt"
	"time"

	"github.com/wrenchworks/dispatch-api/internal/models"
	appErrors "github.com/wrenchworks/dispatch-api/pkg/errors"
)

// WindowPolicy carries the configured duration defaults applied when a job
// does not state its own duration. Service jobs are scheduled in days,
// roadside dispatches in hours.
type WindowPolicy struct {
	ServiceDefaultDays   float64
	RoadsideDefaultHours float64
}

// ComputeWindow derives the half-open interval a job occupies. Explicit
// start/end dates win; otherwise the anchor falls back from suggested start to
// request date to creation time, and the duration falls back to the policy
// default for the job's kind.
func ComputeWindow(job *models.Job, policy WindowPolicy) (models.TimeWindow, error) {
	if job == nil {
		return models.TimeWindow{}, appErrors.Clone(appErrors.ErrInvalidWindow, "job is missing")
	}

	if job.StartDate != nil && job.EndDate != nil {
		window := models.TimeWindow{Start: *job.StartDate, End: *job.EndDate}
		if !window.End.After(window.Start) {
			return models.TimeWindow{}, appErrors.Clone(appErrors.ErrInvalidWindow,
				fmt.Sprintf("job %s has end before start", job.ExternalID))
		}
		return window, nil
	}

	start := windowAnchor(job)
	if start.IsZero() {
		return models.TimeWindow{}, appErrors.Clone(appErrors.ErrInvalidWindow,
			fmt.Sprintf("job %s has no usable start date", job.ExternalID))
	}

	duration := windowDuration(job, policy)
	if duration <= 0 {
		return models.TimeWindow{}, appErrors.Clone(appErrors.ErrInvalidWindow,
			fmt.Sprintf("job %s has non-positive duration", job.ExternalID))
	}

	return models.TimeWindow{Start: start, End: start.Add(duration)}, nil
}

// TaskWindow derives the interval an assigned service task occupies.
// WorkDuration is in days.
func TaskWindow(task models.AssignedTask) (models.TimeWindow, error) {
	if task.StartDate.IsZero() {
		return models.TimeWindow{}, appErrors.Clone(appErrors.ErrInvalidWindow,
			fmt.Sprintf("task %s has no start date", task.JobID))
	}
	days := task.WorkDuration
	if days <= 0 {
		days = 1
	}
	return models.TimeWindow{Start: task.StartDate, End: task.StartDate.Add(daysToDuration(days))}, nil
}

func windowAnchor(job *models.Job) time.Time {
	switch {
	case job.StartDate != nil && !job.StartDate.IsZero():
		return *job.StartDate
	case job.SuggestedStart != nil && !job.SuggestedStart.IsZero():
		return *job.SuggestedStart
	case job.RequestDate != nil && !job.RequestDate.IsZero():
		return *job.RequestDate
	default:
		return job.CreatedAt
	}
}

func windowDuration(job *models.Job, policy WindowPolicy) time.Duration {
	if job.Kind == models.JobKindRoadside {
		hours := policy.RoadsideDefaultHours
		if job.Duration != nil && *job.Duration > 0 {
			hours = *job.Duration
		}
		return time.Duration(hours * float64(time.Hour))
	}

	days := policy.ServiceDefaultDays
	if job.Duration != nil && *job.Duration > 0 {
		days = *job.Duration
	}
	return daysToDuration(days)
}

func daysToDuration(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}
