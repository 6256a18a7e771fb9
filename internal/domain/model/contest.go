package model

import "time"

type ContestStatus string

const (
	ContestUpcoming ContestStatus = "upcoming"
	ContestOngoing  ContestStatus = "ongoing"
	ContestPast     ContestStatus = "past"
)

func (s ContestStatus) Valid() bool {
	return s == ContestUpcoming || s == ContestOngoing || s == ContestPast
}

type Contest struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	ProblemIDs     []string  `json:"problem_ids"`
	ParticipantIDs []string  `json:"participant_ids"`
	CreatedAt      time.Time `json:"created_at"`

	Status ContestStatus `json:"status,omitempty"` // derived, never stored
}

// StatusAt derives the contest status; both boundaries count as ongoing.
func (c *Contest) StatusAt(now time.Time) ContestStatus {
	switch {
	case now.Before(c.StartTime):
		return ContestUpcoming
	case now.After(c.EndTime):
		return ContestPast
	default:
		return ContestOngoing
	}
}

func (c *Contest) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}
