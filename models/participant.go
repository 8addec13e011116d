package models

import "time"

// Participant is a survey respondent, reconciled across submissions by email.
type Participant struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Major        string    `json:"major"`
	Skills       string    `json:"skills"`
	MBTI         string    `json:"mbti"`
	RolePref     string    `json:"role_pref"`
	Availability string    `json:"availability"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// TraitScores holds the five Big Five dimensions, conventionally in [0,1].
type TraitScores struct {
	O float64 `json:"O"`
	C float64 `json:"C"`
	E float64 `json:"E"`
	A float64 `json:"A"`
	N float64 `json:"N"`
}

// NeutralTrait substitutes for any trait a participant never scored.
const NeutralTrait = 0.5

// PersonalityScore is the stored score for one (cohort, participant) pair.
type PersonalityScore struct {
	CohortID      string         `json:"cohort_id"`
	ParticipantID string         `json:"student_id"`
	Answers       map[string]int `json:"answers"`
	Traits        TraitScores    `json:"ocean"`
}

// RosterEntry is a participant enrolled in a cohort as sent to the matching
// collaborator. Missing traits are already defaulted to NeutralTrait.
type RosterEntry struct {
	StudentID    string  `json:"student_id"`
	Name         string  `json:"name"`
	Major        string  `json:"major"`
	Skills       string  `json:"skills"`
	MBTI         string  `json:"MBTI"`
	RolePref     string  `json:"role_pref"`
	Availability string  `json:"availability"`
	O            float64 `json:"O"`
	C            float64 `json:"C"`
	E            float64 `json:"E"`
	A            float64 `json:"A"`
	N            float64 `json:"N"`
}

// EnrolledParticipant is a roster row for the admin listing; traits stay nil
// until the participant has been scored.
type EnrolledParticipant struct {
	Participant
	O        *float64   `json:"o"`
	C        *float64   `json:"c"`
	E        *float64   `json:"e"`
	A        *float64   `json:"a"`
	N        *float64   `json:"n"`
	ScoredAt *time.Time `json:"scored_at"`
}
