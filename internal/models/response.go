package models

import (
	"time"

	"github.com/lib/pq"
)

// Collection names of the two append-only stores.
const (
	StreamCollection    = "responses_stream"
	AggregateCollection = "responses"
)

// TrialRow is the result of one rating trial.
type TrialRow struct {
	Block        string  `json:"block"`
	Image        string  `json:"image"`
	Sex          *string `json:"sex"`
	FaceID       *int    `json:"face_id"`
	HeightLabel  *string `json:"height_label"`
	AttractLabel *string `json:"attract_label"`
	RT           int64   `json:"rt"`
	Q1           int     `json:"Q1" gorm:"column:q1"`
	Q2           int     `json:"Q2" gorm:"column:q2"`
	Q3           int     `json:"Q3" gorm:"column:q3"`
	Q4           int     `json:"Q4" gorm:"column:q4"`
}

// TrialResult is written once to the streaming collection when a trial ends.
type TrialResult struct {
	ID              uint      `json:"-" gorm:"primaryKey"`
	ParticipantID   string    `json:"participant_id" gorm:"index"`
	ServerTimestamp time.Time `json:"timestamp"`
	TrialRow        `gorm:"embedded"`
}

func (TrialResult) TableName() string { return StreamCollection }

// SessionPayload is the aggregate record written once per completed session.
type SessionPayload struct {
	ID              uint           `json:"-" gorm:"primaryKey"`
	ParticipantID   string         `json:"participant_id" gorm:"index"`
	Trials          []TrialRow     `json:"trials" gorm:"type:jsonb;serializer:json"`
	BlockOrder      pq.StringArray `json:"block_order" gorm:"type:text[]"`
	ClientVersion   string         `json:"client_version"`
	ServerTimestamp time.Time      `json:"timestamp"`
}

func (SessionPayload) TableName() string { return AggregateCollection }
