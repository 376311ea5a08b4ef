package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"avatar-video-platform/internal/domain"
)

// Orientation selects one of the fixed provider output formats.
type Orientation string

const (
	OrientationLandscape Orientation = "landscape"
	OrientationPortrait  Orientation = "portrait"
	OrientationSquare    Orientation = "square"
	OrientationCustom    Orientation = "custom"
)

// Dimensions are output pixel dimensions sent to the provider.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (d Dimensions) IsZero() bool { return d.Width == 0 && d.Height == 0 }

var orientationDims = map[Orientation]Dimensions{
	OrientationLandscape: {Width: 1280, Height: 720},
	OrientationPortrait:  {Width: 720, Height: 1280},
	OrientationSquare:    {Width: 1080, Height: 1080},
}

// ResolveDimensions maps an orientation to pixel dimensions. Explicit custom
// dimensions win verbatim; otherwise the fixed table applies.
func ResolveDimensions(o Orientation, custom Dimensions) (Dimensions, error) {
	if o == OrientationCustom {
		if custom.IsZero() {
			return Dimensions{}, domain.ErrInvalidArgument
		}
		return custom, nil
	}
	if !custom.IsZero() {
		return custom, nil
	}
	d, ok := orientationDims[o]
	if !ok {
		return Dimensions{}, domain.ErrInvalidArgument
	}
	return d, nil
}

// JobState is the poll state machine of one generation run.
type JobState string

const (
	JobSubmitted JobState = "SUBMITTED"
	JobPending   JobState = "PENDING"
	JobCompleted JobState = "COMPLETED"
	JobFailed    JobState = "FAILED"
	JobTimedOut  JobState = "TIMED_OUT"
)

// Terminal reports whether no further transition can occur.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobTimedOut
}

// GenerationJob is the ephemeral per-request pipeline value. It is never
// shared across requests; scratch paths are deleted before the run returns.
type GenerationJob struct {
	OwnerID       string
	Script        string
	AvatarID      string
	VoiceID       string
	Orientation   Orientation
	Dims          Dimensions
	ProviderJobID string
	State         JobState
	RawURL        string
	PublicURL     string
}

// VideoRecord is the durable per-completed-job record. Immutable after
// creation except for explicit deletion by its owner.
type VideoRecord struct {
	ID          string
	OwnerID     string
	Script      string
	AvatarID    string
	VoiceID     string
	Orientation Orientation
	Dims        Dimensions
	RawURL      string
	PublicURL   string
	Status      string
	CreatedAt   time.Time
}

const VideoStatusCompleted = "completed"

func NewVideoRecord(job *GenerationJob) *VideoRecord {
	return &VideoRecord{
		ID:          ulid.MustNew(ulid.Now(), rand.Reader).String(),
		OwnerID:     job.OwnerID,
		Script:      job.Script,
		AvatarID:    job.AvatarID,
		VoiceID:     job.VoiceID,
		Orientation: job.Orientation,
		Dims:        job.Dims,
		RawURL:      job.RawURL,
		PublicURL:   job.PublicURL,
		Status:      VideoStatusCompleted,
		CreatedAt:   time.Now(),
	}
}
