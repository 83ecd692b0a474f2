package sqlpass

import (
	"time"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/cache/keys"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/model"
)

type TrackedObject struct {
	ID        int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"type:varchar(255);not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// CachedPass times are stored as integer microseconds so that freshness
// comparisons are exact on every backend.
type CachedPass struct {
	ID             uint    `gorm:"primaryKey;autoIncrement"`
	ParamKey       string  `gorm:"type:varchar(255);not null;index:idx_param_eol,priority:1"`
	SatID          int     `gorm:"not null;index"`
	StartUs        int64   `gorm:"column:start_us;not null"`
	EndUs          int64   `gorm:"column:end_us;not null"`
	StartAz        float64 `gorm:"not null"`
	EndAz          float64 `gorm:"not null"`
	StartElev      float64 `gorm:"not null"`
	EndElev        float64 `gorm:"not null"`
	Duration       float64 `gorm:"not null"`
	Latitude       float64 `gorm:"not null"`
	Longitude      float64 `gorm:"not null"`
	Altitude       float64 `gorm:"not null"`
	PredictionDays float64 `gorm:"not null"`
	MinVisibility  float64 `gorm:"not null"`
	FetchedUs      int64   `gorm:"column:fetched_us;not null"`
	EOLUs          int64   `gorm:"column:eol_us;not null;index:idx_param_eol,priority:2"`
}

func (TrackedObject) TableName() string {
	return "tracked_objects"
}

func (CachedPass) TableName() string {
	return "cached_passes"
}

func toRow(rec model.PassRecord) CachedPass {
	return CachedPass{
		ParamKey:       keys.Key(rec.Params()),
		SatID:          rec.SatID,
		StartUs:        rec.StartUTC.UnixMicro(),
		EndUs:          rec.EndUTC.UnixMicro(),
		StartAz:        rec.StartAz,
		EndAz:          rec.EndAz,
		StartElev:      rec.StartElev,
		EndElev:        rec.EndElev,
		Duration:       rec.Duration,
		Latitude:       rec.Latitude,
		Longitude:      rec.Longitude,
		Altitude:       rec.Altitude,
		PredictionDays: rec.PredictionDays,
		MinVisibility:  rec.MinVisibility,
		FetchedUs:      rec.FetchedAt.UnixMicro(),
		EOLUs:          rec.EOL.UnixMicro(),
	}
}

func (r CachedPass) record() model.PassRecord {
	return model.PassRecord{
		SatID:          r.SatID,
		StartUTC:       time.UnixMicro(r.StartUs).UTC(),
		EndUTC:         time.UnixMicro(r.EndUs).UTC(),
		StartAz:        r.StartAz,
		EndAz:          r.EndAz,
		StartElev:      r.StartElev,
		EndElev:        r.EndElev,
		Duration:       r.Duration,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		Altitude:       r.Altitude,
		PredictionDays: r.PredictionDays,
		MinVisibility:  r.MinVisibility,
		FetchedAt:      time.UnixMicro(r.FetchedUs).UTC(),
		EOL:            time.UnixMicro(r.EOLUs).UTC(),
	}
}
