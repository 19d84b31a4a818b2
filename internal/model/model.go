// Package model defines the gorm persistence schema: analyzed diagrams,
// their extracted trajectories and the measurements taken against them.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// DatabaseModels is a list of all the structs exported here which
// represent tables in the database schema.
var DatabaseModels = []interface{}{
	&Diagram{},
	&Trajectory{},
	&Measurement{},
}

// Diagram is one analyzed raster diagram together with the physical
// extent it represents.
type Diagram struct {
	gorm.Model
	Source       string  `json:"source" gorm:"size:255"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	TemporalSpan float64 `json:"temporalSpan"` // minutes
	SpatialSpan  float64 `json:"spatialSpan"`  // meters

	Trajectories []Trajectory  `json:"trajectories,omitempty"`
	Measurements []Measurement `json:"measurements,omitempty"`
}

func (*Diagram) TableName() string {
	return "diagrams"
}

// Trajectory stores one extracted vehicle path. Points holds the ordered
// (time, position) samples as a JSON array.
type Trajectory struct {
	gorm.Model
	DiagramID  uint           `json:"diagramId" gorm:"index:idx_trajectory_diagram_id"`
	Diagram    Diagram        `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:DiagramID;"`
	TraceID    int            `json:"traceId"`
	PointCount int            `json:"pointCount"`
	Points     datatypes.JSON `json:"points"`
}

func (*Trajectory) TableName() string {
	return "trajectories"
}

// Measurement stores one analysis result with its rendered outline.
// Rates are kept in internal units (veh/min, veh/m, m/min); Outline is
// the visual's closed polygon as WKT.
type Measurement struct {
	gorm.Model
	DiagramID    uint    `json:"diagramId" gorm:"index:idx_measurement_diagram_id"`
	Diagram      Diagram `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:DiagramID;"`
	ExperimentID uint    `json:"experimentId" gorm:"index:idx_measurement_experiment_id"`
	Mode         string  `json:"mode" gorm:"size:31"`

	Flow                float64 `json:"flow"`
	Density             float64 `json:"density"`
	Speed               float64 `json:"speed"`
	Area                float64 `json:"area"`
	TotalTravelDistance float64 `json:"totalTravelDistance"`
	TotalTravelTime     float64 `json:"totalTravelTime"`
	Count               int     `json:"count"`
	WaveSpeed           float64 `json:"waveSpeed"`

	Outline    string         `json:"outline" gorm:"type:text"`
	Visual     datatypes.JSON `json:"visual"`
	MeasuredAt time.Time      `json:"measuredAt"`
}

func (*Measurement) TableName() string {
	return "measurements"
}

// DiagramFromCore builds the persistence row for one diagram context.
func DiagramFromCore(d core.Diagram) Diagram {
	return Diagram{
		Source:       d.Source,
		Width:        d.Width,
		Height:       d.Height,
		TemporalSpan: d.Extent.TemporalSpan,
		SpatialSpan:  d.Extent.SpatialSpan,
	}
}

// TrajectoryFromCore builds the persistence row for one extracted
// trajectory.
func TrajectoryFromCore(diagramID uint, t core.Trajectory) (Trajectory, error) {
	points, err := json.Marshal(t.Points)
	if err != nil {
		return Trajectory{}, fmt.Errorf("encoding trajectory points: %w", err)
	}
	return Trajectory{
		DiagramID:  diagramID,
		TraceID:    t.ID,
		PointCount: len(t.Points),
		Points:     datatypes.JSON(points),
	}, nil
}

// CorePoints decodes the stored point samples back to domain points.
func (t Trajectory) CorePoints() ([]core.Point, error) {
	var points []core.Point
	if err := json.Unmarshal(t.Points, &points); err != nil {
		return nil, fmt.Errorf("decoding trajectory points: %w", err)
	}
	return points, nil
}

// MeasurementFromCore builds the persistence row for one result/visual
// pair.
func MeasurementFromCore(diagramID uint, r core.AnalysisResult, v core.AnalysisVisual) (Measurement, error) {
	visual, err := json.Marshal(v)
	if err != nil {
		return Measurement{}, fmt.Errorf("encoding measurement visual: %w", err)
	}

	outline := ""
	if len(v.Polygon) >= 2 {
		outline = v.Outline().AsText()
	}

	return Measurement{
		DiagramID:           diagramID,
		ExperimentID:        r.ExperimentID,
		Mode:                string(r.Mode),
		Flow:                r.Flow,
		Density:             r.Density,
		Speed:               r.Speed,
		Area:                r.Area,
		TotalTravelDistance: r.TotalTravelDistance,
		TotalTravelTime:     r.TotalTravelTime,
		Count:               r.Count,
		WaveSpeed:           r.WaveSpeed,
		Outline:             outline,
		Visual:              datatypes.JSON(visual),
		MeasuredAt:          time.Now(),
	}, nil
}
