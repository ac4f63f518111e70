package model

import "time"

// Plant mirrors a row of the `plants` table.  The three period
// fields are comma-delimited month numbers ("04, 05, 06").  The
// catalog invariant is that HarvestPeriod is always present and
// that SowingPeriod and PlantingPeriod are never both empty.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – common plant name, used for ordering and search.
//  Image          – URL on the external media host (nullable).
//  Type           – loose category such as "Légume vert" (nullable).
//  Description    – free-text description.
//  SowingPeriod   – months in which seeds go into the ground.
//  PlantingPeriod – months in which seedlings are transplanted.
//  HarvestPeriod  – months in which the plant is harvested.
//  Soil           – soil requirements.
//  Watering       – watering guidance.
//  Exposure       – sun exposure guidance.
//  Maintenance    – upkeep guidance.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Plant struct {
	ID             uint64    // plants.id
	Name           string    // plants.name
	Image          *string   // plants.image (nullable)
	Type           *string   // plants.type (nullable)
	Description    string    // plants.description
	SowingPeriod   string    // plants.sowing_period ("" when null)
	PlantingPeriod string    // plants.planting_period ("" when null)
	HarvestPeriod  string    // plants.harvest_period
	Soil           string    // plants.soil
	Watering       string    // plants.watering
	Exposure       string    // plants.exposure
	Maintenance    string    // plants.maintenance
	CreatedAt      time.Time // plants.created_at
	UpdatedAt      time.Time // plants.updated_at
}
