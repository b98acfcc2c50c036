package models

// MachineModel is a catalogue entry shared by every unit of the same product line.
type MachineModel struct {
	BaseUUIDModel
	Name                 string `gorm:"type:text;not null"             json:"name"`
	ModelNumber          string `gorm:"type:text;not null;uniqueIndex" json:"modelNumber"`
	Manufacturer         string `gorm:"type:text"                      json:"manufacturer"`
	WarrantyPeriodMonths int    `gorm:"type:int;not null"              json:"warrantyPeriodMonths"`
	// Overrides the global service cadence when set.
	ServiceIntervalDays *int `gorm:"type:int" json:"serviceIntervalDays,omitempty"`
}
