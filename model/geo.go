package model

// Country, State and District are reference data attached to user profiles.
type Country struct {
	ID     uint    `gorm:"primaryKey" json:"id"`
	Name   string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	States []State `gorm:"foreignKey:CountryID;constraint:OnDelete:CASCADE" json:"states,omitempty"`
}

type State struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CountryID uint       `gorm:"not null;index" json:"country_id"`
	Name      string     `gorm:"type:varchar(100);not null" json:"name"`
	Districts []District `gorm:"foreignKey:StateID;constraint:OnDelete:CASCADE" json:"districts,omitempty"`
}

type District struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	StateID uint   `gorm:"not null;index" json:"state_id"`
	Name    string `gorm:"type:varchar(100);not null" json:"name"`
}
