package models

import "relation-manager/core/gormstore"

// Person is linked to cities through person_cities; cities outlive the link.
type Person struct {
	gormstore.Model
	Name            string `gorm:"column:name;type:varchar(128)" json:"name" validate:"required,max=128"`
	FavouriteCities []City `gorm:"many2many:person_cities" json:"favourite_cities,omitempty"`
}

func (Person) TableName() string {
	return "people"
}

type City struct {
	gormstore.Model
	Name    string `gorm:"column:name;type:varchar(128)" json:"name" validate:"required,max=128"`
	Country string `gorm:"column:country;type:char(2)" json:"country" validate:"omitempty,len=2"`
}

func (City) TableName() string {
	return "cities"
}
