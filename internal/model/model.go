// Package model holds the movie shop entities as plain records.
//
// Money is decimal.Decimal, never float64. Pointer fields are nullable or
// have a storage default; a nil pointer leaves the column out of the insert.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Movie struct {
	ID               int
	Title            string
	Overview         *string
	Tagline          *string
	ImdbURL          *string
	TmdbURL          *string
	PosterURL        *string
	BackdropURL      *string
	OriginalLanguage *string
	ReleaseDate      *time.Time
	RunTime          *int
	Price            *decimal.Decimal
	Budget           *decimal.Decimal
	Revenue          *decimal.Decimal
	CreatedDate      *time.Time
	UpdatedDate      *time.Time
	CreatedBy        *string
	UpdatedBy        *string

	// Rating is the average review rating. It is not stored.
	Rating *decimal.Decimal
}

type Genre struct {
	ID   int
	Name *string
}

type Trailer struct {
	ID         int
	MovieID    int
	TrailerURL *string
	Name       *string
}

// Cast and Crew share the same shape
type Cast struct {
	ID          int
	Name        *string
	Gender      *string
	TmdbURL     *string
	ProfilePath *string
}

type Crew Cast

// MovieCast is one character played by a cast member in a movie
type MovieCast struct {
	MovieID   int
	CastID    int
	Character string
}

type Favorite struct {
	ID      int
	MovieID int
	UserID  int
}

type Purchase struct {
	ID               int
	UserID           int
	MovieID          int
	PurchaseNumber   uuid.UUID
	TotalPrice       decimal.Decimal
	PurchaseDateTime time.Time
}

type Review struct {
	MovieID    int
	UserID     int
	Rating     decimal.Decimal
	ReviewText *string
}

type Role struct {
	ID   int
	Name *string
}

type User struct {
	ID                int
	FirstName         *string
	LastName          *string
	DateOfBirth       *time.Time
	Email             *string
	HashedPassword    *string
	Salt              *string
	PhoneNumber       *string
	TwoFactorEnabled  *bool
	LockoutEndDate    *time.Time
	LastLoginDateTime *time.Time
	IsLocked          *bool
	AccessFailedCount *int
}
