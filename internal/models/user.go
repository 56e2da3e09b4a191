package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a platform account. Balance fields are mutated only through atomic
// increments, never overwritten, so concurrent settlements cannot lose
// updates.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	UID            string             `bson:"uid" json:"uid"`
	Email          string             `bson:"email" json:"email"`
	DisplayName    string             `bson:"displayName,omitempty" json:"displayName,omitempty"`
	INRBalance     float64            `bson:"inrBalance" json:"inrBalance"`
	CryptoBalances map[string]float64 `bson:"cryptoBalances,omitempty" json:"cryptoBalances,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
