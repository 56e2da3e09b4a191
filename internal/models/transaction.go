package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction types that count as deposits for the review workflow.
const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeINRDeposit = "inr_deposit"
)

// Deposit review states.
const (
	DepositStatusUnverified = "unverified"
	DepositStatusVerified   = "verified"
)

// DepositTypes lists the transaction types the deposit admin console
// operates on.
var DepositTypes = []string{TransactionTypeDeposit, TransactionTypeINRDeposit}

// Transaction is a ledger entry for a user. Deposit-typed transactions carry
// the review fields; verification is a one-shot transition stamped by a
// deposit admin.
type Transaction struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	UserID    string             `bson:"userId" json:"userId"`
	Type      string             `bson:"type" json:"type"`
	Amount    float64            `bson:"amount" json:"amount"`
	Currency  string             `bson:"currency,omitempty" json:"currency,omitempty"`
	Status    string             `bson:"status,omitempty" json:"status,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`

	// Deposit review metadata.
	VerifiedBy string     `bson:"verifiedBy,omitempty" json:"verifiedBy,omitempty"`
	VerifiedAt *time.Time `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
	AdminNotes string     `bson:"adminNotes,omitempty" json:"adminNotes,omitempty"`

	// Free-form fields from the client (order ids, tx hashes, notes) are
	// preserved as-is.
	Extra map[string]interface{} `bson:",inline" json:"extra,omitempty"`
}

// IsDepositType reports whether the transaction belongs to the deposit
// review workflow.
func (t *Transaction) IsDepositType() bool {
	return t.Type == TransactionTypeDeposit || t.Type == TransactionTypeINRDeposit
}
