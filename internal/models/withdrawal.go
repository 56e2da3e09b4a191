package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Withdrawal request lifecycle. Pending is the only state that admits a
// transition; executed and rejected are terminal.
const (
	WithdrawalStatusPending  = "pending_admin_execution"
	WithdrawalStatusExecuted = "executed"
	WithdrawalStatusRejected = "rejected"
)

// BankDetails carries the optional payout destination for INR-type
// withdrawals.
type BankDetails struct {
	AccountNumber string `bson:"accountNumber,omitempty" json:"accountNumber,omitempty"`
	IFSCCode      string `bson:"ifscCode,omitempty" json:"ifscCode,omitempty"`
	AccountHolder string `bson:"accountHolder,omitempty" json:"accountHolder,omitempty"`
}

// Withdrawal is a user-initiated payout request awaiting admin execution.
// Records are append-only: terminal transitions stamp their audit fields but
// nothing is ever deleted.
type Withdrawal struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	UserID       string             `bson:"userId" json:"userId"`
	UserAddress  string             `bson:"userAddress" json:"userAddress"`
	Crypto       string             `bson:"crypto" json:"crypto"`
	CryptoAmount float64            `bson:"cryptoAmount" json:"cryptoAmount"`
	InrAmount    float64            `bson:"inrAmount" json:"inrAmount"`
	TokenAddress string             `bson:"tokenAddress" json:"tokenAddress"`
	Type         string             `bson:"type" json:"type"`
	Status       string             `bson:"status" json:"status"`
	BankDetails  *BankDetails       `bson:"bankDetails,omitempty" json:"bankDetails,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`

	// Set on execute.
	ExecutedAt *time.Time `bson:"executedAt,omitempty" json:"executedAt,omitempty"`
	ExecutedBy string     `bson:"executedBy,omitempty" json:"executedBy,omitempty"`
	TxHash     string     `bson:"txHash,omitempty" json:"txHash,omitempty"`

	// Set on reject.
	RejectedAt      *time.Time `bson:"rejectedAt,omitempty" json:"rejectedAt,omitempty"`
	RejectedBy      string     `bson:"rejectedBy,omitempty" json:"rejectedBy,omitempty"`
	RejectionReason string     `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
}
