package models

import "time"

// Subscriber is a newsletter subscription.
type Subscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Confirmed bool      `json:"confirmed"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

type SubscribeStatus string

const (
	SubscribePending          SubscribeStatus = "pending_confirmation"
	SubscribeAlreadyConfirmed SubscribeStatus = "already_confirmed"
)

type ConfirmStatus string

const (
	ConfirmInvalid   ConfirmStatus = "invalid"
	ConfirmAlready   ConfirmStatus = "already"
	ConfirmConfirmed ConfirmStatus = "confirmed"
)
