package models

import (
	"time"
)

// DateLayout is the wire and storage format of Item.DateFound.
const DateLayout = "2006-01-02"

type User struct {
	UserID            string    `json:"userId" db:"user_id"`
	Email             string    `json:"email" db:"email"`
	Name              string    `json:"name" db:"name"`
	PasswordHash      string    `json:"-" db:"password_hash"`
	Verified          bool      `json:"verified" db:"verified"`
	VerificationToken string    `json:"-" db:"verification_token"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}

// UserSummary is the public profile joined onto messages and conversations.
type UserSummary struct {
	UserID string `json:"userId" db:"user_id"`
	Name   string `json:"name" db:"name"`
	Email  string `json:"email" db:"email"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{UserID: u.UserID, Name: u.Name, Email: u.Email}
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is the optional building + coordinates payload of an item.
type Location struct {
	Building    string       `json:"building"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Item struct {
	ItemID      string    `json:"itemId" db:"item_id"`
	OwnerID     string    `json:"ownerId" db:"owner_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	DateFound   string    `json:"dateFound" db:"date_found"`
	Location    *Location `json:"location,omitempty" db:"-"`
	ImageURL    string    `json:"imageUrl,omitempty" db:"image_url"`
	ImageKey    string    `json:"-" db:"image_key"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// ItemSummary is the item context joined onto messages.
type ItemSummary struct {
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// ItemFilter narrows ListItems. Empty fields match everything.
type ItemFilter struct {
	Query    string
	Category string
	Building string
}

type Follow struct {
	UserID    string    `json:"userId" db:"user_id"`
	ItemID    string    `json:"itemId" db:"item_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Message struct {
	MessageID   string       `json:"messageId" db:"message_id"`
	SenderID    string       `json:"senderId" db:"sender_id"`
	RecipientID string       `json:"recipientId" db:"recipient_id"`
	ItemID      *string      `json:"itemId,omitempty" db:"item_id"`
	Content     string       `json:"content" db:"content"`
	Read        bool         `json:"read" db:"read"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
	Sender      *UserSummary `json:"sender,omitempty" db:"-"`
	Recipient   *UserSummary `json:"recipient,omitempty" db:"-"`
	Item        *ItemSummary `json:"item,omitempty" db:"-"`
}

// PartnerOf returns the other participant of the message from userID's side.
func (m *Message) PartnerOf(userID string) string {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// Conversation is derived on every read and never stored.
type Conversation struct {
	Partner       UserSummary `json:"partner"`
	LatestMessage Message     `json:"latestMessage"`
	UnreadCount   int         `json:"unreadCount"`
}
