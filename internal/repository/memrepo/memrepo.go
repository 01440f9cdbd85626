// Package memrepo keeps every repository interface in process memory. It backs
// service and handler tests and mirrors the Postgres semantics: unique emails,
// one follow edge per (user, item), and cascading item deletion.
package memrepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"lostfound/internal/apperr"
	"lostfound/internal/models"
	"lostfound/internal/repository"
)

type followKey struct {
	userID string
	itemID string
}

// Store is the shared state behind the four repositories.
type Store struct {
	mu sync.RWMutex

	users    map[string]models.User
	items    map[string]models.Item
	follows  map[followKey]time.Time
	messages []models.Message
	last     time.Time

	// Now is the clock used for timestamps. Tests may replace it.
	Now func() time.Time
}

func New() *Store {
	return &Store{
		users:   make(map[string]models.User),
		items:   make(map[string]models.Item),
		follows: make(map[followKey]time.Time),
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// Repository exposes the store through the repository interfaces.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		User:    &userRepo{s},
		Item:    &itemRepo{s},
		Follow:  &followRepo{s},
		Message: &messageRepo{s},
	}
}

// now returns a strictly increasing timestamp so ordering by time is stable.
// Callers hold s.mu.
func (s *Store) now() time.Time {
	t := s.Now()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

type userRepo struct{ s *Store }

func (r *userRepo) CreateUser(_ context.Context, user *models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return apperr.Conflict("email %s is already registered", user.Email)
		}
	}

	user.UserID = uuid.New().String()
	user.PasswordHash = string(hash)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.s.now()
	}
	r.s.users[user.UserID] = *user
	return nil
}

func (r *userRepo) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[userID]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return &u, nil
}

func (r *userRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (r *userRepo) GetUserByVerificationToken(_ context.Context, token string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if token != "" {
		for _, u := range r.s.users {
			if u.VerificationToken == token {
				return &u, nil
			}
		}
	}
	return nil, apperr.NotFound("verification token not found")
}

func (r *userRepo) MarkVerified(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.Verified = true
	u.VerificationToken = ""
	r.s.users[userID] = u
	return nil
}

func (r *userRepo) VerifyPassword(ctx context.Context, email, password string) (*models.User, error) {
	u, err := r.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Auth("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Auth("Invalid credentials")
	}
	return u, nil
}

type itemRepo struct{ s *Store }

func cloneItem(item models.Item) models.Item {
	if item.Location != nil {
		loc := *item.Location
		if loc.Coordinates != nil {
			c := *loc.Coordinates
			loc.Coordinates = &c
		}
		item.Location = &loc
	}
	return item
}

func (r *itemRepo) Create(_ context.Context, item *models.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[item.OwnerID]; !ok {
		return apperr.NotFound("owner not found")
	}
	if item.ItemID == "" {
		item.ItemID = uuid.New().String()
	}
	now := r.s.now()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.s.items[item.ItemID] = cloneItem(*item)
	return nil
}

func (r *itemRepo) GetByID(_ context.Context, itemID string) (*models.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	item, ok := r.s.items[itemID]
	if !ok {
		return nil, apperr.NotFound("item not found")
	}
	item = cloneItem(item)
	return &item, nil
}

func matches(item models.Item, filter models.ItemFilter) bool {
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		if !strings.Contains(strings.ToLower(item.Name), q) && !strings.Contains(strings.ToLower(item.Description), q) {
			return false
		}
	}
	if filter.Category != "" && item.Category != filter.Category {
		return false
	}
	if filter.Building != "" && (item.Location == nil || item.Location.Building != filter.Building) {
		return false
	}
	return true
}

func sortNewestFirst(items []models.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ItemID < items[j].ItemID
	})
}

func (r *itemRepo) List(_ context.Context, filter models.ItemFilter) ([]models.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := make([]models.Item, 0, len(r.s.items))
	for _, item := range r.s.items {
		if matches(item, filter) {
			items = append(items, cloneItem(item))
		}
	}
	sortNewestFirst(items)
	return items, nil
}

func (r *itemRepo) ListByOwner(_ context.Context, ownerID string) ([]models.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := make([]models.Item, 0)
	for _, item := range r.s.items {
		if item.OwnerID == ownerID {
			items = append(items, cloneItem(item))
		}
	}
	sortNewestFirst(items)
	return items, nil
}

func (r *itemRepo) Update(_ context.Context, item *models.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.items[item.ItemID]
	if !ok {
		return apperr.NotFound("item not found")
	}
	item.OwnerID = stored.OwnerID
	item.CreatedAt = stored.CreatedAt
	item.UpdatedAt = r.s.now()
	r.s.items[item.ItemID] = cloneItem(*item)
	return nil
}

func (r *itemRepo) Delete(_ context.Context, itemID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.items[itemID]; !ok {
		return apperr.NotFound("item not found")
	}

	for key := range r.s.follows {
		if key.itemID == itemID {
			delete(r.s.follows, key)
		}
	}
	for i := range r.s.messages {
		if id := r.s.messages[i].ItemID; id != nil && *id == itemID {
			r.s.messages[i].ItemID = nil
		}
	}
	delete(r.s.items, itemID)
	return nil
}

type followRepo struct{ s *Store }

func (r *followRepo) Follow(_ context.Context, userID, itemID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.items[itemID]; !ok {
		return apperr.NotFound("item not found")
	}
	key := followKey{userID: userID, itemID: itemID}
	if _, ok := r.s.follows[key]; ok {
		return apperr.Conflict("already following")
	}
	r.s.follows[key] = r.s.now()
	return nil
}

func (r *followRepo) Unfollow(_ context.Context, userID, itemID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := followKey{userID: userID, itemID: itemID}
	if _, ok := r.s.follows[key]; !ok {
		return apperr.Conflict("not following")
	}
	delete(r.s.follows, key)
	return nil
}

func (r *followRepo) IsFollowing(_ context.Context, userID, itemID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.follows[followKey{userID: userID, itemID: itemID}]
	return ok, nil
}

func (r *followRepo) ListFollowedItems(_ context.Context, userID string) ([]models.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	type followed struct {
		item models.Item
		at   time.Time
	}
	var list []followed
	for key, at := range r.s.follows {
		if key.userID != userID {
			continue
		}
		if item, ok := r.s.items[key.itemID]; ok {
			list = append(list, followed{item: cloneItem(item), at: at})
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].at.Equal(list[j].at) {
			return list[i].at.After(list[j].at)
		}
		return list[i].item.ItemID < list[j].item.ItemID
	})

	items := make([]models.Item, 0, len(list))
	for _, f := range list {
		items = append(items, f.item)
	}
	return items, nil
}

type messageRepo struct{ s *Store }

// enrich joins the sender, recipient and item summaries. Callers hold s.mu.
func (r *messageRepo) enrich(msg models.Message) models.Message {
	if u, ok := r.s.users[msg.SenderID]; ok {
		summary := u.Summary()
		msg.Sender = &summary
	}
	if u, ok := r.s.users[msg.RecipientID]; ok {
		summary := u.Summary()
		msg.Recipient = &summary
	}
	msg.Item = nil
	if msg.ItemID != nil {
		id := *msg.ItemID
		msg.ItemID = &id
		if item, ok := r.s.items[id]; ok {
			msg.Item = &models.ItemSummary{ItemID: item.ItemID, Name: item.Name, ImageURL: item.ImageURL}
		}
	}
	return msg
}

func (r *messageRepo) Create(_ context.Context, message *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[message.SenderID]; !ok {
		return apperr.NotFound("recipient or item not found")
	}
	if _, ok := r.s.users[message.RecipientID]; !ok {
		return apperr.NotFound("recipient or item not found")
	}
	if message.ItemID != nil {
		if _, ok := r.s.items[*message.ItemID]; !ok {
			return apperr.NotFound("recipient or item not found")
		}
	}

	message.MessageID = uuid.New().String()
	message.Read = false
	if message.CreatedAt.IsZero() {
		message.CreatedAt = r.s.now()
	}

	stored := *message
	stored.Sender, stored.Recipient, stored.Item = nil, nil, nil
	r.s.messages = append(r.s.messages, stored)
	return nil
}

func (r *messageRepo) GetByID(_ context.Context, messageID string) (*models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, msg := range r.s.messages {
		if msg.MessageID == messageID {
			enriched := r.enrich(msg)
			return &enriched, nil
		}
	}
	return nil, apperr.NotFound("message not found")
}

func olderFirst(a, b models.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.MessageID < b.MessageID
}

func (r *messageRepo) ListThread(_ context.Context, userID, partnerID string) ([]models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	thread := make([]models.Message, 0)
	for _, msg := range r.s.messages {
		if (msg.SenderID == userID && msg.RecipientID == partnerID) ||
			(msg.SenderID == partnerID && msg.RecipientID == userID) {
			thread = append(thread, r.enrich(msg))
		}
	}
	sort.SliceStable(thread, func(i, j int) bool { return olderFirst(thread[i], thread[j]) })
	return thread, nil
}

func (r *messageRepo) MarkThreadRead(_ context.Context, recipientID, senderID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for i := range r.s.messages {
		msg := &r.s.messages[i]
		if msg.RecipientID == recipientID && msg.SenderID == senderID && !msg.Read {
			msg.Read = true
			n++
		}
	}
	return n, nil
}

func (r *messageRepo) CountUnread(_ context.Context, recipientID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, msg := range r.s.messages {
		if msg.RecipientID == recipientID && !msg.Read {
			count++
		}
	}
	return count, nil
}

func (r *messageRepo) ListConversations(_ context.Context, userID string) ([]models.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	latest := make(map[string]models.Message)
	unread := make(map[string]int)

	for _, msg := range r.s.messages {
		if msg.SenderID != userID && msg.RecipientID != userID {
			continue
		}
		partner := msg.PartnerOf(userID)
		if cur, ok := latest[partner]; !ok || olderFirst(cur, msg) {
			latest[partner] = msg
		}
		if msg.RecipientID == userID && !msg.Read {
			unread[partner]++
		}
	}

	conversations := make([]models.Conversation, 0, len(latest))
	for partnerID, msg := range latest {
		u, ok := r.s.users[partnerID]
		if !ok {
			continue
		}
		conversations = append(conversations, models.Conversation{
			Partner:       u.Summary(),
			LatestMessage: r.enrich(msg),
			UnreadCount:   unread[partnerID],
		})
	}
	sort.SliceStable(conversations, func(i, j int) bool {
		return olderFirst(conversations[j].LatestMessage, conversations[i].LatestMessage)
	})
	return conversations, nil
}
