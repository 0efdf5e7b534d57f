package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
)

type cardKey struct {
	setID  int64
	number string
}

type CardRepository struct {
	mu        sync.RWMutex
	teams     *TeamRepository
	sets      map[int]card.Set
	nextSetID int64
	cards     map[int64]card.Card
	byKey     map[cardKey]int64
	nextID    int64
	now       func() time.Time
}

// NewCardRepository returns an empty store. teams backs the
// TeamHasExternalID filter and may be nil.
func NewCardRepository(teams *TeamRepository) *CardRepository {
	return &CardRepository{
		teams: teams,
		sets:  make(map[int]card.Set),
		cards: make(map[int64]card.Card),
		byKey: make(map[cardKey]int64),
		now:   time.Now,
	}
}

func (r *CardRepository) GetOrCreateSet(_ context.Context, year int) (card.Set, error) {
	if year <= 0 {
		return card.Set{}, fmt.Errorf("set year must be > 0")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sets[year]; ok {
		return s, nil
	}
	r.nextSetID++
	s := card.Set{
		ID:    r.nextSetID,
		Year:  year,
		Name:  card.SetName,
		Brand: card.SetBrand,
		Slug:  card.SetSlug(year),
	}
	r.sets[year] = s
	return s, nil
}

func (r *CardRepository) Upsert(_ context.Context, draft card.Draft) (card.Card, bool, error) {
	if err := draft.Validate(); err != nil {
		return card.Card{}, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	key := cardKey{setID: draft.SetID, number: draft.Identity.CardNumber()}
	if id, ok := r.byKey[key]; ok {
		existing := r.cards[id]
		applyDraft(&existing, draft)
		existing.UpdatedAt = now
		r.cards[id] = existing
		return existing, false, nil
	}

	r.nextID++
	item := card.Card{
		ID:         r.nextID,
		SetID:      draft.SetID,
		SetYear:    r.setYear(draft.SetID),
		CardNumber: key.number,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyDraft(&item, draft)
	r.cards[item.ID] = item
	r.byKey[key] = item.ID
	return item, true, nil
}

// applyDraft overwrites descriptive fields. Optional fields missing from the
// draft keep their stored value.
func applyDraft(item *card.Card, draft card.Draft) {
	item.Kind = draft.Identity.Kind
	item.Category = draft.Identity.Category
	item.PlayerID = draft.PlayerID
	item.Title = draft.Title
	if draft.TeamID != nil {
		item.TeamID = int64Ptr(*draft.TeamID)
	}
	if draft.SourceTitle != "" {
		item.SourceTitle = draft.SourceTitle
	}
	if draft.TotalPrint != nil {
		v := *draft.TotalPrint
		item.TotalPrint = &v
	}
	if draft.ImageURL != "" {
		item.ImageURL = draft.ImageURL
	}
	if draft.DetailURL != "" {
		item.DetailURL = draft.DetailURL
	}
}

func (r *CardRepository) setYear(setID int64) int {
	for year, s := range r.sets {
		if s.ID == setID {
			return year
		}
	}
	return 0
}

func (r *CardRepository) GetByNumber(_ context.Context, setID int64, cardNumber string) (card.Card, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[cardKey{setID: setID, number: cardNumber}]
	if !ok {
		return card.Card{}, false, nil
	}
	return r.cards[id], true, nil
}

func (r *CardRepository) List(_ context.Context, query card.Query) ([]card.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]card.Card, 0, len(r.cards))
	for _, item := range r.cards {
		if r.matches(item, query) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (r *CardRepository) matches(item card.Card, q card.Query) bool {
	switch {
	case q.RequireTitle && strings.TrimSpace(item.Title) == "":
		return false
	case q.MissingProductURL && item.ProductURL != "":
		return false
	case q.HasProductURL && item.ProductURL == "":
		return false
	case q.HasAnyProductURL && item.ProductURL == "" && item.ProductURLLong == "":
		return false
	case q.MissingImageURL && item.ImageURL != "":
		return false
	case q.MissingReleaseDate && item.ReleaseDate != nil:
		return false
	case q.HasReleaseDate && item.ReleaseDate == nil:
		return false
	case q.MissingGameID && item.GameID != nil:
		return false
	case q.CardNumber != "" && item.CardNumber != q.CardNumber:
		return false
	}
	if q.TeamHasExternalID {
		if item.TeamID == nil || r.teams == nil {
			return false
		}
		t, ok, _ := r.teams.GetByID(context.Background(), *item.TeamID)
		if !ok || !t.HasExternalID() {
			return false
		}
	}
	return true
}

func (r *CardRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cards), nil
}

func (r *CardRepository) UpdateTitle(_ context.Context, cardID int64, title string) error {
	return r.update(cardID, func(item *card.Card) { item.Title = title })
}

func (r *CardRepository) UpdateProductURLs(_ context.Context, cardID int64, urls card.URLs) error {
	return r.update(cardID, func(item *card.Card) {
		item.ProductURL = urls.Short
		if urls.Long != "" {
			item.ProductURLLong = urls.Long
		}
	})
}

func (r *CardRepository) UpdateReleaseDate(_ context.Context, cardID int64, date time.Time) error {
	return r.update(cardID, func(item *card.Card) {
		d := date.UTC()
		item.ReleaseDate = &d
	})
}

func (r *CardRepository) UpdateImageURL(_ context.Context, cardID int64, imageURL string) error {
	return r.update(cardID, func(item *card.Card) { item.ImageURL = imageURL })
}

func (r *CardRepository) UpdateGameID(_ context.Context, cardID int64, gameID int64) error {
	return r.update(cardID, func(item *card.Card) { item.GameID = int64Ptr(gameID) })
}

func (r *CardRepository) AssignTeamForPlayer(_ context.Context, playerID, teamID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, item := range r.cards {
		if item.PlayerID != playerID || item.TeamID != nil {
			continue
		}
		item.TeamID = int64Ptr(teamID)
		item.UpdatedAt = r.now().UTC()
		r.cards[id] = item
		n++
	}
	return n, nil
}

func (r *CardRepository) update(cardID int64, apply func(*card.Card)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.cards[cardID]
	if !ok {
		return fmt.Errorf("card %d not found", cardID)
	}
	apply(&item)
	item.UpdatedAt = r.now().UTC()
	r.cards[cardID] = item
	return nil
}

func int64Ptr(v int64) *int64 {
	return &v
}
