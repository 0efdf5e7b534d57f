package card

import (
	"context"
	"time"
)

// Query selects cards for enrichment steps. Zero-valued flags do not filter.
// HasProductURL requires the short form; HasAnyProductURL accepts either
// form. A Limit <= 0 means unlimited.
type Query struct {
	RequireTitle       bool
	MissingProductURL  bool
	HasProductURL      bool
	HasAnyProductURL   bool
	MissingImageURL    bool
	MissingReleaseDate bool
	HasReleaseDate     bool
	MissingGameID      bool
	TeamHasExternalID  bool
	CardNumber         string
	Limit              int
}

type Repository interface {
	GetOrCreateSet(ctx context.Context, year int) (Set, error)
	Upsert(ctx context.Context, draft Draft) (Card, bool, error)
	GetByNumber(ctx context.Context, setID int64, cardNumber string) (Card, bool, error)
	List(ctx context.Context, query Query) ([]Card, error)
	Count(ctx context.Context) (int, error)
	UpdateTitle(ctx context.Context, cardID int64, title string) error
	UpdateProductURLs(ctx context.Context, cardID int64, urls URLs) error
	UpdateReleaseDate(ctx context.Context, cardID int64, date time.Time) error
	UpdateImageURL(ctx context.Context, cardID int64, imageURL string) error
	UpdateGameID(ctx context.Context, cardID int64, gameID int64) error
	AssignTeamForPlayer(ctx context.Context, playerID, teamID int64) (int64, error)
}
