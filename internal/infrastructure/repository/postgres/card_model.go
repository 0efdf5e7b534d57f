package postgres

import (
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
)

type cardSetTableModel struct {
	ID        int64     `db:"id"`
	Year      int       `db:"year"`
	Name      string    `db:"name"`
	Brand     string    `db:"brand"`
	Slug      string    `db:"slug"`
	CreatedAt time.Time `db:"created_at"`
}

type cardSetInsertModel struct {
	Year  int    `db:"year"`
	Name  string `db:"name"`
	Brand string `db:"brand"`
	Slug  string `db:"slug"`
}

type cardTableModel struct {
	ID             int64      `db:"id"`
	SetID          int64      `db:"set_id"`
	SetYear        int        `db:"set_year"`
	CardNumber     string     `db:"card_number"`
	Kind           string     `db:"kind"`
	Category       string     `db:"category"`
	PlayerID       int64      `db:"player_id"`
	TeamID         *int64     `db:"team_id"`
	Title          string     `db:"title"`
	SourceTitle    string     `db:"source_title"`
	TotalPrint     *int       `db:"total_print"`
	ImageURL       string     `db:"image_url"`
	DetailURL      string     `db:"detail_url"`
	ProductURL     string     `db:"product_url"`
	ProductURLLong string     `db:"product_url_long"`
	ReleaseDate    *time.Time `db:"release_date"`
	GameID         *int64     `db:"game_id"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// cardDraftModel holds the columns a scrape is allowed to write.
type cardDraftModel struct {
	SetID       int64  `db:"set_id"`
	CardNumber  string `db:"card_number"`
	Kind        string `db:"kind"`
	Category    string `db:"category"`
	PlayerID    int64  `db:"player_id"`
	TeamID      *int64 `db:"team_id"`
	Title       string `db:"title"`
	SourceTitle string `db:"source_title"`
	TotalPrint  *int   `db:"total_print"`
	ImageURL    string `db:"image_url"`
	DetailURL   string `db:"detail_url"`
}

func (m cardSetTableModel) toDomain() card.Set {
	return card.Set{
		ID:    m.ID,
		Year:  m.Year,
		Name:  m.Name,
		Brand: m.Brand,
		Slug:  m.Slug,
	}
}

func (m cardTableModel) toDomain() card.Card {
	out := card.Card{
		ID:             m.ID,
		SetID:          m.SetID,
		SetYear:        m.SetYear,
		CardNumber:     m.CardNumber,
		Kind:           cardKind(m.Kind, m.CardNumber),
		Category:       m.Category,
		PlayerID:       m.PlayerID,
		TeamID:         m.TeamID,
		Title:          m.Title,
		SourceTitle:    m.SourceTitle,
		TotalPrint:     m.TotalPrint,
		ImageURL:       m.ImageURL,
		DetailURL:      m.DetailURL,
		ProductURL:     m.ProductURL,
		ProductURLLong: m.ProductURLLong,
		GameID:         m.GameID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.ReleaseDate != nil {
		d := m.ReleaseDate.UTC()
		out.ReleaseDate = &d
	}
	return out
}

func draftToModel(draft card.Draft) cardDraftModel {
	return cardDraftModel{
		SetID:       draft.SetID,
		CardNumber:  draft.Identity.CardNumber(),
		Kind:        string(draft.Identity.Kind),
		Category:    draft.Identity.Category,
		PlayerID:    draft.PlayerID,
		TeamID:      draft.TeamID,
		Title:       draft.Title,
		SourceTitle: draft.SourceTitle,
		TotalPrint:  draft.TotalPrint,
		ImageURL:    draft.ImageURL,
		DetailURL:   draft.DetailURL,
	}
}

// cardKind falls back to the number's namespace when the stored kind is blank.
func cardKind(stored, number string) card.Kind {
	if stored != "" {
		return card.Kind(stored)
	}
	return card.ParseCardNumber(number).Kind
}
