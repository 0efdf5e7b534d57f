package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
	qb "github.com/riskibarqy/topps-now-tracker/internal/platform/querybuilder"
)

const cardsFrom = "cards c JOIN card_sets s ON s.id = c.set_id"

var cardSelectColumns = []string{
	"c.id",
	"c.set_id",
	"s.year AS set_year",
	"c.card_number",
	"c.kind",
	"c.category",
	"c.player_id",
	"c.team_id",
	"c.title",
	"c.source_title",
	"c.total_print",
	"c.image_url",
	"c.detail_url",
	"c.product_url",
	"c.product_url_long",
	"c.release_date",
	"c.game_id",
	"c.created_at",
	"c.updated_at",
}

// Optional scraped fields only overwrite when the incoming value is present.
// Product URLs, release date and game id are never touched by an upsert.
const cardUpsertSuffix = `ON CONFLICT (set_id, card_number) DO UPDATE SET
    kind = EXCLUDED.kind,
    category = EXCLUDED.category,
    player_id = EXCLUDED.player_id,
    title = EXCLUDED.title,
    team_id = COALESCE(EXCLUDED.team_id, cards.team_id),
    source_title = COALESCE(NULLIF(EXCLUDED.source_title, ''), cards.source_title),
    total_print = COALESCE(EXCLUDED.total_print, cards.total_print),
    image_url = COALESCE(NULLIF(EXCLUDED.image_url, ''), cards.image_url),
    detail_url = COALESCE(NULLIF(EXCLUDED.detail_url, ''), cards.detail_url),
    updated_at = NOW()
RETURNING id, (xmax = 0) AS inserted`

type CardRepository struct {
	db *sqlx.DB
}

func NewCardRepository(db *sqlx.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) GetOrCreateSet(ctx context.Context, year int) (card.Set, error) {
	if year <= 0 {
		return card.Set{}, fmt.Errorf("set year must be > 0")
	}

	insertModel := cardSetInsertModel{
		Year:  year,
		Name:  card.SetName,
		Brand: card.SetBrand,
		Slug:  card.SetSlug(year),
	}
	query, args, err := qb.InsertModel("card_sets", insertModel, "ON CONFLICT (year) DO UPDATE SET year = EXCLUDED.year RETURNING *")
	if err != nil {
		return card.Set{}, fmt.Errorf("build upsert card set query: %w", err)
	}

	var row cardSetTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return card.Set{}, fmt.Errorf("upsert card set year=%d: %w", year, err)
	}
	return row.toDomain(), nil
}

func (r *CardRepository) Upsert(ctx context.Context, draft card.Draft) (card.Card, bool, error) {
	if err := draft.Validate(); err != nil {
		return card.Card{}, false, err
	}

	query, args, err := qb.InsertModel("cards", draftToModel(draft), cardUpsertSuffix)
	if err != nil {
		return card.Card{}, false, fmt.Errorf("build upsert card query: %w", err)
	}

	var result struct {
		ID       int64 `db:"id"`
		Inserted bool  `db:"inserted"`
	}
	if err := r.db.GetContext(ctx, &result, query, args...); err != nil {
		return card.Card{}, false, fmt.Errorf("upsert card number=%s: %w", draft.Identity.CardNumber(), err)
	}

	item, ok, err := r.getOne(ctx, qb.Eq("c.id", result.ID))
	if err != nil {
		return card.Card{}, false, err
	}
	if !ok {
		return card.Card{}, false, fmt.Errorf("card %d vanished after upsert", result.ID)
	}
	return item, result.Inserted, nil
}

func (r *CardRepository) GetByNumber(ctx context.Context, setID int64, cardNumber string) (card.Card, bool, error) {
	return r.getOne(ctx, qb.Eq("c.set_id", setID), qb.Eq("c.card_number", cardNumber))
}

func (r *CardRepository) getOne(ctx context.Context, conditions ...qb.Condition) (card.Card, bool, error) {
	query, args, err := qb.Select(cardSelectColumns...).From(cardsFrom).Where(conditions...).Limit(1).ToSQL()
	if err != nil {
		return card.Card{}, false, fmt.Errorf("build select card query: %w", err)
	}

	var row cardTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return card.Card{}, false, nil
		}
		return card.Card{}, false, fmt.Errorf("select card: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *CardRepository) List(ctx context.Context, query card.Query) ([]card.Card, error) {
	sqlQuery, args, err := qb.Select(cardSelectColumns...).From(cardsFrom).
		Where(cardConditions(query)...).
		OrderBy("c.id").
		Limit(query.Limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select cards query: %w", err)
	}

	var rows []cardTableModel
	if err := r.db.SelectContext(ctx, &rows, sqlQuery, args...); err != nil {
		return nil, fmt.Errorf("select cards: %w", err)
	}

	out := make([]card.Card, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func cardConditions(q card.Query) []qb.Condition {
	var conds []qb.Condition
	if q.RequireTitle {
		conds = append(conds, qb.NotBlank("c.title"))
	}
	if q.MissingProductURL {
		conds = append(conds, qb.Blank("c.product_url"))
	}
	if q.HasProductURL {
		conds = append(conds, qb.NotBlank("c.product_url"))
	}
	if q.HasAnyProductURL {
		conds = append(conds, qb.Or(qb.NotBlank("c.product_url"), qb.NotBlank("c.product_url_long")))
	}
	if q.MissingImageURL {
		conds = append(conds, qb.Blank("c.image_url"))
	}
	if q.MissingReleaseDate {
		conds = append(conds, qb.IsNull("c.release_date"))
	}
	if q.HasReleaseDate {
		conds = append(conds, qb.NotNull("c.release_date"))
	}
	if q.MissingGameID {
		conds = append(conds, qb.IsNull("c.game_id"))
	}
	if q.TeamHasExternalID {
		conds = append(conds, qb.Expr("c.team_id IN (SELECT id FROM teams WHERE external_id IS NOT NULL)"))
	}
	if q.CardNumber != "" {
		conds = append(conds, qb.Eq("c.card_number", q.CardNumber))
	}
	return conds
}

func (r *CardRepository) Count(ctx context.Context) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("cards").ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count cards query: %w", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

func (r *CardRepository) UpdateTitle(ctx context.Context, cardID int64, title string) error {
	return r.update(ctx, cardID, qb.Update("cards").Set("title", title))
}

func (r *CardRepository) UpdateProductURLs(ctx context.Context, cardID int64, urls card.URLs) error {
	builder := qb.Update("cards").Set("product_url", urls.Short)
	if urls.Long != "" {
		builder = builder.Set("product_url_long", urls.Long)
	}
	return r.update(ctx, cardID, builder)
}

func (r *CardRepository) UpdateReleaseDate(ctx context.Context, cardID int64, date time.Time) error {
	return r.update(ctx, cardID, qb.Update("cards").Set("release_date", date.UTC()))
}

func (r *CardRepository) UpdateImageURL(ctx context.Context, cardID int64, imageURL string) error {
	return r.update(ctx, cardID, qb.Update("cards").Set("image_url", imageURL))
}

func (r *CardRepository) UpdateGameID(ctx context.Context, cardID int64, gameID int64) error {
	return r.update(ctx, cardID, qb.Update("cards").Set("game_id", gameID))
}

func (r *CardRepository) update(ctx context.Context, cardID int64, builder *qb.UpdateBuilder) error {
	query, args, err := builder.SetExpr("updated_at", "NOW()").Where(qb.Eq("id", cardID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build update card query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update card %d: %w", cardID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read updated card rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("card %d not found", cardID)
	}
	return nil
}

// AssignTeamForPlayer fills the team on the player's cards that have none.
func (r *CardRepository) AssignTeamForPlayer(ctx context.Context, playerID, teamID int64) (int64, error) {
	query, args, err := qb.Update("cards").
		Set("team_id", teamID).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("player_id", playerID), qb.IsNull("team_id")).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build assign card team query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("assign team to cards of player %d: %w", playerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read assigned card rows: %w", err)
	}
	return n, nil
}
