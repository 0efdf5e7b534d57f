package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	t.Parallel()

	query, args, err := Select("id", "title").
		From("cards").
		Where(Eq("set_id", int64(3)), IsNull("release_date"), NotBlank("product_url")).
		OrderBy("id").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, title FROM cards WHERE set_id = $1 AND release_date IS NULL AND COALESCE(product_url, '') <> '' ORDER BY id LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != int64(3) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilderOrAndExpr(t *testing.T) {
	t.Parallel()

	query, args, err := Select("id").
		From("players").
		Where(
			Eq("is_active", true),
			Or(IsNull("mlb_player_id"), Expr("updated_at < ?", "2025-01-01")),
			NotNull("team_id"),
		).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id FROM players WHERE is_active = $1 AND (mlb_player_id IS NULL OR updated_at < $2) AND team_id IS NOT NULL"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[1] != "2025-01-01" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestEmptyOrAndInNeverMatch(t *testing.T) {
	t.Parallel()

	query, _, err := Select("id").From("cards").Where(Or(), In("id", nil)).ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if query != "SELECT id FROM cards WHERE 1=0 AND 1=0" {
		t.Fatalf("unexpected query: %s", query)
	}
}

func TestInsertBuilder(t *testing.T) {
	t.Parallel()

	query, args, err := InsertInto("players").
		Columns("full_name", "first_name").
		Values("Alex Bregman", "Alex").
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO players (full_name, first_name) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "Alex Bregman" || args[1] != "Alex" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	t.Parallel()

	query, args, err := Update("cards").
		Set("mlb_game_id", int64(778899)).
		SetExpr("updated_at", "NOW()").
		Where(Eq("id", int64(7))).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE cards SET mlb_game_id = $1, updated_at = NOW() WHERE id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != int64(778899) || args[1] != int64(7) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder(t *testing.T) {
	t.Parallel()

	query, args, err := DeleteFrom("job_executions").
		Where(Expr("finished_at < ?", "cutoff")).
		ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}
	if query != "DELETE FROM job_executions WHERE finished_at < $1" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 1 || args[0] != "cutoff" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := DeleteFrom("job_executions").ToSQL(); err == nil {
		t.Fatalf("expected error for unconditioned delete")
	}
}

type upsertRow struct {
	SetID      int64  `db:"set_id"`
	CardNumber string `db:"card_number"`
	Title      string `db:"title"`
	Ignored    string `db:"-"`
}

func TestUpsertModel(t *testing.T) {
	t.Parallel()

	query, args, err := UpsertModel("cards", upsertRow{SetID: 1, CardNumber: "OS-14", Title: "x"}, []string{"set_id", "card_number"}, ", updated_at = NOW() RETURNING id")
	if err != nil {
		t.Fatalf("build upsert query: %v", err)
	}

	wantQuery := "INSERT INTO cards (set_id, card_number, title) VALUES ($1, $2, $3) ON CONFLICT (set_id, card_number) DO UPDATE SET title = EXCLUDED.title, updated_at = NOW() RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpsertModelRequiresConflictColumns(t *testing.T) {
	t.Parallel()

	if _, _, err := UpsertModel("cards", upsertRow{}, nil, ""); err == nil {
		t.Fatalf("expected error without conflict columns")
	}
}
