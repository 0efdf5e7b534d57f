package app

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/topps-now-tracker/internal/config"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/jobscheduler"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/player"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/playerstats"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/rawdata"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/team"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/tournament"
	cacherepo "github.com/riskibarqy/topps-now-tracker/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/topps-now-tracker/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/topps-now-tracker/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/topps-now-tracker/internal/platform/cache"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
)

const teamCacheTTL = 30 * time.Minute

type stores struct {
	cards       card.Repository
	players     player.Repository
	teams       team.Repository
	statLines   playerstats.Repository
	tournaments tournament.Repository
	raw         rawdata.Repository
	executions  jobscheduler.Repository
	close       func() error
}

// openStores connects to postgres when DB_URL is set. Without it every
// repository lives in memory and nothing survives the process.
func openStores(ctx context.Context, cfg config.Config, logger *logging.Logger) (stores, error) {
	if !cfg.HasDatabase() {
		logger.Warn("DB_URL is empty, using in-memory storage")
		return newMemoryStores(), nil
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return stores{}, err
	}
	logger.Info("database connected", "db_name", dbNameFromURL(cfg.DBURL))
	return newPostgresStores(db), nil
}

func newPostgresStores(db *sqlx.DB) stores {
	return stores{
		cards:       postgres.NewCardRepository(db),
		players:     postgres.NewPlayerRepository(db),
		teams:       cacherepo.NewTeamRepository(postgres.NewTeamRepository(db), basecache.NewStore(teamCacheTTL)),
		statLines:   postgres.NewPlayerStatsRepository(db),
		tournaments: postgres.NewTournamentRepository(db),
		raw:         postgres.NewRawDataRepository(db),
		executions:  postgres.NewExecutionRepository(db),
		close:       db.Close,
	}
}

func newMemoryStores() stores {
	teams := memory.NewTeamRepository(nil)
	return stores{
		cards:       memory.NewCardRepository(teams),
		players:     memory.NewPlayerRepository(nil),
		teams:       teams,
		statLines:   memory.NewPlayerStatsRepository(),
		tournaments: memory.NewTournamentRepository(),
		raw:         memory.NewRawDataRepository(),
		executions:  memory.NewExecutionRepository(),
		close:       func() error { return nil },
	}
}
