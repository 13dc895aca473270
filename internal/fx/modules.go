package fx

import (
	"database/sql"
	"time"

	"squad-ladder/internal/archive"
	"squad-ladder/internal/config"
	"squad-ladder/internal/database"
	"squad-ladder/internal/db"
	"squad-ladder/internal/logger"
	"squad-ladder/internal/repository"
	"squad-ladder/internal/server"
	"squad-ladder/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

func ProvideClock() service.Clock {
	return time.Now
}

func ProvideArchiver(cfg *config.Config, store *repository.ArchiveRepository, logger zerolog.Logger) *archive.Multi {
	return archive.New(cfg, store, logger)
}

type IngestParams struct {
	fx.In

	Config    *config.Config
	Tx        *repository.TxManager
	Seasons   *repository.SeasonRepository
	Results   *repository.ResultRepository
	Kills     *repository.KillEventRepository
	Stats     *repository.StatsRepository
	Directory *repository.DirectoryRepository
	Profiles  *repository.ProfileRepository
	Archiver  *archive.Multi
	Clock     service.Clock
	Logger    zerolog.Logger
}

func ProvideIngestService(p IngestParams) *service.IngestService {
	return service.NewIngestService(service.Deps{
		Tx:           p.Tx,
		Seasons:      p.Seasons,
		Results:      p.Results,
		Kills:        p.Kills,
		Stats:        p.Stats,
		Directory:    p.Directory,
		Profiles:     p.Profiles,
		Archiver:     p.Archiver,
		Clock:        p.Clock,
		Logger:       p.Logger,
		KillWindow:   p.Config.KillWindow,
		TxMaxRetries: p.Config.TxMaxRetries,
	})
}

type LadderParams struct {
	fx.In

	Seasons   *repository.SeasonRepository
	Stats     *repository.StatsRepository
	Directory *repository.DirectoryRepository
	Profiles  *repository.ProfileRepository
	Archive   *repository.ArchiveRepository
	Ingest    *service.IngestService
	Clock     service.Clock
	Logger    zerolog.Logger
}

func ProvideLadderService(p LadderParams) *service.LadderService {
	return service.NewLadderService(p.Seasons, p.Stats, p.Directory, p.Profiles, p.Archive, p.Ingest, p.Clock, p.Logger)
}

// Core is everything except the network surface. The CLI runs on it alone.
var Core = fx.Options(
	logger.Module,
	config.Module,
	fx.Module("ladder",
		logger.Leveled,
		fx.Provide(database.New),
		fx.Provide(ProvideQueries),
		// repos
		fx.Provide(repository.NewTxManager),
		fx.Provide(repository.NewSeasonRepository),
		fx.Provide(repository.NewResultRepository),
		fx.Provide(repository.NewKillEventRepository),
		fx.Provide(repository.NewStatsRepository),
		fx.Provide(repository.NewDirectoryRepository),
		fx.Provide(repository.NewProfileRepository),
		fx.Provide(repository.NewArchiveRepository),
		// archive sinks
		fx.Provide(ProvideArchiver),
		// svc
		fx.Provide(ProvideClock),
		fx.Provide(ProvideIngestService),
		fx.Provide(ProvideLadderService),
	),
)

var Module = fx.Options(
	Core,
	fx.Module("server",
		logger.Leveled,
		fx.Provide(server.NewLadderServer),
	),
)
