package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"bdbooking/internal/adapters/observability"
	"bdbooking/internal/domain"
	"bdbooking/internal/shared"
	mysqlrepo "bdbooking/internal/storage/mysql"
)

type seedRoomNumber struct {
	ID     int64 `json:"id"`
	Number int   `json:"number"`
}

type seedRoom struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Price       int64            `json:"price"`
	MaxPeople   int              `json:"maxPeople"`
	Description string           `json:"description"`
	RoomNumbers []seedRoomNumber `json:"roomNumbers"`
}

type seedHotel struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	City          string     `json:"city"`
	Address       string     `json:"address"`
	Description   string     `json:"description"`
	Photos        []string   `json:"photos"`
	CheapestPrice int64      `json:"cheapestPrice"`
	Featured      bool       `json:"featured"`
	Rooms         []seedRoom `json:"rooms"`
}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("file", cfg.SeedFile).
		Int("workers", cfg.SeedWorkers).
		Msg("seeder starting")

	raw, err := os.ReadFile(cfg.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("read seed file failed")
	}
	var hotels []seedHotel
	if err := json.Unmarshal(raw, &hotels); err != nil {
		log.Fatal().Err(err).Msg("parse seed file failed")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	sem := semaphore.NewWeighted(int64(cfg.SeedWorkers))
	var wg sync.WaitGroup

	for _, sh := range hotels {
		sh := sh

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(sh seedHotel) {
			defer wg.Done()
			defer sem.Release(1)

			if err := seedOne(ctx, repo, sh); err != nil {
				log.Warn().Int64("hotel", sh.ID).Err(err).Msg("seed failed")
				return
			}
			log.Info().Int64("hotel", sh.ID).Int("rooms", len(sh.Rooms)).Msg("seed ok")
		}(sh)
	}

	wg.Wait()
	log.Info().Msg("seeding completed")
}

func seedOne(ctx context.Context, repo *mysqlrepo.Repo, sh seedHotel) error {
	hotelID, err := repo.UpsertHotel(ctx, domain.Hotel{
		ID:            sh.ID,
		Name:          sh.Name,
		City:          sh.City,
		Address:       sh.Address,
		Description:   sh.Description,
		Photos:        sh.Photos,
		CheapestPrice: sh.CheapestPrice,
		Featured:      sh.Featured,
	})
	if err != nil {
		return err
	}
	for _, sr := range sh.Rooms {
		rm := domain.Room{
			ID:          sr.ID,
			HotelID:     hotelID,
			Title:       sr.Title,
			Price:       sr.Price,
			MaxPeople:   sr.MaxPeople,
			Description: sr.Description,
		}
		for _, rn := range sr.RoomNumbers {
			rm.RoomNumbers = append(rm.RoomNumbers, domain.RoomNumber{ID: rn.ID, RoomID: sr.ID, Number: rn.Number})
		}
		if err := repo.UpsertRoom(ctx, rm); err != nil {
			return err
		}
	}
	return nil
}
