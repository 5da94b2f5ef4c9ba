package main

import (
	"context"
	"embed"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"natours/internal/auth"
	"natours/internal/cache"
	"natours/internal/config"
	"natours/internal/db"
	"natours/internal/logging"
	"natours/internal/model"
	"natours/internal/repository"
	"natours/internal/service"
)

//go:embed data/*.json
var devData embed.FS

type seedUser struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
	Photo    string     `json:"photo"`
	Password string     `json:"password"`
}

type seedTour struct {
	ID uuid.UUID `json:"id"`
	service.TourInput
}

type seedReview struct {
	Review string    `json:"review"`
	Rating int       `json:"rating"`
	Tour   uuid.UUID `json:"tour"`
	User   uuid.UUID `json:"user"`
}

type dataset struct {
	Users   []seedUser
	Tours   []seedTour
	Reviews []seedReview
}

func main() {
	doImport := flag.Bool("import", false, "import the development data")
	doDelete := flag.Bool("delete", false, "delete all users, tours, reviews and bookings")
	dir := flag.String("dir", "", "read users.json, tours.json and reviews.json from this directory instead of the built-in set")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(logging.Config{Service: "natours-seed", Env: cfg.AppEnv, Level: cfg.LogLevel, Format: "text"})

	if *doImport == *doDelete {
		logger.Error("pass exactly one of -import or -delete")
		os.Exit(2)
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Error("database init", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gormDB, false, logger); err != nil {
		logger.Error("database migrate", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if *doDelete {
		if err := deleteData(ctx, gormDB); err != nil {
			logger.Error("delete data", "error", err)
			os.Exit(1)
		}
		logger.Info("data successfully deleted")
		return
	}

	var fsys fs.FS
	if *dir != "" {
		fsys = os.DirFS(*dir)
	} else {
		fsys, _ = fs.Sub(devData, "data")
	}
	data, err := loadDataset(fsys)
	if err != nil {
		logger.Error("load data", "error", err)
		os.Exit(1)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	users := repository.NewUserRepository(gormDB)
	s := &seeder{
		users:   users,
		reviews: repository.NewReviewRepository(gormDB),
		tours:   service.NewTourService(repository.NewTourRepository(gormDB), users, cacheClient),
		hasher:  auth.NewHasher(cfg.BcryptCost),
		logger:  logger,
	}
	if err := s.importData(ctx, data); err != nil {
		logger.Error("import data", "error", err)
		os.Exit(1)
	}
	logger.Info("data successfully loaded",
		"users", len(data.Users), "tours", len(data.Tours), "reviews", len(data.Reviews))
}

func loadDataset(fsys fs.FS) (*dataset, error) {
	var d dataset
	files := []struct {
		name string
		dst  any
	}{
		{"users.json", &d.Users},
		{"tours.json", &d.Tours},
		{"reviews.json", &d.Reviews},
	}
	for _, f := range files {
		raw, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.name, err)
		}
	}
	return &d, nil
}

type seeder struct {
	users   repository.UserRepository
	reviews repository.ReviewRepository
	tours   service.TourService
	hasher  *auth.Hasher
	logger  *slog.Logger
}

// importData inserts users first so tour guides and review authors resolve.
// Tours get fresh IDs; reviews are remapped onto them.
func (s *seeder) importData(ctx context.Context, d *dataset) error {
	for _, u := range d.Users {
		hash := u.Password
		if !strings.HasPrefix(hash, "$2") {
			var err error
			if hash, err = s.hasher.HashPassword(ctx, u.Password); err != nil {
				return fmt.Errorf("hash password of %s: %w", u.Email, err)
			}
		}
		user := &model.User{
			ID:       u.ID,
			Name:     u.Name,
			Email:    model.NormalizeEmail(u.Email),
			Role:     u.Role,
			Photo:    u.Photo,
			Password: hash,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return fmt.Errorf("create user %s: %w", u.Email, err)
		}
	}

	tourIDs := make(map[uuid.UUID]uuid.UUID, len(d.Tours))
	for _, t := range d.Tours {
		created, err := s.tours.Create(ctx, t.TourInput)
		if err != nil {
			return fmt.Errorf("create tour %s: %w", t.ID, err)
		}
		tourIDs[t.ID] = created.ID
	}

	for i, r := range d.Reviews {
		tourID, ok := tourIDs[r.Tour]
		if !ok {
			s.logger.Warn("skipping review of unknown tour", "index", i, "tour", r.Tour)
			continue
		}
		review := &model.Review{Review: r.Review, Rating: r.Rating, TourID: tourID, UserID: r.User}
		if err := review.Validate(); err != nil {
			return fmt.Errorf("review %d: %w", i, err)
		}
		if err := s.reviews.Create(ctx, review); err != nil {
			return fmt.Errorf("create review %d: %w", i, err)
		}
	}
	return nil
}

// deleteData empties every table in dependency order.
func deleteData(ctx context.Context, gormDB *gorm.DB) error {
	return gormDB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&model.Booking{}, &model.Review{}, &model.PaymentLog{}} {
			if err := tx.Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec("DELETE FROM tour_guides").Error; err != nil {
			return err
		}
		for _, m := range []interface{}{&model.Tour{}, &model.User{}} {
			if err := tx.Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
