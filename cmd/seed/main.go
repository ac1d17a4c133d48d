package main

import (
	"context"
	_ "embed"
	"errors"
	"os"
	"time"

	"formpilot/internal/config"
	"formpilot/internal/logging"
	"formpilot/internal/model"
	"formpilot/internal/repository"
	"formpilot/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed names.yaml
var defaultNames []byte

func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB)

	var lists model.NameLists
	if err := yaml.Unmarshal(defaultNames, &lists); err != nil {
		logger.Fatal("failed to read embedded names", zap.Error(err))
	}
	entries := make([]model.NameEntry, 0, len(lists.Male)+len(lists.Female))
	for _, n := range lists.Male {
		entries = append(entries, model.NameEntry{Name: n, Gender: model.GenderMale})
	}
	for _, n := range lists.Female {
		entries = append(entries, model.NameEntry{Name: n, Gender: model.GenderFemale})
	}

	inserted, err := repository.NewNameRepo(db).InsertMany(ctx, entries)
	if err != nil {
		logger.Fatal("failed to seed names", zap.Error(err))
	}
	logger.Info("names seeded", zap.Int("inserted", inserted), zap.Int("total", len(entries)))

	// Admin account
	adminID := getEnv("ADMIN_USER_ID", "admin")
	userSvc := service.NewUserService(repository.NewUserRepo(db, logger), nil, logger)
	_, err = userSvc.Create(ctx, &model.CreateUserRequest{
		UserID:   adminID,
		Password: getEnv("ADMIN_PASSWORD", "password123"),
		Name:     "Administrator",
		Role:     model.RoleAdmin,
		Plan:     "internal",
		Credits:  100,
	})
	switch {
	case errors.Is(err, service.ErrUserExists):
		logger.Info("admin already exists", zap.String("user", adminID))
	case err != nil:
		logger.Fatal("failed to create admin", zap.Error(err))
	default:
		logger.Info("admin created", zap.String("user", adminID))
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
