// Command create-admin bootstraps an admin account. Run it once after the
// first deploy; subsequent admins can be promoted through the API.
package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/config"
	"github.com/viajabr/marketplace-backend/internal/database"
	"github.com/viajabr/marketplace-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	name := flag.String("name", "Administrator", "admin display name")
	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "admin password (required, min 8 chars)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if *email == "" || len(*password) < 8 {
		logger.Fatal("Both -email and -password (min 8 chars) are required")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), cfg.Security.BcryptCost)
	if err != nil {
		logger.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Name:         *name,
		Email:        *email,
		PasswordHash: string(hash),
		Role:         models.UserRoleAdmin,
	}

	users := database.NewUserRepository(db)
	if err := users.Create(user); err != nil {
		logger.Fatalf("Failed to create admin user: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("Admin user created")
}
