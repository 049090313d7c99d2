// Command create-admin creates an admin account, or promotes an
// existing one, directly against MongoDB.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookden/library-app/backend/internal/config"
	"github.com/bookden/library-app/backend/internal/models"
	"github.com/bookden/library-app/backend/internal/store"
)

func main() {
	name := flag.String("name", "Admin", "display name for the admin account")
	email := flag.String("email", "", "email for the admin account (required)")
	password := flag.String("password", "", "password for a newly created account")
	flag.Parse()

	if *email == "" {
		log.Fatal("-email is required")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, using environment variables")
	}
	cfg := config.Load()
	ctx := context.Background()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer client.Disconnect(ctx)

	users := store.NewUserStore(client.Database(cfg.MongoDB))
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatalf("mongo indexes: %v", err)
	}

	addr := strings.ToLower(strings.TrimSpace(*email))
	existing, err := users.GetUserByEmail(ctx, addr)
	if err != nil {
		log.Fatalf("lookup user: %v", err)
	}

	if existing != nil {
		existing.Role = models.RoleAdmin
		if err := users.UpdateUser(ctx, existing); err != nil {
			log.Fatalf("promote user: %v", err)
		}
		fmt.Printf("Promoted %s to admin\n", addr)
		return
	}

	if *password == "" {
		log.Fatal("-password is required when creating a new account")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user := &models.User{
		Name:          *name,
		Email:         addr,
		Password:      string(hashed),
		Role:          models.RoleAdmin,
		BorrowedBooks: []models.BorrowEntry{},
	}
	if _, err := users.CreateUser(ctx, user); err != nil {
		log.Fatalf("create user: %v", err)
	}
	fmt.Printf("Created admin account %s (%s)\n", *name, addr)
}
