package main

import (
	"log"
	"os"
	"time"

	"ai-tutor-be/internal/model"
	"ai-tutor-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo account for local development. Idempotent: re-running skips
// users that already exist.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Seeding demo user...")

	var existing int64
	db.Model(&model.User{}).Where("username = ?", "demo").Count(&existing)
	if existing > 0 {
		log.Println("Demo user already exists, nothing to do.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Error: Failed to hash password:", err)
	}

	user := model.User{
		Id:           uuid.New(),
		Username:     "demo",
		Email:        "demo@example.com",
		PasswordHash: string(hash),
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatal("Error: Failed to create demo user:", err)
	}

	session := model.StudySession{
		Id:             uuid.New(),
		UserId:         user.Id,
		Title:          "Getting started",
		LastAccessedAt: time.Now(),
	}
	if err := db.Create(&session).Error; err != nil {
		log.Fatal("Error: Failed to create demo session:", err)
	}

	log.Printf("Seeded user 'demo' (password: demo-password) with session %s", session.Id)
}
