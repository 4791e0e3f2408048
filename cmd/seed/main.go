// Command seed fills the database with fake users, profiles and posts and
// prints a bearer token for each user when JWT auth is configured.
package main

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/anonto42/devconnect/backend/internal/auth"
	"github.com/anonto42/devconnect/backend/internal/models"
	"github.com/anonto42/devconnect/backend/internal/repositories"
	"github.com/anonto42/devconnect/backend/pkg/config"
	"github.com/anonto42/devconnect/backend/pkg/logger"
)

func main() {
	count := flag.Int("users", 10, "number of users to create")
	postsPerUser := flag.Int("posts", 3, "posts per user")
	seed := flag.Int64("seed", 0, "faker seed, 0 for random")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed tokens")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	log := logger.NewLogger(cfg.AppName+"-seed", cfg.Env)
	gofakeit.Seed(*seed)

	ctx := context.Background()
	db, err := config.InitDB(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize databases")
	}
	defer db.CloseDB()

	var users repositories.UserRepository = repositories.NewMongoUserRepository(db.Database)
	if db.Postgres != nil {
		users = repositories.NewPostgresUserRepository(db.Postgres)
	}
	profiles := repositories.NewMongoProfileRepository(db.Database)
	posts := repositories.NewMongoPostRepository(db.Database)
	for _, s := range []repositories.Indexer{users, profiles, posts} {
		if err := s.EnsureIndexes(ctx); err != nil {
			log.WithError(err).Fatal("Failed to ensure indexes")
		}
	}

	var issuer *auth.JWTVerifier
	if cfg.AuthProvider == "jwt" {
		if issuer, err = auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer); err != nil {
			log.WithError(err).Fatal("Failed to create token issuer")
		}
	}

	for i := 0; i < *count; i++ {
		user, err := seedUser(ctx, users, profiles, posts, *postsPerUser)
		if err != nil {
			log.WithError(err).Fatal("Seeding failed")
		}
		entry := log.WithFields(logrus.Fields{"user_id": user.ID.Hex(), "email": user.Email})
		if issuer != nil {
			token, err := issuer.Issue(user.ID.Hex(), *tokenTTL)
			if err != nil {
				log.WithError(err).Fatal("Failed to issue token")
			}
			entry = entry.WithField("token", token)
		}
		entry.Info("Seeded user")
	}
}

func seedUser(ctx context.Context, users repositories.UserRepository, profiles repositories.ProfileRepository, posts repositories.PostRepository, postCount int) (*models.User, error) {
	person := gofakeit.Person()
	email := strings.ToLower(gofakeit.Email())
	hash, err := bcrypt.GenerateFromPassword([]byte(gofakeit.Password(true, true, true, false, false, 12)), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:         person.FirstName + " " + person.LastName,
		Email:        email,
		PasswordHash: string(hash),
		Avatar:       gravatarURL(email),
	}
	if err := users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	profile := &models.Profile{
		UserID:         user.ID,
		Handle:         strings.ToLower(gofakeit.Username()) + gofakeit.DigitN(3),
		Company:        gofakeit.Company(),
		Website:        gofakeit.URL(),
		Location:       gofakeit.City(),
		Status:         gofakeit.JobTitle(),
		Skills:         models.SplitSkills(strings.Join([]string{gofakeit.ProgrammingLanguage(), gofakeit.ProgrammingLanguage()}, ",")),
		Bio:            gofakeit.Sentence(12),
		GitHubUsername: gofakeit.Username(),
	}
	profile.AddExperience(models.Experience{
		ID:      primitive.NewObjectID(),
		Title:   gofakeit.JobTitle(),
		Company: gofakeit.Company(),
		From:    gofakeit.DateRange(time.Now().AddDate(-10, 0, 0), time.Now().AddDate(-1, 0, 0)),
		Current: true,
	})
	if err := profiles.CreateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	for j := 0; j < postCount; j++ {
		post := &models.Post{User: user.ID, Text: gofakeit.Paragraph(1, 3, 12, " "), Name: user.Name, Avatar: user.Avatar}
		if err := posts.CreatePost(ctx, post); err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
	}
	return user, nil
}

// gravatarURL mirrors the avatar format clients expect: 200px, PG, mystery man.
func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.TrimSpace(strings.ToLower(email))))
	return "//www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=200&r=pg&d=mm"
}
