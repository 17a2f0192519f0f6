// Command seeduser creates (or resets) a user directly in the database.
// Used for bootstrapping the first admin on a fresh install:
//
//	seeduser -username admin -password secret -role admin -name "Store Admin"
package main

import (
	"context"
	"flag"
	"time"

	"vendapos/internal/config"
	"vendapos/internal/infra"
	"vendapos/internal/model"
	"vendapos/internal/repository"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "password (required)")
	name := flag.String("name", "", "display name")
	role := flag.String("role", model.RoleOperator, "operator | manager | admin")
	register := flag.Int("register", 0, "register id to pin the user to (0 = any)")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal().Msg("username and password are required")
	}
	if *role != model.RoleOperator && *role != model.RoleManager && *role != model.RoleAdmin {
		log.Fatal().Str("role", *role).Msg("unknown role")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration failed")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("hashing password failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := repository.NewUserRepository(db)
	displayName := *name
	if displayName == "" {
		displayName = *username
	}
	var registerID *int
	if *register > 0 {
		registerID = register
	}

	if existing, err := users.FindByUsername(ctx, *username); err == nil {
		existing.PasswordHash = string(hash)
		existing.Role = *role
		existing.Name = displayName
		existing.RegisterID = registerID
		if err := users.Update(ctx, existing); err != nil {
			log.Fatal().Err(err).Msg("updating user failed")
		}
		log.Info().Str("username", *username).Msg("user updated")
		return
	}

	u := &model.User{
		Username:     *username,
		Name:         displayName,
		PasswordHash: string(hash),
		Role:         *role,
		RegisterID:   registerID,
		Active:       true,
	}
	if err := users.Create(ctx, u); err != nil {
		log.Fatal().Err(err).Msg("creating user failed")
	}
	log.Info().Str("username", *username).Str("role", *role).Msg("user created")
}
