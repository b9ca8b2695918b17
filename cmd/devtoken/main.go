// Package main выпускает подписанный токен для локальной разработки,
// заменяя внешний провайдер идентификации.
//
//	CONFIG_PATH=./config/local.yaml go run ./cmd/devtoken -sub user_123 -name "Ann" -email ann@example.com
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/magabrotheeeer/eventhub/internal/config"
	"github.com/magabrotheeeer/eventhub/internal/lib/jwt"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
	"github.com/magabrotheeeer/eventhub/internal/models"
)

func main() {
	sub := flag.String("sub", "", "token identifier of the subject")
	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "email address")
	image := flag.String("image", "", "avatar url")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *sub == "" {
		logger.Error("flag -sub is required")
		os.Exit(2)
	}

	cfg := config.MustLoad()
	maker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	token, err := maker.GenerateToken(models.Identity{
		TokenIdentifier: *sub,
		Name:            *name,
		Email:           *email,
		ImageURL:        *image,
	})
	if err != nil {
		logger.Error("failed to generate token", sl.Err(err))
		os.Exit(1)
	}

	fmt.Println(token)
}
