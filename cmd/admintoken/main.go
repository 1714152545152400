// Command admintoken signs an admin access token for the /api/v1/admin routes.
//
//	admintoken -id ops-1
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/config"
	"github.com/water-delivery-api/internal/domain"
	jwtinfra "github.com/water-delivery-api/internal/infrastructure/jwt"
)

func main() {
	adminID := flag.String("id", "", "admin identifier placed in the token")
	flag.Parse()

	logger := logrus.New()
	if *adminID == "" {
		logger.Fatal("-id is required")
	}
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.JWTPrivateKeyPath == "" {
		logger.Fatal("JWT_PRIVATE_KEY_PATH is not set")
	}
	p, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		logger.WithError(err).Fatal("load keys")
	}
	token, err := p.Sign(*adminID, domain.RoleAdmin)
	if err != nil {
		logger.WithError(err).Fatal("sign token")
	}
	fmt.Fprintln(os.Stdout, token)
}
