package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"bookstore/auth"
	"bookstore/catalog"
	"bookstore/config"
	"bookstore/database"
	"bookstore/locks"
	"bookstore/logging"
	"bookstore/models"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const seedCreatedBy = "seed"

func createAdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "create an admin account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Value: "Admin"},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.LogLevel, cfg.LogFormat, nil)
			store, err := openStore(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close(context.Background())

			svc := auth.NewService(store.Users(), auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL), auth.NewMemoryRevocations(), logging.Component(logger, "auth"))
			u, err := svc.CreateUser(c.Context, c.String("name"), c.String("email"), c.String("password"), models.RoleAdmin)
			if err != nil {
				return err
			}
			logger.WithField("email", u.Email).WithField("id", u.ID.Hex()).Info("admin created")
			return nil
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "load products from a JSON file into an empty catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Value: "books.json", Usage: `file shaped like {"products": [...]}`},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.LogLevel, cfg.LogFormat, nil)

			f, err := os.Open(c.String("file"))
			if err != nil {
				return errors.Wrap(err, "open seed file")
			}
			defer f.Close()

			store, err := openStore(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close(context.Background())

			svc := catalog.NewService(store.Products(), locks.NewKeyed(), catalog.NewEngine(cfg.CatalogLocale), logging.Component(logger, "seed"))
			n, err := seedProducts(c.Context, svc, store.Products(), f)
			if err != nil {
				return err
			}
			logger.WithField("products", n).Info("catalog seeded")
			return nil
		},
	}
}

// seedProducts creates every product in r through the catalog, so defaults and validation
// apply. It refuses to touch a catalog that already has products.
func seedProducts(ctx context.Context, svc *catalog.Service, products database.ProductStore, r io.Reader) (int, error) {
	existing, err := products.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, errors.Errorf("catalog already holds %d products", len(existing))
	}

	var doc struct {
		Products []catalog.CreateInput `json:"products"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return 0, errors.Wrap(err, "decode seed file")
	}
	for i, in := range doc.Products {
		if _, err := svc.Create(ctx, in, seedCreatedBy); err != nil {
			return i, errors.Wrapf(err, "product #%d", i+1)
		}
	}
	return len(doc.Products), nil
}

func hashPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash-password",
		Usage:     "print the bcrypt hash of a password",
		ArgsUsage: "<password>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("exactly one password argument is required", 2)
			}
			hashed, err := auth.HashPassword(c.Args().First())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, hashed)
			return err
		},
	}
}
