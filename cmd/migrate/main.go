// Command migrate aplica las migraciones SQL embebidas contra la base configurada.
//
//	migrate up | down | steps N | version
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jhoicas/retaguarda-api/internal/infrastructure/postgres"
	"github.com/jhoicas/retaguarda-api/pkg/config"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var dsn string
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Migraciones del esquema PostgreSQL",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dsn, "database-url", "", "connection string (por defecto DATABASE_URL o DB_*)")

	// withMigrator abre el migrador con la configuración y lo cierra al terminar.
	withMigrator := func(fn func(m *postgres.Migrator, log *logger.Logger) error) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("cargar configuración: %w", err)
			}
			log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
			url := dsn
			if url == "" {
				url = cfg.DB.ConnectionString()
			}
			m, err := postgres.NewMigrator(url)
			if err != nil {
				return err
			}
			defer m.Close()
			return fn(m, log)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Aplica todas las migraciones pendientes",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *postgres.Migrator, log *logger.Logger) error {
				if err := m.Up(); err != nil {
					return err
				}
				return logVersion(m, log)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revierte todas las migraciones",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *postgres.Migrator, log *logger.Logger) error {
				if err := m.Down(); err != nil {
					return err
				}
				log.Info().Msg("esquema revertido")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Aplica N migraciones (negativo revierte)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("steps: %q no es un entero", args[0])
				}
				return withMigrator(func(m *postgres.Migrator, log *logger.Logger) error {
					if err := m.Steps(n); err != nil {
						return err
					}
					return logVersion(m, log)
				})(cmd, args)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Muestra la versión actual del esquema",
			Args:  cobra.NoArgs,
			RunE:  withMigrator(logVersion),
		},
	)
	return root
}

func logVersion(m *postgres.Migrator, log *logger.Logger) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	log.Info().Uint("version", v).Bool("dirty", dirty).Msg("versión del esquema")
	return nil
}
