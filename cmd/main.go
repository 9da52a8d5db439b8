package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/RotomDaPesteBR/el-shadai/api"
	"github.com/RotomDaPesteBR/el-shadai/config"
	"github.com/RotomDaPesteBR/el-shadai/kafka"
	"github.com/RotomDaPesteBR/el-shadai/service/catalog"
	"github.com/RotomDaPesteBR/el-shadai/service/order"
	"github.com/RotomDaPesteBR/el-shadai/service/user"
)

const versionTimeFormat = "20060102150405"

func main() {
	rootCmd := &cobra.Command{Use: "el-shadai"}
	rootCmd.AddCommand(
		createMigrationCommand(),
		migrateCommand(),
		serveCommand(),
		relayOutboxCommand(),
		consumeStatusCommand(),
	)

	err := rootCmd.Execute()
	if err != nil {
		panic(err)
	}
}

func createMigrationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-create [name]",
		Short: "create sql migrations",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			conf := config.Load()
			version := time.Now().Format(versionTimeFormat)
			name := args[0]
			up := fmt.Sprintf("%s/%s_%s.up.sql", conf.MigrationDir, version, name)
			down := fmt.Sprintf("%s/%s_%s.down.sql", conf.MigrationDir, version, name)

			err := os.WriteFile(up, []byte{}, 0644)
			if err != nil {
				panic(err)
			}

			err = os.WriteFile(down, []byte{}, 0644)
			if err != nil {
				panic(err)
			}

			fmt.Println("Created SQL up script:", up)
			fmt.Println("Created SQL down script:", down)
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-up",
		Short: "migrate all the way up",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			conf := config.Load()
			m, err := migrate.New(
				fmt.Sprintf("file://%s", conf.MigrationDir),
				fmt.Sprintf("mysql://%s", conf.DatabaseDSN),
			)
			if err != nil {
				panic(err)
			}

			err = m.Up()
			if err == migrate.ErrNoChange {
				fmt.Println("No change in migration")
				return
			}
			if err != nil {
				panic(err)
			}
			fmt.Println("Migrated up")
		},
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			conf := config.Load()
			db := sqlx.MustConnect("mysql", conf.DatabaseDSN)

			orderSvc := order.NewService(order.NewRepo(db), nil, nil)
			catalogSvc := catalog.NewService(catalog.NewRepo(db))
			userSvc := user.NewService(user.NewRepo(db))

			server := api.NewServer(orderSvc, catalogSvc, userSvc)
			log.Printf("Listening on %s", conf.HTTPAddr)
			if err := http.ListenAndServe(conf.HTTPAddr, server.Handler()); err != nil {
				panic(err)
			}
		},
	}
}

func relayOutboxCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "relay-outbox",
		Short: "push pending order events to kafka",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			conf := config.Load()
			db := sqlx.MustConnect("mysql", conf.DatabaseDSN)

			producer, err := kafka.NewProducer(conf.KafkaHost, conf.OrderCreatedTopic)
			if err != nil {
				panic(err)
			}
			svc := order.NewService(order.NewRepo(db), producer, nil)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := svc.RelayMessage(ctx, 100); err != nil {
						log.Printf("Failed to relay outbox: %s", err)
					}
				}
			}
		},
	}
}

func consumeStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "consume-status",
		Short: "apply delivery status events from kafka",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			conf := config.Load()
			db := sqlx.MustConnect("mysql", conf.DatabaseDSN)

			consumer, err := kafka.NewConsumer(conf.KafkaHost, conf.DeliveryStatusTopic)
			if err != nil {
				panic(err)
			}
			svc := order.NewService(order.NewRepo(db), nil, consumer)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			svc.ConsumeStatusUpdates(ctx, 0)
		},
	}
}
