package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/app"
	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service"
	"github.com/vladislavdragonenkov/shop/internal/uow"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("не удалось прочитать конфигурацию")
	}
	if err := app.ConfigureLogging(cfg); err != nil {
		log.WithError(err).Fatal("не удалось настроить логирование")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"storage": cfg.StorageDriver,
		"kafka":   len(cfg.KafkaBrokers) > 0,
	}).Info("запускаем демонстрацию магазина")

	rt, err := app.Open(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("не удалось поднять runtime")
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.WithError(err).Warn("runtime закрыт с ошибкой")
		}
	}()

	if err := run(ctx, rt.Manager, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("демонстрация завершилась с ошибкой")
		return
	}
	log.Info("демонстрация завершена")
}

// run выполняет фиксированный сценарий в одном unit of work:
// товар, клиент, список желаний, заказ, добавление позиции, расчёт суммы.
func run(ctx context.Context, manager *uow.Manager, out io.Writer) error {
	return manager.Do(ctx, func(ctx context.Context, u *uow.UnitOfWork) error {
		products := service.NewProductService(u, nil)
		customers := service.NewCustomerService(u, nil)
		wishlists := service.NewWishlistService(u, nil)
		orders := service.NewOrderService(u, nil)

		product, err := products.Create(ctx, domain.NewProduct(1, "product1", 1, 100))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "create product: %s\n", product)

		customer, err := customers.Create(ctx, domain.NewCustomer(1, "customer1"))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "create customer: %s\n", customer)

		wishlist, err := wishlists.Create(ctx, domain.NewWishlist(1, customer))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "create wishlist: %s\n", wishlist)

		wishlist, err = wishlists.AddProduct(ctx, wishlist.ID, product)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "add product to wishlist: %s\n", wishlist)

		order, err := orders.Create(ctx, domain.NewOrder(1, customer, product))
		if err != nil {
			return err
		}
		order, err = orders.AddProduct(ctx, order.ID, product)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "add product to order: %s\n", order)

		total, err := orders.Checkout(ctx, order.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "checkout order %d: %d\n", order.ID, total)
		return nil
	})
}
