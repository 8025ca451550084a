package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/mylpd15/inventory-console/controller"
	"github.com/mylpd15/inventory-console/editor"
	"github.com/mylpd15/inventory-console/models"
	"github.com/mylpd15/inventory-console/odata"
	"github.com/mylpd15/inventory-console/resources"
)

func deliveriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "deliveries",
		Usage: "Manage deliveries and their line items",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List deliveries",
				Flags: listFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					list := controller.NewList[models.Delivery](resources.Deliveries(e.client), e.sess, printNotifier{}, pageSize(c, e))
					return runList(ctx, c, list)
				},
			},
			{
				Name:      "get",
				Usage:     "Fetch one delivery with its line items",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one id argument")
					}
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					delivery, details, err := fetchDelivery(ctx, e, c.Args().First())
					if err != nil {
						return err
					}
					delivery.DeliveryDetails = details
					return printJSON(delivery)
				},
			},
			{
				Name:  "edit",
				Usage: "Apply line-item changes and a status transition in one submission",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true, Usage: "delivery id"},
					&cli.StringSliceFlag{Name: "add", Usage: "line item JSON, repeatable"},
					&cli.StringSliceFlag{Name: "update", Usage: "line item JSON with DeliveryDetailID, repeatable"},
					&cli.IntSliceFlag{Name: "remove", Usage: "line item id, repeatable"},
					&cli.IntFlag{Name: "set-status", Value: -1, Usage: "target numeric status"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					delivery, details, err := fetchDelivery(ctx, e, c.String("id"))
					if err != nil {
						return err
					}

					ed := editor.New(delivery.Status, details, func(d models.DeliveryDetail) int { return d.DeliveryDetailID })
					for _, raw := range c.StringSlice("add") {
						item, err := decodeEntity[models.DeliveryDetail](raw)
						if err != nil {
							return err
						}
						if !ed.Add(item) {
							return fmt.Errorf("line items are locked while the delivery is %s", delivery.Status)
						}
					}
					for _, raw := range c.StringSlice("update") {
						item, err := decodeEntity[models.DeliveryDetail](raw)
						if err != nil {
							return err
						}
						if !applyDetailUpdate(ed, item) {
							return fmt.Errorf("no editable line item %d", item.DeliveryDetailID)
						}
					}
					for _, id := range c.IntSlice("remove") {
						if !removeDetail(ed, int(id)) {
							return fmt.Errorf("no editable line item %d", id)
						}
					}

					if target := c.Int("set-status"); target >= 0 {
						if !ed.SetStatus(models.Status(target)) {
							return fmt.Errorf("cannot move a %s delivery to %s", delivery.Status, models.Status(target))
						}
					}
					delivery.Status = ed.Status()

					if err := resources.SubmitDelivery(ctx, e.client, delivery, ed); err != nil {
						return err
					}
					fmt.Println("Submitted")
					return nil
				},
			},
		},
	}
}

func ordersCommand() *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "Manage purchase orders and their line items",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List orders",
				Flags: listFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					list := controller.NewList[models.Order](resources.Orders(e.client), e.sess, printNotifier{}, pageSize(c, e))
					return runList(ctx, c, list)
				},
			},
			{
				Name:      "get",
				Usage:     "Fetch one order with its line items",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one id argument")
					}
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					order, details, err := fetchOrder(ctx, e, c.Args().First())
					if err != nil {
						return err
					}
					order.OrderDetails = details
					return printJSON(order)
				},
			},
			{
				Name:  "edit",
				Usage: "Apply line-item changes and a status transition in one submission",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true, Usage: "order id"},
					&cli.StringSliceFlag{Name: "add", Usage: "line item JSON, repeatable"},
					&cli.StringSliceFlag{Name: "update", Usage: "line item JSON with OrderDetailID, repeatable"},
					&cli.IntSliceFlag{Name: "remove", Usage: "line item id, repeatable"},
					&cli.IntFlag{Name: "set-status", Value: -1, Usage: "target numeric status"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					order, details, err := fetchOrder(ctx, e, c.String("id"))
					if err != nil {
						return err
					}

					ed := editor.New(order.Status, details, func(d models.OrderDetail) int { return d.OrderDetailID })
					for _, raw := range c.StringSlice("add") {
						item, err := decodeEntity[models.OrderDetail](raw)
						if err != nil {
							return err
						}
						if !ed.Add(item) {
							return fmt.Errorf("line items are locked while the order is %s", order.Status)
						}
					}
					for _, raw := range c.StringSlice("update") {
						item, err := decodeEntity[models.OrderDetail](raw)
						if err != nil {
							return err
						}
						if !applyOrderDetailUpdate(ed, item) {
							return fmt.Errorf("no editable line item %d", item.OrderDetailID)
						}
					}
					for _, id := range c.IntSlice("remove") {
						if !removeOrderDetail(ed, int(id)) {
							return fmt.Errorf("no editable line item %d", id)
						}
					}

					if target := c.Int("set-status"); target >= 0 {
						if !ed.SetStatus(models.Status(target)) {
							return fmt.Errorf("cannot move a %s order to %s", order.Status, models.Status(target))
						}
					}
					order.Status = ed.Status()

					if err := resources.SubmitOrder(ctx, e.client, order, ed); err != nil {
						return err
					}
					fmt.Println("Submitted")
					return nil
				},
			},
		},
	}
}

func fetchDelivery(ctx context.Context, e *env, id string) (models.Delivery, []models.DeliveryDetail, error) {
	delivery, err := odata.Get[models.Delivery](ctx, e.client, "Deliveries", id)
	if err != nil {
		return delivery, nil, err
	}
	details, err := childDetails(ctx, e, "DeliveryDetails", "DeliveryID", delivery.DeliveryID)
	return delivery, details, err
}

func fetchOrder(ctx context.Context, e *env, id string) (models.Order, []models.OrderDetail, error) {
	order, err := odata.Get[models.Order](ctx, e.client, "Orders", id)
	if err != nil {
		return order, nil, err
	}
	details, err := childDetailsOrder(ctx, e, order.OrderID)
	return order, details, err
}

func childDetails(ctx context.Context, e *env, set, fkField string, parentID int) ([]models.DeliveryDetail, error) {
	res, err := odata.List[models.DeliveryDetail](ctx, e.client, set, odata.Query{
		StatusField: fkField, StatusFilter: []int{parentID},
	})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func childDetailsOrder(ctx context.Context, e *env, parentID int) ([]models.OrderDetail, error) {
	res, err := odata.List[models.OrderDetail](ctx, e.client, "OrderDetails", odata.Query{
		StatusField: "OrderID", StatusFilter: []int{parentID},
	})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func applyDetailUpdate(ed *editor.Editor[models.DeliveryDetail], item models.DeliveryDetail) bool {
	for i, line := range ed.Lines() {
		if line.Value.DeliveryDetailID == item.DeliveryDetailID && line.Kind != editor.Removed {
			return ed.Update(i, func(d *models.DeliveryDetail) { *d = item })
		}
	}
	return false
}

func removeDetail(ed *editor.Editor[models.DeliveryDetail], id int) bool {
	for i, line := range ed.Lines() {
		if line.Value.DeliveryDetailID == id && line.Kind != editor.Removed {
			return ed.Remove(i)
		}
	}
	return false
}

func applyOrderDetailUpdate(ed *editor.Editor[models.OrderDetail], item models.OrderDetail) bool {
	for i, line := range ed.Lines() {
		if line.Value.OrderDetailID == item.OrderDetailID && line.Kind != editor.Removed {
			return ed.Update(i, func(d *models.OrderDetail) { *d = item })
		}
	}
	return false
}

func removeOrderDetail(ed *editor.Editor[models.OrderDetail], id int) bool {
	for i, line := range ed.Lines() {
		if line.Value.OrderDetailID == id && line.Kind != editor.Removed {
			return ed.Remove(i)
		}
	}
	return false
}
