package resources

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mylpd15/inventory-console/editor"
	"github.com/mylpd15/inventory-console/models"
	"github.com/mylpd15/inventory-console/odata"
)

// SubmitDelivery persists an edited delivery: the parent record first, then
// the line-item diff. Child mutations only go out while the parent status is
// Pending, and they travel in one atomic changeset so a failing child cannot
// leave the delivery partially applied.
func SubmitDelivery(ctx context.Context, client *odata.Client, delivery models.Delivery, ed *editor.Editor[models.DeliveryDetail]) error {
	// Detached line items never travel on the parent update.
	delivery.DeliveryDetails = nil
	if _, err := odata.Update(ctx, client, "Deliveries", delivery.DeliveryID, delivery); err != nil {
		return fmt.Errorf("updating delivery %d: %w", delivery.DeliveryID, err)
	}

	if !delivery.Status.Editable() {
		return nil
	}

	diff := ed.Diff()
	ops := detailOps("DeliveryDetails", delivery.DeliveryID, diff)
	if err := client.SubmitChangeset(ctx, ops); err != nil {
		return fmt.Errorf("applying delivery %d line items: %w", delivery.DeliveryID, err)
	}
	return nil
}

// SubmitOrder is the order-side twin of SubmitDelivery.
func SubmitOrder(ctx context.Context, client *odata.Client, order models.Order, ed *editor.Editor[models.OrderDetail]) error {
	order.OrderDetails = nil
	order.Provider = nil
	order.Warehouse = nil
	if _, err := odata.Update(ctx, client, "Orders", order.OrderID, order); err != nil {
		return fmt.Errorf("updating order %d: %w", order.OrderID, err)
	}

	if !order.Status.Editable() {
		return nil
	}

	diff := ed.Diff()
	var ops []odata.ChangeOp
	for _, d := range diff.ToCreate {
		d.OrderID = order.OrderID
		ops = append(ops, odata.ChangeOp{Method: http.MethodPost, Path: "/odata/OrderDetails", Body: d})
	}
	for _, d := range diff.ToUpdate {
		ops = append(ops, odata.ChangeOp{
			Method: http.MethodPut,
			Path:   fmt.Sprintf("/odata/OrderDetails/%d", d.OrderDetailID),
			Body:   d,
		})
	}
	for _, id := range diff.ToDelete {
		ops = append(ops, odata.ChangeOp{Method: http.MethodDelete, Path: fmt.Sprintf("/odata/OrderDetails/%d", id)})
	}
	if err := client.SubmitChangeset(ctx, ops); err != nil {
		return fmt.Errorf("applying order %d line items: %w", order.OrderID, err)
	}
	return nil
}

func detailOps(entitySet string, parentID int, diff editor.Diff[models.DeliveryDetail]) []odata.ChangeOp {
	var ops []odata.ChangeOp
	// Creates first, then updates, then deletes.
	for _, d := range diff.ToCreate {
		d.DeliveryID = parentID
		ops = append(ops, odata.ChangeOp{Method: http.MethodPost, Path: "/odata/" + entitySet, Body: d})
	}
	for _, d := range diff.ToUpdate {
		ops = append(ops, odata.ChangeOp{
			Method: http.MethodPut,
			Path:   fmt.Sprintf("/odata/%s/%d", entitySet, d.DeliveryDetailID),
			Body:   d,
		})
	}
	for _, id := range diff.ToDelete {
		ops = append(ops, odata.ChangeOp{Method: http.MethodDelete, Path: fmt.Sprintf("/odata/%s/%d", entitySet, id)})
	}
	return ops
}
