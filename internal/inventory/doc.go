/*
Package inventory owns the product catalog and stock reservations of the inventory service.

Reservations are triggered by OrderCreated events. Each order is reserved at most once:
a processed_orders marker is written in the same transaction as the reservation outcome,
and stock updates are guarded by an optimistic version column. The outcome is published
through the outbox as StockReserved or StockReservationFailed, which the publisher maps
to InventoryUpdated and OutOfStock.
*/
package inventory
