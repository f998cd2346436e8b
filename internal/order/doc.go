/*
Package order owns the order lifecycle of the orders service.

An order is created Pending through the HTTP API under a request idempotency key and
raises OrderCreated into the transactional outbox. Its final status is decided by the
inventory service through integration events:
  - InventoryUpdated confirms the order
  - OutOfStock cancels the order

Both transitions are idempotent, so redelivered events are acknowledged as duplicates.

# Layout

  - domain: Order aggregate, status machine and domain events
  - usecase: create with idempotency, confirm, cancel and read
  - repository: PostgreSQL and MySQL persistence
  - http: gin handlers and DTOs
  - consumer: integration event handlers
*/
package order
