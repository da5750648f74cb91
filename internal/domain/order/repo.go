package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists the append-only order chain. Implementations never
// delete rows; Void marks a record inert and Supersede links a successor to
// its predecessor while stopping the predecessor in the same transaction.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Order, int, error)
	// Supersede inserts successor and sets date_stopped = stopAt on the order
	// identified by predecessorID, atomically.
	Supersede(ctx context.Context, successor *Order, predecessorID uuid.UUID, stopAt time.Time) error
	Void(ctx context.Context, id uuid.UUID, reason string) error
}
