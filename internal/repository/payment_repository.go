package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pix-payment-service/internal/models"
)

// PaymentRepositoryInterface is the storage contract shared by all flows.
// Lookups accept either the platform-assigned payment id or the
// gateway-assigned one; absence is reported as models.ErrPaymentNotFound.
type PaymentRepositoryInterface interface {
	CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) error
	GetPaymentRecord(ctx context.Context, key string) (*models.PaymentRecord, error)
	UpdateStatus(ctx context.Context, key string, status models.PaymentStatus) error
	ApplyNotification(ctx context.Context, key string, status *models.PaymentStatus, amount *int64) error
	Touch(ctx context.Context, key string) error
	LockKey(key string) func()
}

// PaymentRepository handles payment record persistence on Postgres.
type PaymentRepository struct {
	db     *gorm.DB
	locker *keyLocker
}

var _ PaymentRepositoryInterface = (*PaymentRepository)(nil)

// NewPaymentRepository creates a new payment repository.
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db, locker: newKeyLocker()}
}

var terminalStatuses = []models.PaymentStatus{
	models.StatusVoided, models.StatusRefunded, models.StatusAborted, models.StatusDenied,
}

// CreatePaymentRecord persists a new payment record. The platform id is the
// primary key and the gateway id is uniquely indexed, so the record is
// reachable under both keys from the moment it is written.
func (r *PaymentRepository) CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return &models.StorageError{Op: "create payment record", Err: err}
	}
	return nil
}

// GetPaymentRecord fetches a record by either key.
func (r *PaymentRepository) GetPaymentRecord(ctx context.Context, key string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := r.db.WithContext(ctx).Where("gateway_payment_id = ?", key).First(&record).Error
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &models.StorageError{Op: "get payment record", Err: err}
	}

	platformID, parseErr := uuid.Parse(key)
	if parseErr != nil {
		return nil, models.ErrPaymentNotFound
	}
	err = r.db.WithContext(ctx).First(&record, "id = ?", platformID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrPaymentNotFound
		}
		return nil, &models.StorageError{Op: "get payment record", Err: err}
	}
	return &record, nil
}

// UpdateStatus transitions the stored status. The write is conditional:
// records already in a terminal status are never overwritten, and
// re-confirming the same terminal status is a no-op success.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, key string, status models.PaymentStatus) error {
	res := r.db.WithContext(ctx).Model(&models.PaymentRecord{}).
		Where(r.keyCondition(key)).
		Where("status NOT IN ?", terminalStatuses).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return &models.StorageError{Op: "update status", Err: res.Error}
	}
	if res.RowsAffected > 0 {
		return nil
	}

	record, err := r.GetPaymentRecord(ctx, key)
	if err != nil {
		return err
	}
	if record.Status == status {
		return nil
	}
	return models.ErrTerminalStatus
}

// ApplyNotification overwrites status and/or amount from a gateway event and
// stamps the update time. Writes are absolute, keyed by payment id, so
// replaying the same event converges on the same record.
func (r *PaymentRepository) ApplyNotification(ctx context.Context, key string, status *models.PaymentStatus, amount *int64) error {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if status != nil {
		updates["status"] = *status
	}
	if amount != nil {
		updates["amount"] = *amount
	}

	query := r.db.WithContext(ctx).Model(&models.PaymentRecord{}).Where(r.keyCondition(key))
	if status != nil {
		query = query.Where("status NOT IN ? OR status = ?", terminalStatuses, *status)
	}
	res := query.Updates(updates)
	if res.Error != nil {
		return &models.StorageError{Op: "apply notification", Err: res.Error}
	}
	if res.RowsAffected > 0 {
		return nil
	}

	record, err := r.GetPaymentRecord(ctx, key)
	if err != nil {
		return err
	}
	if status != nil && record.Status != *status {
		return models.ErrTerminalStatus
	}
	return nil
}

// Touch refreshes the update timestamp without changing state.
func (r *PaymentRepository) Touch(ctx context.Context, key string) error {
	res := r.db.WithContext(ctx).Model(&models.PaymentRecord{}).
		Where(r.keyCondition(key)).
		Update("updated_at", time.Now())
	if res.Error != nil {
		return &models.StorageError{Op: "touch payment record", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return models.ErrPaymentNotFound
	}
	return nil
}

// LockKey serializes read-modify-write sequences on one payment. Callers
// lock on the gateway payment id so both actors contend on the same mutex.
func (r *PaymentRepository) LockKey(key string) func() {
	return r.locker.Lock(key)
}

// keyCondition matches a record by either key. A key that is not a valid
// uuid can only be a gateway id.
func (r *PaymentRepository) keyCondition(key string) *gorm.DB {
	if platformID, err := uuid.Parse(key); err == nil {
		return r.db.Where("gateway_payment_id = ? OR id = ?", key, platformID)
	}
	return r.db.Where("gateway_payment_id = ?", key)
}
