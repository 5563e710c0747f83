package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound возвращается при поиске по отсутствующему идентификатору (get/update/delete).
	ErrNotFound = errors.New("not found")
	// ErrProductNotFound возвращается, если товара нет в хранилище.
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	// ErrCustomerNotFound возвращается, если клиента нет в хранилище.
	ErrCustomerNotFound = fmt.Errorf("customer %w", ErrNotFound)
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)
	// ErrWishlistNotFound возвращается, если список желаний не найден.
	ErrWishlistNotFound = fmt.Errorf("wishlist %w", ErrNotFound)

	// ErrPersistence помечает любые ошибки хранилища.
	ErrPersistence = errors.New("persistence failure")
	// ErrConstraintViolation означает нарушение ограничения схемы (PK, FK, NOT NULL).
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrSessionClosed возвращается при обращении к закрытой сессии хранилища.
	ErrSessionClosed = errors.New("storage session is closed")

	// ErrValidation помечает ошибки валидации полей сущности.
	ErrValidation = errors.New("validation failed")
	// Ошибка пустого имени товара или клиента.
	ErrNameRequired = errors.New("name is required")
	// Ошибка отрицательного количества товара.
	ErrQuantityNegative = errors.New("quantity must be non-negative")
	// Ошибка отрицательной цены.
	ErrPriceNegative = errors.New("price must be non-negative")
	// Ошибка отсутствующего клиента у заказа или списка желаний.
	ErrCustomerRequired = errors.New("customer is required")
)

// PersistenceError описывает сбой адаптера хранилища при выполнении операции Op.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError оборачивает ошибку драйвера; nil остаётся nil.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is позволяет сравнивать любую PersistenceError с ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// IsNotFound проверяет, является ли ошибка ошибкой отсутствия сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPersistence проверяет, пришла ли ошибка из слоя хранения.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// NewValidationError объединяет ошибки полей с маркером ErrValidation.
func NewValidationError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrValidation}, errs...)...)
}
