package models

// StaffStatus статус учётной записи сотрудника.
type StaffStatus string

// Статусы сотрудника.
const (
	StaffActive   StaffStatus = "active"
	StaffInactive StaffStatus = "inactive"
)

// InternalUser сотрудник с ролью и набором прав.
// Permissions заменяются целиком таблицей роли при каждой смене роли.
type InternalUser struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        Role        `json:"role"`
	Status      StaffStatus `json:"status"`
	Permissions []string    `json:"permissions"`
}

// DummyInternalUser тело запроса на создание или изменение сотрудника.
type DummyInternalUser struct {
	Name        string   `json:"name" validate:"required"`
	Email       string   `json:"email" validate:"required,email"`
	Role        string   `json:"role" validate:"required,oneof=admin operator editor support"`
	Status      string   `json:"status" validate:"omitempty,oneof=active inactive"`
	Permissions []string `json:"permissions,omitempty"`
}
