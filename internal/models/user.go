// Package models содержит доменные структуры сервиса доставки воды:
// пользователей, каталог, подписки, доставки, обращения, рассылки и пункты выдачи.
// Структуры используются в бизнес‑логике, хранилище и как тела JSON-ответов.
package models

import (
	"fmt"
	"time"
)

// Role определяет роль пользователя и набор доступных разделов.
type Role string

// Возможные роли пользователей.
const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleEditor   Role = "editor"
	RoleSupport  Role = "support"
)

var validRoles = []Role{RoleCustomer, RoleAdmin, RoleOperator, RoleEditor, RoleSupport}

// IsValid сообщает, известна ли роль.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsStaff сообщает, относится ли роль к сотрудникам.
func (r Role) IsStaff() bool {
	return r.IsValid() && r != RoleCustomer
}

// ParseRole преобразует строку в Role.
func ParseRole(value string) (Role, error) {
	r := Role(value)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role %q", value)
	}
	return r, nil
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DummyUser используется для приёма данных регистрации из JSON-запроса.
type DummyUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone,omitempty"`
}

// DummyLogin содержит учётные данные для входа.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DummyProfile содержит изменяемые пользователем поля профиля.
type DummyProfile struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone,omitempty"`
}

// Actor пользователь, от имени которого выполняется запрос.
type Actor struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// IsStaff сообщает, действует ли пользователь как сотрудник.
func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

// Owns сообщает, видна ли пользователю запись владельца ownerID.
// Сотрудники видят все записи, клиенты только свои.
func (a Actor) Owns(ownerID string) bool {
	return a.IsStaff() || a.ID == ownerID
}
