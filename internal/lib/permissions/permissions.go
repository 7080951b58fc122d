// Package permissions содержит таблицу прав по ролям сотрудников и
// проекцию роли в набор прав.
package permissions

import (
	"slices"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// Права сотрудников.
const (
	UsersView           = "users.view"
	UsersManage         = "users.manage"
	PlansManage         = "plans.manage"
	ProductsManage      = "products.manage"
	SubscriptionsView   = "subscriptions.view"
	SubscriptionsManage = "subscriptions.manage"
	DeliveriesView      = "deliveries.view"
	DeliveriesManage    = "deliveries.manage"
	DeliveriesDispatch  = "deliveries.dispatch"
	TicketsView         = "tickets.view"
	TicketsManage       = "tickets.manage"
	NotificationsManage = "notifications.manage"
	PickupPointsManage  = "pickup_points.manage"
	ContentManage       = "content.manage"
	MetricsView         = "metrics.view"
)

// All перечисляет все известные права.
var All = []string{
	UsersView, UsersManage,
	PlansManage, ProductsManage,
	SubscriptionsView, SubscriptionsManage,
	DeliveriesView, DeliveriesManage, DeliveriesDispatch,
	TicketsView, TicketsManage,
	NotificationsManage,
	PickupPointsManage,
	ContentManage,
	MetricsView,
}

var rolePermissions = map[models.Role][]string{
	models.RoleAdmin: All,
	models.RoleOperator: {
		DeliveriesView, DeliveriesManage, DeliveriesDispatch,
		SubscriptionsView,
		PickupPointsManage,
	},
	models.RoleEditor: {
		PlansManage, ProductsManage,
		NotificationsManage,
		ContentManage,
	},
	models.RoleSupport: {
		TicketsView, TicketsManage,
		SubscriptionsView,
		DeliveriesView,
		UsersView,
	},
}

// Project возвращает копию набора прав роли. Для клиентов и неизвестных ролей пустой набор.
func Project(role models.Role) []string {
	return slices.Clone(rolePermissions[role])
}

// IsKnown сообщает, существует ли право.
func IsKnown(permission string) bool {
	return slices.Contains(All, permission)
}

// Draft черновик сотрудника в форме редактирования.
// Смена роли полностью заменяет права таблицей роли, ручные отметки теряются.
type Draft struct {
	Role        models.Role
	Permissions []string
}

// NewDraft создаёт черновик из сохранённого сотрудника.
func NewDraft(u models.InternalUser) *Draft {
	return &Draft{Role: u.Role, Permissions: slices.Clone(u.Permissions)}
}

// ChangeRole меняет роль и проецирует права.
func (d *Draft) ChangeRole(role models.Role) {
	d.Role = role
	d.Permissions = Project(role)
}

// Toggle включает или выключает одно право, не трогая роль.
func (d *Draft) Toggle(permission string) {
	if i := slices.Index(d.Permissions, permission); i >= 0 {
		d.Permissions = slices.Delete(d.Permissions, i, i+1)
		return
	}
	d.Permissions = append(d.Permissions, permission)
}

// Set заменяет права набором из формы, отбрасывая неизвестные и повторы.
func (d *Draft) Set(perms []string) {
	result := make([]string, 0, len(perms))
	for _, p := range perms {
		if IsKnown(p) && !slices.Contains(result, p) {
			result = append(result, p)
		}
	}
	d.Permissions = result
}
