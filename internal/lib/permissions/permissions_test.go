package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

func TestProject_ReturnsCopy(t *testing.T) {
	perms := Project(models.RoleSupport)
	perms[0] = "mutated"

	assert.Equal(t, TicketsView, Project(models.RoleSupport)[0])
	assert.Empty(t, Project(models.RoleCustomer))
	assert.ElementsMatch(t, All, Project(models.RoleAdmin))
}

func TestDraft_RoleChangeDiscardsManualToggles(t *testing.T) {
	d := NewDraft(models.InternalUser{
		Role:        models.RoleSupport,
		Permissions: Project(models.RoleSupport),
	})

	d.Toggle(MetricsView)
	d.Toggle(UsersView)
	assert.Contains(t, d.Permissions, MetricsView)
	assert.NotContains(t, d.Permissions, UsersView)

	d.ChangeRole(models.RoleOperator)
	assert.Equal(t, Project(models.RoleOperator), d.Permissions)
	assert.NotContains(t, d.Permissions, MetricsView)
}

func TestDraft_Set(t *testing.T) {
	d := &Draft{Role: models.RoleEditor}
	d.Set([]string{PlansManage, "unknown.perm", PlansManage, MetricsView})

	assert.Equal(t, []string{PlansManage, MetricsView}, d.Permissions)
	assert.Equal(t, models.RoleEditor, d.Role)
}
